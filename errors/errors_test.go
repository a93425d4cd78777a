package errors

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	original := New("original")
	wrapped := Wrapf(original, "loading %s", "set.pb")

	assert.Contains(t, wrapped.Error(), "loading set.pb")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithStack(nil))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.Nil(t, Join(nil, nil))
}

func TestHints(t *testing.T) {
	err := WithHint(New("no files"), "run protoc with --include_imports")

	hints := GetAllHints(Wrap(err, "generate"))
	require.Len(t, hints, 1)
	assert.Equal(t, "run protoc with --include_imports", hints[0])
}

func TestUnresolvedReference(t *testing.T) {
	err := NewUnresolvedReference(".pkg.Line.from", ".pkg.Point")

	assert.True(t, IsUnresolvedReference(err))
	assert.True(t, Is(err, ErrUnresolvedReference))
	assert.Equal(t, ".pkg.Line.from references unknown type .pkg.Point", err.Error())

	var ref *UnresolvedReference
	require.True(t, As(Wrap(err, "emit line.proto"), &ref))
	assert.Equal(t, ".pkg.Line.from", ref.Referrer)
	assert.Equal(t, ".pkg.Point", ref.Target)
}

func TestIsUnresolvedReference_Unrelated(t *testing.T) {
	assert.False(t, IsUnresolvedReference(nil))
	assert.False(t, IsUnresolvedReference(New("other")))
	assert.False(t, IsUnresolvedReference(ErrAliasExhausted))
}

func TestWrapWriteFailed(t *testing.T) {
	err := WrapWriteFailed(os.ErrPermission, "out/a.ts")

	assert.True(t, Is(err, ErrWriteFailed))
	assert.True(t, Is(err, os.ErrPermission))
	assert.Contains(t, err.Error(), "out/a.ts")
}

func TestJoinKeepsEveryError(t *testing.T) {
	first := NewUnresolvedReference(".a.A.b", ".a.Missing")
	second := WrapWriteFailed(New("disk full"), "b.ts")

	joined := Join(first, second)
	require.Error(t, joined)
	assert.True(t, Is(joined, ErrUnresolvedReference))
	assert.True(t, Is(joined, ErrWriteFailed))
	assert.Contains(t, joined.Error(), "disk full")
}

func TestStackTrace(t *testing.T) {
	err := NewUnresolvedReference("a", "b")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func ExampleWithHint() {
	err := New("descriptor set is empty")
	err = WithHint(err, "pass the output of protoc -o")

	hints := GetAllHints(err)
	fmt.Println(hints[0])
	// Output: pass the output of protoc -o
}
