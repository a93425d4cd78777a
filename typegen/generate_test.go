package typegen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/internal/fixture"
	"github.com/teranos/pbts/schema"
)

func geoFiles() []*descriptorpb.FileDescriptorProto {
	return []*descriptorpb.FileDescriptorProto{
		fixture.File("geo/point.proto", "geo",
			fixture.Msg("Point",
				fixture.Scalar("x", 1, fixture.Int32),
				fixture.Scalar("y", 2, fixture.Int32))),
		fixture.File("geo/line.proto", "geo",
			fixture.Import("geo/point.proto"),
			fixture.Msg("Line",
				fixture.Ref("start", 1, ".geo.Point"),
				fixture.Ref("end", 2, ".geo.Point"))),
		fixture.File("api/shapes.proto", "api.v1",
			fixture.Import("geo/line.proto"),
			fixture.Msg("DrawRequest", fixture.Ref("line", 1, ".geo.Line")),
			fixture.Msg("DrawResponse"),
			fixture.Service("Canvas", fixture.Method("Draw", ".api.v1.DrawRequest", ".api.v1.DrawResponse"))),
	}
}

// brokenGraph holds one file whose import is missing from the set.
func brokenGraph(t *testing.T) *schema.Graph {
	return load(t,
		fixture.File("geo/line.proto", "geo",
			fixture.Import("geo/point.proto"),
			fixture.Msg("Line", fixture.Ref("start", 1, ".geo.Point"))),
		fixture.File("geo/circle.proto", "geo",
			fixture.Msg("Circle", fixture.Scalar("radius", 1, fixture.Double))))
}

func TestEmit(t *testing.T) {
	g := load(t, geoFiles()...)

	res, err := Emit(context.Background(), g, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Failed)
	assert.Equal(t, []string{
		"geo/point.ts",
		"geo/line.ts",
		"api/shapes.ts",
		"index.ts",
		"api/index.ts",
		"api/v1/index.ts",
		"geo/index.ts",
		"reflection.json",
		"_reflection.ts",
	}, res.Paths())

	line, ok := res.File("geo/line.ts")
	require.True(t, ok)
	assert.Equal(t, "geo/line.proto", line.Source)
	assert.Contains(t, string(line.Content), "import * as $point from \"./point\"\n")

	shapes, ok := res.File("api/shapes.ts")
	require.True(t, ok)
	assert.Contains(t, string(shapes.Content), "import * as $line from \"../geo/line\"\n")
	assert.Contains(t, string(shapes.Content), "//Service: .api.v1.Canvas\n")

	index, ok := res.File("geo/index.ts")
	require.True(t, ok)
	assert.Contains(t, string(index.Content), "export * from \"./line\"\nexport * from \"./point\"\n")

	reflection, ok := res.File("reflection.json")
	require.True(t, ok)
	assert.Empty(t, reflection.Source)
	assert.Contains(t, string(reflection.Content), "\"Point\"")
}

func TestEmitDeterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.Parallelism = 4

	first, err := Emit(context.Background(), load(t, geoFiles()...), opts)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Emit(context.Background(), load(t, geoFiles()...), opts)
		require.NoError(t, err)
		assert.Equal(t, first.Files, again.Files)
	}
}

func TestEmitWithoutCompanions(t *testing.T) {
	opts := DefaultOptions()
	opts.EmitIndex = false
	opts.EmitReflection = false

	res, err := Emit(context.Background(), load(t, geoFiles()...), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"geo/point.ts", "geo/line.ts", "api/shapes.ts"}, res.Paths())
}

func TestEmitRejectsIndexCollision(t *testing.T) {
	g := load(t, fixture.File("a/index.proto", "a", fixture.Msg("Thing")))

	res, err := Emit(context.Background(), g, DefaultOptions())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.ErrInvalidSchema))

	opts := DefaultOptions()
	opts.EmitIndex = false
	res, err = Emit(context.Background(), g, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/index.ts", "reflection.json", "_reflection.ts"}, res.Paths())
}

func TestEmitFileFilterKeepsFullReflection(t *testing.T) {
	opts := DefaultOptions()
	opts.Files = []string{"geo/point.proto"}

	res, err := Emit(context.Background(), load(t, geoFiles()...), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"geo/point.ts", "index.ts", "geo/index.ts", "reflection.json", "_reflection.ts"}, res.Paths())

	reflection, _ := res.File("reflection.json")
	assert.Contains(t, string(reflection.Content), "\"Canvas\"", "metadata covers the whole graph")
}

func TestEmitFailedFileDoesNotStopSiblings(t *testing.T) {
	res, err := Emit(context.Background(), brokenGraph(t), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnresolvedReference))

	require.NotNil(t, res)
	assert.Equal(t, []string{"geo/line.proto"}, res.Failed)
	_, ok := res.File("geo/line.ts")
	assert.False(t, ok)
	_, ok = res.File("geo/circle.ts")
	assert.True(t, ok)

	index, ok := res.File("geo/index.ts")
	require.True(t, ok)
	assert.NotContains(t, string(index.Content), "line", "failed files are not exported")
}

func TestEmitFailFast(t *testing.T) {
	opts := DefaultOptions()
	opts.FailFast = true
	opts.Parallelism = 1

	res, err := Emit(context.Background(), brokenGraph(t), opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnresolvedReference))
	require.NotNil(t, res)
	assert.Equal(t, []string{"geo/line.proto"}, res.Failed)
	assert.Empty(t, res.Files)
}

func TestEmitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Emit(ctx, load(t, geoFiles()...), DefaultOptions())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	g := load(t, geoFiles()...)

	res, err := Generate(context.Background(), root, g, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, res.Written, len(res.Files))
	assert.Empty(t, res.Unchanged)

	for _, f := range res.Files {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
		require.NoError(t, err, f.Path)
		assert.Equal(t, string(f.Content), string(data), f.Path)
	}

	again, err := Generate(context.Background(), root, g, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, again.Written)
	assert.Len(t, again.Unchanged, len(again.Files))
}

func TestGenerateReportsFailures(t *testing.T) {
	root := t.TempDir()

	res, err := Generate(context.Background(), root, brokenGraph(t), DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, []string{"geo/line.proto"}, res.Failed)

	_, statErr := os.Stat(filepath.Join(root, "geo", "line.ts"))
	assert.True(t, os.IsNotExist(statErr), "a failed file is never written")
	_, statErr = os.Stat(filepath.Join(root, "geo", "circle.ts"))
	assert.NoError(t, statErr)
}

func TestGenerateWriteFailure(t *testing.T) {
	root := t.TempDir()
	// a regular file where the geo directory should be
	require.NoError(t, os.WriteFile(filepath.Join(root, "geo"), []byte("x"), 0o644))

	res, err := Generate(context.Background(), root, load(t, geoFiles()...), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrWriteFailed))

	assert.Equal(t, []string{"geo/point.proto", "geo/line.proto", "geo/index.ts"}, res.Failed)
	assert.Contains(t, res.Written, "api/shapes.ts")
	assert.Contains(t, res.Written, "_reflection.ts")
	for _, path := range res.Written {
		assert.False(t, strings.HasPrefix(path, "geo/"), path)
	}
}
