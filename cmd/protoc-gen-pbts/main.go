// Command protoc-gen-pbts is the protoc plugin form of pbts:
//
//	protoc --pbts_out=naming=kebab,index=true:web/src/gen api/*.proto
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/teranos/pbts/config"
	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/logger"
	"github.com/teranos/pbts/schema"
	"github.com/teranos/pbts/typegen"
	"github.com/teranos/pbts/version"
)

func main() {
	if err := run(context.Background(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "protoc-gen-pbts: %v\n", err)
		os.Exit(1)
	}
}

// run reads a CodeGeneratorRequest from in and writes the response to out.
// Generation problems are reported to protoc through the response; only
// transport failures are returned.
func run(ctx context.Context, in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return errors.Wrap(err, "failed to read request")
	}
	req := &pluginpb.CodeGeneratorRequest{}
	if err := proto.Unmarshal(data, req); err != nil {
		return errors.Wrap(err, "failed to decode request")
	}

	resp := generate(ctx, req)
	encoded, err := proto.Marshal(resp)
	if err != nil {
		return errors.Wrap(err, "failed to encode response")
	}
	if _, err := out.Write(encoded); err != nil {
		return errors.Wrap(err, "failed to write response")
	}
	return nil
}

func generate(ctx context.Context, req *pluginpb.CodeGeneratorRequest) *pluginpb.CodeGeneratorResponse {
	resp := &pluginpb.CodeGeneratorResponse{
		SupportedFeatures: proto.Uint64(uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)),
	}
	fail := func(err error) *pluginpb.CodeGeneratorResponse {
		msg := err.Error()
		for _, hint := range errors.GetAllHints(err) {
			msg += "\nhint: " + hint
		}
		resp.Error = proto.String(msg)
		return resp
	}

	cfg, err := config.FromParameter(req.GetParameter())
	if err != nil {
		return fail(err)
	}
	if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Verbosity); err != nil {
		return fail(err)
	}
	logger.Debugw("Plugin request",
		logger.FieldVersion, version.Get().String(),
		logger.FieldCount, len(req.GetFileToGenerate()))

	if err := checkCompilerVersion(cfg.MinProtocVersion, req.GetCompilerVersion()); err != nil {
		return fail(err)
	}

	g, err := schema.FromCodeGeneratorRequest(req)
	if err != nil {
		return fail(err)
	}
	opts, err := cfg.Options()
	if err != nil {
		return fail(err)
	}
	opts.Files = req.GetFileToGenerate()

	res, err := typegen.Emit(ctx, g, opts)
	if err != nil {
		return fail(err)
	}
	for _, f := range res.Files {
		resp.File = append(resp.File, &pluginpb.CodeGeneratorResponse_File{
			Name:    proto.String(f.Path),
			Content: proto.String(string(f.Content)),
		})
	}
	return resp
}

// checkCompilerVersion enforces the configured protoc version constraint.
// Older compilers do not report a version; those are accepted.
func checkCompilerVersion(constraint string, v *pluginpb.Version) error {
	if constraint == "" || v == nil {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "invalid min_protoc_version %q", constraint)
	}

	raw := fmt.Sprintf("%d.%d.%d", v.GetMajor(), v.GetMinor(), v.GetPatch())
	if v.GetSuffix() != "" {
		raw += "-" + v.GetSuffix()
	}
	compiler, err := semver.NewVersion(raw)
	if err != nil {
		return errors.Wrapf(err, "protoc reported an unreadable version %q", raw)
	}
	if !c.Check(compiler) {
		return errors.WithHint(
			errors.Newf("protoc %s does not satisfy %s", compiler, constraint),
			"upgrade protoc or relax min_protoc_version")
	}
	return nil
}
