// Package build compiles a model package into a shared library with
// "go build -buildmode=c-shared".
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/fmigen/pkg/ir"
)

// ErrBuildFailed wraps a failing go build.
var ErrBuildFailed = errors.New("go build failed")

// Request describes one build.
type Request struct {
	Dir      string // model package directory
	OutDir   string // directory receiving the library
	Name     string // library base name, usually the model name
	Platform ir.Platform
}

// Runner executes a command in dir and returns its combined output.
type Runner func(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)

// Exec runs commands with os/exec.
func Exec(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	return cmd.CombinedOutput()
}

// target is the GOOS/GOARCH pair a platform is built for.
type target struct{ goos, goarch string }

var targets = map[string]target{
	"linux64":  {"linux", "amd64"},
	"linux32":  {"linux", "386"},
	"darwin64": {"darwin", "arm64"},
	"win64":    {"windows", "amd64"},
	"win32":    {"windows", "386"},
}

// GoBuilder builds with the go command.
type GoBuilder struct {
	Go     string // go binary; defaults to "go"
	Run    Runner // defaults to Exec
	Logger *zap.Logger
}

// Build compiles req.Dir and returns the path of the library. Builds for
// a platform other than the host's set GOOS and GOARCH, which needs a C
// cross compiler in CC.
func (b *GoBuilder) Build(ctx context.Context, req Request) (string, error) {
	goBin := b.Go
	if goBin == "" {
		goBin = "go"
	}
	run := b.Run
	if run == nil {
		run = Exec
	}
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", req.OutDir, err)
	}
	out, err := filepath.Abs(filepath.Join(req.OutDir, req.Name+"."+req.Platform.Extension))
	if err != nil {
		return "", err
	}

	env := []string{"CGO_ENABLED=1"}
	if host, err := ir.HostPlatform(); err != nil || host.ID != req.Platform.ID {
		t, ok := targets[req.Platform.ID]
		if !ok {
			return "", fmt.Errorf("no Go target for platform %q", req.Platform.ID)
		}
		env = append(env, "GOOS="+t.goos, "GOARCH="+t.goarch)
	}

	args := []string{"build", "-buildmode=c-shared", "-o", out, "."}
	log.Debug("building plugin",
		zap.String("dir", req.Dir),
		zap.Strings("env", env),
		zap.String("cmd", goBin+" "+strings.Join(args, " ")))

	output, err := run(ctx, req.Dir, env, goBin, args...)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %s", ErrBuildFailed, strings.TrimSpace(string(output)), err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("%w: %s not produced", ErrBuildFailed, out)
	}

	// c-shared also writes a C header next to the library; hosts do not use it.
	_ = os.Remove(strings.TrimSuffix(out, filepath.Ext(out)) + ".h")

	log.Info("built plugin", zap.String("artifact", out))
	return out, nil
}
