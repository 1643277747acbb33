package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/fmigen/internal/codegen"
	"github.com/roach88/fmigen/internal/compiler"
	"github.com/roach88/fmigen/internal/config"
	"github.com/roach88/fmigen/pkg/description"
	"github.com/roach88/fmigen/pkg/ir"
)

// now stamps ledger entries.
var now = time.Now

// project is a model directory with its configuration.
type project struct {
	dir string
	cfg *config.Config
	log *zap.Logger
	out *OutputFormatter
}

func (o *RootOptions) openProject(cmd *cobra.Command, dir string) (*project, error) {
	out := o.formatter(cmd)
	cfg, err := o.loadConfig(dir)
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeConfig, "loading configuration", err)
	}
	if cfg.Path != "" {
		out.VerboseLog("Using configuration %s", cfg.Path)
	}
	return &project{dir: dir, cfg: cfg, log: o.logger(cmd), out: out}, nil
}

// model loads, selects and validates one model.
func (p *project) model(name string) (*ir.Model, error) {
	res, errs := LoadModels(p.dir, LoadModeFailFast, compiler.WithExperiment(p.cfg.ModelExperiment()))
	if len(errs) > 0 {
		code := ErrCodeGeneric
		var loadErr *LoadError
		if errors.As(errs[0], &loadErr) {
			code = loadErr.Code
		}
		exit := ExitFailure
		if res == nil {
			exit = ExitCommandError
		}
		return nil, p.out.Fail(exit, code, "loading models", errs[0])
	}
	p.out.VerboseLog("Found %d CUE file(s) in %s", res.FileCount, p.dir)

	m, err := res.Model(name)
	if err != nil {
		code := ErrCodeGeneric
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			code = loadErr.Code
		}
		return nil, p.out.Fail(ExitCommandError, code, "selecting model", err)
	}

	if verrs := compiler.Validate(m); len(verrs) > 0 {
		if err := p.out.Error(verrs[0].Code, "model "+m.Name+" is invalid", verrs); err != nil {
			return nil, err
		}
		return nil, WrapExitError(ExitFailure, "model "+m.Name+" is invalid", verrs[0])
	}
	p.log.Debug("model loaded",
		zap.String("model", m.Name),
		zap.String("guid", m.GUID),
		zap.Int("variables", m.Table.Len()))
	return m, nil
}

// resolved reports whether every variable of m has a kind.
func resolved(m *ir.Model) bool {
	for _, v := range m.Table.Variables() {
		if v.Kind == ir.KindUnknown {
			return false
		}
	}
	return true
}

func (p *project) bind(ctx context.Context, m *ir.Model) (*codegen.Binding, error) {
	b, err := codegen.Bind(ctx, p.dir, m)
	if err != nil {
		return nil, p.out.Fail(ExitFailure, ErrCodeBindFailed, "binding model "+m.Name, err)
	}
	return b, nil
}

func (p *project) synthesize(m *ir.Model) (description.Template, error) {
	caps := p.cfg.ModelCapabilities()
	tmpl, err := description.Synthesize(m, description.Options{
		Encoding:     p.cfg.Encoding,
		Capabilities: &caps,
	})
	if err != nil {
		return "", p.out.Fail(ExitCommandError, ErrCodeSynthesis, "synthesizing model description", err)
	}
	return tmpl, nil
}

// generate binds the model and writes the generated glue file.
func (p *project) generate(ctx context.Context, name string) (*codegen.Binding, string, error) {
	m, err := p.model(name)
	if err != nil {
		return nil, "", err
	}
	b, err := p.bind(ctx, m)
	if err != nil {
		return nil, "", err
	}
	tmpl, err := p.synthesize(b.Model)
	if err != nil {
		return nil, "", err
	}
	path, err := codegen.WriteFile(p.dir, b, tmpl)
	if err != nil {
		return nil, "", p.out.Fail(ExitCommandError, ErrCodeWriteFailed, "writing generated code", err)
	}
	p.log.Info("generated", zap.String("model", b.Model.Name), zap.String("file", path))
	return b, path, nil
}
