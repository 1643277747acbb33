package cli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fmigen/internal/packager"
)

const sineGUID = "{21d9f232-b090-4c79-933f-33da939b5934}"

// sineCUE declares every kind, so the model can be described without
// binding it to Go code.
const sineCUE = `package sine

model: Sine: {
	description: "Sine wave generator"
	guid:        "{21d9f232-b090-4c79-933f-33da939b5934}"
	goType:      "SineModel"
	variables: {
		frequency: {causality: "parameter", vr: 0, kind: "real", start: 2, unit: "Hz"}
		amplitude: {causality: "parameter", kind: "real", start: 1}
		out:       {field: "Output", causality: "output", kind: "real"}
		enabled:   {causality: "input", kind: "boolean", start: true}
	}
}
`

const sineGo = `package main

import "math"

type SineModel struct {
	Frequency float64
	Amplitude float64
	Output    float64
	Enabled   bool
}

func (s *SineModel) DoStep(t, h float64) error {
	if s.Enabled {
		s.Output = s.Amplitude * math.Sin(2*math.Pi*s.Frequency*(t+h))
	}
	return nil
}
`

// writeModelDir creates a model directory with the given files.
func writeModelDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// writeGoModelDir creates a buildable model package with its own module.
func writeGoModelDir(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not available")
	}
	return writeModelDir(t, map[string]string{
		"go.mod":     "module example.com/sine\n\ngo 1.21\n",
		"model.cue":  sineCUE,
		"model.go":   sineGo,
		"fmigen.yml": "out_dir: target/fmu\n",
	})
}

// executeCommand runs the root command with args and returns stdout,
// stderr and the command error.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// stubQuerier makes package and build read md instead of loading the
// artifact.
func stubQuerier(t *testing.T, md packager.Metadata) {
	t.Helper()
	orig := newQuerier
	newQuerier = func() (packager.Querier, error) {
		return packager.QuerierFunc(func(ctx context.Context, artifact string) (*packager.Metadata, error) {
			out := md
			return &out, nil
		}), nil
	}
	t.Cleanup(func() { newQuerier = orig })
}

const sineDescription = `<?xml version="1.0" encoding="UTF-8"?>
<fmiModelDescription fmiVersion="2.0" modelName="Sine" guid="{21d9f232-b090-4c79-933f-33da939b5934}"/>
`
