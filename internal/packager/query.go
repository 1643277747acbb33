package packager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Metadata is what a built plugin reports about itself.
type Metadata struct {
	ModelName      string   `json:"model_name"`
	Description    []byte   `json:"description"`
	MissingSymbols []string `json:"missing_symbols,omitempty"`
}

// Querier reads the metadata of a built plugin.
type Querier interface {
	Query(ctx context.Context, artifact string) (*Metadata, error)
}

// QuerierFunc adapts a function to the Querier interface.
type QuerierFunc func(ctx context.Context, artifact string) (*Metadata, error)

// Query calls f.
func (f QuerierFunc) Query(ctx context.Context, artifact string) (*Metadata, error) {
	return f(ctx, artifact)
}

// ExecQuerier runs "<Command> <Args...> query <artifact>" and decodes the
// JSON document it prints. The plugin is loaded in the child process only.
type ExecQuerier struct {
	Command string   // defaults to the running executable
	Args    []string // inserted before the query subcommand
	Env     []string // appended to the inherited environment
}

// Query implements Querier.
func (q ExecQuerier) Query(ctx context.Context, artifact string) (*Metadata, error) {
	command := q.Command
	if command == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locating fmigen executable: %w", err)
		}
		command = exe
	}

	args := append(append([]string(nil), q.Args...), "query", artifact)
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = append(os.Environ(), q.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrQueryFailed, msg)
	}

	var md Metadata
	if err := json.Unmarshal(stdout.Bytes(), &md); err != nil {
		return nil, fmt.Errorf("%w: decoding query output: %v", ErrQueryFailed, err)
	}
	return &md, nil
}
