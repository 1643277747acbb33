package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fmigen/internal/config"
	"github.com/roach88/fmigen/internal/packager"
	"github.com/roach88/fmigen/internal/store"
	"github.com/roach88/fmigen/pkg/ir"
)

func writeArtifact(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "libsine.so")
	require.NoError(t, os.WriteFile(p, []byte("\x7fELF fake shared object"), 0o755))
	return p
}

func fixedNow(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

type packageResponse struct {
	Status string        `json:"status"`
	Data   PackageResult `json:"data"`
	Error  *CLIError     `json:"error"`
}

func TestPackage_WritesArchive(t *testing.T) {
	stubQuerier(t, packager.Metadata{ModelName: "Sine", Description: []byte(sineDescription)})
	out := t.TempDir()

	stdout, _, err := executeCommand(t, "package", writeArtifact(t), "--out", out, "--platform", "linux64")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Packaged Sine for linux64")
	assert.Contains(t, stdout, "entry:    binaries/linux64/Sine.so")

	_, err = os.Stat(filepath.Join(out, "Sine.fmu"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "Sine", "modelDescription.xml"))
	assert.NoError(t, err)
}

func TestPackage_RecordsLedger(t *testing.T) {
	stubQuerier(t, packager.Metadata{ModelName: "Sine", Description: []byte(sineDescription)})
	fixedNow(t)
	out := t.TempDir()
	db := filepath.Join(t.TempDir(), "ledger.db")
	artifact := writeArtifact(t)

	run := func() packageResponse {
		stdout, _, err := executeCommand(t, "--format", "json", "package", artifact, "--out", out, "--platform", "linux64", "--db", db)
		require.NoError(t, err)
		var resp packageResponse
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
		return resp
	}

	first := run()
	assert.Equal(t, "ok", first.Status)
	assert.Equal(t, int64(1), first.Data.Seq)
	assert.True(t, first.Data.Recorded)
	assert.Equal(t, sineGUID, first.Data.GUID)
	assert.Equal(t, artifact, first.Data.Artifact)

	second := run()
	assert.Equal(t, int64(1), second.Data.Seq)
	assert.False(t, second.Data.Recorded, "same archive is recorded once")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	packages, err := st.ListPackages(context.Background(), "Sine")
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, first.Data.SHA256, packages[0].SHA256)
	assert.Equal(t, ir.GeneratorVersion, packages[0].GeneratorVersion)
	assert.Equal(t, "linux64", packages[0].Platform)
	assert.True(t, packages[0].CreatedAt.Equal(now()))
}

func TestPackage_QueryFailure(t *testing.T) {
	orig := newQuerier
	newQuerier = func() (packager.Querier, error) {
		return packager.QuerierFunc(func(context.Context, string) (*packager.Metadata, error) {
			return nil, errors.New("dlopen failed")
		}), nil
	}
	t.Cleanup(func() { newQuerier = orig })

	stdout, _, err := executeCommand(t, "package", writeArtifact(t), "--out", t.TempDir(), "--platform", "linux64")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E011]")
	assert.Contains(t, stdout, "dlopen failed")
}

func TestPackage_MissingSymbols(t *testing.T) {
	stubQuerier(t, packager.Metadata{
		ModelName:      "Sine",
		Description:    []byte(sineDescription),
		MissingSymbols: []string{"fmi2DoStep"},
	})

	stdout, _, err := executeCommand(t, "--format", "json", "package", writeArtifact(t), "--out", t.TempDir(), "--platform", "linux64")
	require.Error(t, err)

	var resp packageResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodePackageFailed, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "fmi2DoStep")
}

func TestPackage_InvalidPlatform(t *testing.T) {
	stubQuerier(t, packager.Metadata{ModelName: "Sine", Description: []byte(sineDescription)})

	stdout, _, err := executeCommand(t, "package", writeArtifact(t), "--platform", "amiga")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E014]")
}

func TestPackageOptions_Resolve(t *testing.T) {
	cfg := &config.Config{OutDir: "dist", Platform: "win64", DB: "fmus.db"}

	outDir, platform, db, err := (&PackageOptions{}).resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, "dist", outDir)
	assert.Equal(t, "win64", platform.ID)
	assert.Equal(t, "fmus.db", db)

	outDir, platform, db, err = (&PackageOptions{Out: "o", Platform: "linux32", DB: "x.db"}).resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, "o", outDir)
	assert.Equal(t, "linux32", platform.ID)
	assert.Equal(t, "x.db", db)
}
