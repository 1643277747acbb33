package packager

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/fmigen/internal/testutil"
	"github.com/roach88/fmigen/pkg/ir"
)

const sineDescription = `<?xml version="1.0" encoding="UTF-8"?>
<fmiModelDescription fmiVersion="2.0" modelName="Sine" guid="{21d9f232-b090-4c79-933f-33da939b5934}"/>
`

var linux64 = ir.Platform{ID: "linux64", Extension: "so"}

func fixedQuerier(md Metadata) Querier {
	return QuerierFunc(func(ctx context.Context, artifact string) (*Metadata, error) {
		out := md
		return &out, nil
	})
}

// writeArtifact creates a fake built library.
func writeArtifact(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("\x7fELF fake shared object"), 0o755))
	return p
}

func newPackager(t *testing.T, q Querier) *Packager {
	t.Helper()
	return &Packager{
		Querier:  q,
		OutDir:   filepath.Join(t.TempDir(), "target", "fmu"),
		Platform: linux64,
		Now:      testutil.NewDeterministicClock().Now,
	}
}

func readZip(t *testing.T, path string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	files := make(map[string][]byte)
	for _, f := range zr.File {
		assert.Equal(t, zip.Store, f.Method, "%s must be stored", f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = data
	}
	return files
}

func TestPackage_Layout(t *testing.T) {
	artifact := writeArtifact(t, "libsine.so")
	p := newPackager(t, fixedQuerier(Metadata{ModelName: "Sine", Description: []byte(sineDescription)}))

	res, err := p.Package(context.Background(), artifact)
	require.NoError(t, err)

	assert.Equal(t, "Sine", res.ModelName)
	assert.Equal(t, "{21d9f232-b090-4c79-933f-33da939b5934}", res.GUID)
	assert.Equal(t, filepath.Join(p.OutDir, "Sine"), res.Dir)
	assert.Equal(t, filepath.Join(p.OutDir, "Sine", "binaries", "linux64", "Sine.so"), res.BinaryPath)
	assert.Equal(t, filepath.Join(p.OutDir, "Sine", "modelDescription.xml"), res.DescriptionPath)
	assert.Equal(t, filepath.Join(p.OutDir, "Sine.fmu"), res.ArchivePath)
	assert.Equal(t, []string{"modelDescription.xml", "binaries/linux64/Sine.so"}, res.Entries)

	doc, err := os.ReadFile(res.DescriptionPath)
	require.NoError(t, err)
	assert.Equal(t, sineDescription, string(doc))

	bin, err := os.ReadFile(res.BinaryPath)
	require.NoError(t, err)
	orig, err := os.ReadFile(artifact)
	require.NoError(t, err)
	assert.Equal(t, orig, bin)
}

func TestPackage_ArchiveContents(t *testing.T) {
	artifact := writeArtifact(t, "libsine.so")
	p := newPackager(t, fixedQuerier(Metadata{ModelName: "Sine", Description: []byte(sineDescription)}))

	res, err := p.Package(context.Background(), artifact)
	require.NoError(t, err)

	files := readZip(t, res.ArchivePath)
	require.Len(t, files, 2)
	assert.Equal(t, sineDescription, string(files["modelDescription.xml"]))
	assert.Equal(t, "\x7fELF fake shared object", string(files["binaries/linux64/Sine.so"]))

	data, err := os.ReadFile(res.ArchivePath)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), res.SHA256)

	descSum := sha256.Sum256([]byte(sineDescription))
	assert.Equal(t, hex.EncodeToString(descSum[:]), res.DescriptionSHA256)
}

func TestPackage_Deterministic(t *testing.T) {
	artifact := writeArtifact(t, "libsine.so")
	q := fixedQuerier(Metadata{ModelName: "Sine", Description: []byte(sineDescription)})

	first, err := newPackager(t, q).Package(context.Background(), artifact)
	require.NoError(t, err)
	second, err := newPackager(t, q).Package(context.Background(), artifact)
	require.NoError(t, err)

	assert.Equal(t, first.SHA256, second.SHA256)
}

func TestPackage_RecreatesModelDirectory(t *testing.T) {
	artifact := writeArtifact(t, "libsine.so")
	p := newPackager(t, fixedQuerier(Metadata{ModelName: "Sine", Description: []byte(sineDescription)}))

	stale := filepath.Join(p.OutDir, "Sine", "binaries", "darwin64", "Sine.dylib")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err := p.Package(context.Background(), artifact)
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale platform directory removed")
}

func TestPackage_KeepsArtifactExtension(t *testing.T) {
	artifact := writeArtifact(t, "sine.dylib")
	p := newPackager(t, fixedQuerier(Metadata{ModelName: "Sine", Description: []byte(sineDescription)}))
	p.Platform = ir.Platform{ID: "darwin64", Extension: "dylib"}

	res, err := p.Package(context.Background(), artifact)
	require.NoError(t, err)
	assert.Equal(t, []string{"modelDescription.xml", "binaries/darwin64/Sine.dylib"}, res.Entries)
}

func TestPackage_Failures(t *testing.T) {
	queryErr := errors.New("boom")

	tests := []struct {
		name string
		q    Querier
		want error
	}{
		{"query error", QuerierFunc(func(context.Context, string) (*Metadata, error) { return nil, queryErr }), queryErr},
		{"traversal name", fixedQuerier(Metadata{ModelName: "../evil", Description: []byte("x")}), ErrInvalidModelName},
		{"empty name", fixedQuerier(Metadata{Description: []byte("x")}), ErrInvalidModelName},
		{"empty description", fixedQuerier(Metadata{ModelName: "Sine"}), ErrEmptyDescription},
		{"missing symbols", fixedQuerier(Metadata{ModelName: "Sine", Description: []byte("x"), MissingSymbols: []string{"fmi2DoStep"}}), ErrMissingSymbols},
		{"not xml", fixedQuerier(Metadata{ModelName: "Sine", Description: []byte("x")}), ErrBadDescription},
		{"wrong root", fixedQuerier(Metadata{ModelName: "Sine", Description: []byte(`<fmiModelDescriptions modelName="Sine"/>`)}), ErrBadDescription},
		{"name mismatch", fixedQuerier(Metadata{ModelName: "Sine", Description: []byte(`<fmiModelDescription modelName="Cosine"/>`)}), ErrBadDescription},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPackager(t, tt.q)
			_, err := p.Package(context.Background(), writeArtifact(t, "libsine.so"))
			assert.ErrorIs(t, err, tt.want)

			_, statErr := os.Stat(p.OutDir)
			assert.True(t, os.IsNotExist(statErr), "nothing written on failure")
		})
	}
}

func TestPackage_DeclaredEncoding(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<fmiModelDescription modelName=\"Sine\" guid=\"{g}\" description=\"caf\xe9\"/>\n"
	p := newPackager(t, fixedQuerier(Metadata{ModelName: "Sine", Description: []byte(doc)}))

	res, err := p.Package(context.Background(), writeArtifact(t, "libsine.so"))
	require.NoError(t, err)
	assert.Equal(t, "{g}", res.GUID)
}

func TestPackage_MissingArtifact(t *testing.T) {
	p := newPackager(t, fixedQuerier(Metadata{ModelName: "Sine", Description: []byte(sineDescription)}))
	_, err := p.Package(context.Background(), filepath.Join(t.TempDir(), "missing.so"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPackage_Logs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := newPackager(t, fixedQuerier(Metadata{ModelName: "Sine", Description: []byte(sineDescription)}))
	p.Logger = zap.New(core)

	res, err := p.Package(context.Background(), writeArtifact(t, "libsine.so"))
	require.NoError(t, err)

	packaged := logs.FilterMessage("packaged").All()
	require.Len(t, packaged, 1)
	assert.Equal(t, res.SHA256, packaged[0].ContextMap()["sha256"])
}
