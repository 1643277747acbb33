// Package packager assembles a built plugin and its model description into
// an FMU archive.
//
// Layout under the output directory:
//
//	<out>/<model>/modelDescription.xml
//	<out>/<model>/binaries/<platform>/<model>.<ext>
//	<out>/<model>.fmu
//
// The model directory is destroyed and recreated on every run.
package packager

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/roach88/fmigen/pkg/ir"
)

// DescriptionFile is the name of the model description inside an FMU.
const DescriptionFile = "modelDescription.xml"

// DefaultOutDir is where packages are written when no directory is set.
const DefaultOutDir = "target/fmu"

// Packaging errors.
var (
	ErrQueryFailed      = errors.New("plugin query failed")
	ErrInvalidModelName = errors.New("invalid model name")
	ErrEmptyDescription = errors.New("plugin returned an empty model description")
	ErrMissingSymbols   = errors.New("plugin does not export required symbols")
	ErrBadDescription   = errors.New("plugin returned an unusable model description")
)

// Result describes one packaging run.
type Result struct {
	ModelName         string   `json:"model_name"`
	GUID              string   `json:"guid"`
	Platform          string   `json:"platform"`
	Dir               string   `json:"dir"`
	DescriptionPath   string   `json:"description_path"`
	BinaryPath        string   `json:"binary_path"`
	ArchivePath       string   `json:"archive_path"`
	Entries           []string `json:"entries"`
	SHA256            string   `json:"sha256"`
	DescriptionSHA256 string   `json:"description_sha256"`
}

// Packager builds FMU archives.
type Packager struct {
	Querier  Querier
	OutDir   string
	Platform ir.Platform
	Logger   *zap.Logger
	Now      func() time.Time // entry modification times; defaults to time.Now
}

// Package queries the plugin at artifact and writes the FMU. Any failure
// aborts the run; a partially written model directory may remain.
func (p *Packager) Package(ctx context.Context, artifact string) (*Result, error) {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	out := p.OutDir
	if out == "" {
		out = DefaultOutDir
	}

	if _, err := os.Stat(artifact); err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}

	md, err := p.Querier.Query(ctx, artifact)
	if err != nil {
		return nil, err
	}
	if err := checkMetadata(md); err != nil {
		return nil, err
	}
	hdr, err := readHeader(md.Description)
	if err != nil {
		return nil, err
	}
	if hdr.ModelName != md.ModelName {
		return nil, fmt.Errorf("%w: modelName %q, plugin reports %q", ErrBadDescription, hdr.ModelName, md.ModelName)
	}
	log.Debug("queried plugin",
		zap.String("artifact", artifact),
		zap.String("model", md.ModelName),
		zap.Int("description_bytes", len(md.Description)))

	res := &Result{
		ModelName: md.ModelName,
		GUID:      hdr.GUID,
		Platform:  p.Platform.ID,
		Dir:       filepath.Join(out, md.ModelName),
	}

	if err := os.RemoveAll(res.Dir); err != nil {
		return nil, fmt.Errorf("clearing %s: %w", res.Dir, err)
	}
	binDir := filepath.Join(res.Dir, "binaries", p.Platform.ID)
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", binDir, err)
	}

	binaryName := md.ModelName + filepath.Ext(artifact)
	res.BinaryPath = filepath.Join(binDir, binaryName)
	if err := copyFile(artifact, res.BinaryPath); err != nil {
		return nil, err
	}

	res.DescriptionPath = filepath.Join(res.Dir, DescriptionFile)
	if err := os.WriteFile(res.DescriptionPath, md.Description, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", res.DescriptionPath, err)
	}
	sum := sha256.Sum256(md.Description)
	res.DescriptionSHA256 = hex.EncodeToString(sum[:])

	res.ArchivePath = filepath.Join(out, md.ModelName+".fmu")
	entries := []archiveEntry{
		{name: DescriptionFile, path: res.DescriptionPath},
		{name: path.Join("binaries", p.Platform.ID, binaryName), path: res.BinaryPath},
	}
	if res.SHA256, err = writeArchive(res.ArchivePath, entries, now()); err != nil {
		return nil, err
	}
	for _, e := range entries {
		res.Entries = append(res.Entries, e.name)
	}

	log.Info("packaged",
		zap.String("model", res.ModelName),
		zap.String("platform", res.Platform),
		zap.String("archive", res.ArchivePath),
		zap.String("sha256", res.SHA256))
	return res, nil
}

func checkMetadata(md *Metadata) error {
	name := md.ModelName
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidModelName, name)
	}
	if len(md.Description) == 0 {
		return ErrEmptyDescription
	}
	if len(md.MissingSymbols) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSymbols, strings.Join(md.MissingSymbols, ", "))
	}
	return nil
}

// header holds the root attributes of a model description.
type header struct {
	XMLName    xml.Name `xml:"fmiModelDescription"`
	FMIVersion string   `xml:"fmiVersion,attr"`
	ModelName  string   `xml:"modelName,attr"`
	GUID       string   `xml:"guid,attr"`
}

// readHeader decodes the root element of a model description in whatever
// encoding its prolog declares.
func readHeader(doc []byte) (header, error) {
	var h header
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := ianaindex.IANA.Encoding(label)
		if err != nil {
			return nil, err
		}
		if enc == nil {
			return nil, fmt.Errorf("unsupported charset %q", label)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return h, fmt.Errorf("%w: %v", ErrBadDescription, err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			if err := dec.DecodeElement(&h, &start); err != nil {
				return h, fmt.Errorf("%w: %v", ErrBadDescription, err)
			}
			return h, nil
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}

type archiveEntry struct {
	name string // slash-separated name inside the archive
	path string
}

// writeArchive writes entries as uncompressed zip members and returns the
// SHA-256 of the archive.
func writeArchive(dst string, entries []archiveEntry, modified time.Time) (string, error) {
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dst, err)
	}
	defer f.Close()

	h := sha256.New()
	zw := zip.NewWriter(io.MultiWriter(f, h))
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Store,
			Modified: modified,
		})
		if err != nil {
			return "", fmt.Errorf("adding %s: %w", e.name, err)
		}
		data, err := os.ReadFile(e.path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", e.path, err)
		}
		if _, err := w.Write(data); err != nil {
			return "", fmt.Errorf("writing %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", dst, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
