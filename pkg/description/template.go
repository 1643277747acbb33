package description

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/roach88/fmigen/pkg/ir"
)

// Template is a model description with start-value placeholders.
//
// A placeholder is the attribute ` start="{{<vr>}}"`. Attribute values taken
// from user text are escaped, so a literal quote can never appear inside one
// and user text cannot forge a placeholder.
type Template string

var (
	placeholderRe = regexp.MustCompile(` start="\{\{(\d+)\}\}"`)
	prologRe      = regexp.MustCompile(`^<\?xml version="1\.0" encoding="([^"]+)"\?>`)
)

func placeholder(vr ir.ValueReference) string {
	return "{{" + strconv.FormatUint(uint64(vr), 10) + "}}"
}

// Values maps value references to start values.
type Values map[ir.ValueReference]ir.Value

// Resolve substitutes every placeholder. A reference missing from values
// loses its start attribute.
func (t Template) Resolve(values Values) string {
	return placeholderRe.ReplaceAllStringFunc(string(t), func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		n, err := strconv.ParseUint(sub[1], 10, 32)
		if err != nil {
			return ""
		}
		v, ok := values[ir.ValueReference(n)]
		if !ok {
			return ""
		}
		return ` start="` + v.String() + `"`
	})
}

// Encoding returns the charset declared in the prolog.
func (t Template) Encoding() string {
	if m := prologRe.FindStringSubmatch(string(t)); m != nil {
		return m[1]
	}
	return "UTF-8"
}

// Render resolves the template and encodes it in the declared charset.
func (t Template) Render(values Values) ([]byte, error) {
	doc := t.Resolve(values)
	enc, err := lookupEncoding(t.Encoding())
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().String(doc)
	if err != nil {
		return nil, fmt.Errorf("encode model description as %s: %w", t.Encoding(), err)
	}
	return []byte(out), nil
}

// Static returns the start values declared in the model itself.
func Static(m *ir.Model) Values {
	values := make(Values)
	for _, v := range m.Table.Variables() {
		if v.Start != nil && v.Causality.HasStart() {
			values[v.ValueReference] = *v.Start
		}
	}
	return values
}

// ErrNotASCIICompatible rejects encodings such as UTF-16 whose documents
// contain NUL bytes or a byte order mark. Hosts and the packager read the
// description as a NUL-terminated C string.
var ErrNotASCIICompatible = errors.New("encoding is not ASCII-compatible")

// asciiSample is every byte a document can contain outside user text.
var asciiSample = func() []byte {
	b := []byte("\t\n\r")
	for c := byte(0x20); c < 0x7f; c++ {
		b = append(b, c)
	}
	return b
}()

// CheckEncoding reports whether name is an IANA charset a model description
// can be written in: known to x/text and encoding ASCII as itself.
func CheckEncoding(name string) error {
	_, err := lookupEncoding(name)
	return err
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}
	out, err := enc.NewEncoder().Bytes(asciiSample)
	if err != nil || !bytes.Equal(out, asciiSample) {
		return nil, fmt.Errorf("encoding %q: %w", name, ErrNotASCIICompatible)
	}
	return enc, nil
}
