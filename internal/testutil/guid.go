package testutil

// DefaultGUID is returned by a FixedGUIDGenerator created with an empty GUID.
const DefaultGUID = "{00000000-0000-0000-0000-000000000000}"

// FixedGUIDGenerator returns the same model GUID every time.
//
// Compiling the same model with the same generator produces byte-identical
// model descriptions, which keeps golden files stable.
//
// Thread-safety: FixedGUIDGenerator is stateless and safe for concurrent use.
type FixedGUIDGenerator struct {
	guid string
}

// NewFixedGUIDGenerator creates a generator that always returns guid.
//
// If guid is empty, Generate() returns DefaultGUID.
func NewFixedGUIDGenerator(guid string) *FixedGUIDGenerator {
	if guid == "" {
		guid = DefaultGUID
	}
	return &FixedGUIDGenerator{guid: guid}
}

// Generate returns the fixed GUID.
//
// Implements compiler.GUIDGenerator.
func (g *FixedGUIDGenerator) Generate() string {
	return g.guid
}
