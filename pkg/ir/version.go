package ir

// Version constants for generated artifacts.
const (
	// FMIVersion is the FMI standard version implemented by generated plugins.
	FMIVersion = "2.0"

	// GeneratorVersion is the fmigen version recorded in generationTool.
	GeneratorVersion = "0.1.0"

	// GeneratorName is the tool name recorded in generationTool.
	GeneratorName = "fmigen"
)

// GenerationTool returns the generationTool attribute value.
func GenerationTool() string {
	return GeneratorName + " " + GeneratorVersion
}
