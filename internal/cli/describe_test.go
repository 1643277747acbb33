package cli

import (
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type describedModel struct {
	XMLName   xml.Name `xml:"fmiModelDescription"`
	ModelName string   `xml:"modelName,attr"`
	GUID      string   `xml:"guid,attr"`
	Variables []struct {
		Name           string `xml:"name,attr"`
		ValueReference uint32 `xml:"valueReference,attr"`
		Causality      string `xml:"causality,attr"`
	} `xml:"ModelVariables>ScalarVariable"`
}

func TestDescribe_Stdout(t *testing.T) {
	dir := writeModelDir(t, map[string]string{"model.cue": sineCUE})

	stdout, _, err := executeCommand(t, "describe", dir)
	require.NoError(t, err)

	var md describedModel
	require.NoError(t, xml.Unmarshal([]byte(stdout), &md))
	assert.Equal(t, "Sine", md.ModelName)
	assert.Equal(t, sineGUID, md.GUID)
	require.Len(t, md.Variables, 4)
	assert.Equal(t, "frequency", md.Variables[0].Name)
	assert.Equal(t, uint32(0), md.Variables[0].ValueReference)
	assert.Equal(t, "output", md.Variables[2].Causality)
	assert.Contains(t, stdout, `unit="Hz"`)
}

func TestDescribe_OutputFile(t *testing.T) {
	dir := writeModelDir(t, map[string]string{"model.cue": sineCUE})
	out := filepath.Join(t.TempDir(), "modelDescription.xml")

	stdout, _, err := executeCommand(t, "describe", dir, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote model description of Sine")

	doc, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `modelName="Sine"`)
}

func TestDescribe_JSON(t *testing.T) {
	dir := writeModelDir(t, map[string]string{"model.cue": sineCUE})

	stdout, _, err := executeCommand(t, "--format", "json", "describe", dir)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   DescribeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Sine", resp.Data.Model)
	assert.Equal(t, sineGUID, resp.Data.GUID)
	assert.Contains(t, resp.Data.Description, "<fmiModelDescription")
}

func TestDescribe_ConfiguredEncoding(t *testing.T) {
	dir := writeModelDir(t, map[string]string{
		"model.cue":   sineCUE,
		"fmigen.yaml": "encoding: ISO-8859-1\n",
	})

	stdout, _, err := executeCommand(t, "describe", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, `encoding="ISO-8859-1"`)
}

func TestDescribe_UnknownModel(t *testing.T) {
	dir := writeModelDir(t, map[string]string{"model.cue": sineCUE})

	stdout, _, err := executeCommand(t, "describe", dir, "--model", "Cosine")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E005]")
}

func TestDescribe_ResolvesKindsFromGo(t *testing.T) {
	dir := writeGoModelDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.cue"), []byte(`package sine

model: Sine: {
	guid:   "{21d9f232-b090-4c79-933f-33da939b5934}"
	goType: "SineModel"
	variables: {
		frequency: {causality: "parameter", start: 2}
		out:       {field: "Output", causality: "output"}
		enabled:   {causality: "input", start: true}
	}
}
`), 0o644))

	stdout, _, err := executeCommand(t, "describe", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, `<Real start="2"/>`)
	assert.Contains(t, stdout, `<Boolean start="true"/>`)
}
