package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fmigen/internal/testutil"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	def, err := testutil.OscillatorDefinition()
	require.NoError(t, err)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, def, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalTrace_NonFiniteReal(t *testing.T) {
	data, err := MarshalTrace("nan", []TraceEvent{{
		Seq:    1,
		Call:   CallSetReal,
		Refs:   []uint32{1},
		Values: []any{Real(1.5), realSlice([]float64{0})[0], Real(negInf())},
		Status: "ok",
		State:  "instantiated",
	}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"-Inf"`)
	assert.Contains(t, string(data), "1.5")
	assert.Equal(t, byte('\n'), data[len(data)-1])
}
