package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	assert.Equal(t, "20", RealValue(20).String())
	assert.Equal(t, "0.0001", RealValue(0.0001).String())
	assert.Equal(t, "-3", IntegerValue(-3).String())
	assert.Equal(t, "true", BooleanValue(true).String())
}

func TestValueConvert(t *testing.T) {
	v, err := NumberValue(4).Convert(KindInteger)
	require.NoError(t, err)
	assert.Equal(t, IntegerValue(4), v)

	v, err = NumberValue(2.5).Convert(KindReal)
	require.NoError(t, err)
	assert.Equal(t, RealValue(2.5), v)

	v, err = IntegerValue(7).Convert(KindReal)
	require.NoError(t, err)
	assert.Equal(t, RealValue(7), v)

	_, err = NumberValue(2.5).Convert(KindInteger)
	assert.Error(t, err)

	_, err = NumberValue(1e12).Convert(KindInteger)
	assert.Error(t, err)

	_, err = BooleanValue(true).Convert(KindReal)
	assert.Error(t, err)

	_, err = NumberValue(1).Convert(KindBoolean)
	assert.Error(t, err)
}

func TestParseKindAndCausality(t *testing.T) {
	k, err := ParseKind("Real")
	require.NoError(t, err)
	assert.Equal(t, KindReal, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, k)

	_, err = ParseKind("string")
	assert.Error(t, err)

	c, err := ParseCausality("Parameter")
	require.NoError(t, err)
	assert.Equal(t, CausalityParameter, c)

	c, err = ParseCausality("")
	require.NoError(t, err)
	assert.Equal(t, CausalityIgnore, c)

	_, err = ParseCausality("local")
	assert.Error(t, err)
}

func TestKindJSON(t *testing.T) {
	data, err := json.Marshal(Variable{Name: "x", Kind: KindInteger, Causality: CausalityOutput, ValueReference: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","kind":"Integer","causality":"output","value_reference":3}`, string(data))
}

func TestPlatformFor(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         Platform
	}{
		{"linux", "amd64", Platform{ID: "linux64", Extension: "so"}},
		{"linux", "386", Platform{ID: "linux32", Extension: "so"}},
		{"darwin", "arm64", Platform{ID: "darwin64", Extension: "dylib"}},
		{"windows", "amd64", Platform{ID: "win64", Extension: "dll"}},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := PlatformFor(tt.goos, tt.goarch)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PlatformFor("plan9", "amd64")
	assert.Error(t, err)
	_, err = ParsePlatform("amiga")
	assert.Error(t, err)
}
