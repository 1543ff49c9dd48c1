package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		override Market
		want     Market
	}{
		{name: "digits infer domestic", code: "7203", want: Domestic},
		{name: "letters infer foreign", code: "AAPL", want: Foreign},
		{name: "mixed infer foreign", code: "BRK-B", want: Foreign},
		{name: "digits with letter infer foreign", code: "7203A", want: Foreign},
		{name: "override wins over digits", code: "7203", override: Foreign, want: Foreign},
		{name: "override wins over letters", code: "AAPL", override: Domestic, want: Domestic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.code, tt.override))
		})
	}
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "7203.T", Qualify("7203", Domestic, ""))
	assert.Equal(t, "7203.TO", Qualify("7203", Domestic, ".TO"))
	assert.Equal(t, "AAPL", Qualify("AAPL", Foreign, ".T"))
	assert.Equal(t, "7203", Qualify("7203", Foreign, ""))
}

func TestParse_Aliases(t *testing.T) {
	for token, want := range map[string]Market{
		"":         Unset,
		"  ":       Unset,
		"domestic": Domestic,
		"TSE":      Domestic,
		" jp ":     Domestic,
		"Foreign":  Foreign,
		"NASDAQ":   Foreign,
		"us":       Foreign,
	} {
		got, err := Parse(token)
		require.NoErrorf(t, err, "token %q", token)
		assert.Equalf(t, want, got, "token %q", token)
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("lse")
	require.Error(t, err)
}

func TestText_RoundTrip(t *testing.T) {
	b, err := Domestic.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "domestic", string(b))

	var m Market
	require.NoError(t, m.UnmarshalText([]byte("foreign")))
	require.Equal(t, Foreign, m)
	require.Error(t, m.UnmarshalText([]byte("mars")))
}
