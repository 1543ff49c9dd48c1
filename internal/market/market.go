package market

import (
	"fmt"
	"strings"

	"stockinfo/internal/codes"
)

// Market is the exchange category a code trades on.
type Market int

const (
	// Unset means no market was chosen; Resolve infers one from the code.
	Unset Market = iota
	Domestic
	Foreign
)

// DefaultDomesticSuffix is appended to domestic codes to build a provider ticker.
const DefaultDomesticSuffix = ".T"

func (m Market) String() string {
	switch m {
	case Domestic:
		return "domestic"
	case Foreign:
		return "foreign"
	default:
		return ""
	}
}

func (m Market) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Market) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// aliasMap normalizes the spellings accepted for an override.
var aliasMap = map[string]Market{
	"domestic": Domestic,
	"jp":       Domestic,
	"jpx":      Domestic,
	"tse":      Domestic,
	"t":        Domestic,
	"tokyo":    Domestic,
	"foreign":  Foreign,
	"us":       Foreign,
	"nyse":     Foreign,
	"nasdaq":   Foreign,
}

// Parse maps an override token to a Market. Case and surrounding spaces are
// ignored; an empty token yields Unset.
func Parse(token string) (Market, error) {
	s := strings.ToLower(strings.TrimSpace(token))
	if s == "" {
		return Unset, nil
	}
	if m, ok := aliasMap[s]; ok {
		return m, nil
	}
	return Unset, fmt.Errorf("unknown market %q (want domestic or foreign)", token)
}

// Resolve returns override when set, otherwise infers from the code:
// all digits is Domestic, anything else Foreign.
func Resolve(code string, override Market) Market {
	if override != Unset {
		return override
	}
	if codes.IsDigits(code) {
		return Domestic
	}
	return Foreign
}

// Qualify builds the provider ticker for code on m.
// Domestic codes get suffix (DefaultDomesticSuffix when empty); foreign codes are used bare.
func Qualify(code string, m Market, suffix string) string {
	if m != Domestic {
		return code
	}
	if suffix == "" {
		suffix = DefaultDomesticSuffix
	}
	return code + suffix
}
