package taxonomy

import (
	"strings"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

// WeaknessPrefix is the external-facing prefix of CWE identifiers.
const WeaknessPrefix = domain.WeaknessIDPrefix

// AttackPatternPrefix is the external-facing prefix of CAPEC identifiers.
const AttackPatternPrefix = "CAPEC-"

// NormalizeWeaknessID maps a CWE identifier to its canonical form: "CWE-<n>"
// when prefixed is true, the bare number "<n>" otherwise. Identifiers that
// are not numeric CWEs (for example "NVD-CWE-Other") are returned trimmed
// and otherwise untouched.
func NormalizeWeaknessID(id string, prefixed bool) string {
	trimmed := strings.TrimSpace(id)
	bare := trimmed
	if len(bare) > len(WeaknessPrefix) && strings.EqualFold(bare[:len(WeaknessPrefix)], WeaknessPrefix) {
		bare = bare[len(WeaknessPrefix):]
	}
	if !isDigits(bare) {
		return trimmed
	}
	if prefixed {
		return WeaknessPrefix + bare
	}
	return bare
}

// DenormalizeWeaknessID returns the bare index key of a CWE identifier.
func DenormalizeWeaknessID(id string) string {
	return NormalizeWeaknessID(id, false)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
