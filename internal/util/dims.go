package util

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// ValidateDims checks that every dimension a quota scope is keyed on is
// present in the request dimensions.
func ValidateDims(scopeDims []string, inputDims map[string]string) error {
	for _, dim := range scopeDims {
		if _, ok := inputDims[dim]; !ok {
			return fmt.Errorf("missing required dimension: %s", dim)
		}
	}
	return nil
}

// ExtractDims returns the values of scopeDims in declaration order.
// Missing dimensions yield an empty string.
func ExtractDims(scopeDims []string, inputDims map[string]string) []string {
	res := make([]string, 0, len(scopeDims))
	for _, dim := range scopeDims {
		res = append(res, inputDims[dim])
	}
	return res
}

// HashDims derives a compact bucket key from the scope dimensions.
// An empty dimension list yields "" (one bucket shared by every caller).
func HashDims(scopeDims []string, inputDims map[string]string) (string, error) {
	if len(scopeDims) == 0 {
		return "", nil
	}
	if err := ValidateDims(scopeDims, inputDims); err != nil {
		return "", err
	}
	parts := ExtractDims(scopeDims, inputDims)
	return FNV64(strings.Join(parts, "\x1f")), nil
}

// FNV64 returns the FNV-1a 64-bit hash of s as 16 hex characters.
func FNV64(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%016x", h.Sum64())
}
