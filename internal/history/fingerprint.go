package history

import (
	"fmt"
	"regexp"
	"strconv"
)

const priorityPrefix = 30

var fallbackPattern = regexp.MustCompile(`fallback_(\d+)`)

// Generated fingerprints a model-produced recommendation by category,
// placement, and the first 30 runes of its priority rationale.
func Generated(category, placement, priority string) Fingerprint {
	if r := []rune(priority); len(r) > priorityPrefix {
		priority = string(r[:priorityPrefix])
	}
	return Fingerprint(fmt.Sprintf("%s:%s:%s", category, placement, priority))
}

// Fallback fingerprints a catalog selection by its option index.
func Fallback(index int) Fingerprint {
	return Fingerprint(fmt.Sprintf("fallback_%d", index))
}

// FallbackIndex extracts the catalog index from a fallback fingerprint.
func FallbackIndex(fp Fingerprint) (int, bool) {
	m := fallbackPattern.FindStringSubmatch(string(fp))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
