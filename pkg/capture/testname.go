package capture

import (
	"strings"
	"unicode"
)

// Canonical test names (spec.md §6, GLOSSARY).
const (
	TestStandAndSit   = "stand-and-sit"
	TestFingerTapping = "finger-tapping"
	TestFistOpenClose = "fist-open-close"
)

// testNameAliases maps every input spelling this module has been asked to
// accept to its canonical form. Grounded on
// original_source/backend/patient_manager.py's _TEST_NAME_ALIASES table,
// carried in full rather than trimmed to spec.md's illustrative subset.
var testNameAliases = map[string]string{
	TestStandAndSit:            TestStandAndSit,
	"stand-sit":                TestStandAndSit,
	"stand-to-sit":             TestStandAndSit,
	"stand-and-sit-assessment": TestStandAndSit,
	"stand-and-sit-test":       TestStandAndSit,
	"stand-and-sit-evaluation": TestStandAndSit,

	TestFingerTapping:            TestFingerTapping,
	"finger-taping":               TestFingerTapping,
	"finger-tapping-test":         TestFingerTapping,
	"finger-tapping-assessment":   TestFingerTapping,
	"finger-tap":                  TestFingerTapping,

	TestFistOpenClose:            TestFistOpenClose,
	"fist-open-close-test":       TestFistOpenClose,
	"fist-open-close-assessment": TestFistOpenClose,
	"palm-open":                  TestFistOpenClose,
}

// NormalizeTestName canonicalizes a caller-supplied test name: lowercase,
// collapse whitespace/underscore to '-', map '&' to "and", collapse
// repeated hyphens, then consult the alias table. Unknown inputs pass
// through unchanged (spec.md §6).
func NormalizeTestName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if canon, ok := testNameAliases[s]; ok {
		return canon
	}
	return s
}
