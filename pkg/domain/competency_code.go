package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// CompetencyCode is the short human-readable code of a competency standard
// (e.g. "ELEC-01"). It is embedded in certificate folios, so validity is
// enforced at parse time rather than at issuance.
//
// Invariant: uppercase letters, digits and hyphens, 2 to 16 characters.
type CompetencyCode string

var competencyCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{1,15}$`)

// ParseCompetencyCode constructs a CompetencyCode from external input.
// Direct casting bypasses validation; use this at trust boundaries.
func ParseCompetencyCode(s string) (CompetencyCode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !competencyCodePattern.MatchString(s) {
		return "", fmt.Errorf("invalid competency code: %q", s)
	}
	return CompetencyCode(s), nil
}

func (c CompetencyCode) String() string {
	return string(c)
}

func (c CompetencyCode) IsNil() bool {
	return c == ""
}
