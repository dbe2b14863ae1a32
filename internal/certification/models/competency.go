package models

import (
	"time"

	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

// Competency is a certifiable professional-competency standard.
//
// Invariants:
//   - Code is a valid CompetencyCode (enforced at parse time)
//   - Name is non-empty
//   - RequiredDocumentTypes, when configured, contains only catalog types
//
// A competency that does not configure RequiredDocumentTypes falls back to
// the default document catalog (DefaultDocumentCatalog). The fallback is
// specified behavior, not a hidden default: RequiredDocuments makes the
// resolution explicit so the document gate never reads the raw slice.
type Competency struct {
	ID                    id.CompetencyID     `json:"id"`
	Code                  id.CompetencyCode   `json:"code"`
	Name                  string              `json:"name"`
	RequiredDocumentTypes []DocumentType      `json:"required_document_types,omitempty"`
	CertificateValidity   time.Duration       `json:"certificate_validity,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
}

// NewCompetency constructs a Competency, validating invariants.
func NewCompetency(competencyID id.CompetencyID, code id.CompetencyCode, name string, now time.Time) (*Competency, error) {
	if code.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "competency code is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "competency name is required")
	}
	return &Competency{
		ID:        competencyID,
		Code:      code,
		Name:      name,
		CreatedAt: now,
	}, nil
}

// RequiredDocuments resolves the document types a candidate must have
// approved for this competency, applying the default catalog fallback when
// the competency does not configure its own list.
func (c *Competency) RequiredDocuments() []DocumentType {
	if len(c.RequiredDocumentTypes) > 0 {
		return c.RequiredDocumentTypes
	}
	return DefaultDocumentCatalog()
}

// Expires reports whether certificates for this competency carry an expiry.
func (c *Competency) Expires() bool {
	return c.CertificateValidity > 0
}
