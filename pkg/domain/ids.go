package domain

import (
	"github.com/google/uuid"

	dErrors "certo/pkg/domain-errors"
)

// Typed entity IDs. Wrapping uuid.UUID in distinct named types makes cross-entity
// mixups a compile error (a ProcessID cannot be passed where a CandidateID is
// expected) while keeping zero-cost conversion to the underlying UUID.
type (
	UserID        uuid.UUID
	CandidateID   uuid.UUID
	ProcessID     uuid.UUID
	DocumentID    uuid.UUID
	EvaluationID  uuid.UUID
	CertificateID uuid.UUID
	RenewalID     uuid.UUID
	CompetencyID  uuid.UUID
)

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

func ParseCandidateID(s string) (CandidateID, error) {
	u, err := parseUUID(s)
	return CandidateID(u), err
}

func ParseProcessID(s string) (ProcessID, error) {
	u, err := parseUUID(s)
	return ProcessID(u), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s)
	return DocumentID(u), err
}

func ParseCertificateID(s string) (CertificateID, error) {
	u, err := parseUUID(s)
	return CertificateID(u), err
}

func ParseCompetencyID(s string) (CompetencyID, error) {
	u, err := parseUUID(s)
	return CompetencyID(u), err
}

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id CandidateID) String() string   { return uuid.UUID(id).String() }
func (id ProcessID) String() string     { return uuid.UUID(id).String() }
func (id DocumentID) String() string    { return uuid.UUID(id).String() }
func (id EvaluationID) String() string  { return uuid.UUID(id).String() }
func (id CertificateID) String() string { return uuid.UUID(id).String() }
func (id RenewalID) String() string     { return uuid.UUID(id).String() }
func (id CompetencyID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id CandidateID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ProcessID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EvaluationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CertificateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RenewalID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CompetencyID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
