package models

import (
	"strings"
	"time"

	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

// CandidateStatus tracks where the candidate stands in their current process.
// It is mutated only by the process state machine, never by handlers.
type CandidateStatus string

const (
	// CandidateStatusPending: registered, documents not yet satisfied.
	CandidateStatusPending CandidateStatus = "pendiente"
	// CandidateStatusInEvaluation: documents satisfied, evaluation under way.
	CandidateStatusInEvaluation CandidateStatus = "en_evaluacion"
	// CandidateStatusCertified: current process finished approved.
	CandidateStatusCertified CandidateStatus = "certificado"
	// CandidateStatusRejected: current process finished rejected.
	CandidateStatusRejected CandidateStatus = "rechazado"
)

// Candidate is a person pursuing certification in one competency at one level.
//
// Invariants:
//   - Name is non-empty
//   - Level is within the domain range (enforced by domain.ParseLevel)
//   - At most one active process exists per candidate (enforced by the
//     process store's conditional insert, not by this struct)
type Candidate struct {
	ID           id.CandidateID  `json:"id"`
	OwnerUserID  id.UserID       `json:"owner_user_id"`
	CompetencyID id.CompetencyID `json:"competency_id"`
	Level        id.Level        `json:"level"`
	Name         string          `json:"name"`
	Status       CandidateStatus `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewCandidate constructs a Candidate in the pending status.
func NewCandidate(candidateID id.CandidateID, ownerUserID id.UserID, competencyID id.CompetencyID, level id.Level, name string, now time.Time) (*Candidate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate name cannot be empty")
	}
	if ownerUserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate requires an owning user")
	}
	if competencyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate requires a competency")
	}
	if _, err := id.ParseLevel(level.Int()); err != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, err.Error())
	}
	return &Candidate{
		ID:           candidateID,
		OwnerUserID:  ownerUserID,
		CompetencyID: competencyID,
		Level:        level,
		Name:         name,
		Status:       CandidateStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ApplyStatus records a status change driven by the state machine.
func (c *Candidate) ApplyStatus(status CandidateStatus, now time.Time) {
	c.Status = status
	c.UpdatedAt = now
}
