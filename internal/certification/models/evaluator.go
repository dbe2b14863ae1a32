package models

import (
	"strings"
	"time"

	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

// EvaluatorStatus is the administrative state of an evaluator.
type EvaluatorStatus string

const (
	EvaluatorStatusActive    EvaluatorStatus = "active"
	EvaluatorStatusSuspended EvaluatorStatus = "suspended"
)

// Evaluator is a user qualified to grade candidates in a set of competencies.
//
// Invariants:
//   - MaxConcurrent >= 1
//   - CompetencyScope is non-empty
//   - currentLoad <= MaxConcurrent after every assignment; the load itself is
//     derived state (count of evaluacion-stage processes assigned to this
//     evaluator) and lives in the process store, never in this struct
type Evaluator struct {
	UserID          id.UserID         `json:"user_id"`
	Name            string            `json:"name"`
	CompetencyScope []id.CompetencyID `json:"competency_scope"`
	MaxConcurrent   int               `json:"max_concurrent"`
	Available       bool              `json:"available"`
	Status          EvaluatorStatus   `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewEvaluator constructs an active, available Evaluator.
func NewEvaluator(userID id.UserID, name string, scope []id.CompetencyID, maxConcurrent int, now time.Time) (*Evaluator, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evaluator name cannot be empty")
	}
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evaluator requires a user")
	}
	if len(scope) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evaluator requires a competency scope")
	}
	if maxConcurrent < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evaluator capacity must be at least 1")
	}
	return &Evaluator{
		UserID:          userID,
		Name:            name,
		CompetencyScope: scope,
		MaxConcurrent:   maxConcurrent,
		Available:       true,
		Status:          EvaluatorStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Eligible reports whether this evaluator may take candidates of the given
// competency at all; capacity is checked separately against committed load.
func (e *Evaluator) Eligible(competencyID id.CompetencyID) bool {
	if e.Status != EvaluatorStatusActive || !e.Available {
		return false
	}
	return e.Covers(competencyID)
}

// Covers reports whether the competency is inside this evaluator's scope.
func (e *Evaluator) Covers(competencyID id.CompetencyID) bool {
	for _, c := range e.CompetencyScope {
		if c == competencyID {
			return true
		}
	}
	return false
}

// CanSuspend checks the evaluator is currently active.
func (e *Evaluator) CanSuspend() error {
	if e.Status == EvaluatorStatusSuspended {
		return dErrors.New(dErrors.CodeInvariantViolation, "evaluator is already suspended")
	}
	return nil
}

// ApplySuspension takes the evaluator out of the assignment pool. In-flight
// assignments stay with them; only new matches are affected.
func (e *Evaluator) ApplySuspension(now time.Time) {
	e.Status = EvaluatorStatusSuspended
	e.UpdatedAt = now
}

// CanReinstate checks the evaluator is currently suspended.
func (e *Evaluator) CanReinstate() error {
	if e.Status == EvaluatorStatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "evaluator is already active")
	}
	return nil
}

// ApplyReinstatement returns the evaluator to the assignment pool.
func (e *Evaluator) ApplyReinstatement(now time.Time) {
	e.Status = EvaluatorStatusActive
	e.UpdatedAt = now
}
