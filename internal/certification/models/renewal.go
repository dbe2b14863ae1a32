package models

import (
	"time"

	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

// RenewalType determines how much of the lifecycle a renewal repeats.
type RenewalType string

const (
	// RenewalSimple: evidence of continued activity attached directly, no
	// fresh allocation; the successor process enters at evaluacion.
	RenewalSimple RenewalType = "simple"
	// RenewalReevaluation: a fresh evaluator match grades the candidate
	// again; the successor process enters at evaluacion.
	RenewalReevaluation RenewalType = "reevaluation"
	// RenewalFull: the successor process re-enters the full document flow at
	// solicitud.
	RenewalFull RenewalType = "full"
)

// ParseRenewalType validates a renewal type from external input.
func ParseRenewalType(s string) (RenewalType, error) {
	switch t := RenewalType(s); t {
	case RenewalSimple, RenewalReevaluation, RenewalFull:
		return t, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown renewal type: %q", s)
	}
}

// EntryStage is the stage the successor process starts at.
func (t RenewalType) EntryStage() ProcessStage {
	if t == RenewalFull {
		return StageSolicitud
	}
	return StageEvaluacion
}

// RenewalStatus is the administrative state of a renewal request.
type RenewalStatus string

const (
	RenewalStatusPending  RenewalStatus = "pending"
	RenewalStatusResolved RenewalStatus = "resolved"
)

// Renewal records one renewal request: the expiring certificate it extends
// and the successor process created for it (1:1).
type Renewal struct {
	ID               id.RenewalID     `json:"id"`
	CertificateID    id.CertificateID `json:"certificate_id"`
	ProcessID        id.ProcessID     `json:"process_id"`
	Type             RenewalType      `json:"type"`
	DeclaredActivity string           `json:"declared_activity,omitempty"`
	Status           RenewalStatus    `json:"status"`
	SubmittedAt      time.Time        `json:"submitted_at"`
}

// NewRenewal constructs a pending Renewal bound to its successor process.
func NewRenewal(renewalID id.RenewalID, certificateID id.CertificateID, processID id.ProcessID, renewalType RenewalType, declaredActivity string, now time.Time) (*Renewal, error) {
	if certificateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "renewal requires a certificate")
	}
	if processID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "renewal requires a successor process")
	}
	if _, err := ParseRenewalType(string(renewalType)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "invalid renewal type")
	}
	return &Renewal{
		ID:               renewalID,
		CertificateID:    certificateID,
		ProcessID:        processID,
		Type:             renewalType,
		DeclaredActivity: declaredActivity,
		Status:           RenewalStatusPending,
		SubmittedAt:      now,
	}, nil
}
