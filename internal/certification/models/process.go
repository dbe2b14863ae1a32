package models

import (
	"time"

	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

// ProcessStage is the position of a certification process in its lifecycle.
type ProcessStage string

const (
	// StageSolicitud: application opened, waiting for the first document.
	StageSolicitud ProcessStage = "solicitud"
	// StageDocumentacion: documents uploaded, under review.
	StageDocumentacion ProcessStage = "documentacion"
	// StageEvaluacion: document set satisfied, evaluation in progress.
	StageEvaluacion ProcessStage = "evaluacion"
	// StageAprobado / StageRechazado: terminal stages. A finished process is
	// never reopened; renewals spawn a successor process instead.
	StageAprobado  ProcessStage = "aprobado"
	StageRechazado ProcessStage = "rechazado"
)

// stageTransitions is the single source of truth for permitted stage moves.
// The regression edges back to solicitud implement the document-rejection
// policy: rejecting any required document forces the process to restart its
// documentation, deliberately, not as an error path.
var stageTransitions = map[ProcessStage][]ProcessStage{
	StageSolicitud:     {StageDocumentacion},
	StageDocumentacion: {StageEvaluacion, StageSolicitud},
	StageEvaluacion:    {StageAprobado, StageRechazado, StageSolicitud},
	StageAprobado:      {},
	StageRechazado:     {},
}

// CanTransitionTo reports whether the stage machine permits s -> next.
func (s ProcessStage) CanTransitionTo(next ProcessStage) bool {
	for _, allowed := range stageTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the stage ends the process.
func (s ProcessStage) Terminal() bool {
	return s == StageAprobado || s == StageRechazado
}

// ProcessResult is the outcome of a finished process.
type ProcessResult string

const (
	ResultApproved ProcessResult = "approved"
	ResultRejected ProcessResult = "rejected"
)

// ParseProcessResult validates a result from external input.
func ParseProcessResult(s string) (ProcessResult, error) {
	switch r := ProcessResult(s); r {
	case ResultApproved, ResultRejected:
		return r, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown result: %q", s)
	}
}

// TerminalStage maps a result to its terminal process stage.
func (r ProcessResult) TerminalStage() ProcessStage {
	if r == ResultApproved {
		return StageAprobado
	}
	return StageRechazado
}

// Process is one certification workflow instance for a candidate.
//
// Invariants:
//   - Stage moves only along stageTransitions; IntegrityViolation otherwise
//   - Result, FinishedAt are set exactly when Stage turns terminal
//   - CertificateID is set at most once, only on an approved process
//   - Exactly one active (non-terminal) process per candidate at a time,
//     enforced by the process store's conditional insert
//   - RenewalOfProcessID links a renewal to its predecessor and is immutable
type Process struct {
	ID                 id.ProcessID   `json:"id"`
	CandidateID        id.CandidateID `json:"candidate_id"`
	Stage              ProcessStage   `json:"stage"`
	Result             *ProcessResult `json:"result,omitempty"`
	EvaluatorID        *id.UserID     `json:"evaluator_id,omitempty"`
	CertificateID      *id.CertificateID `json:"certificate_id,omitempty"`
	RenewalOfProcessID *id.ProcessID  `json:"renewal_of_process_id,omitempty"`
	StartedAt          time.Time      `json:"started_at"`
	FinishedAt         *time.Time     `json:"finished_at,omitempty"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// NewProcess opens a process at the solicitud stage.
func NewProcess(processID id.ProcessID, candidateID id.CandidateID, now time.Time) (*Process, error) {
	if candidateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "process requires a candidate")
	}
	return &Process{
		ID:          processID,
		CandidateID: candidateID,
		Stage:       StageSolicitud,
		StartedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewRenewalProcess opens a successor process linked to a finished one.
// Entry stage depends on the renewal type: full renewals re-enter at
// solicitud, simple and re-evaluation renewals jump straight to evaluacion.
func NewRenewalProcess(processID id.ProcessID, candidateID id.CandidateID, priorProcessID id.ProcessID, entry ProcessStage, now time.Time) (*Process, error) {
	if entry != StageSolicitud && entry != StageEvaluacion {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "renewal cannot enter at stage %s", entry)
	}
	p, err := NewProcess(processID, candidateID, now)
	if err != nil {
		return nil, err
	}
	p.Stage = entry
	p.RenewalOfProcessID = &priorProcessID
	return p, nil
}

// CanAdvanceTo checks the stage machine permits moving to next.
func (p *Process) CanAdvanceTo(next ProcessStage) error {
	if !p.Stage.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "process in stage %s cannot transition to %s", p.Stage, next)
	}
	return nil
}

// ApplyStage moves the process to next. Call CanAdvanceTo first.
func (p *Process) ApplyStage(next ProcessStage, now time.Time) {
	p.Stage = next
	p.UpdatedAt = now
}

// ApplyRegression forces the process back to solicitud after a document
// rejection and clears any evaluator assignment: the restarted documentation
// round re-runs allocation once the set is satisfied again.
func (p *Process) ApplyRegression(now time.Time) {
	p.Stage = StageSolicitud
	p.EvaluatorID = nil
	p.UpdatedAt = now
}

// CanAssignEvaluator checks the process is in evaluation and unassigned.
func (p *Process) CanAssignEvaluator() error {
	if p.Stage != StageEvaluacion {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot assign an evaluator in stage %s", p.Stage)
	}
	if p.EvaluatorID != nil {
		return dErrors.New(dErrors.CodeConflict, "process already has an evaluator assigned")
	}
	return nil
}

// ApplyAssignment records the matched evaluator.
func (p *Process) ApplyAssignment(evaluatorID id.UserID, now time.Time) {
	p.EvaluatorID = &evaluatorID
	p.UpdatedAt = now
}

// ApplyRelease removes the current evaluator ahead of a reassignment.
func (p *Process) ApplyRelease(now time.Time) {
	p.EvaluatorID = nil
	p.UpdatedAt = now
}

// CanFinish checks the process can reach the result's terminal stage.
func (p *Process) CanFinish(result ProcessResult) error {
	return p.CanAdvanceTo(result.TerminalStage())
}

// ApplyFinish moves the process to its terminal stage. Call CanFinish first.
func (p *Process) ApplyFinish(result ProcessResult, now time.Time) {
	p.Stage = result.TerminalStage()
	p.Result = &result
	p.FinishedAt = &now
	p.UpdatedAt = now
}

// CanAttachCertificate enforces the one-certificate-per-process invariant.
func (p *Process) CanAttachCertificate() error {
	if p.CertificateID != nil {
		return dErrors.New(dErrors.CodeConflict, "process already has a certificate")
	}
	return nil
}

// ApplyCertificate links the issued certificate. Call CanAttachCertificate first.
func (p *Process) ApplyCertificate(certificateID id.CertificateID, now time.Time) {
	p.CertificateID = &certificateID
	p.UpdatedAt = now
}

// Active reports whether the process is still in flight.
func (p *Process) Active() bool {
	return !p.Stage.Terminal()
}
