package service

import (
	"context"

	"github.com/google/uuid"

	"certo/internal/certification/models"
	"certo/internal/notify"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
	"certo/pkg/requestcontext"
)

// SubmitEvaluationRequest carries an evaluator's verdict on a process.
type SubmitEvaluationRequest struct {
	ProcessID id.ProcessID
	Grade     int
	Result    models.ProcessResult
	Criteria  []models.CriterionScore
	Comments  string
}

// SubmitEvaluation records the evaluation, finishes the process at the
// matching terminal stage and, on approval, issues the certificate. All of
// that happens in one transaction: a validation failure leaves no partial
// state behind.
func (s *Service) SubmitEvaluation(ctx context.Context, req SubmitEvaluationRequest) (*models.Evaluation, *models.Certificate, error) {
	ctx, span := s.tracer.Start(ctx, "SubmitEvaluation")
	defer span.End()

	now := requestcontext.Now(ctx)
	actorID := requestcontext.ActorID(ctx)
	var (
		evaluation  *models.Evaluation
		certificate *models.Certificate
		pending     []notify.Notification
	)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		process, err := store.FindProcess(ctx, req.ProcessID)
		if err != nil {
			return translateStoreErr(err, "process not found")
		}
		if process.EvaluatorID == nil {
			return dErrors.New(dErrors.CodeInvariantViolation, "process has no evaluator assigned")
		}
		if !actorID.IsNil() && actorID != *process.EvaluatorID {
			return dErrors.New(dErrors.CodeForbidden, "only the assigned evaluator may submit")
		}
		if err := process.CanFinish(req.Result); err != nil {
			return err
		}

		e, err := models.NewEvaluation(id.EvaluationID(uuid.New()), process.ID, *process.EvaluatorID, req.Grade, req.Result, req.Criteria, req.Comments, now)
		if err != nil {
			return err
		}
		if err := store.CreateEvaluation(ctx, e); err != nil {
			if dErrors.HasCode(translateStoreErr(err, ""), dErrors.CodeConflict) {
				return dErrors.New(dErrors.CodeConflict, "process already has an evaluation")
			}
			return translateStoreErr(err, "process not found")
		}

		candidate, err := store.FindCandidate(ctx, process.CandidateID)
		if err != nil {
			return translateStoreErr(err, "candidate not found")
		}

		if req.Result == models.ResultApproved {
			competency, err := store.FindCompetency(ctx, candidate.CompetencyID)
			if err != nil {
				return translateStoreErr(err, "competency not found")
			}
			cert, certNotes, err := issueCertificate(ctx, store, process, candidate, competency, *process.EvaluatorID, now)
			if err != nil {
				return err
			}
			certificate = cert
			pending = append(pending, certNotes...)
			candidate.ApplyStatus(models.CandidateStatusCertified, now)
		} else {
			candidate.ApplyStatus(models.CandidateStatusRejected, now)
		}

		process.ApplyFinish(req.Result, now)
		if err := store.UpdateProcess(ctx, process); err != nil {
			return translateStoreErr(err, "process not found")
		}
		if err := store.UpdateCandidate(ctx, candidate); err != nil {
			return translateStoreErr(err, "candidate not found")
		}

		evaluation = e
		pending = append(pending, notify.Notification{
			UserID:   candidate.OwnerUserID,
			Template: notify.TemplateProcessFinished,
			Params: map[string]any{
				"process_id": process.ID.String(),
				"result":     string(req.Result),
				"grade":      req.Grade,
			},
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.notifyAll(ctx, pending)
	s.logAudit(ctx, "evaluation_submitted",
		"process_id", req.ProcessID,
		"result", req.Result,
		"grade", req.Grade,
	)
	s.recordTransition(req.Result.TerminalStage())
	if s.metrics != nil {
		s.metrics.EvaluationsSubmitted.WithLabelValues(string(req.Result)).Inc()
		if certificate != nil {
			s.metrics.CertificatesIssued.Inc()
		}
	}
	return evaluation, certificate, nil
}

// GetEvaluation returns the evaluation recorded for a process.
func (s *Service) GetEvaluation(ctx context.Context, processID id.ProcessID) (*models.Evaluation, error) {
	var evaluation *models.Evaluation
	err := s.tx.RunInTx(ctx, func(store Store) error {
		e, err := store.FindEvaluationByProcess(ctx, processID)
		if err != nil {
			return translateStoreErr(err, "evaluation not found")
		}
		evaluation = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return evaluation, nil
}
