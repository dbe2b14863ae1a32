package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"certo/internal/certification/models"
	"certo/internal/notify"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
	"certo/pkg/platform/sentinel"
	"certo/pkg/requestcontext"
)

// InitiateRenewalRequest asks for a successor process for an expiring or
// expired certificate. DeclaredActivity is the holder's statement of
// continued professional activity; simple renewals require it.
type InitiateRenewalRequest struct {
	CertificateID    id.CertificateID
	Type             models.RenewalType
	DeclaredActivity string
}

// InitiateRenewal opens the successor process for a certificate. Simple and
// re-evaluation renewals enter at evaluacion; full renewals restart at
// solicitud. A simple renewal carries the original evaluator onto the
// successor (they vouch for the declared activity, no fresh allocation) and
// notifies them, as long as they are still eligible with free capacity;
// otherwise the successor stays unassigned and the allocator takes over.
// Re-evaluation renewals always go through a fresh allocation.
// Administrators are notified of every renewal.
func (s *Service) InitiateRenewal(ctx context.Context, req InitiateRenewalRequest) (*models.Renewal, *models.Process, error) {
	ctx, span := s.tracer.Start(ctx, "InitiateRenewal")
	defer span.End()

	if req.Type == models.RenewalSimple && req.DeclaredActivity == "" {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "simple renewal requires declared activity")
	}

	now := requestcontext.Now(ctx)
	var (
		renewal *models.Renewal
		process *models.Process
		pending []notify.Notification
	)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		cert, err := store.FindCertificate(ctx, req.CertificateID)
		if err != nil {
			return translateStoreErr(err, "certificate not found")
		}
		prior, err := store.FindProcess(ctx, cert.ProcessID)
		if err != nil {
			return translateStoreErr(err, "process not found")
		}
		candidate, err := store.FindCandidate(ctx, prior.CandidateID)
		if err != nil {
			return translateStoreErr(err, "candidate not found")
		}

		entry := req.Type.EntryStage()
		p, err := models.NewRenewalProcess(id.ProcessID(uuid.New()), candidate.ID, prior.ID, entry, now)
		if err != nil {
			return err
		}
		if req.Type == models.RenewalSimple && prior.EvaluatorID != nil {
			if err := carryEvaluator(ctx, store, p, *prior.EvaluatorID, candidate.CompetencyID, now); err != nil {
				return err
			}
		}
		if err := store.CreateProcessIfNoneActive(ctx, p); err != nil {
			if dErrors.HasCode(translateStoreErr(err, ""), dErrors.CodeConflict) {
				return dErrors.New(dErrors.CodeConflict, "candidate already has an active process")
			}
			return translateStoreErr(err, "candidate not found")
		}

		r, err := models.NewRenewal(id.RenewalID(uuid.New()), cert.ID, p.ID, req.Type, req.DeclaredActivity, now)
		if err != nil {
			return err
		}
		if err := store.CreateRenewal(ctx, r); err != nil {
			return translateStoreErr(err, "renewal not found")
		}

		status := models.CandidateStatusPending
		if entry == models.StageEvaluacion {
			status = models.CandidateStatusInEvaluation
		}
		candidate.ApplyStatus(status, now)
		if err := store.UpdateCandidate(ctx, candidate); err != nil {
			return translateStoreErr(err, "candidate not found")
		}

		renewal, process = r, p
		params := map[string]any{
			"renewal_id":   r.ID.String(),
			"process_id":   p.ID.String(),
			"folio":        cert.Folio,
			"renewal_type": string(req.Type),
		}
		for _, admin := range s.admins {
			pending = append(pending, notify.Notification{
				UserID:   admin,
				Template: notify.TemplateRenewalStarted,
				Params:   params,
			})
		}
		if p.EvaluatorID != nil {
			pending = append(pending, notify.Notification{
				UserID:   *p.EvaluatorID,
				Template: notify.TemplateRenewalStarted,
				Params:   params,
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.notifyAll(ctx, pending)
	s.logAudit(ctx, "renewal_initiated",
		"renewal_id", renewal.ID,
		"certificate_id", req.CertificateID,
		"renewal_type", req.Type,
	)
	if s.metrics != nil {
		s.metrics.ProcessesStarted.Inc()
	}
	s.recordTransition(process.Stage)
	return renewal, process, nil
}

// carryEvaluator binds the original process's evaluator to the successor of a
// simple renewal. The evaluator must still cover the competency and have a
// free slot against committed load; when either fails the successor is left
// unassigned for the allocator.
func carryEvaluator(ctx context.Context, store Store, p *models.Process, evaluatorID id.UserID, competencyID id.CompetencyID, now time.Time) error {
	evaluator, err := store.FindEvaluator(ctx, evaluatorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return translateStoreErr(err, "")
	}
	if !evaluator.Eligible(competencyID) {
		return nil
	}
	load, err := store.CountAssignedInEvaluation(ctx, evaluator.UserID)
	if err != nil {
		return translateStoreErr(err, "")
	}
	if load >= evaluator.MaxConcurrent {
		return nil
	}
	p.ApplyAssignment(evaluator.UserID, now)
	return nil
}
