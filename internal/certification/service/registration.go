package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"certo/internal/certification/models"
	"certo/internal/notify"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
	"certo/pkg/requestcontext"
)

// RegisterCandidateRequest carries a candidate registration.
type RegisterCandidateRequest struct {
	OwnerUserID  id.UserID
	CompetencyID id.CompetencyID
	Level        int
	Name         string
}

// RegisterCandidate creates a candidate together with their first
// certification process, opened at the solicitud stage.
func (s *Service) RegisterCandidate(ctx context.Context, req RegisterCandidateRequest) (*models.Candidate, *models.Process, error) {
	ctx, span := s.tracer.Start(ctx, "RegisterCandidate")
	defer span.End()

	level, err := id.ParseLevel(req.Level)
	if err != nil {
		return nil, nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "candidate name is required")
	}

	now := requestcontext.Now(ctx)
	var (
		candidate *models.Candidate
		process   *models.Process
		pending   []notify.Notification
	)
	err = s.tx.RunInTx(ctx, func(store Store) error {
		competency, err := store.FindCompetency(ctx, req.CompetencyID)
		if err != nil {
			return translateStoreErr(err, "competency not found")
		}

		c, err := models.NewCandidate(id.CandidateID(uuid.New()), req.OwnerUserID, competency.ID, level, req.Name, now)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeValidation, err.Error())
			}
			return err
		}
		if err := store.CreateCandidate(ctx, c); err != nil {
			return translateStoreErr(err, "candidate not found")
		}

		p, err := models.NewProcess(id.ProcessID(uuid.New()), c.ID, now)
		if err != nil {
			return err
		}
		if err := store.CreateProcessIfNoneActive(ctx, p); err != nil {
			return translateStoreErr(err, "candidate not found")
		}

		candidate, process = c, p
		pending = append(pending, notify.Notification{
			UserID:   c.OwnerUserID,
			Template: notify.TemplateProcessStarted,
			Params: map[string]any{
				"process_id": p.ID.String(),
				"competency": competency.Name,
				"level":      level.Int(),
			},
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.notifyAll(ctx, pending)
	s.logAudit(ctx, "process_started",
		"candidate_id", candidate.ID,
		"process_id", process.ID,
	)
	if s.metrics != nil {
		s.metrics.ProcessesStarted.Inc()
	}
	return candidate, process, nil
}

// GetCandidate fetches a candidate with their active process, if any.
func (s *Service) GetCandidate(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, *models.Process, error) {
	var (
		candidate *models.Candidate
		process   *models.Process
	)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		c, err := store.FindCandidate(ctx, candidateID)
		if err != nil {
			return translateStoreErr(err, "candidate not found")
		}
		candidate = c
		if p, err := store.FindActiveProcessByCandidate(ctx, candidateID); err == nil {
			process = p
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return candidate, process, nil
}

// GetProcess fetches one process by id.
func (s *Service) GetProcess(ctx context.Context, processID id.ProcessID) (*models.Process, error) {
	var process *models.Process
	err := s.tx.RunInTx(ctx, func(store Store) error {
		p, err := store.FindProcess(ctx, processID)
		if err != nil {
			return translateStoreErr(err, "process not found")
		}
		process = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return process, nil
}

// RegisterCompetency adds a competency standard to the catalog.
func (s *Service) RegisterCompetency(ctx context.Context, competency *models.Competency) error {
	return s.tx.RunInTx(ctx, func(store Store) error {
		if err := store.CreateCompetency(ctx, competency); err != nil {
			if dErrors.HasCode(translateStoreErr(err, ""), dErrors.CodeConflict) {
				return dErrors.New(dErrors.CodeConflict, "competency code must be unique")
			}
			return translateStoreErr(err, "competency not found")
		}
		return nil
	})
}
