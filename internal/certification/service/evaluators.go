package service

import (
	"context"

	"certo/internal/certification/models"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
	"certo/pkg/requestcontext"
)

// RegisterEvaluatorRequest enrolls a user as an evaluator.
type RegisterEvaluatorRequest struct {
	UserID          id.UserID
	Name            string
	CompetencyScope []id.CompetencyID
	MaxConcurrent   int
}

// RegisterEvaluator enrolls an evaluator with their competency scope and
// concurrent capacity.
func (s *Service) RegisterEvaluator(ctx context.Context, req RegisterEvaluatorRequest) (*models.Evaluator, error) {
	now := requestcontext.Now(ctx)
	evaluator, err := models.NewEvaluator(req.UserID, req.Name, req.CompetencyScope, req.MaxConcurrent, now)
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(store Store) error {
		for _, competencyID := range req.CompetencyScope {
			if _, err := store.FindCompetency(ctx, competencyID); err != nil {
				return translateStoreErr(err, "competency in scope not found")
			}
		}
		if err := store.CreateEvaluator(ctx, evaluator); err != nil {
			if dErrors.HasCode(translateStoreErr(err, ""), dErrors.CodeConflict) {
				return dErrors.New(dErrors.CodeConflict, "evaluator already registered")
			}
			return translateStoreErr(err, "evaluator not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "evaluator_registered", "evaluator_id", req.UserID)
	return evaluator, nil
}

// SuspendEvaluator removes an evaluator from future allocations. Processes
// already assigned to them stay assigned; use ReassignEvaluator to move
// those.
func (s *Service) SuspendEvaluator(ctx context.Context, userID id.UserID) error {
	now := requestcontext.Now(ctx)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		evaluator, err := store.FindEvaluator(ctx, userID)
		if err != nil {
			return translateStoreErr(err, "evaluator not found")
		}
		if err := evaluator.CanSuspend(); err != nil {
			return err
		}
		evaluator.ApplySuspension(now)
		if err := store.UpdateEvaluator(ctx, evaluator); err != nil {
			return translateStoreErr(err, "evaluator not found")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "evaluator_suspended", "evaluator_id", userID)
	return nil
}

// ReinstateEvaluator returns a suspended evaluator to the allocation pool.
func (s *Service) ReinstateEvaluator(ctx context.Context, userID id.UserID) error {
	now := requestcontext.Now(ctx)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		evaluator, err := store.FindEvaluator(ctx, userID)
		if err != nil {
			return translateStoreErr(err, "evaluator not found")
		}
		if err := evaluator.CanReinstate(); err != nil {
			return err
		}
		evaluator.ApplyReinstatement(now)
		if err := store.UpdateEvaluator(ctx, evaluator); err != nil {
			return translateStoreErr(err, "evaluator not found")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "evaluator_reinstated", "evaluator_id", userID)
	return nil
}

// EvaluatorLoad reports an evaluator's current assignment count next to
// their configured maximum.
type EvaluatorLoad struct {
	Evaluator *models.Evaluator `json:"evaluator"`
	Load      int               `json:"load"`
}

// ListEvaluatorLoads returns every evaluator with their live load, ordered
// by name. Useful for capacity dashboards and allocation debugging.
func (s *Service) ListEvaluatorLoads(ctx context.Context) ([]EvaluatorLoad, error) {
	var loads []EvaluatorLoad
	err := s.tx.RunInTx(ctx, func(store Store) error {
		evaluators, err := store.ListEvaluators(ctx)
		if err != nil {
			return translateStoreErr(err, "")
		}
		loads = make([]EvaluatorLoad, 0, len(evaluators))
		for _, e := range evaluators {
			load, err := store.CountAssignedInEvaluation(ctx, e.UserID)
			if err != nil {
				return translateStoreErr(err, "")
			}
			loads = append(loads, EvaluatorLoad{Evaluator: e, Load: load})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loads, nil
}
