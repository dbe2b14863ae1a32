package service

import (
	"context"
	"sort"

	"certo/internal/certification/models"
	"certo/internal/notify"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
	"certo/pkg/requestcontext"
)

// AssignEvaluator picks the least loaded eligible evaluator for a candidate's
// active process and binds them to it. Eligibility means active, available,
// covering the candidate's competency and below their concurrent maximum.
// Ties on load break by evaluator name, then user id, so the pick is
// deterministic for a given store state.
func (s *Service) AssignEvaluator(ctx context.Context, candidateID id.CandidateID) (id.UserID, error) {
	ctx, span := s.tracer.Start(ctx, "AssignEvaluator")
	defer span.End()

	now := requestcontext.Now(ctx)
	var (
		chosen  id.UserID
		process *models.Process
		pending []notify.Notification
	)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		candidate, err := store.FindCandidate(ctx, candidateID)
		if err != nil {
			return translateStoreErr(err, "candidate not found")
		}
		p, err := store.FindActiveProcessByCandidate(ctx, candidateID)
		if err != nil {
			return translateStoreErr(err, "candidate has no active process")
		}
		if err := p.CanAssignEvaluator(); err != nil {
			return err
		}

		evaluator, err := pickEvaluator(ctx, store, candidate.CompetencyID)
		if err != nil {
			return err
		}

		p.ApplyAssignment(evaluator.UserID, now)
		if err := store.UpdateProcess(ctx, p); err != nil {
			return translateStoreErr(err, "process not found")
		}

		chosen, process = evaluator.UserID, p
		pending = append(pending, notify.Notification{
			UserID:   evaluator.UserID,
			Template: notify.TemplateEvaluatorAssigned,
			Params: map[string]any{
				"process_id":   p.ID.String(),
				"candidate_id": candidateID.String(),
			},
		})
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeCapacity) && s.metrics != nil {
			s.metrics.AllocatorExhausted.Inc()
		}
		return id.UserID{}, err
	}

	s.notifyAll(ctx, pending)
	s.logAudit(ctx, "evaluator_assigned",
		"process_id", process.ID,
		"evaluator_id", chosen,
	)
	if s.metrics != nil {
		s.metrics.AllocatorAssigned.Inc()
	}
	return chosen, nil
}

// ReassignEvaluator releases the evaluator currently bound to a process and
// runs a fresh allocation. The release happens first so the outgoing
// evaluator's load no longer counts against them.
func (s *Service) ReassignEvaluator(ctx context.Context, processID id.ProcessID) (id.UserID, error) {
	ctx, span := s.tracer.Start(ctx, "ReassignEvaluator")
	defer span.End()

	now := requestcontext.Now(ctx)
	var (
		chosen   id.UserID
		released id.UserID
		pending  []notify.Notification
	)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		p, err := store.FindProcess(ctx, processID)
		if err != nil {
			return translateStoreErr(err, "process not found")
		}
		if p.Stage != models.StageEvaluacion || p.EvaluatorID == nil {
			return dErrors.New(dErrors.CodeInvariantViolation, "process has no evaluator to release")
		}
		candidate, err := store.FindCandidate(ctx, p.CandidateID)
		if err != nil {
			return translateStoreErr(err, "candidate not found")
		}

		released = *p.EvaluatorID
		p.ApplyRelease(now)
		if err := store.UpdateProcess(ctx, p); err != nil {
			return translateStoreErr(err, "process not found")
		}

		evaluator, err := pickEvaluator(ctx, store, candidate.CompetencyID)
		if err != nil {
			return err
		}
		p.ApplyAssignment(evaluator.UserID, now)
		if err := store.UpdateProcess(ctx, p); err != nil {
			return translateStoreErr(err, "process not found")
		}

		chosen = evaluator.UserID
		pending = append(pending, notify.Notification{
			UserID:   evaluator.UserID,
			Template: notify.TemplateEvaluatorAssigned,
			Params: map[string]any{
				"process_id":   p.ID.String(),
				"candidate_id": p.CandidateID.String(),
			},
		})
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeCapacity) && s.metrics != nil {
			s.metrics.AllocatorExhausted.Inc()
		}
		return id.UserID{}, err
	}

	s.notifyAll(ctx, pending)
	s.logAudit(ctx, "evaluator_reassigned",
		"process_id", processID,
		"released_id", released,
		"evaluator_id", chosen,
	)
	if s.metrics != nil {
		s.metrics.AllocatorAssigned.Inc()
	}
	return chosen, nil
}

type rankedEvaluator struct {
	evaluator *models.Evaluator
	load      int
}

// pickEvaluator ranks eligible evaluators by current load inside the open
// transaction. Reading the load here, after any release in the same
// transaction, is what keeps concurrent assignments from overcommitting an
// evaluator: the surrounding transaction serializes against other writers.
func pickEvaluator(ctx context.Context, store Store, competencyID id.CompetencyID) (*models.Evaluator, error) {
	evaluators, err := store.ListEvaluators(ctx)
	if err != nil {
		return nil, translateStoreErr(err, "")
	}

	ranked := make([]rankedEvaluator, 0, len(evaluators))
	for _, e := range evaluators {
		if !e.Eligible(competencyID) {
			continue
		}
		load, err := store.CountAssignedInEvaluation(ctx, e.UserID)
		if err != nil {
			return nil, translateStoreErr(err, "")
		}
		if load >= e.MaxConcurrent {
			continue
		}
		ranked = append(ranked, rankedEvaluator{evaluator: e, load: load})
	}
	if len(ranked) == 0 {
		return nil, dErrors.New(dErrors.CodeCapacity, "no eligible evaluator with free capacity")
	}

	// ListEvaluators returns name order; a stable sort on load keeps the
	// name tie-break without re-sorting.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].load < ranked[j].load })
	return ranked[0].evaluator, nil
}
