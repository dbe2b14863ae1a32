package service

import (
	"sync"
	"time"

	"certo/internal/certification/models"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

func (s *ServiceSuite) TestAssignEvaluator_PicksLeastLoaded() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	busy := s.registerEvaluator(ctx, "Ana Robles", 5, competency.ID)
	idle := s.registerEvaluator(ctx, "Zoe Ibarra", 5, competency.ID)

	first, _ := s.registerCandidate(ctx, competency.ID, "Uno")
	s.approveAllDocuments(ctx, first, competency)
	chosen, err := s.service.AssignEvaluator(ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(busy.UserID, chosen, "tie on zero load breaks by name")

	second, _ := s.registerCandidate(ctx, competency.ID, "Dos")
	s.approveAllDocuments(ctx, second, competency)
	chosen, err = s.service.AssignEvaluator(ctx, second.ID)
	s.Require().NoError(err)
	s.Equal(idle.UserID, chosen, "loaded evaluator loses to the idle one")
}

func (s *ServiceSuite) TestAssignEvaluator_SkipsIneligible() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	other := s.competency(1)

	outOfScope := s.registerEvaluator(ctx, "Ana Robles", 5, other.ID)
	suspended := s.registerEvaluator(ctx, "Bruno Casas", 5, competency.ID)
	s.Require().NoError(s.service.SuspendEvaluator(ctx, suspended.UserID))
	eligible := s.registerEvaluator(ctx, "Zoe Ibarra", 5, competency.ID)

	candidate, _ := s.registerCandidate(ctx, competency.ID, "Uno")
	s.approveAllDocuments(ctx, candidate, competency)
	chosen, err := s.service.AssignEvaluator(ctx, candidate.ID)
	s.Require().NoError(err)
	s.Equal(eligible.UserID, chosen)
	s.NotEqual(outOfScope.UserID, chosen)
}

func (s *ServiceSuite) TestAssignEvaluator_NoCapacityFails() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Ana Robles", 1, competency.ID)

	first, _ := s.registerCandidate(ctx, competency.ID, "Uno")
	s.approveAllDocuments(ctx, first, competency)
	_, err := s.service.AssignEvaluator(ctx, first.ID)
	s.Require().NoError(err)

	second, _ := s.registerCandidate(ctx, competency.ID, "Dos")
	s.approveAllDocuments(ctx, second, competency)
	_, err = s.service.AssignEvaluator(ctx, second.ID)
	s.requireCode(err, dErrors.CodeCapacity)
}

func (s *ServiceSuite) TestAssignEvaluator_WrongStage() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Ana Robles", 5, competency.ID)
	candidate, _ := s.registerCandidate(ctx, competency.ID, "Uno")

	_, err := s.service.AssignEvaluator(ctx, candidate.ID)
	s.requireCode(err, dErrors.CodeInvariantViolation)
}

func (s *ServiceSuite) TestAssignEvaluator_AlreadyAssigned() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Ana Robles", 5, competency.ID)
	candidate, _ := s.registerCandidate(ctx, competency.ID, "Uno")
	s.approveAllDocuments(ctx, candidate, competency)

	_, err := s.service.AssignEvaluator(ctx, candidate.ID)
	s.Require().NoError(err)
	_, err = s.service.AssignEvaluator(ctx, candidate.ID)
	s.requireCode(err, dErrors.CodeConflict)
}

// Concurrent assignments against one slot of capacity: exactly one wins,
// the rest see a capacity error, and the evaluator never ends up over their
// maximum.
func (s *ServiceSuite) TestAssignEvaluator_ConcurrentNeverOvercommits() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	evaluator := s.registerEvaluator(ctx, "Ana Robles", 1, competency.ID)

	const contenders = 4
	candidates := make([]id.CandidateID, 0, contenders)
	for range contenders {
		candidate, _ := s.registerCandidate(ctx, competency.ID, "Contender")
		s.approveAllDocuments(ctx, candidate, competency)
		candidates = append(candidates, candidate.ID)
	}

	errs := make(chan error, contenders)
	var wg sync.WaitGroup
	for _, candidateID := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.AssignEvaluator(ctx, candidateID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, capacityErrs int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case dErrors.HasCode(err, dErrors.CodeCapacity):
			capacityErrs++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, wins)
	s.Equal(contenders-1, capacityErrs)

	load, err := s.store.CountAssignedInEvaluation(ctx, evaluator.UserID)
	s.Require().NoError(err)
	s.Equal(1, load)
}

func (s *ServiceSuite) TestReassignEvaluator_ReleasesBeforePicking() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	only := s.registerEvaluator(ctx, "Ana Robles", 1, competency.ID)

	candidate, _ := s.registerCandidate(ctx, competency.ID, "Uno")
	s.approveAllDocuments(ctx, candidate, competency)
	_, err := s.service.AssignEvaluator(ctx, candidate.ID)
	s.Require().NoError(err)

	process, err := s.store.FindActiveProcessByCandidate(ctx, candidate.ID)
	s.Require().NoError(err)

	// With a single evaluator at capacity 1, reassignment only succeeds
	// because the release happens before the fresh pick.
	chosen, err := s.service.ReassignEvaluator(ctx, process.ID)
	s.Require().NoError(err)
	s.Equal(only.UserID, chosen)
}

func (s *ServiceSuite) TestReassignEvaluator_NothingToRelease() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	_, process := s.registerCandidate(ctx, competency.ID, "Uno")

	_, err := s.service.ReassignEvaluator(ctx, process.ID)
	s.requireCode(err, dErrors.CodeInvariantViolation)
	s.Equal(models.StageSolicitud, process.Stage)
}
