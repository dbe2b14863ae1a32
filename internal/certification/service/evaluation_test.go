package service

import (
	"time"

	"github.com/google/uuid"

	"certo/internal/certification/models"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

// setupAssigned drives a candidate to evaluacion with an evaluator bound.
func (s *ServiceSuite) setupAssigned() (candidateID id.CandidateID, processID id.ProcessID, evaluatorID id.UserID) {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	candidate, _ := s.registerCandidate(ctx, competency.ID, "Nadia Soto")
	s.approveAllDocuments(ctx, candidate, competency)

	evaluatorID, err := s.service.AssignEvaluator(ctx, candidate.ID)
	s.Require().NoError(err)
	process, err := s.store.FindActiveProcessByCandidate(ctx, candidate.ID)
	s.Require().NoError(err)
	return candidate.ID, process.ID, evaluatorID
}

func (s *ServiceSuite) TestSubmitEvaluation_RejectionFinishesWithoutCertificate() {
	candidateID, processID, evaluatorID := s.setupAssigned()
	ctx := s.ctxAs(s.ctxAt(time.Now()), evaluatorID)

	evaluation, certificate, err := s.service.SubmitEvaluation(ctx, SubmitEvaluationRequest{
		ProcessID: processID,
		Grade:     5,
		Result:    models.ResultRejected,
	})
	s.Require().NoError(err)
	s.Nil(certificate)
	s.Equal(models.ResultRejected, evaluation.Result)

	process, err := s.store.FindProcess(ctx, processID)
	s.Require().NoError(err)
	s.Equal(models.StageRechazado, process.Stage)
	s.Nil(process.CertificateID)

	candidate, err := s.store.FindCandidate(ctx, candidateID)
	s.Require().NoError(err)
	s.Equal(models.CandidateStatusRejected, candidate.Status)
}

func (s *ServiceSuite) TestSubmitEvaluation_GradeResultMismatchLeavesNoState() {
	_, processID, evaluatorID := s.setupAssigned()
	ctx := s.ctxAs(s.ctxAt(time.Now()), evaluatorID)

	cases := []struct {
		name   string
		grade  int
		result models.ProcessResult
	}{
		{"passing grade with rejected", 8, models.ResultRejected},
		{"failing grade with approved", 6, models.ResultApproved},
		{"threshold grade with rejected", 7, models.ResultRejected},
		{"grade above maximum", 11, models.ResultApproved},
		{"grade below minimum", -1, models.ResultRejected},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, _, err := s.service.SubmitEvaluation(ctx, SubmitEvaluationRequest{
				ProcessID: processID,
				Grade:     tc.grade,
				Result:    tc.result,
			})
			s.requireCode(err, dErrors.CodeValidation)
		})
	}

	// No partial writes: the process is still open in evaluacion and a
	// valid submission still goes through.
	process, err := s.store.FindProcess(ctx, processID)
	s.Require().NoError(err)
	s.Equal(models.StageEvaluacion, process.Stage)
	_, err = s.store.FindEvaluationByProcess(ctx, processID)
	s.Error(err)

	_, _, err = s.service.SubmitEvaluation(ctx, SubmitEvaluationRequest{
		ProcessID: processID,
		Grade:     7,
		Result:    models.ResultApproved,
	})
	s.NoError(err)
}

func (s *ServiceSuite) TestSubmitEvaluation_CriterionScoreOutOfRange() {
	_, processID, evaluatorID := s.setupAssigned()
	ctx := s.ctxAs(s.ctxAt(time.Now()), evaluatorID)

	_, _, err := s.service.SubmitEvaluation(ctx, SubmitEvaluationRequest{
		ProcessID: processID,
		Grade:     8,
		Result:    models.ResultApproved,
		Criteria:  []models.CriterionScore{{CriterionID: "seguridad", Score: 4}},
	})
	s.requireCode(err, dErrors.CodeValidation)
}

func (s *ServiceSuite) TestSubmitEvaluation_OnlyAssignedEvaluator() {
	_, processID, _ := s.setupAssigned()
	intruder := s.ctxAs(s.ctxAt(time.Now()), id.UserID(uuid.New()))

	_, _, err := s.service.SubmitEvaluation(intruder, SubmitEvaluationRequest{
		ProcessID: processID,
		Grade:     8,
		Result:    models.ResultApproved,
	})
	s.requireCode(err, dErrors.CodeForbidden)
}

func (s *ServiceSuite) TestSubmitEvaluation_SecondSubmissionConflicts() {
	_, processID, evaluatorID := s.setupAssigned()
	ctx := s.ctxAs(s.ctxAt(time.Now()), evaluatorID)

	_, _, err := s.service.SubmitEvaluation(ctx, SubmitEvaluationRequest{
		ProcessID: processID,
		Grade:     8,
		Result:    models.ResultApproved,
	})
	s.Require().NoError(err)

	_, _, err = s.service.SubmitEvaluation(ctx, SubmitEvaluationRequest{
		ProcessID: processID,
		Grade:     8,
		Result:    models.ResultApproved,
	})
	s.requireCode(err, dErrors.CodeInvariantViolation)
}

func (s *ServiceSuite) TestSubmitEvaluation_NoEvaluatorAssigned() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	candidate, _ := s.registerCandidate(ctx, competency.ID, "Nadia Soto")
	s.approveAllDocuments(ctx, candidate, competency)
	process, err := s.store.FindActiveProcessByCandidate(ctx, candidate.ID)
	s.Require().NoError(err)

	_, _, err = s.service.SubmitEvaluation(ctx, SubmitEvaluationRequest{
		ProcessID: process.ID,
		Grade:     8,
		Result:    models.ResultApproved,
	})
	s.requireCode(err, dErrors.CodeInvariantViolation)
}
