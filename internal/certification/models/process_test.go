package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

type ProcessSuite struct {
	suite.Suite
	now time.Time
}

func (s *ProcessSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func TestProcessSuite(t *testing.T) {
	suite.Run(t, new(ProcessSuite))
}

func (s *ProcessSuite) newProcess() *Process {
	p, err := NewProcess(id.ProcessID(uuid.New()), id.CandidateID(uuid.New()), s.now)
	s.Require().NoError(err)
	return p
}

// TestStageMachine walks the permitted and forbidden transitions.
func (s *ProcessSuite) TestStageMachine() {
	cases := []struct {
		from    ProcessStage
		to      ProcessStage
		allowed bool
	}{
		{StageSolicitud, StageDocumentacion, true},
		{StageSolicitud, StageEvaluacion, false},
		{StageSolicitud, StageAprobado, false},
		{StageDocumentacion, StageEvaluacion, true},
		{StageDocumentacion, StageSolicitud, true},
		{StageDocumentacion, StageAprobado, false},
		{StageEvaluacion, StageAprobado, true},
		{StageEvaluacion, StageRechazado, true},
		{StageEvaluacion, StageSolicitud, true},
		{StageEvaluacion, StageDocumentacion, false},
		{StageAprobado, StageSolicitud, false},
		{StageRechazado, StageSolicitud, false},
	}
	for _, tc := range cases {
		s.Equal(tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func (s *ProcessSuite) TestTerminalStages() {
	s.False(StageSolicitud.Terminal())
	s.False(StageDocumentacion.Terminal())
	s.False(StageEvaluacion.Terminal())
	s.True(StageAprobado.Terminal())
	s.True(StageRechazado.Terminal())
}

// TestFinish verifies result, finish time, and terminal stage are recorded
// together.
func (s *ProcessSuite) TestFinish() {
	p := s.newProcess()
	p.ApplyStage(StageDocumentacion, s.now)
	p.ApplyStage(StageEvaluacion, s.now)

	s.Require().NoError(p.CanFinish(ResultApproved))
	p.ApplyFinish(ResultApproved, s.now)

	s.Equal(StageAprobado, p.Stage)
	s.Require().NotNil(p.Result)
	s.Equal(ResultApproved, *p.Result)
	s.Require().NotNil(p.FinishedAt)
	s.False(p.Active())

	err := p.CanFinish(ResultRejected)
	s.Require().Error(err)
	s.Equal(dErrors.CodeInvariantViolation, dErrors.CodeOf(err))
}

// TestRegression verifies a document rejection clears the evaluator and
// restarts documentation.
func (s *ProcessSuite) TestRegression() {
	p := s.newProcess()
	p.ApplyStage(StageDocumentacion, s.now)
	p.ApplyStage(StageEvaluacion, s.now)
	p.ApplyAssignment(id.UserID(uuid.New()), s.now)

	p.ApplyRegression(s.now)

	s.Equal(StageSolicitud, p.Stage)
	s.Nil(p.EvaluatorID)
}

func (s *ProcessSuite) TestAssignmentGuards() {
	p := s.newProcess()

	err := p.CanAssignEvaluator()
	s.Require().Error(err)
	s.Equal(dErrors.CodeInvariantViolation, dErrors.CodeOf(err))

	p.ApplyStage(StageDocumentacion, s.now)
	p.ApplyStage(StageEvaluacion, s.now)
	s.Require().NoError(p.CanAssignEvaluator())

	p.ApplyAssignment(id.UserID(uuid.New()), s.now)
	err = p.CanAssignEvaluator()
	s.Require().Error(err)
	s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
}

// TestRenewalEntry verifies each renewal type re-enters the lifecycle at its
// prescribed stage.
func (s *ProcessSuite) TestRenewalEntry() {
	s.Equal(StageSolicitud, RenewalFull.EntryStage())
	s.Equal(StageEvaluacion, RenewalSimple.EntryStage())
	s.Equal(StageEvaluacion, RenewalReevaluation.EntryStage())

	prior := s.newProcess()
	p, err := NewRenewalProcess(id.ProcessID(uuid.New()), prior.CandidateID, prior.ID, StageEvaluacion, s.now)
	s.Require().NoError(err)
	s.Equal(StageEvaluacion, p.Stage)
	s.Require().NotNil(p.RenewalOfProcessID)
	s.Equal(prior.ID, *p.RenewalOfProcessID)

	_, err = NewRenewalProcess(id.ProcessID(uuid.New()), prior.CandidateID, prior.ID, StageAprobado, s.now)
	s.Require().Error(err)
	s.Equal(dErrors.CodeInvariantViolation, dErrors.CodeOf(err))
}
