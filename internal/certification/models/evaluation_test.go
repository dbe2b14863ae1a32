package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

type EvaluationSuite struct {
	suite.Suite
	now time.Time
}

func (s *EvaluationSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func TestEvaluationSuite(t *testing.T) {
	suite.Run(t, new(EvaluationSuite))
}

func (s *EvaluationSuite) build(grade int, result ProcessResult, criteria []CriterionScore) error {
	_, err := NewEvaluation(id.EvaluationID(uuid.New()), id.ProcessID(uuid.New()), id.UserID(uuid.New()), grade, result, criteria, "", s.now)
	return err
}

// TestGradeResultConsistency verifies approved <=> grade at or above the
// threshold, across the boundary.
func (s *EvaluationSuite) TestGradeResultConsistency() {
	cases := []struct {
		name   string
		grade  int
		result ProcessResult
		ok     bool
	}{
		{"minimum rejected", 0, ResultRejected, true},
		{"just below threshold rejected", 6, ResultRejected, true},
		{"threshold approved", 7, ResultApproved, true},
		{"maximum approved", 10, ResultApproved, true},
		{"passing grade cannot reject", 8, ResultRejected, false},
		{"failing grade cannot approve", 6, ResultApproved, false},
		{"threshold cannot reject", 7, ResultRejected, false},
		{"grade above maximum", 11, ResultApproved, false},
		{"negative grade", -1, ResultRejected, false},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			err := s.build(tc.grade, tc.result, nil)
			if tc.ok {
				s.NoError(err)
				return
			}
			s.Require().Error(err)
			s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
		})
	}
}

// TestCriteriaBounds verifies the 0-3 rubric scale and the criterion id
// requirement.
func (s *EvaluationSuite) TestCriteriaBounds() {
	s.Run("scores within bounds pass", func() {
		criteria := []CriterionScore{
			{CriterionID: "technical", Score: 0},
			{CriterionID: "safety", Score: 3},
		}
		s.NoError(s.build(9, ResultApproved, criteria))
	})

	s.Run("score above maximum rejected", func() {
		err := s.build(9, ResultApproved, []CriterionScore{{CriterionID: "technical", Score: 4}})
		s.Require().Error(err)
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	s.Run("negative score rejected", func() {
		err := s.build(9, ResultApproved, []CriterionScore{{CriterionID: "technical", Score: -1}})
		s.Require().Error(err)
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	s.Run("missing criterion id rejected", func() {
		err := s.build(9, ResultApproved, []CriterionScore{{Score: 2}})
		s.Require().Error(err)
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})
}
