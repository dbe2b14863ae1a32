package models

import (
	"time"

	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

// Grade bounds and the approval threshold. A result of approved is valid
// exactly when the grade reaches ApprovalThreshold.
const (
	MinGrade          = 0
	MaxGrade          = 10
	ApprovalThreshold = 7

	MinCriterionScore = 0
	MaxCriterionScore = 3
)

// CriterionScore is one per-criterion score on the 0-3 rubric scale. Scores
// are stored for audit; the overall grade is the authoritative input to the
// approval rule.
type CriterionScore struct {
	CriterionID string `json:"criterion_id"`
	Score       int    `json:"score"`
}

// Evaluation is the finalized grading record of one process.
//
// Invariants:
//   - Grade is within [MinGrade, MaxGrade]
//   - Result = approved <=> Grade >= ApprovalThreshold
//   - Criterion scores are within [MinCriterionScore, MaxCriterionScore]
//   - Exactly one evaluation per process; re-evaluation requires a renewal
//     process, never a second evaluation on the same process
type Evaluation struct {
	ID             id.EvaluationID  `json:"id"`
	ProcessID      id.ProcessID     `json:"process_id"`
	EvaluatorID    id.UserID        `json:"evaluator_id"`
	Grade          int              `json:"grade"`
	Result         ProcessResult    `json:"result"`
	Comments       string           `json:"comments,omitempty"`
	CriteriaScores []CriterionScore `json:"criteria_scores,omitempty"`
	SubmittedAt    time.Time        `json:"submitted_at"`
}

// NewEvaluation constructs an Evaluation, enforcing the grade bounds and the
// grade/result consistency rule before anything is persisted.
func NewEvaluation(evaluationID id.EvaluationID, processID id.ProcessID, evaluatorID id.UserID, grade int, result ProcessResult, criteria []CriterionScore, comments string, now time.Time) (*Evaluation, error) {
	if grade < MinGrade || grade > MaxGrade {
		return nil, dErrors.Newf(dErrors.CodeValidation, "grade must be between %d and %d, got %d", MinGrade, MaxGrade, grade)
	}
	if err := checkGradeResult(grade, result); err != nil {
		return nil, err
	}
	for _, cs := range criteria {
		if cs.CriterionID == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "criterion id is required")
		}
		if cs.Score < MinCriterionScore || cs.Score > MaxCriterionScore {
			return nil, dErrors.Newf(dErrors.CodeValidation, "criterion %s score must be between %d and %d, got %d",
				cs.CriterionID, MinCriterionScore, MaxCriterionScore, cs.Score)
		}
	}
	return &Evaluation{
		ID:             evaluationID,
		ProcessID:      processID,
		EvaluatorID:    evaluatorID,
		Grade:          grade,
		Result:         result,
		Comments:       comments,
		CriteriaScores: criteria,
		SubmittedAt:    now,
	}, nil
}

// checkGradeResult enforces result = approved <=> grade >= threshold.
func checkGradeResult(grade int, result ProcessResult) error {
	approved := grade >= ApprovalThreshold
	if approved && result != ResultApproved {
		return dErrors.Newf(dErrors.CodeValidation, "grade %d requires result %s", grade, ResultApproved)
	}
	if !approved && result != ResultRejected {
		return dErrors.Newf(dErrors.CodeValidation, "grade %d requires result %s", grade, ResultRejected)
	}
	return nil
}
