// Package lifecycle implements the step definitions for the certification
// lifecycle features: competency setup, candidate progression, evaluation,
// and public verification.
package lifecycle

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
	"github.com/gofrs/uuid"

	"certo/e2e/driver"
)

type steps struct {
	tc *driver.TestContext
}

// RegisterSteps binds the lifecycle step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *driver.TestContext) {
	s := &steps{tc: tc}

	ctx.Step(`^a competency "([^"]*)" requiring documents "([^"]*)"$`, s.createCompetency)
	ctx.Step(`^an evaluator "([^"]*)" with capacity (\d+) covering it$`, s.createEvaluator)
	ctx.Step(`^a candidate "([^"]*)" registers at level (\d+)$`, s.registerCandidate)
	ctx.Step(`^every required document is uploaded and approved$`, s.uploadAndApproveDocuments)
	ctx.Step(`^an evaluator is assigned$`, s.assignEvaluator)
	ctx.Step(`^the evaluator submits grade (\d+) with result "([^"]*)"$`, s.submitEvaluation)
	ctx.Step(`^the process stage is "([^"]*)"$`, s.checkProcessStage)
	ctx.Step(`^the certificate verifies as "([^"]*)"$`, s.verifyCertificate)
}

func newUUID() string {
	return uuid.Must(uuid.NewV4()).String()
}

func (s *steps) createCompetency(prefix, docs string) error {
	// A random suffix keeps codes unique across runs against the same server.
	code := fmt.Sprintf("%s-%04d", strings.ToUpper(prefix), rand.Intn(10000))
	s.tc.DocumentTypes = strings.Split(docs, ",")

	if err := s.tc.DoJSON(http.MethodPost, "/api/v1/competencies", "", map[string]any{
		"code":                    code,
		"name":                    "E2E " + prefix,
		"required_document_types": s.tc.DocumentTypes,
		"validity_days":           365,
	}); err != nil {
		return err
	}
	if err := s.tc.RequireStatus(http.StatusCreated); err != nil {
		return err
	}
	id, err := s.tc.StringField("id")
	if err != nil {
		return err
	}
	s.tc.CompetencyID = id
	return nil
}

func (s *steps) createEvaluator(name string, capacity int) error {
	s.tc.EvaluatorID = newUUID()
	if err := s.tc.DoJSON(http.MethodPost, "/api/v1/evaluators", "", map[string]any{
		"user_id":          s.tc.EvaluatorID,
		"name":             name,
		"competency_scope": []string{s.tc.CompetencyID},
		"max_concurrent":   capacity,
	}); err != nil {
		return err
	}
	return s.tc.RequireStatus(http.StatusCreated)
}

func (s *steps) registerCandidate(name string, level int) error {
	if err := s.tc.DoJSON(http.MethodPost, "/api/v1/candidates", "", map[string]any{
		"owner_user_id": newUUID(),
		"competency_id": s.tc.CompetencyID,
		"level":         level,
		"name":          name,
	}); err != nil {
		return err
	}
	if err := s.tc.RequireStatus(http.StatusCreated); err != nil {
		return err
	}
	candidateID, err := s.tc.StringField("candidate", "id")
	if err != nil {
		return err
	}
	processID, err := s.tc.StringField("process", "id")
	if err != nil {
		return err
	}
	s.tc.CandidateID = candidateID
	s.tc.ProcessID = processID
	s.tc.ReviewerID = newUUID()
	return nil
}

func (s *steps) uploadAndApproveDocuments() error {
	for _, docType := range s.tc.DocumentTypes {
		if err := s.tc.DoJSON(http.MethodPost, "/api/v1/candidates/"+s.tc.CandidateID+"/documents", "", map[string]any{
			"type":      strings.TrimSpace(docType),
			"store_ref": "e2e/" + docType + ".pdf",
		}); err != nil {
			return err
		}
		if err := s.tc.RequireStatus(http.StatusCreated); err != nil {
			return err
		}
		documentID, err := s.tc.StringField("document", "id")
		if err != nil {
			return err
		}

		if err := s.tc.DoJSON(http.MethodPost, "/api/v1/documents/"+documentID+"/review", s.tc.ReviewerID, map[string]any{
			"decision": "approve",
			"comments": "looks good",
		}); err != nil {
			return err
		}
		if err := s.tc.RequireStatus(http.StatusOK); err != nil {
			return err
		}
	}
	return nil
}

func (s *steps) assignEvaluator() error {
	if err := s.tc.DoJSON(http.MethodPost, "/api/v1/candidates/"+s.tc.CandidateID+"/evaluator", "", nil); err != nil {
		return err
	}
	if err := s.tc.RequireStatus(http.StatusOK); err != nil {
		return err
	}
	assigned, err := s.tc.StringField("evaluator_id")
	if err != nil {
		return err
	}
	if assigned != s.tc.EvaluatorID {
		return fmt.Errorf("expected evaluator %s, got %s", s.tc.EvaluatorID, assigned)
	}
	return nil
}

func (s *steps) submitEvaluation(grade int, result string) error {
	if err := s.tc.DoJSON(http.MethodPost, "/api/v1/processes/"+s.tc.ProcessID+"/evaluation", s.tc.EvaluatorID, map[string]any{
		"grade":  grade,
		"result": result,
		"criteria": []map[string]any{
			{"criterion_id": "technical", "score": 2},
		},
		"comments": "e2e evaluation",
	}); err != nil {
		return err
	}
	if err := s.tc.RequireStatus(http.StatusCreated); err != nil {
		return err
	}
	if result == "approved" {
		folio, err := s.tc.StringField("certificate", "folio")
		if err != nil {
			return err
		}
		hash, err := s.tc.StringField("certificate", "verification_hash")
		if err != nil {
			return err
		}
		s.tc.Folio = folio
		s.tc.Hash = hash
	}
	return nil
}

func (s *steps) checkProcessStage(expected string) error {
	if err := s.tc.DoJSON(http.MethodGet, "/api/v1/processes/"+s.tc.ProcessID, "", nil); err != nil {
		return err
	}
	if err := s.tc.RequireStatus(http.StatusOK); err != nil {
		return err
	}
	stage, err := s.tc.StringField("stage")
	if err != nil {
		return err
	}
	if stage != expected {
		return fmt.Errorf("expected stage %q, got %q", expected, stage)
	}
	return nil
}

func (s *steps) verifyCertificate(expected string) error {
	if err := s.tc.DoJSON(http.MethodGet, "/api/v1/certificates/verify/"+s.tc.Folio+"?hash="+s.tc.Hash, "", nil); err != nil {
		return err
	}
	if err := s.tc.RequireStatus(http.StatusOK); err != nil {
		return err
	}
	status, err := s.tc.StringField("status_message")
	if err != nil {
		return err
	}
	if status != expected {
		return fmt.Errorf("expected verification %q, got %q", expected, status)
	}
	return nil
}
