package service

import (
	"time"

	"github.com/google/uuid"

	"certo/internal/certification/models"
	"certo/internal/notify"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

func (s *ServiceSuite) TestUploadDocument_FirstRequiredUploadAdvances() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	candidate, process := s.registerCandidate(ctx, competency.ID, "Laura Mena")
	s.Equal(models.StageSolicitud, process.Stage)

	_, process, err := s.service.UploadDocument(ctx, candidate.ID, models.DocumentTypeCURP, "docs/curp.pdf")
	s.Require().NoError(err)
	s.Equal(models.StageDocumentacion, process.Stage)

	// Further uploads leave the stage alone.
	_, process, err = s.service.UploadDocument(ctx, candidate.ID, models.DocumentTypePhoto, "docs/foto.png")
	s.Require().NoError(err)
	s.Equal(models.StageDocumentacion, process.Stage)
}

func (s *ServiceSuite) TestUploadDocument_NonRequiredTypeDoesNotAdvance() {
	ctx := s.ctxAt(time.Now())
	candidate, _ := s.registerCandidate(ctx, s.competency(0).ID, "Laura Mena")

	_, process, err := s.service.UploadDocument(ctx, candidate.ID, models.DocumentTypeRenewalEvidence, "docs/renov.pdf")
	s.Require().NoError(err)
	s.Equal(models.StageSolicitud, process.Stage)
}

func (s *ServiceSuite) TestEvaluateDocuments_ReportsMissingTypes() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	candidate, _ := s.registerCandidate(ctx, competency.ID, "Hugo Paredes")

	gate, err := s.service.EvaluateDocuments(ctx, candidate.ID)
	s.Require().NoError(err)
	s.False(gate.Satisfied)
	s.ElementsMatch(competency.RequiredDocuments(), gate.Missing)

	// A pending upload does not count; only an approved review does.
	document, _, err := s.service.UploadDocument(ctx, candidate.ID, models.DocumentTypeCURP, "docs/curp.pdf")
	s.Require().NoError(err)
	gate, err = s.service.EvaluateDocuments(ctx, candidate.ID)
	s.Require().NoError(err)
	s.Contains(gate.Missing, models.DocumentTypeCURP)

	reviewer := s.ctxAs(ctx, id.UserID(uuid.New()))
	_, _, err = s.service.ReviewDocument(reviewer, document.ID, models.ReviewApprove, "legible")
	s.Require().NoError(err)
	gate, err = s.service.EvaluateDocuments(ctx, candidate.ID)
	s.Require().NoError(err)
	s.NotContains(gate.Missing, models.DocumentTypeCURP)
}

func (s *ServiceSuite) TestReviewDocument_ApprovalSatisfyingGateAdvances() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	candidate, _ := s.registerCandidate(ctx, competency.ID, "Hugo Paredes")

	s.approveAllDocuments(ctx, candidate, competency)

	process, err := s.store.FindActiveProcessByCandidate(ctx, candidate.ID)
	s.Require().NoError(err)
	s.Equal(models.StageEvaluacion, process.Stage)

	updated, err := s.store.FindCandidate(ctx, candidate.ID)
	s.Require().NoError(err)
	s.Equal(models.CandidateStatusInEvaluation, updated.Status)
	s.Len(s.sink.ByTemplate(notify.TemplateDocumentsReceived), 1)
}

func (s *ServiceSuite) TestReviewDocument_RejectionRegressesAndClearsEvaluator() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	candidate, _ := s.registerCandidate(ctx, competency.ID, "Omar Trejo")
	s.approveAllDocuments(ctx, candidate, competency)

	_, err := s.service.AssignEvaluator(ctx, candidate.ID)
	s.Require().NoError(err)

	// A late rejection of an extra document while in evaluacion sends the
	// process back to solicitud and drops the assignment.
	document, _, err := s.service.UploadDocument(ctx, candidate.ID, models.DocumentTypeWorkEvidence, "docs/extra.pdf")
	s.Require().NoError(err)
	reviewer := s.ctxAs(ctx, id.UserID(uuid.New()))
	_, process, err := s.service.ReviewDocument(reviewer, document.ID, models.ReviewReject, "ilegible")
	s.Require().NoError(err)

	s.Equal(models.StageSolicitud, process.Stage)
	s.Nil(process.EvaluatorID)
	s.Len(s.sink.ByTemplate(notify.TemplateDocumentRejected), 1)

	updated, err := s.store.FindCandidate(ctx, candidate.ID)
	s.Require().NoError(err)
	s.Equal(models.CandidateStatusPending, updated.Status)
}

func (s *ServiceSuite) TestReviewDocument_RequiresActor() {
	ctx := s.ctxAt(time.Now())
	candidate, _ := s.registerCandidate(ctx, s.competency(0).ID, "Omar Trejo")
	document, _, err := s.service.UploadDocument(ctx, candidate.ID, models.DocumentTypeCURP, "docs/curp.pdf")
	s.Require().NoError(err)

	_, _, err = s.service.ReviewDocument(ctx, document.ID, models.ReviewApprove, "")
	s.requireCode(err, dErrors.CodeForbidden)
}

func (s *ServiceSuite) TestReviewDocument_AlreadyReviewed() {
	ctx := s.ctxAt(time.Now())
	candidate, _ := s.registerCandidate(ctx, s.competency(0).ID, "Omar Trejo")
	document, _, err := s.service.UploadDocument(ctx, candidate.ID, models.DocumentTypeCURP, "docs/curp.pdf")
	s.Require().NoError(err)

	reviewer := s.ctxAs(ctx, id.UserID(uuid.New()))
	_, _, err = s.service.ReviewDocument(reviewer, document.ID, models.ReviewApprove, "")
	s.Require().NoError(err)
	_, _, err = s.service.ReviewDocument(reviewer, document.ID, models.ReviewReject, "")
	s.requireCode(err, dErrors.CodeInvariantViolation)
}
