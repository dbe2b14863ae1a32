package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"certo/internal/certification/models"
	"certo/internal/certification/store"
	"certo/internal/notify"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
	"certo/pkg/requestcontext"
)

// ServiceSuite exercises the engine against the in-memory store. The store
// behaves like the postgres one for every uniqueness and conditional-insert
// rule, so the suite covers the full transition semantics without a database.
type ServiceSuite struct {
	suite.Suite

	store        *store.InMemoryStore
	sink         *notify.MemorySink
	service      *Service
	adminID      id.UserID
	competencies []*models.Competency
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.sink = notify.NewMemorySink()
	s.adminID = id.UserID(uuid.New())
	s.service = New(NewMemoryTx(s.store),
		WithNotifier(s.sink),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAdmins([]id.UserID{s.adminID}),
	)
	s.competencies = store.SeedCompetencies(context.Background(), s.store)
	s.Require().NotEmpty(s.competencies)
}

// competency returns the seeded competency at index i.
func (s *ServiceSuite) competency(i int) *models.Competency {
	s.Require().Less(i, len(s.competencies))
	return s.competencies[i]
}

// ctxAt pins the request clock so assertions on timestamps and expiry are
// deterministic.
func (s *ServiceSuite) ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *ServiceSuite) ctxAs(ctx context.Context, actorID id.UserID) context.Context {
	return requestcontext.WithActorID(ctx, actorID)
}

func (s *ServiceSuite) requireCode(err error, code dErrors.Code) {
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected code %s, got %v", code, err)
}

// registerCandidate creates a candidate at level 3 on the given competency.
func (s *ServiceSuite) registerCandidate(ctx context.Context, competencyID id.CompetencyID, name string) (*models.Candidate, *models.Process) {
	candidate, process, err := s.service.RegisterCandidate(ctx, RegisterCandidateRequest{
		OwnerUserID:  id.UserID(uuid.New()),
		CompetencyID: competencyID,
		Level:        3,
		Name:         name,
	})
	s.Require().NoError(err)
	return candidate, process
}

// registerEvaluator enrolls an evaluator scoped to the given competencies.
func (s *ServiceSuite) registerEvaluator(ctx context.Context, name string, maxConcurrent int, scope ...id.CompetencyID) *models.Evaluator {
	evaluator, err := s.service.RegisterEvaluator(ctx, RegisterEvaluatorRequest{
		UserID:          id.UserID(uuid.New()),
		Name:            name,
		CompetencyScope: scope,
		MaxConcurrent:   maxConcurrent,
	})
	s.Require().NoError(err)
	return evaluator
}

// approveAllDocuments uploads and approves every required document for the
// candidate, driving the process into evaluacion.
func (s *ServiceSuite) approveAllDocuments(ctx context.Context, candidate *models.Candidate, competency *models.Competency) {
	reviewer := s.ctxAs(ctx, id.UserID(uuid.New()))
	for _, docType := range competency.RequiredDocuments() {
		document, _, err := s.service.UploadDocument(ctx, candidate.ID, docType, "docs/"+string(docType))
		s.Require().NoError(err)
		_, _, err = s.service.ReviewDocument(reviewer, document.ID, models.ReviewApprove, "")
		s.Require().NoError(err)
	}
}

// certify drives a candidate through the whole lifecycle to an issued
// certificate: documents, allocation, approving evaluation.
func (s *ServiceSuite) certify(ctx context.Context, competency *models.Competency, name string) (*models.Candidate, *models.Certificate) {
	candidate, _ := s.registerCandidate(ctx, competency.ID, name)
	s.approveAllDocuments(ctx, candidate, competency)

	evaluatorID, err := s.service.AssignEvaluator(ctx, candidate.ID)
	s.Require().NoError(err)

	process, err := s.store.FindActiveProcessByCandidate(ctx, candidate.ID)
	s.Require().NoError(err)

	_, certificate, err := s.service.SubmitEvaluation(s.ctxAs(ctx, evaluatorID), SubmitEvaluationRequest{
		ProcessID: process.ID,
		Grade:     9,
		Result:    models.ResultApproved,
	})
	s.Require().NoError(err)
	s.Require().NotNil(certificate)
	return candidate, certificate
}

func (s *ServiceSuite) TestFullLifecycle() {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := s.ctxAt(now)
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)

	candidate, process := s.registerCandidate(ctx, competency.ID, "Mario Quintero")
	s.Equal(models.StageSolicitud, process.Stage)
	s.Len(s.sink.ByTemplate(notify.TemplateProcessStarted), 1)

	s.approveAllDocuments(ctx, candidate, competency)
	process, err := s.store.FindActiveProcessByCandidate(ctx, candidate.ID)
	s.Require().NoError(err)
	s.Equal(models.StageEvaluacion, process.Stage)
	s.Len(s.sink.ByTemplate(notify.TemplateDocumentsReceived), 1)

	evaluatorID, err := s.service.AssignEvaluator(ctx, candidate.ID)
	s.Require().NoError(err)
	s.Len(s.sink.SentTo(evaluatorID), 1)

	evaluation, certificate, err := s.service.SubmitEvaluation(s.ctxAs(ctx, evaluatorID), SubmitEvaluationRequest{
		ProcessID: process.ID,
		Grade:     8,
		Result:    models.ResultApproved,
		Criteria: []models.CriterionScore{
			{CriterionID: "seguridad", Score: 3},
			{CriterionID: "acabado", Score: 2},
		},
	})
	s.Require().NoError(err)
	s.Equal(8, evaluation.Grade)
	s.Require().NotNil(certificate)
	s.Equal("ELEC-01-3-2026-000001", certificate.Folio)
	s.Len(certificate.VerificationHash, 16)

	process, err = s.store.FindProcess(ctx, process.ID)
	s.Require().NoError(err)
	s.Equal(models.StageAprobado, process.Stage)
	s.Require().NotNil(process.CertificateID)
	s.Equal(certificate.ID, *process.CertificateID)

	updated, err := s.store.FindCandidate(ctx, candidate.ID)
	s.Require().NoError(err)
	s.Equal(models.CandidateStatusCertified, updated.Status)

	s.Len(s.sink.ByTemplate(notify.TemplateCertificateReady), 1)
	s.Len(s.sink.ByTemplate(notify.TemplateProcessFinished), 1)
}

func (s *ServiceSuite) TestRegisterCandidate_InvalidLevel() {
	ctx := s.ctxAt(time.Now())
	_, _, err := s.service.RegisterCandidate(ctx, RegisterCandidateRequest{
		OwnerUserID:  id.UserID(uuid.New()),
		CompetencyID: s.competency(0).ID,
		Level:        6,
		Name:         "Pedro Lara",
	})
	s.requireCode(err, dErrors.CodeValidation)
}

func (s *ServiceSuite) TestRegisterCandidate_UnknownCompetency() {
	ctx := s.ctxAt(time.Now())
	_, _, err := s.service.RegisterCandidate(ctx, RegisterCandidateRequest{
		OwnerUserID:  id.UserID(uuid.New()),
		CompetencyID: id.CompetencyID(uuid.New()),
		Level:        2,
		Name:         "Pedro Lara",
	})
	s.requireCode(err, dErrors.CodeNotFound)
}
