package service

import (
	"time"

	"certo/internal/certification/models"
	"certo/internal/notify"
	dErrors "certo/pkg/domain-errors"
)

func (s *ServiceSuite) TestInitiateRenewal_SimpleEntersEvaluacion() {
	issued := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	ctx := s.ctxAt(issued)
	competency := s.competency(0)
	evaluator := s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	candidate, certificate := s.certify(ctx, competency, "Irene Paz")
	s.sink.Reset()

	renewal, process, err := s.service.InitiateRenewal(ctx, InitiateRenewalRequest{
		CertificateID:    certificate.ID,
		Type:             models.RenewalSimple,
		DeclaredActivity: "instalaciones residenciales 2024-2026",
	})
	s.Require().NoError(err)
	s.Equal(models.RenewalStatusPending, renewal.Status)
	s.Equal(models.StageEvaluacion, process.Stage)
	s.Require().NotNil(process.RenewalOfProcessID)
	s.Equal(certificate.ProcessID, *process.RenewalOfProcessID)
	s.Require().NotNil(process.EvaluatorID, "simple renewal carries the original evaluator")
	s.Equal(evaluator.UserID, *process.EvaluatorID)

	updated, err := s.store.FindCandidate(ctx, candidate.ID)
	s.Require().NoError(err)
	s.Equal(models.CandidateStatusInEvaluation, updated.Status)

	// Admins always hear about renewals; on a simple renewal the original
	// evaluator does too.
	notes := s.sink.ByTemplate(notify.TemplateRenewalStarted)
	s.Require().Len(notes, 2)
	s.Len(s.sink.SentTo(s.adminID), 1)
	s.Len(s.sink.SentTo(evaluator.UserID), 1)
}

func (s *ServiceSuite) TestInitiateRenewal_SimpleCarriedEvaluatorSubmits() {
	ctx := s.ctxAt(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	competency := s.competency(0)
	evaluator := s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	_, certificate := s.certify(ctx, competency, "Irene Paz")

	_, process, err := s.service.InitiateRenewal(ctx, InitiateRenewalRequest{
		CertificateID:    certificate.ID,
		Type:             models.RenewalSimple,
		DeclaredActivity: "instalaciones residenciales 2024-2026",
	})
	s.Require().NoError(err)

	// No fresh allocation: the carried evaluator grades the renewal directly.
	_, renewed, err := s.service.SubmitEvaluation(s.ctxAs(ctx, evaluator.UserID), SubmitEvaluationRequest{
		ProcessID: process.ID,
		Grade:     9,
		Result:    models.ResultApproved,
	})
	s.Require().NoError(err)
	s.Require().NotNil(renewed)
	s.NotEqual(certificate.Folio, renewed.Folio)
}

func (s *ServiceSuite) TestInitiateRenewal_SimpleSkipsSuspendedEvaluator() {
	ctx := s.ctxAt(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	competency := s.competency(0)
	evaluator := s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	_, certificate := s.certify(ctx, competency, "Irene Paz")
	s.Require().NoError(s.service.SuspendEvaluator(ctx, evaluator.UserID))
	s.sink.Reset()

	_, process, err := s.service.InitiateRenewal(ctx, InitiateRenewalRequest{
		CertificateID:    certificate.ID,
		Type:             models.RenewalSimple,
		DeclaredActivity: "instalaciones residenciales 2024-2026",
	})
	s.Require().NoError(err)
	s.Nil(process.EvaluatorID, "a suspended evaluator is not carried")
	s.Len(s.sink.ByTemplate(notify.TemplateRenewalStarted), 1)
}

func (s *ServiceSuite) TestInitiateRenewal_SimpleRespectsCarryCapacity() {
	ctx := s.ctxAt(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 1, competency.ID)
	_, certificate := s.certify(ctx, competency, "Irene Paz")

	// A second candidate takes the evaluator's only slot.
	other, _ := s.registerCandidate(ctx, competency.ID, "Bruno Casas")
	s.approveAllDocuments(ctx, other, competency)
	_, err := s.service.AssignEvaluator(ctx, other.ID)
	s.Require().NoError(err)

	_, process, err := s.service.InitiateRenewal(ctx, InitiateRenewalRequest{
		CertificateID:    certificate.ID,
		Type:             models.RenewalSimple,
		DeclaredActivity: "instalaciones residenciales 2024-2026",
	})
	s.Require().NoError(err)
	s.Nil(process.EvaluatorID, "no carry past committed load")
}

func (s *ServiceSuite) TestInitiateRenewal_SimpleRequiresDeclaredActivity() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	_, certificate := s.certify(ctx, competency, "Irene Paz")

	_, _, err := s.service.InitiateRenewal(ctx, InitiateRenewalRequest{
		CertificateID: certificate.ID,
		Type:          models.RenewalSimple,
	})
	s.requireCode(err, dErrors.CodeValidation)
}

func (s *ServiceSuite) TestInitiateRenewal_ReevaluationNotifiesOnlyAdmins() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	_, certificate := s.certify(ctx, competency, "Irene Paz")
	s.sink.Reset()

	_, process, err := s.service.InitiateRenewal(ctx, InitiateRenewalRequest{
		CertificateID: certificate.ID,
		Type:          models.RenewalReevaluation,
	})
	s.Require().NoError(err)
	s.Equal(models.StageEvaluacion, process.Stage)
	s.Len(s.sink.ByTemplate(notify.TemplateRenewalStarted), 1)

	// The successor goes through a fresh allocation.
	candidateID := process.CandidateID
	evaluatorID, err := s.service.AssignEvaluator(ctx, candidateID)
	s.Require().NoError(err)
	s.False(evaluatorID.IsNil())
}

func (s *ServiceSuite) TestInitiateRenewal_FullRestartsAtSolicitud() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	candidate, certificate := s.certify(ctx, competency, "Irene Paz")

	_, process, err := s.service.InitiateRenewal(ctx, InitiateRenewalRequest{
		CertificateID: certificate.ID,
		Type:          models.RenewalFull,
	})
	s.Require().NoError(err)
	s.Equal(models.StageSolicitud, process.Stage)

	updated, err := s.store.FindCandidate(ctx, candidate.ID)
	s.Require().NoError(err)
	s.Equal(models.CandidateStatusPending, updated.Status)
}

func (s *ServiceSuite) TestInitiateRenewal_ActiveProcessBlocks() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	_, certificate := s.certify(ctx, competency, "Irene Paz")

	_, _, err := s.service.InitiateRenewal(ctx, InitiateRenewalRequest{
		CertificateID: certificate.ID,
		Type:          models.RenewalFull,
	})
	s.Require().NoError(err)

	_, _, err = s.service.InitiateRenewal(ctx, InitiateRenewalRequest{
		CertificateID: certificate.ID,
		Type:          models.RenewalFull,
	})
	s.requireCode(err, dErrors.CodeConflict)
}

func (s *ServiceSuite) TestInitiateRenewal_UnknownCertificate() {
	ctx := s.ctxAt(time.Now())
	_, _, err := s.service.InitiateRenewal(ctx, InitiateRenewalRequest{
		Type: models.RenewalFull,
	})
	s.requireCode(err, dErrors.CodeNotFound)
}
