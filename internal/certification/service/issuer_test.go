package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"certo/internal/certification/models"
	"certo/internal/notify"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

func (s *ServiceSuite) TestIssueCertificate_AlreadyIssued() {
	now := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	ctx := s.ctxAt(now)
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	_, certificate := s.certify(ctx, competency, "Irene Paz")

	issuer := s.ctxAs(ctx, id.UserID(uuid.New()))
	_, err := s.service.IssueCertificate(issuer, certificate.ProcessID)
	s.requireCode(err, dErrors.CodeConflict)
}

func (s *ServiceSuite) TestIssueCertificate_WrongStage() {
	ctx := s.ctxAt(time.Now())
	_, process := s.registerCandidate(ctx, s.competency(0).ID, "Irene Paz")

	issuer := s.ctxAs(ctx, id.UserID(uuid.New()))
	_, err := s.service.IssueCertificate(issuer, process.ID)
	s.requireCode(err, dErrors.CodeInvariantViolation)
}

func (s *ServiceSuite) TestIssueCertificate_RequiresActor() {
	ctx := s.ctxAt(time.Now())
	_, err := s.service.IssueCertificate(ctx, id.ProcessID(uuid.New()))
	s.requireCode(err, dErrors.CodeForbidden)
}

func (s *ServiceSuite) TestFolioSequenceIsGloballyMonotonic() {
	now := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	ctx := s.ctxAt(now)
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 10, competency.ID)

	for i := 1; i <= 3; i++ {
		_, certificate := s.certify(ctx, competency, fmt.Sprintf("Titular %d", i))
		s.Equal(fmt.Sprintf("ELEC-01-3-2026-%06d", i), certificate.Folio)
	}
}

func (s *ServiceSuite) TestSweepExpirations_FlipsAndNotifiesOnce() {
	issued := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	ctx := s.ctxAt(issued)
	competency := s.competency(0)
	s.Require().Positive(competency.CertificateValidity)
	s.registerEvaluator(ctx, "Elena Vargas", 10, competency.ID)
	candidate, certificate := s.certify(ctx, competency, "Irene Paz")
	s.Require().NotNil(certificate.ExpiresAt)

	afterExpiry := certificate.ExpiresAt.Add(24 * time.Hour)

	count, err := s.service.SweepExpirations(ctx, afterExpiry)
	s.Require().NoError(err)
	s.Equal(1, count)

	stored, err := s.store.FindCertificate(ctx, certificate.ID)
	s.Require().NoError(err)
	s.Equal(models.CertificateStatusExpired, stored.Status)

	notes := s.sink.ByTemplate(notify.TemplateCertificateExpired)
	s.Require().Len(notes, 1)
	s.Equal(candidate.OwnerUserID, notes[0].UserID)

	// A second run over the same state is a no-op.
	count, err = s.service.SweepExpirations(ctx, afterExpiry)
	s.Require().NoError(err)
	s.Zero(count)
	s.Len(s.sink.ByTemplate(notify.TemplateCertificateExpired), 1)
}

func (s *ServiceSuite) TestSweepExpirations_SkipsNonExpiring() {
	issued := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	ctx := s.ctxAt(issued)
	nonExpiring := s.competency(2)
	s.Require().Zero(nonExpiring.CertificateValidity)
	s.registerEvaluator(ctx, "Elena Vargas", 10, nonExpiring.ID)
	_, certificate := s.certify(ctx, nonExpiring, "Irene Paz")
	s.Nil(certificate.ExpiresAt)

	count, err := s.service.SweepExpirations(ctx, issued.AddDate(50, 0, 0))
	s.Require().NoError(err)
	s.Zero(count)
}
