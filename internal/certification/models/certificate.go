package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

// CertificateStatus is the lifecycle state of an issued certificate.
// Certificates are never deleted; an expired one stays on record.
type CertificateStatus string

const (
	CertificateStatusActive  CertificateStatus = "active"
	CertificateStatusExpired CertificateStatus = "expired"
)

// verificationHashLength is the truncated hex length of the verification
// hash. The hash is a lookup token for public authenticity checks, not a
// secret: 16 hex characters keeps folio URLs short while leaving collisions
// implausible at this population size.
const verificationHashLength = 16

// Certificate is the issued credential of an approved process.
//
// Invariants:
//   - At most one certificate per process (1:1 with Process.CertificateID)
//   - Folio is globally unique
//   - Status transitions: active -> expired only, driven by the expiry sweep
//   - ExpiresAt is nil exactly for non-expiring certificates
type Certificate struct {
	ID               id.CertificateID  `json:"id"`
	ProcessID        id.ProcessID      `json:"process_id"`
	Folio            string            `json:"folio"`
	VerificationHash string            `json:"verification_hash"`
	Status           CertificateStatus `json:"status"`
	IssuedBy         id.UserID         `json:"issued_by"`
	IssuedAt         time.Time         `json:"issued_at"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
}

// NewCertificate constructs an active Certificate with its verification hash
// derived from the identifying fields. A zero validity yields a non-expiring
// certificate.
func NewCertificate(certificateID id.CertificateID, processID id.ProcessID, folio string, issuedBy id.UserID, issuedAt time.Time, validity time.Duration) (*Certificate, error) {
	if folio == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "certificate folio cannot be empty")
	}
	cert := &Certificate{
		ID:               certificateID,
		ProcessID:        processID,
		Folio:            folio,
		VerificationHash: VerificationHash(certificateID, folio, issuedAt),
		Status:           CertificateStatusActive,
		IssuedBy:         issuedBy,
		IssuedAt:         issuedAt,
	}
	if validity > 0 {
		expires := issuedAt.Add(validity)
		cert.ExpiresAt = &expires
	}
	return cert, nil
}

// VerificationHash computes the deterministic, non-secret lookup token bound
// to a certificate: a truncated sha256 over (id, folio, issue timestamp).
func VerificationHash(certificateID id.CertificateID, folio string, issuedAt time.Time) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d", certificateID, folio, issuedAt.Unix()))
	return hex.EncodeToString(sum[:])[:verificationHashLength]
}

// BuildFolio renders the folio format {code}-{level}-{year}-{sequence}.
// Sequence is a global monotonically increasing counter over all issued
// certificates.
func BuildFolio(code id.CompetencyCode, level id.Level, year int, sequence int64) string {
	return fmt.Sprintf("%s-%d-%d-%06d", code, level, year, sequence)
}

// Expired reports whether the certificate's expiry has passed at now.
// Non-expiring certificates never report true.
func (c *Certificate) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Valid reports whether the certificate verifies as currently valid.
func (c *Certificate) Valid(now time.Time) bool {
	return c.Status == CertificateStatusActive && !c.Expired(now)
}

// CanExpire checks the certificate is still active; the sweep skips rows
// already flipped so repeated runs are idempotent.
func (c *Certificate) CanExpire() error {
	if c.Status != CertificateStatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate is not active")
	}
	return nil
}

// ApplyExpiration flips the certificate to expired. Call CanExpire first.
func (c *Certificate) ApplyExpiration() {
	c.Status = CertificateStatusExpired
}
