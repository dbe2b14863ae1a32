package models

import (
	"time"

	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
)

// DocumentType identifies an entry of the fixed document catalog.
// Construct via ParseDocumentType at trust boundaries; direct casting
// bypasses the catalog check.
type DocumentType string

const (
	DocumentTypeOfficialID       DocumentType = "identificacion_oficial"
	DocumentTypeCURP             DocumentType = "curp"
	DocumentTypeProofOfAddress   DocumentType = "comprobante_domicilio"
	DocumentTypeWorkEvidence     DocumentType = "evidencia_laboral"
	DocumentTypePhoto            DocumentType = "fotografia"
	DocumentTypeRenewalEvidence  DocumentType = "evidencia_renovacion"
)

// validDocumentTypes is the single source of truth for the catalog.
var validDocumentTypes = map[DocumentType]bool{
	DocumentTypeOfficialID:      true,
	DocumentTypeCURP:            true,
	DocumentTypeProofOfAddress:  true,
	DocumentTypeWorkEvidence:    true,
	DocumentTypePhoto:           true,
	DocumentTypeRenewalEvidence: true,
}

// ParseDocumentType validates a document type against the catalog.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(s)
	if !validDocumentTypes[t] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown document type: %q", s)
	}
	return t, nil
}

// DefaultDocumentCatalog is the required-document fallback applied when a
// competency does not configure its own list.
func DefaultDocumentCatalog() []DocumentType {
	return []DocumentType{
		DocumentTypeOfficialID,
		DocumentTypeCURP,
		DocumentTypeProofOfAddress,
		DocumentTypeWorkEvidence,
		DocumentTypePhoto,
	}
}

// DocumentStatus is the review state of an uploaded document.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// ReviewDecision is the reviewer's verdict on a pending document.
type ReviewDecision string

const (
	ReviewApprove ReviewDecision = "approve"
	ReviewReject  ReviewDecision = "reject"
)

// ParseReviewDecision validates a review decision from external input.
func ParseReviewDecision(s string) (ReviewDecision, error) {
	switch d := ReviewDecision(s); d {
	case ReviewApprove, ReviewReject:
		return d, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown review decision: %q", s)
	}
}

// Document is a candidate-owned evidence file under review.
//
// Invariants:
//   - Type is a catalog type
//   - Status transitions: pending -> approved | rejected; re-upload of a
//     rejected type creates a new Document, the old row is never reopened
//   - ReviewedBy/ReviewedAt are set exactly when Status leaves pending
type Document struct {
	ID          id.DocumentID  `json:"id"`
	CandidateID id.CandidateID `json:"candidate_id"`
	Type        DocumentType   `json:"type"`
	Status      DocumentStatus `json:"status"`
	StoreRef    string         `json:"store_ref,omitempty"`
	Comments    string         `json:"comments,omitempty"`
	ReviewedBy  *id.UserID     `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time     `json:"reviewed_at,omitempty"`
	UploadedAt  time.Time      `json:"uploaded_at"`
}

// NewDocument constructs a pending Document.
func NewDocument(documentID id.DocumentID, candidateID id.CandidateID, docType DocumentType, storeRef string, now time.Time) (*Document, error) {
	if !validDocumentTypes[docType] {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "document type %q is not in the catalog", docType)
	}
	if candidateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document requires a candidate")
	}
	return &Document{
		ID:          documentID,
		CandidateID: candidateID,
		Type:        docType,
		Status:      DocumentStatusPending,
		StoreRef:    storeRef,
		UploadedAt:  now,
	}, nil
}

// CanReview checks the document is still pending.
// Use with ApplyReview inside a RunInTx callback.
func (d *Document) CanReview() error {
	if d.Status != DocumentStatusPending {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "document is already %s", d.Status)
	}
	return nil
}

// ApplyReview records the reviewer's verdict. Call CanReview first.
func (d *Document) ApplyReview(decision ReviewDecision, reviewerID id.UserID, comments string, now time.Time) {
	if decision == ReviewApprove {
		d.Status = DocumentStatusApproved
	} else {
		d.Status = DocumentStatusRejected
	}
	d.Comments = comments
	d.ReviewedBy = &reviewerID
	d.ReviewedAt = &now
}
