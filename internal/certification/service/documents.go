package service

import (
	"context"

	"github.com/google/uuid"

	"certo/internal/certification/models"
	"certo/internal/notify"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
	"certo/pkg/requestcontext"
)

// GateResult reports whether a candidate's approved documents cover the
// competency's required set.
type GateResult struct {
	Satisfied bool                  `json:"satisfied"`
	Missing   []models.DocumentType `json:"missing,omitempty"`
}

// UploadDocument registers a submitted document for review. The first upload
// of a required type moves a solicitud process into documentacion.
func (s *Service) UploadDocument(ctx context.Context, candidateID id.CandidateID, docType models.DocumentType, storeRef string) (*models.Document, *models.Process, error) {
	ctx, span := s.tracer.Start(ctx, "UploadDocument")
	defer span.End()

	now := requestcontext.Now(ctx)
	var (
		document *models.Document
		process  *models.Process
		advanced bool
	)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		candidate, err := store.FindCandidate(ctx, candidateID)
		if err != nil {
			return translateStoreErr(err, "candidate not found")
		}
		p, err := store.FindActiveProcessByCandidate(ctx, candidateID)
		if err != nil {
			return translateStoreErr(err, "candidate has no active process")
		}
		competency, err := store.FindCompetency(ctx, candidate.CompetencyID)
		if err != nil {
			return translateStoreErr(err, "competency not found")
		}

		d, err := models.NewDocument(id.DocumentID(uuid.New()), candidateID, docType, storeRef, now)
		if err != nil {
			return err
		}
		if err := store.CreateDocument(ctx, d); err != nil {
			return translateStoreErr(err, "document not found")
		}

		if p.Stage == models.StageSolicitud && inCatalog(docType, competency.RequiredDocuments()) {
			if err := p.CanAdvanceTo(models.StageDocumentacion); err != nil {
				return err
			}
			p.ApplyStage(models.StageDocumentacion, now)
			if err := store.UpdateProcess(ctx, p); err != nil {
				return translateStoreErr(err, "process not found")
			}
			advanced = true
		}
		document, process = d, p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logAudit(ctx, "document_uploaded",
		"document_id", document.ID,
		"candidate_id", candidateID,
		"document_type", docType,
	)
	if advanced {
		s.recordTransition(models.StageDocumentacion)
		s.logAudit(ctx, "stage_advanced",
			"process_id", process.ID,
			"stage", process.Stage,
		)
	}
	return document, process, nil
}

// EvaluateDocuments runs the document gate for a candidate: required types
// for their competency minus the types with an approved document.
func (s *Service) EvaluateDocuments(ctx context.Context, candidateID id.CandidateID) (*GateResult, error) {
	var result *GateResult
	err := s.tx.RunInTx(ctx, func(store Store) error {
		candidate, err := store.FindCandidate(ctx, candidateID)
		if err != nil {
			return translateStoreErr(err, "candidate not found")
		}
		competency, err := store.FindCompetency(ctx, candidate.CompetencyID)
		if err != nil {
			return translateStoreErr(err, "competency not found")
		}
		result, err = evaluateGate(ctx, store, candidateID, competency)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReviewDocument applies a reviewer decision. A rejection regresses an active
// documentacion or evaluacion process back to solicitud; an approval that
// satisfies the gate advances documentacion to evaluacion.
func (s *Service) ReviewDocument(ctx context.Context, documentID id.DocumentID, decision models.ReviewDecision, comments string) (*models.Document, *models.Process, error) {
	ctx, span := s.tracer.Start(ctx, "ReviewDocument")
	defer span.End()

	reviewerID := requestcontext.ActorID(ctx)
	if reviewerID.IsNil() {
		return nil, nil, dErrors.New(dErrors.CodeForbidden, "document review requires an authenticated reviewer")
	}

	now := requestcontext.Now(ctx)
	var (
		document *models.Document
		process  *models.Process
		pending  []notify.Notification
		newStage models.ProcessStage
	)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		d, err := store.FindDocument(ctx, documentID)
		if err != nil {
			return translateStoreErr(err, "document not found")
		}
		if err := d.CanReview(); err != nil {
			return err
		}
		d.ApplyReview(decision, reviewerID, comments, now)
		if err := store.UpdateDocument(ctx, d); err != nil {
			return translateStoreErr(err, "document not found")
		}

		candidate, err := store.FindCandidate(ctx, d.CandidateID)
		if err != nil {
			return translateStoreErr(err, "candidate not found")
		}
		p, err := store.FindActiveProcessByCandidate(ctx, d.CandidateID)
		if err != nil {
			return translateStoreErr(err, "candidate has no active process")
		}

		switch decision {
		case models.ReviewReject:
			pending = append(pending, notify.Notification{
				UserID:   candidate.OwnerUserID,
				Template: notify.TemplateDocumentRejected,
				Params: map[string]any{
					"document_id":   d.ID.String(),
					"document_type": string(d.Type),
					"comments":      comments,
				},
			})
			if p.Stage == models.StageDocumentacion || p.Stage == models.StageEvaluacion {
				p.ApplyRegression(now)
				if err := store.UpdateProcess(ctx, p); err != nil {
					return translateStoreErr(err, "process not found")
				}
				candidate.ApplyStatus(models.CandidateStatusPending, now)
				if err := store.UpdateCandidate(ctx, candidate); err != nil {
					return translateStoreErr(err, "candidate not found")
				}
				newStage = models.StageSolicitud
			}

		case models.ReviewApprove:
			pending = append(pending, notify.Notification{
				UserID:   candidate.OwnerUserID,
				Template: notify.TemplateDocumentApproved,
				Params: map[string]any{
					"document_id":   d.ID.String(),
					"document_type": string(d.Type),
				},
			})
			competency, err := store.FindCompetency(ctx, candidate.CompetencyID)
			if err != nil {
				return translateStoreErr(err, "competency not found")
			}
			gate, err := evaluateGate(ctx, store, d.CandidateID, competency)
			if err != nil {
				return err
			}
			if gate.Satisfied && p.Stage == models.StageDocumentacion {
				if err := p.CanAdvanceTo(models.StageEvaluacion); err != nil {
					return err
				}
				p.ApplyStage(models.StageEvaluacion, now)
				if err := store.UpdateProcess(ctx, p); err != nil {
					return translateStoreErr(err, "process not found")
				}
				candidate.ApplyStatus(models.CandidateStatusInEvaluation, now)
				if err := store.UpdateCandidate(ctx, candidate); err != nil {
					return translateStoreErr(err, "candidate not found")
				}
				newStage = models.StageEvaluacion
				pending = append(pending, notify.Notification{
					UserID:   candidate.OwnerUserID,
					Template: notify.TemplateDocumentsReceived,
					Params:   map[string]any{"process_id": p.ID.String()},
				})
			}
		}

		document, process = d, p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.notifyAll(ctx, pending)
	s.logAudit(ctx, "document_reviewed",
		"document_id", documentID,
		"decision", decision,
		"reviewer_id", reviewerID,
	)
	if newStage != "" {
		s.recordTransition(newStage)
		s.logAudit(ctx, "stage_changed",
			"process_id", process.ID,
			"stage", newStage,
		)
	}
	return document, process, nil
}

func evaluateGate(ctx context.Context, store Store, candidateID id.CandidateID, competency *models.Competency) (*GateResult, error) {
	documents, err := store.ListDocumentsByCandidate(ctx, candidateID)
	if err != nil {
		return nil, translateStoreErr(err, "candidate not found")
	}
	approved := make(map[models.DocumentType]bool, len(documents))
	for _, d := range documents {
		if d.Status == models.DocumentStatusApproved {
			approved[d.Type] = true
		}
	}
	result := &GateResult{Satisfied: true}
	for _, required := range competency.RequiredDocuments() {
		if !approved[required] {
			result.Satisfied = false
			result.Missing = append(result.Missing, required)
		}
	}
	return result, nil
}

func inCatalog(docType models.DocumentType, catalog []models.DocumentType) bool {
	for _, t := range catalog {
		if t == docType {
			return true
		}
	}
	return false
}
