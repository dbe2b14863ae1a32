// Package handler exposes the certification engine over HTTP. Routes follow
// the lifecycle: candidates and their documents, evaluator administration,
// evaluation submission, public certificate verification and renewals.
package handler

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"certo/internal/certification/models"
	"certo/internal/certification/service"
	"certo/internal/docstore"
	"certo/internal/platform/middleware"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
	"certo/pkg/platform/httputil"
	"certo/pkg/requestcontext"
)

const requestTimeout = 30 * time.Second

// Limits for inline document uploads.
const maxUploadBytes = 10 << 20

var allowedUploadMimeTypes = []string{"application/pdf", "image/png", "image/jpeg"}

// Handler handles certification endpoints.
type Handler struct {
	logger  *slog.Logger
	service *service.Service
	docs    docstore.Store
}

// New creates a certification Handler.
func New(svc *service.Service, docs docstore.Store, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: svc,
		docs:    docs,
	}
}

// Register mounts the certification routes on the router.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(middleware.RequestTime)
	api.Use(middleware.ClientMetadata)
	api.Use(middleware.Logger(h.logger))
	api.Use(middleware.Timeout(requestTimeout))
	api.Use(middleware.ContentTypeJSON)
	api.Use(middleware.Actor)

	api.Post("/competencies", h.handleRegisterCompetency)

	api.Post("/candidates", h.handleRegisterCandidate)
	api.Get("/candidates/{candidateID}", h.handleGetCandidate)
	api.Post("/candidates/{candidateID}/documents", h.handleUploadDocument)
	api.Get("/candidates/{candidateID}/documents/gate", h.handleEvaluateDocuments)
	api.Post("/candidates/{candidateID}/evaluator", h.handleAssignEvaluator)

	api.Post("/documents/{documentID}/review", h.handleReviewDocument)

	api.Get("/processes/{processID}", h.handleGetProcess)
	api.Post("/processes/{processID}/evaluation", h.handleSubmitEvaluation)
	api.Post("/processes/{processID}/evaluator/reassign", h.handleReassignEvaluator)
	api.Post("/processes/{processID}/certificate", h.handleIssueCertificate)

	api.Get("/certificates/verify/{folio}", h.handleVerifyCertificate)
	api.Post("/certificates/sweep", h.handleSweepExpirations)
	api.Post("/certificates/{certificateID}/renewal", h.handleInitiateRenewal)

	api.Post("/evaluators", h.handleRegisterEvaluator)
	api.Get("/evaluators", h.handleListEvaluators)
	api.Post("/evaluators/{userID}/suspend", h.handleSuspendEvaluator)
	api.Post("/evaluators/{userID}/reinstate", h.handleReinstateEvaluator)

	r.Mount("/api/v1", api)
}

type registerCompetencyRequest struct {
	Code                  string   `json:"code"`
	Name                  string   `json:"name"`
	RequiredDocumentTypes []string `json:"required_document_types,omitempty"`
	ValidityDays          int      `json:"validity_days,omitempty"`
}

func (h *Handler) handleRegisterCompetency(w http.ResponseWriter, r *http.Request) {
	var req registerCompetencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	code, err := id.ParseCompetencyCode(req.Code)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
		return
	}
	if req.ValidityDays < 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "validity_days cannot be negative"))
		return
	}

	competency, err := models.NewCompetency(id.CompetencyID(uuid.New()), code, req.Name, requestcontext.Now(r.Context()))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
		return
	}
	for _, raw := range req.RequiredDocumentTypes {
		docType, err := models.ParseDocumentType(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		competency.RequiredDocumentTypes = append(competency.RequiredDocumentTypes, docType)
	}
	competency.CertificateValidity = time.Duration(req.ValidityDays) * 24 * time.Hour

	if err := h.service.RegisterCompetency(r.Context(), competency); err != nil {
		h.writeServiceError(w, r, "register competency", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, competency)
}

type registerCandidateRequest struct {
	OwnerUserID  string `json:"owner_user_id"`
	CompetencyID string `json:"competency_id"`
	Level        int    `json:"level"`
	Name         string `json:"name"`
}

type registerCandidateResponse struct {
	Candidate *models.Candidate `json:"candidate"`
	Process   *models.Process   `json:"process"`
}

func (h *Handler) handleRegisterCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	ownerID, err := id.ParseUserID(req.OwnerUserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	competencyID, err := id.ParseCompetencyID(req.CompetencyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	candidate, process, err := h.service.RegisterCandidate(ctx, service.RegisterCandidateRequest{
		OwnerUserID:  ownerID,
		CompetencyID: competencyID,
		Level:        req.Level,
		Name:         req.Name,
	})
	if err != nil {
		h.writeServiceError(w, r, "register candidate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, registerCandidateResponse{Candidate: candidate, Process: process})
}

func (h *Handler) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, err := id.ParseCandidateID(chi.URLParam(r, "candidateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	candidate, process, err := h.service.GetCandidate(r.Context(), candidateID)
	if err != nil {
		h.writeServiceError(w, r, "get candidate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registerCandidateResponse{Candidate: candidate, Process: process})
}

// uploadDocumentRequest accepts either a reference to an already stored blob
// or the file content inline, base64 encoded.
type uploadDocumentRequest struct {
	Type          string `json:"type"`
	StoreRef      string `json:"store_ref,omitempty"`
	ContentBase64 string `json:"content_base64,omitempty"`
	FileName      string `json:"file_name,omitempty"`
}

type uploadDocumentResponse struct {
	Document *models.Document    `json:"document"`
	Stage    models.ProcessStage `json:"stage"`
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	candidateID, err := id.ParseCandidateID(chi.URLParam(r, "candidateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req uploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	docType, err := models.ParseDocumentType(req.Type)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	storeRef, err := h.resolveStoreRef(r, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	document, process, err := h.service.UploadDocument(r.Context(), candidateID, docType, storeRef)
	if err != nil {
		h.writeServiceError(w, r, "upload document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, uploadDocumentResponse{Document: document, Stage: process.Stage})
}

// resolveStoreRef validates and stores inline content, or passes through the
// caller's blob reference.
func (h *Handler) resolveStoreRef(r *http.Request, req uploadDocumentRequest) (string, error) {
	if req.ContentBase64 == "" {
		if req.StoreRef == "" {
			return "", dErrors.New(dErrors.CodeValidation, "store_ref or content_base64 is required")
		}
		return req.StoreRef, nil
	}

	content, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "content_base64 is not valid base64")
	}
	if result := docstore.Validate(content, allowedUploadMimeTypes, maxUploadBytes); !result.Valid {
		return "", dErrors.New(dErrors.CodeValidation, result.Reason)
	}
	ref, err := h.docs.Store(r.Context(), content, docstore.Metadata{FileName: req.FileName})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "store document content")
	}
	return ref, nil
}

func (h *Handler) handleEvaluateDocuments(w http.ResponseWriter, r *http.Request) {
	candidateID, err := id.ParseCandidateID(chi.URLParam(r, "candidateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	gate, err := h.service.EvaluateDocuments(r.Context(), candidateID)
	if err != nil {
		h.writeServiceError(w, r, "evaluate documents", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, gate)
}

type reviewDocumentRequest struct {
	Decision string `json:"decision"`
	Comments string `json:"comments"`
}

func (h *Handler) handleReviewDocument(w http.ResponseWriter, r *http.Request) {
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req reviewDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	decision, err := models.ParseReviewDecision(req.Decision)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	document, process, err := h.service.ReviewDocument(r.Context(), documentID, decision, req.Comments)
	if err != nil {
		h.writeServiceError(w, r, "review document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, uploadDocumentResponse{Document: document, Stage: process.Stage})
}

type assignEvaluatorResponse struct {
	EvaluatorID string `json:"evaluator_id"`
}

func (h *Handler) handleAssignEvaluator(w http.ResponseWriter, r *http.Request) {
	candidateID, err := id.ParseCandidateID(chi.URLParam(r, "candidateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	evaluatorID, err := h.service.AssignEvaluator(r.Context(), candidateID)
	if err != nil {
		h.writeServiceError(w, r, "assign evaluator", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, assignEvaluatorResponse{EvaluatorID: evaluatorID.String()})
}

func (h *Handler) handleReassignEvaluator(w http.ResponseWriter, r *http.Request) {
	processID, err := id.ParseProcessID(chi.URLParam(r, "processID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	evaluatorID, err := h.service.ReassignEvaluator(r.Context(), processID)
	if err != nil {
		h.writeServiceError(w, r, "reassign evaluator", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, assignEvaluatorResponse{EvaluatorID: evaluatorID.String()})
}

func (h *Handler) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	processID, err := id.ParseProcessID(chi.URLParam(r, "processID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	process, err := h.service.GetProcess(r.Context(), processID)
	if err != nil {
		h.writeServiceError(w, r, "get process", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, process)
}

type submitEvaluationRequest struct {
	Grade    int                     `json:"grade"`
	Result   string                  `json:"result"`
	Criteria []models.CriterionScore `json:"criteria,omitempty"`
	Comments string                  `json:"comments"`
}

type submitEvaluationResponse struct {
	Evaluation  *models.Evaluation  `json:"evaluation"`
	Certificate *models.Certificate `json:"certificate,omitempty"`
}

func (h *Handler) handleSubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	processID, err := id.ParseProcessID(chi.URLParam(r, "processID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req submitEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	result, err := models.ParseProcessResult(req.Result)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	evaluation, certificate, err := h.service.SubmitEvaluation(r.Context(), service.SubmitEvaluationRequest{
		ProcessID: processID,
		Grade:     req.Grade,
		Result:    result,
		Criteria:  req.Criteria,
		Comments:  req.Comments,
	})
	if err != nil {
		h.writeServiceError(w, r, "submit evaluation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, submitEvaluationResponse{Evaluation: evaluation, Certificate: certificate})
}

func (h *Handler) handleIssueCertificate(w http.ResponseWriter, r *http.Request) {
	processID, err := id.ParseProcessID(chi.URLParam(r, "processID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	certificate, err := h.service.IssueCertificate(r.Context(), processID)
	if err != nil {
		h.writeServiceError(w, r, "issue certificate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, certificate)
}

type sweepResponse struct {
	Expired int `json:"expired"`
}

func (h *Handler) handleSweepExpirations(w http.ResponseWriter, r *http.Request) {
	expired, err := h.service.SweepExpirations(r.Context(), requestcontext.Now(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, "sweep expirations", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sweepResponse{Expired: expired})
}

func (h *Handler) handleVerifyCertificate(w http.ResponseWriter, r *http.Request) {
	folio := chi.URLParam(r, "folio")
	hash := r.URL.Query().Get("hash")

	result, err := h.service.VerifyCertificate(r.Context(), folio, hash)
	if err != nil {
		h.writeServiceError(w, r, "verify certificate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type initiateRenewalRequest struct {
	Type             string `json:"type"`
	DeclaredActivity string `json:"declared_activity"`
}

type initiateRenewalResponse struct {
	Renewal *models.Renewal `json:"renewal"`
	Process *models.Process `json:"process"`
}

func (h *Handler) handleInitiateRenewal(w http.ResponseWriter, r *http.Request) {
	certificateID, err := id.ParseCertificateID(chi.URLParam(r, "certificateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req initiateRenewalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	renewalType, err := models.ParseRenewalType(req.Type)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	renewal, process, err := h.service.InitiateRenewal(r.Context(), service.InitiateRenewalRequest{
		CertificateID:    certificateID,
		Type:             renewalType,
		DeclaredActivity: req.DeclaredActivity,
	})
	if err != nil {
		h.writeServiceError(w, r, "initiate renewal", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, initiateRenewalResponse{Renewal: renewal, Process: process})
}

type registerEvaluatorRequest struct {
	UserID          string   `json:"user_id"`
	Name            string   `json:"name"`
	CompetencyScope []string `json:"competency_scope"`
	MaxConcurrent   int      `json:"max_concurrent"`
}

func (h *Handler) handleRegisterEvaluator(w http.ResponseWriter, r *http.Request) {
	var req registerEvaluatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	scope := make([]id.CompetencyID, 0, len(req.CompetencyScope))
	for _, raw := range req.CompetencyScope {
		competencyID, err := id.ParseCompetencyID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		scope = append(scope, competencyID)
	}

	evaluator, err := h.service.RegisterEvaluator(r.Context(), service.RegisterEvaluatorRequest{
		UserID:          userID,
		Name:            req.Name,
		CompetencyScope: scope,
		MaxConcurrent:   req.MaxConcurrent,
	})
	if err != nil {
		h.writeServiceError(w, r, "register evaluator", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, evaluator)
}

func (h *Handler) handleListEvaluators(w http.ResponseWriter, r *http.Request) {
	loads, err := h.service.ListEvaluatorLoads(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "list evaluators", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loads)
}

func (h *Handler) handleSuspendEvaluator(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.SuspendEvaluator(r.Context(), userID); err != nil {
		h.writeServiceError(w, r, "suspend evaluator", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReinstateEvaluator(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.ReinstateEvaluator(r.Context(), userID); err != nil {
		h.writeServiceError(w, r, "reinstate evaluator", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError logs server-side failures and writes the mapped error.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(r.Context(), "operation failed",
			"operation", op,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
