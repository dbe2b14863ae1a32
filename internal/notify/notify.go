// Package notify carries stage-transition notifications out of the
// certification engine. Delivery mechanics (mail, SMS, push) live elsewhere;
// this package owns the template catalog, the Notifier port services consume,
// and the sinks notifications fan out to.
//
// Notifications are emitted after the owning transaction commits and are
// best-effort: a failed send is logged and never rolls back the transition
// that triggered it.
package notify

import (
	"context"
	"time"

	id "certo/pkg/domain"
)

// TemplateKey selects the message template for a notification.
type TemplateKey string

const (
	// Process lifecycle
	TemplateProcessStarted  TemplateKey = "proceso_iniciado"
	TemplateProcessFinished TemplateKey = "proceso_finalizado"

	// Document gate
	TemplateDocumentApproved  TemplateKey = "documento_aprobado"
	TemplateDocumentRejected  TemplateKey = "documento_rechazado"
	TemplateDocumentsReceived TemplateKey = "documentos_recibidos"

	// Allocation and evaluation
	TemplateEvaluatorAssigned TemplateKey = "evaluador_asignado"

	// Certificates
	TemplateCertificateReady   TemplateKey = "certificado_disponible"
	TemplateCertificateExpired TemplateKey = "certificado_vencido"

	// Renewals
	TemplateRenewalStarted TemplateKey = "renovacion_iniciada"
)

// Notification is one pending message to a user. Params carry
// template-specific values (folio, stage, competency name) and stay
// schema-free so templates can evolve without touching the engine.
type Notification struct {
	UserID    id.UserID      `json:"user_id"`
	Template  TemplateKey    `json:"template"`
	Params    map[string]any `json:"params,omitempty"`
	ActorID   string         `json:"actor_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Notifier is the port services emit through.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
