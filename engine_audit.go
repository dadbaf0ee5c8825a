package recipeauth

import (
	"context"
	"errors"
)

const (
	auditEventLoginSuccess    = "login_success"
	auditEventLoginFailure    = "login_failure"
	auditEventRegisterSuccess = "account_creation_success"
	auditEventRegisterFailure = "account_creation_failure"
	auditEventLogout          = "logout"
	auditEventPasswordReset   = "password_reset_request"
	auditEventAccountUpdated  = "account_update"
	auditEventAccountRejected = "account_update_rejected"
)

// AuditErrorCode is the coarse failure class recorded in AuditEvent.Code.
type AuditErrorCode string

const (
	auditErrValidation         AuditErrorCode = "validation"
	auditErrQuotaExceeded      AuditErrorCode = "quota_exceeded"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrPersistence        AuditErrorCode = "persistence_failed"
	auditErrNoSession          AuditErrorCode = "no_session"
	auditErrCanceled           AuditErrorCode = "canceled"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		Type:      eventType,
		UserID:    userID,
		Email:     email,
		Success:   success,
		Code:      auditErrorCode(err),
		Metadata:  metadata,
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrQuotaExceeded):
		return auditErrQuotaExceeded
	case errors.Is(err, ErrCredential):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, ErrEngineNotReady):
		return auditErrUnavailable
	case errors.Is(err, ErrPersistence):
		return auditErrPersistence
	case errors.Is(err, ErrNoSession):
		return auditErrNoSession
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
