package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	attachmentdomain "github.com/reclaimlabs/recoveryhub/internal/attachment/domain"
	auditdomain "github.com/reclaimlabs/recoveryhub/internal/audit/domain"
	authdomain "github.com/reclaimlabs/recoveryhub/internal/auth/domain"
	"github.com/reclaimlabs/recoveryhub/internal/authorization"
	casedomain "github.com/reclaimlabs/recoveryhub/internal/cases/domain"
	cryptodomain "github.com/reclaimlabs/recoveryhub/internal/cryptopayment/domain"
	invoicedomain "github.com/reclaimlabs/recoveryhub/internal/invoice/domain"
	paymentconfigdomain "github.com/reclaimlabs/recoveryhub/internal/paymentconfig/domain"
	roledomain "github.com/reclaimlabs/recoveryhub/internal/role/domain"
	walletdomain "github.com/reclaimlabs/recoveryhub/internal/wallet/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrTooManyRequests    = errors.New("too_many_requests")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, roledomain.ErrLastAdmin):
		// Distinct message so the caller can tell the business
		// rejection apart from an ordinary conflict.
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "cannot remove the last admin",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, paymentconfigdomain.ErrNameTaken),
		errors.Is(err, cryptodomain.ErrDuplicateTxHash),
		errors.Is(err, cryptodomain.ErrAlreadyConfirmed):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case errors.Is(err, authdomain.ErrPasswordTooShort),
		errors.Is(err, authdomain.ErrInvalidEmail):
		return true
	case errors.Is(err, casedomain.ErrInvalidTitle),
		errors.Is(err, casedomain.ErrInvalidCaseType),
		errors.Is(err, casedomain.ErrInvalidStatus),
		errors.Is(err, casedomain.ErrInvalidUser),
		errors.Is(err, casedomain.ErrEmptyMessage),
		errors.Is(err, casedomain.ErrInvalidStage):
		return true
	case errors.Is(err, invoicedomain.ErrNoPaymentMethod),
		errors.Is(err, invoicedomain.ErrInvalidAmount),
		errors.Is(err, invoicedomain.ErrInvalidCurrency),
		errors.Is(err, invoicedomain.ErrInvalidStatus),
		errors.Is(err, invoicedomain.ErrInvalidCase),
		errors.Is(err, invoicedomain.ErrInvalidUser):
		return true
	case errors.Is(err, paymentconfigdomain.ErrInvalidName),
		errors.Is(err, paymentconfigdomain.ErrInvalidMethod),
		errors.Is(err, paymentconfigdomain.ErrMissingDetails):
		return true
	case errors.Is(err, cryptodomain.ErrInvalidTxHash),
		errors.Is(err, cryptodomain.ErrInvalidAmount),
		errors.Is(err, cryptodomain.ErrInvalidInvoice):
		return true
	case errors.Is(err, attachmentdomain.ErrEmptyBatch),
		errors.Is(err, attachmentdomain.ErrInvalidCase),
		errors.Is(err, attachmentdomain.ErrFileTooLarge):
		return true
	case errors.Is(err, walletdomain.ErrInvalidAddress),
		errors.Is(err, walletdomain.ErrInvalidUser):
		return true
	case errors.Is(err, roledomain.ErrInvalidRole):
		return true
	case errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, casedomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, paymentconfigdomain.ErrNotFound),
		errors.Is(err, cryptodomain.ErrNotFound),
		errors.Is(err, attachmentdomain.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, roledomain.ErrRoleNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if code == "invalid_request" {
		return "request"
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
