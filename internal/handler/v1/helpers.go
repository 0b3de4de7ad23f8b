package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/clinic"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/patient"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/prescription"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/refdata"
	"github.com/therebootai/democlinicsoftwarebackend/internal/service"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/auth"
)

// Every response is {message, data} on success or {message, error} on
// failure.
type APIResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, APIResponse{Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, APIResponse{Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message, detail string) {
	c.JSON(status, ErrorResponse{Message: message, Error: detail})
}

// respondServiceError maps the service error taxonomy to status codes in
// one place: validation→400, not-found→404, conflict→409, dependency
// failure→502, everything else→500.
func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		respondError(c, http.StatusBadRequest, "validation failed", validErr.Error())
		return
	}

	var depErr *service.DependencyError
	if errors.As(err, &depErr) {
		respondError(c, http.StatusBadGateway, "external dependency failed", depErr.Error())
		return
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, patient.ErrPaymentNotFound),
		errors.Is(err, patient.ErrTCCardNotFound),
		errors.Is(err, patient.ErrDocumentNotFound),
		errors.Is(err, prescription.ErrPrescriptionNotFound),
		errors.Is(err, prescription.ErrSubItemNotFound),
		errors.Is(err, clinic.ErrClinicNotFound),
		errors.Is(err, clinic.ErrStockNotFound),
		errors.Is(err, refdata.ErrEntryNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "not found", err.Error())

	case errors.Is(err, patient.ErrDuplicateMobileNumber),
		errors.Is(err, patient.ErrDuplicatePatientID),
		errors.Is(err, prescription.ErrDuplicateID),
		errors.Is(err, clinic.ErrDuplicateName),
		errors.Is(err, domain.ErrDuplicateUser):
		respondError(c, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, prescription.ErrUnknownSubdocument),
		errors.Is(err, refdata.ErrUnknownKind),
		errors.Is(err, clinic.ErrInvalidStockAmount),
		errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrOTPMismatch):
		respondError(c, http.StatusBadRequest, "bad request", err.Error())

	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, "access denied", err.Error())

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenTypeMismatch):
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error())

	default:
		respondError(c, http.StatusInternalServerError, "internal server error", err.Error())
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// callerEntry seeds an audit entry from the authenticated request.
func callerEntry(c *gin.Context) service.AuditEntry {
	entry := service.AuditEntry{
		IPAddress: c.ClientIP(),
		RequestID: c.GetString(ctxRequestID),
	}
	if claims, ok := c.Get(ctxClaims); ok {
		if cl, ok := claims.(*domain.Claims); ok {
			entry.UserID = cl.UserID
			entry.UserRole = string(cl.Role)
		}
	}
	return entry
}
