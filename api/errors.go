package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and aborts the request. Storage details
// never reach the client.
func writeError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"})
		return
	}

	resp := errorResponse{Error: de.Message, Code: de.Code, Fields: de.Fields}
	if de.Kind == domain.KindUnavailable {
		_ = c.Error(err)
		resp.Error = "service temporarily unavailable"
	}
	c.AbortWithStatusJSON(statusFor(de.Kind), resp)
}

// bindError reports a malformed body or query.
func bindError(c *gin.Context, err error) {
	writeError(c, domain.Validation(domain.FieldError{Field: "body", Message: err.Error(), Kind: "malformed"}))
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		writeError(c, domain.Validation(domain.FieldError{Field: name, Message: "must be a valid UUID", Kind: "uuid"}))
		return uuid.Nil, false
	}
	return id, true
}

func paramMissing(c *gin.Context, name string) {
	writeError(c, domain.Validation(domain.FieldError{Field: name, Message: "is required", Kind: "required"}))
}
