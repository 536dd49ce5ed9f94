package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/tournevent/paccofacile/pkg/fulfillment"
	"go.uber.org/zap"
)

// codeUpstream tags failures of the remote shipping API.
const codeUpstream = "UPSTREAM_ERROR"

type errorResponse struct {
	Message   string        `json:"message"`
	Code      string        `json:"code,omitempty"`
	Retryable bool          `json:"retryable"`
	Details   []errorDetail `json:"details,omitempty"`
}

type errorDetail struct {
	Path string `json:"path"`
	Info string `json:"info"`
}

// abortWithError answers with the status the error taxonomy assigns to err.
func (s *Server) abortWithError(c *gin.Context, err error) {
	status := fulfillment.HTTPStatus(err)
	resp := errorResponse{
		Message:   err.Error(),
		Retryable: fulfillment.IsRetryable(err),
	}

	provider := c.Param("provider")
	var fe *fulfillment.Error
	var ue fulfillment.UpstreamError
	switch {
	case errors.As(err, &fe):
		resp.Code = fe.Code
		if fe.Provider != "" {
			provider = fe.Provider
		}
	case errors.As(err, &ue):
		resp.Code = codeUpstream
	}

	if s.metrics != nil && resp.Code != "" {
		s.metrics.RecordError(provider, resp.Code)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Ctx(c.Request.Context()).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Message: message})
}

func notFound(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Message: message})
}

// badRequestWithValidation reports every failed field of a binding error.
func badRequestWithValidation(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		badRequest(c, err.Error())
		return
	}
	details := make([]errorDetail, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		details = append(details, errorDetail{
			Path: fieldErr.Namespace(),
			Info: validationMessage(fieldErr),
		})
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Message: "Validation failed",
		Details: details,
	})
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "min":
		return fieldErr.Field() + " must be at least " + fieldErr.Param()
	case "gt":
		return fieldErr.Field() + " must be greater than " + fieldErr.Param()
	default:
		return fieldErr.Field() + " is invalid"
	}
}
