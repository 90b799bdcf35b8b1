package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/risk"
	"github.com/Veraticus/payroll-sentinel/internal/storage"
)

var validationErrors = []error{
	risk.ErrNegativeAmount,
	risk.ErrInvalidMultiplier,
	storage.ErrEmptyString,
	storage.ErrInvalidDateRange,
	storage.ErrInvalidCompany,
	storage.ErrInvalidPayrollRun,
}

// statusFor maps an error to the HTTP status it should produce.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	var userErr *common.UserError
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.As(err, &verrs), errors.As(err, &userErr):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrProviderUnavailable), errors.Is(err, common.ErrPlaidRateLimit):
		return http.StatusBadGateway
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
