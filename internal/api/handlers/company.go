package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/cnpj-etl/internal/services"
	"github.com/nexconsult/cnpj-etl/internal/utils"
)

// CompanyHandler handles company lookup requests.
type CompanyHandler struct {
	companyService services.CompanyServiceInterface
	logger         *logrus.Logger
}

func NewCompanyHandler(companyService services.CompanyServiceInterface, logger *logrus.Logger) *CompanyHandler {
	return &CompanyHandler{companyService: companyService, logger: logger}
}

// GetCompany serves GET /api/v1/cnpj/:cnpj. The parameter accepts both the
// raw 14-digit form and the punctuated form.
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("request_id")

	cnpj := utils.CleanCNPJ(c.Param("cnpj"))
	if !utils.IsValidCNPJ(cnpj) {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"cnpj":       c.Param("cnpj"),
		}).Warn("invalid cnpj format")

		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "Invalid CNPJ",
			Message:   "CNPJ must contain exactly 14 digits with valid check digits",
			Code:      "INVALID_CNPJ",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	detail, err := h.companyService.GetCompany(c.Request.Context(), cnpj)
	if err != nil {
		if errors.Is(err, services.ErrCompanyNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:     "CNPJ not found",
				Message:   "The requested CNPJ is not present in the loaded registry snapshot",
				Code:      "CNPJ_NOT_FOUND",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
			return
		}

		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"cnpj":       cnpj,
			"error":      err.Error(),
			"duration":   time.Since(start).String(),
		}).Error("company lookup failed")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "Internal server error",
			Message:   "An unexpected error occurred while processing your request",
			Code:      "INTERNAL_ERROR",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}
