package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/services"
)

// ExportHandler handles transaction export requests.
type ExportHandler struct {
	exportService services.ExportServicer
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportService services.ExportServicer) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// ExportTransactions handles downloading the user's transactions as a file.
// @Summary     Export transactions
// @Description Download the user's transactions as CSV or XLSX, honoring the same filters as the list endpoint
// @Tags        transactions
// @Accept      json
// @Produce     text/csv
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       format      query string false "Export format: csv (default) or xlsx"
// @Param       from_date   query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date     query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       type        query string false "Filter by transaction type (income, expense)"
// @Param       category_id query int    false "Filter by category ID"
// @Success     200 {file} file "Exported transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/export [get]
func (h *ExportHandler) ExportTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stamp := time.Now().Format("2006-01-02")

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=transactions_%s.csv", stamp))
		if err := h.exportService.ExportTransactionsCSV(userID, filter, c.Writer); err != nil {
			respondWithError(c, err)
			return
		}
	case "xlsx":
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=transactions_%s.xlsx", stamp))
		if err := h.exportService.ExportTransactionsXLSX(userID, filter, c.Writer); err != nil {
			respondWithError(c, err)
			return
		}
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "format must be 'csv' or 'xlsx'"))
	}
}
