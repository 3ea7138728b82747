package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siap-api/internal/middleware"
	"github.com/noah-isme/siap-api/internal/models"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
	"github.com/noah-isme/siap-api/pkg/response"
)

type statsService interface {
	CountCurrentMonth(ctx context.Context, isAdmin bool) (*models.CurrentMonthCount, bool, error)
	MonthlyUploads(ctx context.Context, isAdmin bool) (*models.MonthlyUploads, bool, error)
	Summary(ctx context.Context, isAdmin bool) (*models.DocumentSummary, bool, error)
}

// StatsHandler serves dashboard statistics.
type StatsHandler struct {
	service statsService
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(svc statsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// CountCurrentMonth godoc
// @Summary Letters filed this month
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/docs/count-current-month [get]
func (h *StatsHandler) CountCurrentMonth(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	res, hit, err := h.service.CountCurrentMonth(c.Request.Context(), claims.IsAdmin)
	respondStat(c, res, hit, err)
}

// MonthlyUploads godoc
// @Summary Uploads per month for the last twelve months
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/docs/monthly-uploads [get]
func (h *StatsHandler) MonthlyUploads(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	res, hit, err := h.service.MonthlyUploads(c.Request.Context(), claims.IsAdmin)
	respondStat(c, res, hit, err)
}

// Summary godoc
// @Summary Dashboard counters
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/summary [get]
func (h *StatsHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	res, hit, err := h.service.Summary(c.Request.Context(), claims.IsAdmin)
	respondStat(c, res, hit, err)
}

func respondStat(c *gin.Context, data interface{}, hit bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
}
