package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/sales-backoffice/internal/model"
	"github.com/iliyamo/sales-backoffice/internal/utils"
)

// MetricsProvider is implemented by service.DashboardService.
type MetricsProvider interface {
	Metrics(ctx context.Context) (model.DashboardMetrics, error)
}

// DashboardHandler serves /dashboard/metrics.
type DashboardHandler struct {
	Metrics MetricsProvider
	Log     logrus.FieldLogger
}

func NewDashboardHandler(m MetricsProvider, log logrus.FieldLogger) *DashboardHandler {
	return &DashboardHandler{Metrics: m, Log: log}
}

func (h *DashboardHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	m, err := h.Metrics.Metrics(ctx)
	if err != nil {
		return internalError(c, h.Log, err, "Erro ao calcular métricas.")
	}
	return utils.OK(c, http.StatusOK, m)
}
