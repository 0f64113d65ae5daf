// Package service holds logic that sits between handlers and repositories:
// dashboard aggregation and the broker-backed audit sink.
package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sales-backoffice/internal/config"
	"github.com/iliyamo/sales-backoffice/internal/model"
	"github.com/iliyamo/sales-backoffice/internal/repository"
)

// HistoryMonths is how many months lucroHistorico covers.
const HistoryMonths = 6

// MetricsSource is the read side DashboardService needs.
type MetricsSource interface {
	Totals(ctx context.Context) (repository.Totals, error)
	RecentMonths(ctx context.Context, limit int) ([]repository.MonthlyRevenue, error)
}

// DashboardService computes the dashboard payload from stored sales.
type DashboardService struct {
	src    MetricsSource
	margin decimal.Decimal
}

// NewDashboardService clamps margin to [0,1]; values outside fall back to
// the default margin.
func NewDashboardService(src MetricsSource, margin float64) *DashboardService {
	return &DashboardService{src: src, margin: decimal.NewFromFloat(config.ClampMargin(margin))}
}

func (s *DashboardService) profit(revenue decimal.Decimal) decimal.Decimal {
	return revenue.Mul(s.margin).Round(2)
}

// Metrics returns totals, profit and the monthly history in ascending month
// order.
func (s *DashboardService) Metrics(ctx context.Context) (model.DashboardMetrics, error) {
	totals, err := s.src.Totals(ctx)
	if err != nil {
		return model.DashboardMetrics{}, err
	}
	months, err := s.src.RecentMonths(ctx, HistoryMonths)
	if err != nil {
		return model.DashboardMetrics{}, err
	}

	history := make([]model.MonthlyProfit, len(months))
	for i, m := range months {
		// rows arrive newest first
		j := len(months) - 1 - i
		history[j] = model.MonthlyProfit{
			Mes:         m.Mes,
			Faturamento: m.Faturamento.InexactFloat64(),
			Lucro:       s.profit(m.Faturamento).InexactFloat64(),
		}
	}

	return model.DashboardMetrics{
		TotalClientes:  totals.Clientes,
		TotalVendas:    totals.Vendas,
		Faturamento:    totals.Faturamento.InexactFloat64(),
		MargemLucro:    s.margin.InexactFloat64(),
		Lucro:          s.profit(totals.Faturamento).InexactFloat64(),
		LucroHistorico: history,
	}, nil
}
