package model

import "time"

// AuditEntry is one append-only row of `audit_logs`.  Nullable columns are
// pointers; the application never updates or deletes entries.
type AuditEntry struct {
	ID             uint64    `json:"id,omitempty"`
	UsuarioID      *uint64   `json:"usuario_id"`
	Username       *string   `json:"username"`
	Action         string    `json:"action"`
	Resource       string    `json:"resource"`
	ResourceID     *int64    `json:"resource_id"`
	Method         string    `json:"method"`
	Endpoint       string    `json:"endpoint"`
	IPAddress      *string   `json:"ip_address"`
	UserAgent      *string   `json:"user_agent"`
	RequestBody    *string   `json:"request_body"`
	ResponseStatus int       `json:"response_status"`
	ErrorMessage   *string   `json:"error_message"`
	CreatedAt      time.Time `json:"created_at"`
}

// DashboardMetrics is the payload of GET /dashboard/metrics.
type DashboardMetrics struct {
	TotalClientes  int64          `json:"totalClientes"`
	TotalVendas    int64          `json:"totalVendas"`
	Faturamento    float64        `json:"faturamento"`
	MargemLucro    float64        `json:"margemLucro"`
	Lucro          float64        `json:"lucro"`
	LucroHistorico []MonthlyProfit `json:"lucroHistorico"`
}

// MonthlyProfit is one month of revenue and derived profit.
type MonthlyProfit struct {
	Mes         string  `json:"mes"`
	Faturamento float64 `json:"faturamento"`
	Lucro       float64 `json:"lucro"`
}
