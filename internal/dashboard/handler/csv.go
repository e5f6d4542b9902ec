package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/transport"
	"dashboard_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

var kpiCSVHeaders = []string{"kpi", "value", "changePercent"}

// ExportKPIsCSV handles GET /api/v1/dashboard/kpis.csv
func (h *Handler) ExportKPIsCSV(c *gin.Context) {
	var q transport.DashboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	payload, err := h.dashboards.Get(c.Request.Context(), toRequest(q.Office, q.Period))
	if httpkit.HandleError(c, err) {
		return
	}

	writer, ok := startCsvResponse(c, payload.Meta)
	if !ok {
		_ = c.Error(fmt.Errorf("write csv header"))
		return
	}
	for _, row := range kpiRows(payload) {
		if err := writer.Write(row); err != nil {
			_ = c.Error(fmt.Errorf("write csv row: %w", err))
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = c.Error(fmt.Errorf("flush csv: %w", err))
	}
}

func startCsvResponse(c *gin.Context, meta domain.Meta) (*csv.Writer, bool) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=dashboard-%s-%s.csv", meta.Office, meta.Period))

	writer := csv.NewWriter(c.Writer)
	params := fmt.Sprintf("Parameters:Office=%s;Period=%s;Source=%s;Illustrative=%t;GeneratedAt=%s",
		meta.Office, meta.Period, meta.Source, meta.Illustrative, meta.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"))
	if err := writer.Write([]string{params}); err != nil {
		return nil, false
	}
	if err := writer.Write(kpiCSVHeaders); err != nil {
		return nil, false
	}
	return writer, true
}

// kpiRows lists the KPIs in their canonical order.
func kpiRows(payload domain.DashboardPayload) [][]string {
	rows := make([][]string, 0, len(domain.KPIKeys))
	for _, key := range domain.KPIKeys {
		kpi := payload.KPIs[key]
		rows = append(rows, []string{
			key,
			strconv.FormatFloat(kpi.Value, 'f', -1, 64),
			strconv.FormatFloat(kpi.ChangePercent, 'f', -1, 64),
		})
	}
	return rows
}
