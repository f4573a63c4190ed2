package handler

import (
	"net/http"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/service"
	"github.com/go-chi/chi/v5"
)

// utilizationRow augments the raw report with the derived utilization
// percentage, capped at 100. The percentage is presentation-level: the
// aggregator itself returns only raw hours.
type utilizationRow struct {
	service.UtilizationReport
	UtilizationPercent float64 `json:"utilization_percent"`
}

func toRow(report service.UtilizationReport, rangeHours float64) utilizationRow {
	row := utilizationRow{UtilizationReport: report}
	if rangeHours > 0 {
		pct := report.BookedHours / rangeHours * 100
		if pct > 100 {
			pct = 100
		}
		row.UtilizationPercent = pct
	}
	return row
}

// ResourceUtilization handles GET /resources/{id}/utilization
// Query parameters: start, end.
func (h *SchedulerHandler) ResourceUtilization(w http.ResponseWriter, r *http.Request) {
	start, err := parseTimeParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.svc.Utilization(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRow(*report, end.Sub(start).Hours()))
}

// UtilizationReport handles GET /reports/utilization
// Query parameters: start, end. Returns one row per resource.
func (h *SchedulerHandler) UtilizationReport(w http.ResponseWriter, r *http.Request) {
	start, err := parseTimeParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := h.svc.UtilizationAll(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	rangeHours := end.Sub(start).Hours()
	rows := make([]utilizationRow, 0, len(reports))
	for _, report := range reports {
		rows = append(rows, toRow(report, rangeHours))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"range_hours": rangeHours,
		"resources":   rows,
	})
}
