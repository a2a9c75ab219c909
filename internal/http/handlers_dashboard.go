package http

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"harvestbook/internal/core"
	"harvestbook/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ---- balances ----

func (s *Server) handleFarmerBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	b, err := s.svc.FarmerBalance(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewFarmerBalance(b))
}

func (s *Server) handleOwnerBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	b, err := s.svc.OwnerBalance(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOwnerBalance(b))
}

func (s *Server) handleMachineBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	h, rental, err := s.svc.MachineBalance(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewMachineBalance(h, rental))
}

func (s *Server) handleDealerBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	b, err := s.svc.DealerBalance(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewDealerBalance(b))
}

// ---- dashboard ----

func summaryFilter(r *http.Request) (core.SummaryFilter, error) {
	var filter core.SummaryFilter
	if v := strings.TrimSpace(r.URL.Query().Get("machine_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return core.SummaryFilter{}, badRequest("invalid machine_id '"+v+"'", nil)
		}
		filter.MachineID = id
	}
	filter.Village = strings.TrimSpace(r.URL.Query().Get("village"))
	return filter, nil
}

func summaryCacheKey(f core.SummaryFilter) string {
	return strconv.FormatInt(f.MachineID, 10) + "|" + f.Village
}

func (s *Server) dashboardSummary(r *http.Request, filter core.SummaryFilter) (core.Summary, error) {
	key := summaryCacheKey(filter)
	if summary, ok := s.summaries.Get(key); ok {
		return summary, nil
	}
	summary, err := s.svc.Dashboard(r.Context(), filter)
	if err != nil {
		return core.Summary{}, err
	}
	s.summaries.Set(key, summary)
	return summary, nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filter, err := summaryFilter(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	summary, err := s.dashboardSummary(r, filter)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewSummary(summary))
}

// handleDashboardExport streams the dashboard as an XLSX workbook. The
// workbook is built in memory so a late failure never leaves a partial
// download.
func (s *Server) handleDashboardExport(w http.ResponseWriter, r *http.Request) {
	filter, err := summaryFilter(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	summary, err := s.dashboardSummary(r, filter)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteDashboardXLSX(&buf, summary); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

// handleFarmerStatement exports one farmer's job history and position.
func (s *Server) handleFarmerStatement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	farmer, err := s.svc.Storage().GetFarmer(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	balance, err := s.svc.FarmerBalance(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	jobs, err := s.svc.Storage().ListJobsByFarmer(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteFarmerStatementXLSX(&buf, farmer, balance, jobs); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="farmer-statement.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}
