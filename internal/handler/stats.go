package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kotihoito/kotihoito/internal/metrics"
	"github.com/kotihoito/kotihoito/internal/repository"
	"github.com/kotihoito/kotihoito/pkg/stats"
)

// StatsHandler 统计API处理器
type StatsHandler struct {
	store    *repository.Store
	analyzer *stats.WorkloadAnalyzer
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(store *repository.Store, analyzer *stats.WorkloadAnalyzer) *StatsHandler {
	return &StatsHandler{store: store, analyzer: analyzer}
}

// Workload 负载分布统计
func (h *StatsHandler) Workload(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	professionals, err := h.store.Professionals.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	assignments, err := h.store.Assignments.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	result := h.analyzer.Analyze(professionals, assignments)
	metrics.SetUtilizationGini(result.UtilizationGini)
	writeJSON(w, http.StatusOK, result)
}

// DayFills 单人各日访视填充率
func (h *StatsHandler) DayFills(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	professionalID, err := uuid.Parse(r.URL.Query().Get("professional_id"))
	if err != nil {
		writeBadRequest(w, "professional_id 无效")
		return
	}

	assignments, err := h.store.Assignments.ListActiveByProfessional(r.Context(), professionalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.analyzer.DayFills(professionalID, assignments))
}

// Drift 患者计数对账
func (h *StatsHandler) Drift(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	professionals, err := h.store.Professionals.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	assignments, err := h.store.Assignments.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	report := stats.DetectCounterDrift(professionals, assignments)
	metrics.SetCounterDrift(report.TotalDrift)
	writeJSON(w, http.StatusOK, report)
}

// History 患者分配变更历史
func (h *StatsHandler) History(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	patientID, err := uuid.Parse(r.URL.Query().Get("patient_id"))
	if err != nil {
		writeBadRequest(w, "patient_id 无效")
		return
	}

	history, err := h.store.Assignments.HistoryForPatient(r.Context(), patientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
