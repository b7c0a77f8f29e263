package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/kotihoito/kotihoito/internal/repository"
	"github.com/kotihoito/kotihoito/pkg/assigner"
	"github.com/kotihoito/kotihoito/pkg/model"
	"github.com/kotihoito/kotihoito/pkg/slot"
	"github.com/kotihoito/kotihoito/pkg/validator"
)

// ScheduleHandler 排期API处理器
type ScheduleHandler struct {
	engine   *assigner.Engine
	finder   *slot.Finder
	store    *repository.Store
	detector *validator.ConflictDetector
}

// NewScheduleHandler 创建排期处理器
func NewScheduleHandler(engine *assigner.Engine, finder *slot.Finder, store *repository.Store, detector *validator.ConflictDetector) *ScheduleHandler {
	return &ScheduleHandler{engine: engine, finder: finder, store: store, detector: detector}
}

// DaySlots 返回专业人员某日的空闲时段
func (h *ScheduleHandler) DaySlots(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	q := r.URL.Query()
	professionalID, err := uuid.Parse(q.Get("professional_id"))
	if err != nil {
		writeBadRequest(w, "professional_id 无效")
		return
	}
	date := q.Get("date")
	if _, err := model.WeekdayOf(date); err != nil {
		writeBadRequest(w, "date 无效，应为 YYYY-MM-DD")
		return
	}

	schedule, err := h.finder.DaySlots(r.Context(), professionalID, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// Preview 返回专业人员未来一周的可约时段
func (h *ScheduleHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	q := r.URL.Query()
	professionalID, err := uuid.Parse(q.Get("professional_id"))
	if err != nil {
		writeBadRequest(w, "professional_id 无效")
		return
	}
	careDuration, _ := strconv.Atoi(q.Get("care_duration"))
	if careDuration <= 0 {
		careDuration = slot.DefaultCareDuration
	}

	slots, err := h.finder.PreviewSlots(r.Context(), professionalID, careDuration)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// Patients 返回专业人员名下的有效患者及排访时间
func (h *ScheduleHandler) Patients(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	professionalID, err := uuid.Parse(r.URL.Query().Get("professional_id"))
	if err != nil {
		writeBadRequest(w, "professional_id 无效")
		return
	}

	summaries, err := h.engine.ProfessionalPatients(r.Context(), professionalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Conflicts 检测专业人员某日排期的冲突
func (h *ScheduleHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	q := r.URL.Query()
	professionalID, err := uuid.Parse(q.Get("professional_id"))
	if err != nil {
		writeBadRequest(w, "professional_id 无效")
		return
	}
	date := q.Get("date")
	if _, err := model.WeekdayOf(date); err != nil {
		writeBadRequest(w, "date 无效，应为 YYYY-MM-DD")
		return
	}

	profile, err := h.store.GetProfile(r.Context(), professionalID)
	if err != nil {
		writeError(w, err)
		return
	}
	visits, err := h.store.ActiveVisitsOn(r.Context(), professionalID, date)
	if err != nil {
		writeError(w, err)
		return
	}

	patients := make(map[uuid.UUID]*model.Patient, len(visits))
	for _, v := range visits {
		if _, seen := patients[v.PatientID]; seen {
			continue
		}
		p, err := h.store.GetPatient(r.Context(), v.PatientID)
		if err != nil {
			continue
		}
		patients[v.PatientID] = p
	}

	conflicts := h.detector.DetectDay(profile, date, visits, patients)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":      date,
		"conflicts": conflicts,
		"count":     len(conflicts),
	})
}
