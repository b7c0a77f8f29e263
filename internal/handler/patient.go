package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/kotihoito/kotihoito/internal/geocode"
	"github.com/kotihoito/kotihoito/internal/metrics"
	"github.com/kotihoito/kotihoito/internal/repository"
	"github.com/kotihoito/kotihoito/pkg/logger"
	"github.com/kotihoito/kotihoito/pkg/model"
)

// PatientHandler 患者API处理器
type PatientHandler struct {
	patients   *repository.PatientRepository
	geocoder   *geocode.Client
	backfiller *geocode.Backfiller
}

// NewPatientHandler 创建患者处理器，geocoder/backfiller 可为 nil
func NewPatientHandler(patients *repository.PatientRepository, geocoder *geocode.Client, backfiller *geocode.Backfiller) *PatientHandler {
	return &PatientHandler{patients: patients, geocoder: geocoder, backfiller: backfiller}
}

// createPatientRequest 患者建档请求
type createPatientRequest struct {
	Name                  string `json:"name"`
	Phone                 string `json:"phone,omitempty"`
	Address               string `json:"address,omitempty"`
	CareNeeded            string `json:"care_needed"`
	EstimatedCareDuration int    `json:"estimated_care_duration,omitempty"`
	Area                  string `json:"area"`
	PreferredVisitTime    string `json:"preferred_visit_time,omitempty"`
	VisitTimeFlexibility  string `json:"visit_time_flexibility,omitempty"`
	Notes                 string `json:"notes,omitempty"`
}

// Create 患者建档
//
// 有地址时同步尝试地理编码；解析失败不阻塞建档，
// 坐标留空，后续由回填任务补齐。
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req createPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "请求体无效: "+err.Error())
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name 不能为空")
		return
	}
	if req.CareNeeded == "" {
		writeBadRequest(w, "care_needed 不能为空")
		return
	}
	if req.Area == "" {
		writeBadRequest(w, "area 不能为空")
		return
	}

	patient := &model.Patient{
		Name:                  req.Name,
		Phone:                 req.Phone,
		Address:               req.Address,
		CareNeeded:            req.CareNeeded,
		EstimatedCareDuration: req.EstimatedCareDuration,
		Area:                  req.Area,
		PreferredVisitTime:    req.PreferredVisitTime,
		VisitTimeFlexibility:  model.VisitTimeFlexibility(req.VisitTimeFlexibility),
		Status:                "pending",
		Notes:                 req.Notes,
	}

	if h.geocoder != nil && req.Address != "" {
		if geo, err := h.geocoder.Geocode(r.Context(), req.Address); err == nil {
			patient.Latitude = &geo.Latitude
			patient.Longitude = &geo.Longitude
			metrics.RecordGeocode(true)
		} else {
			logger.Warn().Str("address", req.Address).Err(err).Msg("建档时地址解析失败")
			metrics.RecordGeocode(false)
		}
	}

	if err := h.patients.Create(r.Context(), patient); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, patient)
}

// List 查询患者列表
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	filter := repository.DefaultListFilter()
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		filter = filter.WithStatus(status)
	}
	if area := q.Get("area"); area != "" {
		filter = filter.WithArea(area)
	}
	if search := q.Get("search"); search != "" {
		filter.Search = search
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter = filter.WithLimit(limit)
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset >= 0 {
		filter = filter.WithOffset(offset)
	}

	patients, total, err := h.patients.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"total":    total,
	})
}

// Pending 查询所有待分配患者
func (h *PatientHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	patients, err := h.patients.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

// Get 查询单个患者
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		writeBadRequest(w, "id 无效")
		return
	}

	patient, err := h.patients.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// backfillRequest 坐标回填请求
type backfillRequest struct {
	Limit int `json:"limit,omitempty"`
}

// Backfill 触发一轮坐标回填
func (h *PatientHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.backfiller == nil {
		writeBadRequest(w, "地理编码未启用")
		return
	}

	var req backfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "请求体无效: "+err.Error())
		return
	}

	result, err := h.backfiller.Run(r.Context(), req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
