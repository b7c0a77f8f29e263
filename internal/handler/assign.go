package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kotihoito/kotihoito/internal/metrics"
	"github.com/kotihoito/kotihoito/pkg/assigner"
)

// AssignHandler 分配API处理器
type AssignHandler struct {
	engine *assigner.Engine
}

// NewAssignHandler 创建分配处理器
func NewAssignHandler(engine *assigner.Engine) *AssignHandler {
	return &AssignHandler{engine: engine}
}

// patientRequest 只带患者ID的请求
type patientRequest struct {
	PatientID string `json:"patient_id"`
}

// assignRequest 自动分配请求
type assignRequest struct {
	PatientID  string `json:"patient_id"`
	AssignedBy string `json:"assigned_by"`
}

// smartAssignRequest 指定专业人员的分配请求
type smartAssignRequest struct {
	PatientID      string `json:"patient_id"`
	ProfessionalID string `json:"professional_id"`
	AssignedBy     string `json:"assigned_by"`
}

// bulkAssignRequest 批量分配请求
type bulkAssignRequest struct {
	PatientIDs []string `json:"patient_ids"`
	AssignedBy string   `json:"assigned_by"`
}

// reassignRequest 改派请求
type reassignRequest struct {
	PatientID         string `json:"patient_id"`
	NewProfessionalID string `json:"new_professional_id"`
	ChangedBy         string `json:"changed_by"`
	Reason            string `json:"reason,omitempty"`
}

// Matches 返回患者的候选专业人员排名
func (h *AssignHandler) Matches(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "请求体无效: "+err.Error())
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeBadRequest(w, "patient_id 无效")
		return
	}

	matches, err := h.engine.FindBestMatches(r.Context(), patientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// MatchesWithSlots 返回候选人及其可约时段预览
func (h *AssignHandler) MatchesWithSlots(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "请求体无效: "+err.Error())
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeBadRequest(w, "patient_id 无效")
		return
	}

	results, err := h.engine.FindBestAssignmentWithTimeSlots(r.Context(), patientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Auto 自动分配单个患者
func (h *AssignHandler) Auto(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "请求体无效: "+err.Error())
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeBadRequest(w, "patient_id 无效")
		return
	}
	assignedBy, err := uuid.Parse(req.AssignedBy)
	if err != nil {
		writeBadRequest(w, "assigned_by 无效")
		return
	}

	start := time.Now()
	result, err := h.engine.AutoAssignPatient(r.Context(), patientID, assignedBy, nil)
	if err != nil {
		metrics.RecordAssignment("auto", "error", time.Since(start))
		writeError(w, err)
		return
	}
	metrics.RecordAssignment("auto", outcomeLabel(result), time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

// Smart 为人工指定的专业人员分配患者
func (h *AssignHandler) Smart(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req smartAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "请求体无效: "+err.Error())
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeBadRequest(w, "patient_id 无效")
		return
	}
	professionalID, err := uuid.Parse(req.ProfessionalID)
	if err != nil {
		writeBadRequest(w, "professional_id 无效")
		return
	}
	assignedBy, err := uuid.Parse(req.AssignedBy)
	if err != nil {
		writeBadRequest(w, "assigned_by 无效")
		return
	}

	start := time.Now()
	result, err := h.engine.SmartAssignPatient(r.Context(), patientID, professionalID, assignedBy, nil)
	if err != nil {
		metrics.RecordAssignment("smart", "error", time.Since(start))
		writeError(w, err)
		return
	}
	metrics.RecordAssignment("smart", outcomeLabel(result), time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

// Bulk 批量自动分配
func (h *AssignHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req bulkAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "请求体无效: "+err.Error())
		return
	}
	if len(req.PatientIDs) == 0 {
		writeBadRequest(w, "patient_ids 不能为空")
		return
	}
	assignedBy, err := uuid.Parse(req.AssignedBy)
	if err != nil {
		writeBadRequest(w, "assigned_by 无效")
		return
	}

	patientIDs := make([]uuid.UUID, 0, len(req.PatientIDs))
	for _, raw := range req.PatientIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeBadRequest(w, "patient_ids 含无效ID: "+raw)
			return
		}
		patientIDs = append(patientIDs, id)
	}

	result, err := h.engine.BulkAutoAssign(r.Context(), patientIDs, assignedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordBulkRun(result.Total, result.SuccessCount)
	writeJSON(w, http.StatusOK, result)
}

// Reassign 改派患者
func (h *AssignHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req reassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "请求体无效: "+err.Error())
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeBadRequest(w, "patient_id 无效")
		return
	}
	newProfessionalID, err := uuid.Parse(req.NewProfessionalID)
	if err != nil {
		writeBadRequest(w, "new_professional_id 无效")
		return
	}
	changedBy, err := uuid.Parse(req.ChangedBy)
	if err != nil {
		writeBadRequest(w, "changed_by 无效")
		return
	}

	result, err := h.engine.ReassignPatient(r.Context(), patientID, newProfessionalID, changedBy, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Unassign 解除患者的当前分配
func (h *AssignHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "请求体无效: "+err.Error())
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeBadRequest(w, "patient_id 无效")
		return
	}

	result, err := h.engine.UnassignPatient(r.Context(), patientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Suggest 推荐覆盖患者服务区的候选人
func (h *AssignHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "请求体无效: "+err.Error())
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeBadRequest(w, "patient_id 无效")
		return
	}

	suggestions, err := h.engine.SuggestProfessionals(r.Context(), patientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// batchSuggestRequest 批量建议请求
type batchSuggestRequest struct {
	PatientIDs []string `json:"patient_ids"`
}

// Suggestions 为一批待分配患者生成首选建议
func (h *AssignHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req batchSuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "请求体无效: "+err.Error())
		return
	}
	if len(req.PatientIDs) == 0 {
		writeBadRequest(w, "patient_ids 不能为空")
		return
	}

	patientIDs := make([]uuid.UUID, 0, len(req.PatientIDs))
	for _, raw := range req.PatientIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeBadRequest(w, "patient_ids 含无效ID: "+raw)
			return
		}
		patientIDs = append(patientIDs, id)
	}

	suggestions, err := h.engine.GenerateSuggestions(r.Context(), patientIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// insightsRequest 匹配解释请求
type insightsRequest struct {
	PatientID      string `json:"patient_id"`
	ProfessionalID string `json:"professional_id"`
}

// Insights 解释患者与专业人员的匹配质量
func (h *AssignHandler) Insights(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req insightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "请求体无效: "+err.Error())
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeBadRequest(w, "patient_id 无效")
		return
	}
	professionalID, err := uuid.Parse(req.ProfessionalID)
	if err != nil {
		writeBadRequest(w, "professional_id 无效")
		return
	}

	insight, err := h.engine.MatchInsights(r.Context(), patientID, professionalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insight)
}

// outcomeLabel 将分配结果转为指标标签
func outcomeLabel(result *assigner.AssignResult) string {
	if result.Success {
		return "success"
	}
	if result.ErrorCode == "" {
		return "failure"
	}
	return strings.ToLower(string(result.ErrorCode))
}
