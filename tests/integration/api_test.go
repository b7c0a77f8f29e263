package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

// TestAssignAPI_AutoRequest 测试自动分配API请求格式
func TestAssignAPI_AutoRequest(t *testing.T) {
	request := map[string]interface{}{
		"patient_id":  uuid.New().String(),
		"assigned_by": uuid.New().String(),
	}

	body, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/v1/assign/auto", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if _, err := uuid.Parse(parsed["patient_id"].(string)); err != nil {
		t.Errorf("patient_id 不是合法 UUID: %v", err)
	}
	if req.Method != http.MethodPost {
		t.Error("分配接口应使用 POST")
	}
}

// TestAssignAPI_BulkRequest 测试批量分配API请求格式
func TestAssignAPI_BulkRequest(t *testing.T) {
	request := map[string]interface{}{
		"patient_ids": []string{uuid.New().String(), uuid.New().String()},
		"assigned_by": uuid.New().String(),
	}

	body, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	var parsed struct {
		PatientIDs []string `json:"patient_ids"`
		AssignedBy string   `json:"assigned_by"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(parsed.PatientIDs) != 2 {
		t.Errorf("patient_ids 数量 = %d", len(parsed.PatientIDs))
	}
}

// TestPatientAPI_CreateRequest 测试患者创建API请求格式
func TestPatientAPI_CreateRequest(t *testing.T) {
	request := map[string]interface{}{
		"name":                   "Aino Korhonen",
		"phone":                  "0405551234",
		"address":                "Kirkkokatu 1, Oulu",
		"care_needed":            "Wound Dressing",
		"area":                   "Tuira",
		"preferred_visit_time":   "09:00",
		"visit_time_flexibility": "fixed",
	}

	body, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/v1/patients/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	for _, field := range []string{"name", "care_needed", "area"} {
		if parsed[field] == "" {
			t.Errorf("必填字段 %s 为空", field)
		}
	}
}

// TestScheduleAPI_DaySlotsQuery 测试时段查询API参数格式
func TestScheduleAPI_DaySlotsQuery(t *testing.T) {
	req := httptest.NewRequest("GET",
		"/api/v1/schedule/day-slots?professional_id="+uuid.New().String()+"&date=2025-06-03", nil)

	q := req.URL.Query()
	if _, err := uuid.Parse(q.Get("professional_id")); err != nil {
		t.Errorf("professional_id 不是合法 UUID: %v", err)
	}
	if q.Get("date") != "2025-06-03" {
		t.Errorf("date = %s", q.Get("date"))
	}
}
