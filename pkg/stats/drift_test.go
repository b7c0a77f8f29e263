package stats

import (
	"testing"

	"github.com/kotihoito/kotihoito/pkg/model"
)

func TestDetectCounterDrift(t *testing.T) {
	drifted := prof("Maija Niemi", 5, 10)   // 存储 5，实际 3
	accurate := prof("Liisa Virtanen", 1, 10) // 存储 1，实际 1

	assignments := []*model.PatientAssignment{
		activeAssignment(drifted.ID, "Tuira", "2025-06-03"),
		activeAssignment(drifted.ID, "Tuira", "2025-06-04"),
		activeAssignment(drifted.ID, "Tuira", "2025-06-05"),
		activeAssignment(accurate.ID, "Kaakkuri", "2025-06-03"),
	}
	// 已改派的不算有效
	gone := activeAssignment(drifted.ID, "Tuira", "2025-06-06")
	gone.Status = model.AssignmentReassigned
	assignments = append(assignments, gone)

	report := DetectCounterDrift([]*model.Professional{drifted, accurate}, assignments)

	if report.TotalProfessionals != 2 {
		t.Errorf("总人数 = %d", report.TotalProfessionals)
	}
	if report.DriftedCount != 1 {
		t.Fatalf("漂移人数 = %d, 期望 1", report.DriftedCount)
	}
	if report.TotalDrift != 2 {
		t.Errorf("总漂移 = %d, 期望 2", report.TotalDrift)
	}

	d := report.Drifts[0]
	if d.ProfessionalID != drifted.ID || d.StoredCount != 5 || d.ActualCount != 3 || d.Drift != 2 {
		t.Errorf("漂移明细 = %+v", d)
	}
}

func TestDetectCounterDriftClean(t *testing.T) {
	p := prof("Maija Niemi", 1, 10)
	assignments := []*model.PatientAssignment{activeAssignment(p.ID, "Tuira", "2025-06-03")}

	report := DetectCounterDrift([]*model.Professional{p}, assignments)
	if report.DriftedCount != 0 || len(report.Drifts) != 0 {
		t.Errorf("无漂移时报告 = %+v", report)
	}
}
