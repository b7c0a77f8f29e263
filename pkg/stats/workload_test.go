package stats

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/model"
)

func prof(name string, current, max int) *model.Professional {
	return &model.Professional{
		BaseModel:           model.BaseModel{ID: uuid.New()},
		Name:                name,
		Kind:                "nurse",
		CurrentPatientCount: current,
		MaxPatients:         max,
		IsActive:            true,
	}
}

func activeAssignment(profID uuid.UUID, area, date string) *model.PatientAssignment {
	return &model.PatientAssignment{
		BaseModel:          model.BaseModel{ID: uuid.New()},
		PatientID:          uuid.New(),
		ProfessionalID:     profID,
		ServiceArea:        area,
		ScheduledVisitDate: date,
		Status:             model.AssignmentActive,
	}
}

func TestAnalyzeWorkload(t *testing.T) {
	w := NewWorkloadAnalyzer(4)

	half := prof("Maija Niemi", 5, 10)  // 50%
	full := prof("Liisa Virtanen", 10, 10) // 100%

	assignments := []*model.PatientAssignment{
		activeAssignment(half.ID, "Tuira", "2025-06-03"),
		activeAssignment(half.ID, "Tuira", "2025-06-04"),
		activeAssignment(full.ID, "Kaakkuri", "2025-06-03"),
	}

	m := w.Analyze([]*model.Professional{half, full}, assignments)

	if m.TotalProfessionals != 2 || m.TotalActive != 2 {
		t.Errorf("人数统计 = %d/%d", m.TotalProfessionals, m.TotalActive)
	}
	if m.TotalPatients != 15 || m.TotalCapacity != 20 {
		t.Errorf("容量统计 = %d/%d, 期望 15/20", m.TotalPatients, m.TotalCapacity)
	}
	if m.OverallUtilization != 75.0 {
		t.Errorf("总体利用率 = %.1f, 期望 75.0", m.OverallUtilization)
	}
	if m.UtilizationStdDev != 25.0 {
		t.Errorf("标准差 = %.1f, 期望 25.0", m.UtilizationStdDev)
	}
	// [50, 100] 的基尼系数 = 50/300
	if m.UtilizationGini != 0.17 {
		t.Errorf("基尼系数 = %.2f, 期望 0.17", m.UtilizationGini)
	}
	if m.MaxUtilization != 100.0 || m.MinUtilization != 50.0 {
		t.Errorf("利用率区间 = [%.1f, %.1f]", m.MinUtilization, m.MaxUtilization)
	}

	if len(m.AtCapacity) != 1 || m.AtCapacity[0] != full.ID {
		t.Errorf("满员名单 = %v", m.AtCapacity)
	}
	if len(m.Idle) != 0 {
		t.Errorf("零负载名单 = %v, 期望空", m.Idle)
	}

	if m.AreaDistribution["Tuira"] != 2 || m.AreaDistribution["Kaakkuri"] != 1 {
		t.Errorf("服务区分布 = %v", m.AreaDistribution)
	}

	// 按利用率降序
	if m.ProfessionalStats[0].ProfessionalName != "Liisa Virtanen" {
		t.Errorf("首位 = %s, 期望利用率最高者", m.ProfessionalStats[0].ProfessionalName)
	}
}

func TestAnalyzeIdentifiesIdle(t *testing.T) {
	w := NewWorkloadAnalyzer(4)

	idle := prof("Antti Mäkinen", 0, 10)
	m := w.Analyze([]*model.Professional{idle}, nil)

	if len(m.Idle) != 1 || m.Idle[0] != idle.ID {
		t.Errorf("零负载名单 = %v", m.Idle)
	}
	if m.UtilizationGini != 0 {
		t.Errorf("单人基尼系数 = %.2f, 期望 0", m.UtilizationGini)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	w := NewWorkloadAnalyzer(0) // 非法值回退到默认 4

	m := w.Analyze(nil, nil)
	if m.TotalProfessionals != 0 || m.OverallUtilization != 0 {
		t.Errorf("空输入 = %+v", m)
	}
}

func TestDayFills(t *testing.T) {
	w := NewWorkloadAnalyzer(4)
	profID := uuid.New()

	assignments := []*model.PatientAssignment{
		activeAssignment(profID, "Tuira", "2025-06-03"),
		activeAssignment(profID, "Tuira", "2025-06-03"),
		activeAssignment(profID, "Tuira", "2025-06-04"),
		activeAssignment(uuid.New(), "Tuira", "2025-06-03"), // 别人的
	}
	// 已改派的不计入
	reassigned := activeAssignment(profID, "Tuira", "2025-06-03")
	reassigned.Status = model.AssignmentReassigned
	assignments = append(assignments, reassigned)

	fills := w.DayFills(profID, assignments)
	if len(fills) != 2 {
		t.Fatalf("天数 = %d, 期望 2", len(fills))
	}
	// 按日期升序
	if fills[0].Date != "2025-06-03" || fills[0].VisitCount != 2 || fills[0].FillRate != 50.0 {
		t.Errorf("首日 = %+v, 期望 2 次 / 50%%", fills[0])
	}
	if fills[1].Date != "2025-06-04" || fills[1].FillRate != 25.0 {
		t.Errorf("次日 = %+v, 期望 1 次 / 25%%", fills[1])
	}
}
