package assigner

import (
	"context"
	"testing"

	"github.com/google/uuid"
	apperrors "github.com/kotihoito/kotihoito/pkg/errors"
)

func TestSuggestProfessionalsFiltersByArea(t *testing.T) {
	store := newFakeStore()
	inArea := store.addProfessional("Maija Niemi", []string{"Nursing Care"}, "Tuira", 10)
	store.addProfessional("Liisa Virtanen", []string{"Nursing Care"}, "Kaakkuri", 10)
	patient := store.addPatient("Aino Korhonen", "Nursing Care", "Tuira")

	engine := newTestEngine(store)

	suggestions, err := engine.SuggestProfessionals(context.Background(), patient.ID)
	if err != nil {
		t.Fatalf("推荐失败: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("候选人数 = %d, 期望只剩覆盖 Tuira 的 1 人", len(suggestions))
	}
	if suggestions[0].ProfessionalID != inArea.ID {
		t.Error("候选人选错")
	}
}

func TestSuggestProfessionalsAreaNotCovered(t *testing.T) {
	store := newFakeStore()
	store.addProfessional("Maija Niemi", []string{"Nursing Care"}, "Kaakkuri", 10)
	patient := store.addPatient("Aino Korhonen", "Nursing Care", "Pateniemi")

	engine := newTestEngine(store)

	_, err := engine.SuggestProfessionals(context.Background(), patient.ID)
	if err == nil {
		t.Fatal("无人覆盖应返回错误")
	}
	if !apperrors.Is(err, apperrors.CodeAreaNotCovered) {
		t.Errorf("错误码 = %s, 期望 AREA_NOT_COVERED", apperrors.GetCode(err))
	}
}

func TestMatchInsights(t *testing.T) {
	store := newFakeStore()
	prof := store.addProfessional("Maija Niemi", []string{"Wound Dressing"}, "Tuira", 10)
	patient := store.addPatient("Aino Korhonen", "Wound Dressing", "Tuira")

	engine := newTestEngine(store)

	insight, err := engine.MatchInsights(context.Background(), patient.ID, prof.ID)
	if err != nil {
		t.Fatalf("匹配解释失败: %v", err)
	}
	if insight.Professional != "Maija Niemi" {
		t.Errorf("人选 = %s", insight.Professional)
	}
	if insight.SkillMatch != 100 {
		t.Errorf("技能分 = %.0f, 期望 100", insight.SkillMatch)
	}
	if len(insight.Strengths) == 0 {
		t.Error("高分匹配应有优势项")
	}
}

func TestMatchInsightsAtCapacity(t *testing.T) {
	store := newFakeStore()
	prof := store.addProfessional("Maija Niemi", []string{"Nursing Care"}, "Tuira", 5)
	prof.CurrentPatientCount = 5
	patient := store.addPatient("Aino Korhonen", "Nursing Care", "Tuira")

	engine := newTestEngine(store)

	insight, err := engine.MatchInsights(context.Background(), patient.ID, prof.ID)
	if err != nil {
		t.Fatalf("匹配解释失败: %v", err)
	}
	if len(insight.Concerns) != 1 || insight.Concerns[0] != "已达到患者容量上限" {
		t.Errorf("满员顾虑 = %v", insight.Concerns)
	}
	if insight.FinalScore != 0 {
		t.Errorf("满员候选人不给分, 得到 %.0f", insight.FinalScore)
	}
}

func TestFindBestAssignmentWithTimeSlots(t *testing.T) {
	store := newFakeStore()
	store.addProfessional("Maija Niemi", []string{"Nursing Care"}, "Tuira", 10)
	patient := store.addPatient("Aino Korhonen", "Nursing Care", "Tuira")

	engine := newTestEngine(store)

	results, err := engine.FindBestAssignmentWithTimeSlots(context.Background(), patient.ID)
	if err != nil {
		t.Fatalf("候选预览失败: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("候选人数 = %d", len(results))
	}
	if len(results[0].Slots) == 0 {
		t.Error("空排期的候选人应有可约时段")
	}
	// 只读预览不落库
	if len(store.assignments) != 0 {
		t.Error("预览不应落库")
	}
}

func TestGenerateSuggestions(t *testing.T) {
	store := newFakeStore()
	store.addProfessional("Maija Niemi", []string{"Nursing Care"}, "Tuira", 10)
	p1 := store.addPatient("Aino Korhonen", "Nursing Care", "Tuira")
	p2 := store.addPatient("Eino Järvinen", "Nursing Care", "Tuira")

	engine := newTestEngine(store)

	suggestions, err := engine.GenerateSuggestions(context.Background(), []uuid.UUID{p1.ID, p2.ID})
	if err != nil {
		t.Fatalf("批量建议失败: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("建议数 = %d", len(suggestions))
	}
	for _, s := range suggestions {
		if s.Best == nil {
			t.Errorf("患者 %s 无首选建议", s.PatientName)
		}
	}
}

func TestProfessionalPatients(t *testing.T) {
	_, engine, patient, oldProf, _ := setupReassign(t)

	summaries, err := engine.ProfessionalPatients(context.Background(), oldProf.ID)
	if err != nil {
		t.Fatalf("名下患者查询失败: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("名下患者数 = %d", len(summaries))
	}
	if summaries[0].Patient.ID != patient.ID {
		t.Error("患者错误")
	}
	if summaries[0].ScheduledVisitDate != "2025-06-03" || summaries[0].ScheduledVisitTime != "08:00" {
		t.Errorf("排访时间 = %s %s", summaries[0].ScheduledVisitDate, summaries[0].ScheduledVisitTime)
	}
}
