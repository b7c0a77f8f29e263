package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/model"
)

func testProfile(name string, specs []string, area string, primary bool, current, max, shiftDays int) *model.ProfessionalProfile {
	p := &model.Professional{
		BaseModel:           model.BaseModel{ID: uuid.New()},
		Name:                name,
		Kind:                "nurse",
		MaxPatients:         max,
		CurrentPatientCount: current,
		IsActive:            true,
	}

	hours := make([]model.WorkingHours, 0, shiftDays)
	for wd := 1; wd <= shiftDays; wd++ {
		hours = append(hours, model.WorkingHours{
			ProfessionalID: p.ID, Weekday: wd, StartTime: "08:00", EndTime: "16:00", IsRecurring: true,
		})
	}

	return &model.ProfessionalProfile{
		Professional:    p,
		Specializations: specs,
		ServiceAreas:    []model.ServiceArea{{ProfessionalID: p.ID, Area: area, IsPrimary: primary}},
		WorkingHours:    hours,
	}
}

func TestWeightedScoreFullMatch(t *testing.T) {
	s := NewWeightedStrategy()

	patient := &model.Patient{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		Name:       "Aino Korhonen",
		CareNeeded: "Wound Dressing",
		Area:       "Tuira",
	}
	prof := testProfile("Maija Niemi", []string{"Wound Dressing"}, "Tuira", true, 0, 10, 2)
	prof.ActivePatientsByArea = map[string]int{"Tuira": 3}

	score, ok := s.Score(patient, prof)
	if !ok {
		t.Fatal("未满员的候选人不应被排除")
	}

	// 技能 100*0.4 + 可用性 100*0.3 + 区域 100*0.2 + 聚类 3*2
	if score.SkillScore != 100 {
		t.Errorf("技能分 = %.0f, 期望 100", score.SkillScore)
	}
	if score.AvailabilityScore != 100 {
		t.Errorf("可用性分 = %.0f, 期望 100", score.AvailabilityScore)
	}
	if score.AreaScore != 100 {
		t.Errorf("区域分 = %.0f, 期望 100", score.AreaScore)
	}
	if score.ClusteringBonus != 6 {
		t.Errorf("聚类加分 = %.0f, 期望 6", score.ClusteringBonus)
	}
	if score.FinalScore != 96 {
		t.Errorf("总分 = %.0f, 期望 96", score.FinalScore)
	}
	if score.Reasoning == "" {
		t.Error("匹配理由不应为空")
	}
}

func TestWeightedScoreExcludesAtCapacity(t *testing.T) {
	s := NewWeightedStrategy()

	patient := &model.Patient{CareNeeded: "Nursing Care", Area: "Tuira"}
	prof := testProfile("Maija Niemi", []string{"Nursing Care"}, "Tuira", true, 10, 10, 5)

	if _, ok := s.Score(patient, prof); ok {
		t.Error("满员的候选人应被整体排除")
	}
}

func TestWeightedScorePartialSkillMatch(t *testing.T) {
	s := NewWeightedStrategy()

	patient := &model.Patient{CareNeeded: "Wound Dressing", Area: "Tuira"}
	prof := testProfile("Liisa Virtanen", []string{"Dressing Change"}, "Tuira", true, 0, 10, 2)

	score, _ := s.Score(patient, prof)
	if score.SkillScore != 75 {
		t.Errorf("分词有交集的技能分 = %.0f, 期望 75", score.SkillScore)
	}
}

func TestMatchScoresIgnoreCase(t *testing.T) {
	if got := skillMatchScore("WOUND DRESSING", []string{"wound dressing"}); got != 100 {
		t.Errorf("全大写护理需求的技能分 = %.0f, 期望 100", got)
	}
	if got := skillMatchScore("wound DRESSING", []string{"Dressing Change"}); got != 75 {
		t.Errorf("混合大小写分词匹配的技能分 = %.0f, 期望 75", got)
	}

	if got := areaMatchScore("TUIRA", []model.ServiceArea{{Area: "Tuira", IsPrimary: true}}); got != 100 {
		t.Errorf("全大写区域的主服务区分 = %.0f, 期望 100", got)
	}
	if got := areaMatchScore("tuira", []model.ServiceArea{{Area: "TUIRA"}}); got != 60 {
		t.Errorf("全小写区域的非主服务区分 = %.0f, 期望 60", got)
	}

	if got := clusteringBonus("kaakkuri", map[string]int{"Kaakkuri": 3}); got != 6 {
		t.Errorf("大小写不同区域的聚类加分 = %.0f, 期望 6", got)
	}
}

func TestWeightedScoreNoWorkingHours(t *testing.T) {
	s := NewWeightedStrategy()

	patient := &model.Patient{CareNeeded: "Nursing Care", Area: "Tuira"}
	prof := testProfile("Liisa Virtanen", []string{"Nursing Care"}, "Tuira", true, 0, 10, 0)

	score, ok := s.Score(patient, prof)
	if !ok {
		t.Fatal("无班次只压低分数，不整体排除")
	}
	if score.AvailabilityScore != 0 {
		t.Errorf("无班次的可用性分 = %.0f, 期望 0", score.AvailabilityScore)
	}
}

func TestWeightedScoreSecondaryArea(t *testing.T) {
	s := NewWeightedStrategy()

	patient := &model.Patient{CareNeeded: "Nursing Care", Area: "Raksila"}
	prof := testProfile("Liisa Virtanen", []string{"Nursing Care"}, "Raksila", false, 0, 10, 2)

	score, _ := s.Score(patient, prof)
	if score.AreaScore != 60 {
		t.Errorf("非主服务区命中 = %.0f, 期望 60", score.AreaScore)
	}

	// 不覆盖的区域得 0
	uncovered := &model.Patient{CareNeeded: "Nursing Care", Area: "Kaakkuri"}
	score, _ = s.Score(uncovered, prof)
	if score.AreaScore != 0 {
		t.Errorf("不覆盖区域 = %.0f, 期望 0", score.AreaScore)
	}
}

func TestWeightedClusteringBonusCapped(t *testing.T) {
	s := NewWeightedStrategy()

	patient := &model.Patient{CareNeeded: "Nursing Care", Area: "Tuira"}
	prof := testProfile("Maija Niemi", []string{"Nursing Care"}, "Tuira", true, 0, 100, 2)
	prof.ActivePatientsByArea = map[string]int{"Tuira": 15}

	score, _ := s.Score(patient, prof)
	if score.ClusteringBonus != 20 {
		t.Errorf("聚类加分 = %.0f, 期望 20 封顶", score.ClusteringBonus)
	}
}

func TestRankCandidatesOrderAndLimit(t *testing.T) {
	s := NewWeightedStrategy()

	patient := &model.Patient{CareNeeded: "Wound Dressing", Area: "Tuira"}

	best := testProfile("Maija Niemi", []string{"Wound Dressing"}, "Tuira", true, 0, 10, 2)
	weak := testProfile("Liisa Virtanen", []string{"Physical Therapy"}, "Tuira", false, 5, 10, 1)
	full := testProfile("Antti Mäkinen", []string{"Wound Dressing"}, "Tuira", true, 10, 10, 5)

	ranked := RankCandidates(s, patient, []*model.ProfessionalProfile{weak, full, best}, 5)
	if len(ranked) != 2 {
		t.Fatalf("候选人数 = %d, 期望 2（满员者排除）", len(ranked))
	}
	if ranked[0].ProfessionalName != "Maija Niemi" {
		t.Errorf("首位候选 = %s, 期望 Maija Niemi", ranked[0].ProfessionalName)
	}
	if ranked[0].FinalScore < ranked[1].FinalScore {
		t.Error("候选人应按总分降序")
	}

	limited := RankCandidates(s, patient, []*model.ProfessionalProfile{weak, best}, 1)
	if len(limited) != 1 || limited[0].ProfessionalName != "Maija Niemi" {
		t.Errorf("limit=1 应只保留最高分, 得到 %v", limited)
	}
}
