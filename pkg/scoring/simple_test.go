package scoring

import (
	"strings"
	"testing"

	"github.com/kotihoito/kotihoito/pkg/model"
)

func TestSimpleScoreBreakdown(t *testing.T) {
	s := NewSimpleStrategy()

	patient := &model.Patient{CareNeeded: "Wound Dressing", Area: "Tuira"}
	// 映射表: Wound Dressing 需要 Wound Care 或 Nursing Care
	prof := testProfile("Maija Niemi", []string{"Wound Care"}, "Tuira", true, 2, 10, 2)

	score, ok := s.Score(patient, prof)
	if !ok {
		t.Fatal("简化策略不应排除任何候选人")
	}

	// 区域 40 + 专长 35 + 可用性 15 + 负载 round((1-0.2)*10)=8
	if score.AreaScore != 40 {
		t.Errorf("区域分 = %.0f, 期望 40", score.AreaScore)
	}
	if score.SkillScore != 35 {
		t.Errorf("专长分 = %.0f, 期望 35", score.SkillScore)
	}
	if score.AvailabilityScore != 15 {
		t.Errorf("可用性分 = %.0f, 期望 15", score.AvailabilityScore)
	}
	if score.FinalScore != 98 {
		t.Errorf("总分 = %.0f, 期望 98", score.FinalScore)
	}
}

func TestSimpleScoreKeepsAtCapacity(t *testing.T) {
	s := NewSimpleStrategy()

	patient := &model.Patient{CareNeeded: "Nursing Care", Area: "Tuira"}
	prof := testProfile("Maija Niemi", []string{"Nursing Care"}, "Tuira", true, 10, 10, 2)

	score, ok := s.Score(patient, prof)
	if !ok {
		t.Fatal("满员候选人在人工推荐里保留，由负载项压低得分")
	}
	// 利用率 100% 时负载项为 0
	if score.FinalScore != 40+35+15 {
		t.Errorf("满员总分 = %.0f, 期望 90", score.FinalScore)
	}
}

func TestSimpleScorePartialExpertise(t *testing.T) {
	s := NewSimpleStrategy()

	patient := &model.Patient{CareNeeded: "Wound Dressing", Area: "Tuira"}
	// 既无映射专长也无包含关系，专长项按部分匹配给 20 分
	prof := testProfile("Liisa Virtanen", []string{"Physical Therapy"}, "Tuira", true, 0, 10, 0)

	score, _ := s.Score(patient, prof)
	if score.SkillScore != 20 {
		t.Errorf("无专长命中 = %.0f, 期望兜底 20", score.SkillScore)
	}
	// 无班次可用性 5
	if score.AvailabilityScore != 5 {
		t.Errorf("无班次可用性 = %.0f, 期望 5", score.AvailabilityScore)
	}
}

func TestSimpleScoreExpertiseBySubstring(t *testing.T) {
	s := NewSimpleStrategy()

	// 未收录在映射表里的护理类型，靠互相包含兜底命中
	patient := &model.Patient{CareNeeded: "Advanced Wound Care", Area: "Tuira"}
	prof := testProfile("Maija Niemi", []string{"Wound Care"}, "Tuira", true, 0, 10, 1)

	score, _ := s.Score(patient, prof)
	if score.SkillScore != 35 {
		t.Errorf("包含关系命中 = %.0f, 期望 35", score.SkillScore)
	}
}

func TestSimpleReasoningUsesOwnScale(t *testing.T) {
	s := NewSimpleStrategy()
	patient := &model.Patient{CareNeeded: "Wound Dressing", Area: "Tuira"}

	// 区域 40 / 专长 35 / 可用性 15 在本策略里就是满分，理由要按满分口径给
	full := testProfile("Maija Niemi", []string{"Wound Care"}, "Tuira", true, 2, 10, 2)
	score, _ := s.Score(patient, full)
	if !strings.Contains(score.Reasoning, "service area coverage") {
		t.Errorf("区域满分 40 应标为覆盖, 理由 = %q", score.Reasoning)
	}
	if !strings.Contains(score.Reasoning, "strong skill match") {
		t.Errorf("专长满分 35 应标为强匹配, 理由 = %q", score.Reasoning)
	}
	if !strings.Contains(score.Reasoning, "working shifts on record") {
		t.Errorf("可用性满分 15 应标为有班次, 理由 = %q", score.Reasoning)
	}

	// 满员候选人保留在列表里，理由要点明已满
	atCapacity := testProfile("Liisa Virtanen", []string{"Wound Care"}, "Tuira", true, 10, 10, 2)
	score, _ = s.Score(patient, atCapacity)
	if !strings.Contains(score.Reasoning, "at patient capacity") {
		t.Errorf("满员候选人理由应含容量提示, 理由 = %q", score.Reasoning)
	}

	// 区域不覆盖 + 无班次
	outside := testProfile("Anna Korhonen", []string{"Physical Therapy"}, "Kaakkuri", true, 0, 10, 0)
	score, _ = s.Score(patient, outside)
	if !strings.Contains(score.Reasoning, "outside service areas") {
		t.Errorf("区域 0 分理由应标不覆盖, 理由 = %q", score.Reasoning)
	}
	if !strings.Contains(score.Reasoning, "no working hours on record") {
		t.Errorf("无班次理由应标无班次, 理由 = %q", score.Reasoning)
	}
	if !strings.Contains(score.Reasoning, "partial skill match") {
		t.Errorf("兜底 20 分理由应标部分匹配, 理由 = %q", score.Reasoning)
	}
}

func TestSkillsForCareType(t *testing.T) {
	skills := SkillsForCareType("Wound Dressing")
	if len(skills) != 2 || skills[0] != "Wound Care" {
		t.Errorf("Wound Dressing 映射 = %v", skills)
	}

	fallback := SkillsForCareType("Something Unknown")
	if len(fallback) != 1 || fallback[0] != "General Care" {
		t.Errorf("未知类型应映射到 General Care, 得到 %v", fallback)
	}
}
