package assigner

import (
	"context"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/errors"
	"github.com/kotihoito/kotihoito/pkg/model"
	"github.com/kotihoito/kotihoito/pkg/scoring"
	"github.com/kotihoito/kotihoito/pkg/slot"
)

// CandidateWithSlots 候选人及其未来可约时段预览
type CandidateWithSlots struct {
	Candidate scoring.CandidateScore `json:"candidate"`
	Slots     []slot.SlotOption      `json:"slots"`
}

// FindBestAssignmentWithTimeSlots 返回前 N 名候选人及各自未来一周的可约时段
//
// 只读预览，不提交任何分配；供人工分配界面展示"选谁 + 哪天有空"。
func (e *Engine) FindBestAssignmentWithTimeSlots(ctx context.Context, patientID uuid.UUID) ([]CandidateWithSlots, error) {
	patient, err := e.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	careDuration := slot.CareDuration(patient.CareNeeded, patient.EstimatedCareDuration)

	matches, err := e.FindBestMatches(ctx, patientID)
	if err != nil {
		return nil, err
	}

	results := make([]CandidateWithSlots, 0, len(matches))
	for _, m := range matches {
		slots, err := e.finder.PreviewSlots(ctx, m.ProfessionalID, careDuration)
		if err != nil {
			return nil, err
		}
		results = append(results, CandidateWithSlots{Candidate: m, Slots: slots})
	}
	return results, nil
}

// SuggestProfessionals 为人工分配界面推荐覆盖患者服务区的候选人
//
// 先按服务区过滤再用简化公式评分，与自动分配的加权评分口径不同。
func (e *Engine) SuggestProfessionals(ctx context.Context, patientID uuid.UUID) ([]scoring.CandidateScore, error) {
	patient, err := e.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	profiles, err := e.activeProfiles(ctx)
	if err != nil {
		return nil, err
	}

	serving := make([]*model.ProfessionalProfile, 0, len(profiles))
	for _, p := range profiles {
		if p.ServesArea(patient.Area) {
			serving = append(serving, p)
		}
	}
	if len(serving) == 0 {
		return nil, errors.New(errors.CodeAreaNotCovered, "服务区 '"+patient.Area+"' 无人覆盖")
	}

	return scoring.RankCandidates(e.manualStrategy, patient, serving, e.cfg.MaxCandidates), nil
}

// Insight 单一候选人的匹配解释
type Insight struct {
	Professional    string   `json:"professional"`
	Kind            string   `json:"kind"`
	FinalScore      float64  `json:"final_score"`
	SkillMatch      float64  `json:"skill_match"`
	Availability    float64  `json:"availability"`
	AreaMatch       float64  `json:"area_match"`
	ClusteringBonus float64  `json:"clustering_bonus"`
	Strengths       []string `json:"strengths,omitempty"`
	Concerns        []string `json:"concerns,omitempty"`
	Reasoning       string   `json:"reasoning"`
}

// MatchInsights 解释某患者与某专业人员的匹配质量
//
// 复用加权评分的各维度得分，按阈值归入优势/顾虑两栏。
// 已满员的候选人也会给出解释（评分器层面会被排除，这里单独放行）。
func (e *Engine) MatchInsights(ctx context.Context, patientID, professionalID uuid.UUID) (*Insight, error) {
	patient, err := e.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	profile, err := e.store.GetProfile(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	score, ok := e.autoStrategy.Score(patient, profile)
	insight := &Insight{
		Professional: profile.Professional.Name,
		Kind:         profile.Professional.Kind,
	}
	if ok {
		insight.FinalScore = score.FinalScore
		insight.SkillMatch = score.SkillScore
		insight.classify(score)
		insight.Reasoning = score.Reasoning
	} else {
		insight.Concerns = append(insight.Concerns, "已达到患者容量上限")
	}
	return insight, nil
}

// classify 将各维度得分归入优势/顾虑
func (i *Insight) classify(score scoring.CandidateScore) {
	i.Availability = score.AvailabilityScore
	i.AreaMatch = score.AreaScore
	i.ClusteringBonus = score.ClusteringBonus

	if score.SkillScore >= 75 {
		i.Strengths = append(i.Strengths, "技能与护理需求高度匹配")
	} else if score.SkillScore == 0 {
		i.Concerns = append(i.Concerns, "技能与护理需求不匹配")
	}
	if score.AvailabilityScore >= 70 {
		i.Strengths = append(i.Strengths, "可用度高")
	} else if score.AvailabilityScore < 50 {
		i.Concerns = append(i.Concerns, "可用度偏低")
	}
	if score.AreaScore >= 80 {
		i.Strengths = append(i.Strengths, "主服务区覆盖患者所在区域")
	} else if score.AreaScore == 0 {
		i.Concerns = append(i.Concerns, "不覆盖患者所在区域")
	}
	if score.ClusteringBonus >= 10 {
		i.Strengths = append(i.Strengths, "同区已有多名患者，路线集中")
	}
	if score.AvailableSlots <= 2 {
		i.Concerns = append(i.Concerns, "剩余名额紧张")
	}
}

// Suggestion 批量建议单项
type Suggestion struct {
	PatientID   uuid.UUID               `json:"patient_id"`
	PatientName string                  `json:"patient_name"`
	Best        *scoring.CandidateScore `json:"best,omitempty"`
	Message     string                  `json:"message,omitempty"`
}

// GenerateSuggestions 为一批待分配患者生成首选建议（只读，不提交）
func (e *Engine) GenerateSuggestions(ctx context.Context, patientIDs []uuid.UUID) ([]Suggestion, error) {
	profiles, err := e.activeProfiles(ctx)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(patientIDs))
	for _, patientID := range patientIDs {
		patient, err := e.store.GetPatient(ctx, patientID)
		if err != nil {
			return nil, err
		}

		s := Suggestion{PatientID: patientID, PatientName: patient.Name}
		ranked := scoring.RankCandidates(e.autoStrategy, patient, profiles, 1)
		if len(ranked) == 0 {
			s.Message = "没有符合条件的专业人员"
		} else {
			best := ranked[0]
			s.Best = &best
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, nil
}

// PatientSummary 专业人员名下患者摘要
type PatientSummary struct {
	Patient            *model.Patient `json:"patient"`
	ScheduledVisitDate string         `json:"scheduled_visit_date,omitempty"`
	ScheduledVisitTime string         `json:"scheduled_visit_time,omitempty"`
}

// ProfessionalPatients 返回专业人员名下的有效患者及排访时间
func (e *Engine) ProfessionalPatients(ctx context.Context, professionalID uuid.UUID) ([]PatientSummary, error) {
	patients, err := e.store.ActivePatientsOf(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	summaries := make([]PatientSummary, 0, len(patients))
	for _, p := range patients {
		summary := PatientSummary{Patient: p}
		if a, err := e.store.ActiveAssignmentFor(ctx, p.ID); err == nil && a != nil {
			summary.ScheduledVisitDate = a.ScheduledVisitDate
			summary.ScheduledVisitTime = a.ScheduledVisitTime
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
