// Package scoring 提供患者-专业人员匹配评分策略
//
// 两套评分公式并存：WeightedStrategy 用于自动分配（技能优先），
// SimpleStrategy 用于人工分配界面的候选推荐（区域优先）。
package scoring

import (
	"sort"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/model"
)

// CandidateScore 候选人评分
type CandidateScore struct {
	ProfessionalID   uuid.UUID `json:"professional_id"`
	ProfessionalName string    `json:"professional_name"`
	Kind             string    `json:"kind"`
	Specialty        string    `json:"specialty,omitempty"`

	SkillScore        float64 `json:"skill_score"`
	AvailabilityScore float64 `json:"availability_score"`
	AreaScore         float64 `json:"area_score"`
	ClusteringBonus   float64 `json:"clustering_bonus"`
	FinalScore        float64 `json:"final_score"`

	CurrentPatients int    `json:"current_patients"`
	MaxPatients     int    `json:"max_patients"`
	AvailableSlots  int    `json:"available_slots"`
	Reasoning       string `json:"reasoning"`
}

// Strategy 评分策略接口
type Strategy interface {
	Name() string

	// Score 计算候选人评分；已满员等被整体排除的候选人返回 ok=false
	Score(patient *model.Patient, prof *model.ProfessionalProfile) (score CandidateScore, ok bool)
}

// RankCandidates 对候选人评分并按总分降序返回前 limit 名
// 排序稳定，同分按输入顺序
func RankCandidates(s Strategy, patient *model.Patient, profs []*model.ProfessionalProfile, limit int) []CandidateScore {
	scores := make([]CandidateScore, 0, len(profs))
	for _, prof := range profs {
		if score, ok := s.Score(patient, prof); ok {
			scores = append(scores, score)
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].FinalScore > scores[j].FinalScore
	})

	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}
