package scoring

import (
	"math"
	"strings"

	"github.com/kotihoito/kotihoito/pkg/model"
)

// WeightedWeights 加权评分的权重配置
type WeightedWeights struct {
	Skill        float64
	Availability float64
	Area         float64
}

// DefaultWeightedWeights 默认权重：临床匹配优先，其次负载均衡，再次地理
func DefaultWeightedWeights() WeightedWeights {
	return WeightedWeights{Skill: 0.4, Availability: 0.3, Area: 0.2}
}

// WeightedStrategy 自动分配使用的加权评分策略
// 聚类加分叠加在基础分之上，总分可超过 100
type WeightedStrategy struct {
	weights WeightedWeights
}

// NewWeightedStrategy 创建加权评分策略
func NewWeightedStrategy() *WeightedStrategy {
	return &WeightedStrategy{weights: DefaultWeightedWeights()}
}

// Name 返回策略名
func (s *WeightedStrategy) Name() string { return "weighted" }

// Score 计算候选人评分，已满员的候选人整体排除
func (s *WeightedStrategy) Score(patient *model.Patient, prof *model.ProfessionalProfile) (CandidateScore, bool) {
	p := prof.Professional
	if p.AtCapacity() {
		return CandidateScore{}, false
	}

	skill := skillMatchScore(patient.CareNeeded, prof.Specializations)
	availability := availabilityScore(p.CurrentPatientCount, p.MaxPatients, len(prof.WorkingHours))
	area := areaMatchScore(patient.Area, prof.ServiceAreas)
	clustering := clusteringBonus(patient.Area, prof.ActivePatientsByArea)

	final := skill*s.weights.Skill + availability*s.weights.Availability + area*s.weights.Area + clustering

	score := CandidateScore{
		ProfessionalID:    p.ID,
		ProfessionalName:  p.Name,
		Kind:              p.Kind,
		Specialty:         p.Specialty,
		SkillScore:        math.Round(skill),
		AvailabilityScore: math.Round(availability),
		AreaScore:         math.Round(area),
		ClusteringBonus:   math.Round(clustering),
		FinalScore:        math.Round(final),
		CurrentPatients:   p.CurrentPatientCount,
		MaxPatients:       p.MaxPatients,
		AvailableSlots:    p.RemainingSlots(),
	}
	score.Reasoning = buildReasoning(score)
	return score, true
}

// skillMatchScore 技能匹配评分（0-100）
// 专长与护理需求完全相同（忽略大小写）得 100，分词有交集得 75，否则 0
func skillMatchScore(careNeeded string, specializations []string) float64 {
	if careNeeded == "" || len(specializations) == 0 {
		return 0
	}

	for _, spec := range specializations {
		if strings.EqualFold(spec, careNeeded) {
			return 100
		}
	}

	careWords := tokenize(careNeeded)
	for _, spec := range specializations {
		specWords := tokenize(spec)
		for w := range careWords {
			if specWords[w] {
				return 75
			}
		}
	}

	return 0
}

// availabilityScore 可用性评分（0-100）
// 无任何工作时段得 0；否则 70% 看容量利用率，30 分封顶看班次天数
func availabilityScore(currentCount, maxPatients, shiftDays int) float64 {
	if shiftDays == 0 {
		return 0
	}

	capacityScore := 0.0
	if maxPatients > 0 {
		capacityScore = math.Max(0, 100-float64(currentCount)/float64(maxPatients)*100)
	}

	shiftScore := math.Min(float64(shiftDays)*20, 30)

	return capacityScore*0.7 + shiftScore
}

// areaMatchScore 服务区匹配评分（0-100）
// 主服务区命中 100，非主服务区命中 60，不覆盖 0
func areaMatchScore(patientArea string, areas []model.ServiceArea) float64 {
	if patientArea == "" || len(areas) == 0 {
		return 0
	}

	served := false
	for _, a := range areas {
		if strings.EqualFold(a.Area, patientArea) {
			if a.IsPrimary {
				return 100
			}
			served = true
		}
	}
	if served {
		return 60
	}
	return 0
}

// clusteringBonus 地理聚类加分（0-20）
// 每个已在同区的有效患者 +2 分，20 分封顶
func clusteringBonus(patientArea string, activeByArea map[string]int) float64 {
	if patientArea == "" || len(activeByArea) == 0 {
		return 0
	}

	count := 0
	for area, n := range activeByArea {
		if strings.EqualFold(area, patientArea) {
			count += n
		}
	}

	return math.Min(float64(count)*2, 20)
}

// buildReasoning 生成匹配理由摘要
func buildReasoning(s CandidateScore) string {
	var reasons []string

	if s.SkillScore >= 75 {
		reasons = append(reasons, "strong skill match")
	} else if s.SkillScore > 0 {
		reasons = append(reasons, "partial skill match")
	}

	if s.AvailabilityScore >= 70 {
		reasons = append(reasons, "high availability")
	} else if s.AvailabilityScore >= 50 {
		reasons = append(reasons, "good availability")
	}

	if s.AreaScore >= 80 {
		reasons = append(reasons, "service area coverage")
	} else if s.AreaScore > 0 {
		reasons = append(reasons, "partial area coverage")
	}

	if s.ClusteringBonus >= 10 {
		reasons = append(reasons, "geographic clustering (nearby patients)")
	} else if s.ClusteringBonus > 0 {
		reasons = append(reasons, "some nearby patients assigned")
	}

	if s.AvailableSlots <= 2 {
		reasons = append(reasons, "limited slots available")
	}

	if len(reasons) == 0 {
		return "good match"
	}
	return strings.Join(reasons, ", ")
}

// tokenize 拆分为小写词集合
func tokenize(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		words[w] = true
	}
	return words
}
