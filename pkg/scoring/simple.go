package scoring

import (
	"math"
	"strings"

	"github.com/kotihoito/kotihoito/pkg/model"
)

// SimpleStrategy 人工分配界面使用的简化评分策略
// 权重：区域 40 / 专长 35 / 可用性 15 / 负载 10，总分 100 封顶
type SimpleStrategy struct{}

// NewSimpleStrategy 创建简化评分策略
func NewSimpleStrategy() *SimpleStrategy {
	return &SimpleStrategy{}
}

// Name 返回策略名
func (s *SimpleStrategy) Name() string { return "simple" }

// Score 计算候选人评分
// 与 WeightedStrategy 不同，这里不排除已满员的候选人，负载项会压低其得分
func (s *SimpleStrategy) Score(patient *model.Patient, prof *model.ProfessionalProfile) (CandidateScore, bool) {
	p := prof.Professional

	// 区域（40 分）
	areaScore := 0.0
	if prof.ServesArea(patient.Area) {
		areaScore = 40
	}

	// 专长（35 分，部分匹配 20 分）
	expertiseScore := 20.0
	if hasExpertise(patient.CareNeeded, prof) {
		expertiseScore = 35
	}

	// 可用性（15 分，无班次 5 分）
	availScore := 5.0
	if len(prof.WorkingHours) > 0 {
		availScore = 15
	}

	// 负载均衡（10 分，利用率越低得分越高）
	workloadScore := 0.0
	if p.MaxPatients > 0 {
		utilization := float64(p.CurrentPatientCount) / float64(p.MaxPatients)
		workloadScore = math.Round((1 - utilization) * 10)
	}

	final := math.Min(areaScore+expertiseScore+availScore+workloadScore, 100)

	score := CandidateScore{
		ProfessionalID:    p.ID,
		ProfessionalName:  p.Name,
		Kind:              p.Kind,
		Specialty:         p.Specialty,
		SkillScore:        expertiseScore,
		AvailabilityScore: availScore,
		AreaScore:         areaScore,
		FinalScore:        final,
		CurrentPatients:   p.CurrentPatientCount,
		MaxPatients:       p.MaxPatients,
		AvailableSlots:    p.RemainingSlots(),
	}
	score.Reasoning = buildSimpleReasoning(score)
	return score, true
}

// buildSimpleReasoning 生成简化策略的匹配理由摘要
// 子分量程与加权策略不同（40/35/15/10），阈值按本策略口径取
func buildSimpleReasoning(s CandidateScore) string {
	var reasons []string

	if s.AreaScore >= 40 {
		reasons = append(reasons, "service area coverage")
	} else {
		reasons = append(reasons, "outside service areas")
	}

	if s.SkillScore >= 35 {
		reasons = append(reasons, "strong skill match")
	} else {
		reasons = append(reasons, "partial skill match")
	}

	if s.AvailabilityScore >= 15 {
		reasons = append(reasons, "working shifts on record")
	} else {
		reasons = append(reasons, "no working hours on record")
	}

	if s.MaxPatients > 0 && s.CurrentPatients >= s.MaxPatients {
		reasons = append(reasons, "at patient capacity")
	} else if s.MaxPatients > 0 && s.AvailableSlots <= 2 {
		reasons = append(reasons, "limited slots available")
	}

	return strings.Join(reasons, ", ")
}

// hasExpertise 检查专业人员是否具备护理类型所需的专长
func hasExpertise(careNeeded string, prof *model.ProfessionalProfile) bool {
	for _, skill := range SkillsForCareType(careNeeded) {
		if prof.HasSpecialization(skill) {
			return true
		}
	}
	// 兜底：护理需求与专长互相包含也算命中
	needle := strings.ToLower(careNeeded)
	for _, spec := range prof.Specializations {
		s := strings.ToLower(spec)
		if s != "" && (strings.Contains(needle, s) || strings.Contains(s, needle)) {
			return true
		}
	}
	return false
}
