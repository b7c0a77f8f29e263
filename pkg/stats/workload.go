// Package stats 提供分配负载统计与计数对账功能
package stats

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/model"
)

// WorkloadMetrics 负载分布指标
type WorkloadMetrics struct {
	TotalProfessionals int     `json:"total_professionals"`
	TotalActive        int     `json:"total_active"`
	TotalPatients      int     `json:"total_patients"`
	TotalCapacity      int     `json:"total_capacity"`
	OverallUtilization float64 `json:"overall_utilization"` // 总体利用率 (%)

	// 负载公平性
	UtilizationGini   float64 `json:"utilization_gini"`    // 利用率基尼系数 (0=完全均衡)
	UtilizationStdDev float64 `json:"utilization_std_dev"` // 利用率标准差
	MaxUtilization    float64 `json:"max_utilization"`
	MinUtilization    float64 `json:"min_utilization"`

	// 按服务区统计
	AreaDistribution map[string]int `json:"area_distribution"` // 各服务区有效分配数

	ProfessionalStats []ProfessionalStat `json:"professional_stats"`

	// 问题识别
	AtCapacity []uuid.UUID `json:"at_capacity,omitempty"` // 已满员
	Idle       []uuid.UUID `json:"idle,omitempty"`        // 零负载
}

// ProfessionalStat 单人负载统计
type ProfessionalStat struct {
	ProfessionalID   uuid.UUID `json:"professional_id"`
	ProfessionalName string    `json:"professional_name"`
	Kind             string    `json:"kind"`
	CurrentPatients  int       `json:"current_patients"`
	MaxPatients      int       `json:"max_patients"`
	Utilization      float64   `json:"utilization"` // %
}

// DayFill 某专业人员某日的访视填充情况
type DayFill struct {
	Date       string  `json:"date"`
	VisitCount int     `json:"visit_count"`
	MaxPerDay  int     `json:"max_per_day"`
	FillRate   float64 `json:"fill_rate"` // %
}

// WorkloadAnalyzer 负载分析器
type WorkloadAnalyzer struct {
	maxVisitsPerDay int
}

// NewWorkloadAnalyzer 创建负载分析器
func NewWorkloadAnalyzer(maxVisitsPerDay int) *WorkloadAnalyzer {
	if maxVisitsPerDay <= 0 {
		maxVisitsPerDay = 4
	}
	return &WorkloadAnalyzer{maxVisitsPerDay: maxVisitsPerDay}
}

// Analyze 分析专业人员负载分布
func (w *WorkloadAnalyzer) Analyze(professionals []*model.Professional, assignments []*model.PatientAssignment) *WorkloadMetrics {
	metrics := &WorkloadMetrics{
		TotalProfessionals: len(professionals),
		AreaDistribution:   make(map[string]int),
	}
	if len(professionals) == 0 {
		return metrics
	}

	utilizations := make([]float64, 0, len(professionals))
	for _, p := range professionals {
		if p.IsActive {
			metrics.TotalActive++
		}
		metrics.TotalPatients += p.CurrentPatientCount
		metrics.TotalCapacity += p.MaxPatients

		util := 0.0
		if p.MaxPatients > 0 {
			util = round1(float64(p.CurrentPatientCount) / float64(p.MaxPatients) * 100)
		}
		utilizations = append(utilizations, util)

		metrics.ProfessionalStats = append(metrics.ProfessionalStats, ProfessionalStat{
			ProfessionalID:   p.ID,
			ProfessionalName: p.Name,
			Kind:             p.Kind,
			CurrentPatients:  p.CurrentPatientCount,
			MaxPatients:      p.MaxPatients,
			Utilization:      util,
		})

		if p.AtCapacity() {
			metrics.AtCapacity = append(metrics.AtCapacity, p.ID)
		}
		if p.CurrentPatientCount == 0 && p.IsActive {
			metrics.Idle = append(metrics.Idle, p.ID)
		}
	}

	for _, a := range assignments {
		if a.IsActive() {
			metrics.AreaDistribution[a.ServiceArea]++
		}
	}

	if metrics.TotalCapacity > 0 {
		metrics.OverallUtilization = round1(float64(metrics.TotalPatients) / float64(metrics.TotalCapacity) * 100)
	}

	mean := calculateMean(utilizations)
	metrics.UtilizationStdDev = round1(math.Sqrt(calculateVariance(utilizations, mean)))
	metrics.UtilizationGini = round2(calculateGini(utilizations))
	metrics.MaxUtilization, metrics.MinUtilization = calculateRange(utilizations)

	sort.Slice(metrics.ProfessionalStats, func(i, j int) bool {
		return metrics.ProfessionalStats[i].Utilization > metrics.ProfessionalStats[j].Utilization
	})
	return metrics
}

// DayFills 统计某专业人员各日的访视填充率
func (w *WorkloadAnalyzer) DayFills(professionalID uuid.UUID, assignments []*model.PatientAssignment) []DayFill {
	byDate := make(map[string]int)
	for _, a := range assignments {
		if a.ProfessionalID == professionalID && a.IsActive() {
			byDate[a.ScheduledVisitDate]++
		}
	}

	fills := make([]DayFill, 0, len(byDate))
	for date, count := range byDate {
		fills = append(fills, DayFill{
			Date:       date,
			VisitCount: count,
			MaxPerDay:  w.maxVisitsPerDay,
			FillRate:   round1(float64(count) / float64(w.maxVisitsPerDay) * 100),
		})
	}
	sort.Slice(fills, func(i, j int) bool { return fills[i].Date < fills[j].Date })
	return fills
}

// calculateMean 计算均值
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateVariance 计算方差
func calculateVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// calculateRange 计算最大最小值
func calculateRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return max, min
}

// calculateGini 计算基尼系数
func calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	total := 0.0
	weighted := 0.0
	for i, v := range sorted {
		total += v
		weighted += float64(i+1) * v
	}
	if total == 0 {
		return 0
	}
	return (2*weighted - float64(n+1)*total) / (float64(n) * total)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
