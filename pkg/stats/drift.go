package stats

import (
	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/model"
)

// CounterDrift 单人计数漂移
//
// 计数只在分配时递增，改派/解除不回退，
// 存储的计数会逐渐高于实际有效分配数。
type CounterDrift struct {
	ProfessionalID   uuid.UUID `json:"professional_id"`
	ProfessionalName string    `json:"professional_name"`
	StoredCount      int       `json:"stored_count"` // CurrentPatientCount 字段值
	ActualCount      int       `json:"actual_count"` // 实际有效分配数
	Drift            int       `json:"drift"`        // stored - actual
}

// DriftReport 计数对账报告
type DriftReport struct {
	TotalProfessionals int            `json:"total_professionals"`
	DriftedCount       int            `json:"drifted_count"`
	TotalDrift         int            `json:"total_drift"`
	Drifts             []CounterDrift `json:"drifts,omitempty"` // 仅含漂移非零者
}

// DetectCounterDrift 对账专业人员计数与实际有效分配
//
// 只报告，不修正。
func DetectCounterDrift(professionals []*model.Professional, assignments []*model.PatientAssignment) *DriftReport {
	actual := make(map[uuid.UUID]int)
	for _, a := range assignments {
		if a.IsActive() {
			actual[a.ProfessionalID]++
		}
	}

	report := &DriftReport{TotalProfessionals: len(professionals)}
	for _, p := range professionals {
		drift := p.CurrentPatientCount - actual[p.ID]
		if drift == 0 {
			continue
		}
		report.DriftedCount++
		report.TotalDrift += drift
		report.Drifts = append(report.Drifts, CounterDrift{
			ProfessionalID:   p.ID,
			ProfessionalName: p.Name,
			StoredCount:      p.CurrentPatientCount,
			ActualCount:      actual[p.ID],
			Drift:            drift,
		})
	}
	return report
}
