// Package validator 提供访视排期验证功能
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/model"
	"github.com/kotihoito/kotihoito/pkg/slot"
	"github.com/kotihoito/kotihoito/pkg/travel"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictOverlap      ConflictType = "overlap"       // 访视时间重叠（含路上时间）
	ConflictOverCapacity ConflictType = "over_capacity" // 超过每日访视上限
	ConflictOutsideHours ConflictType = "outside_hours" // 访视落在班次之外
	ConflictPreference   ConflictType = "preference"    // 偏离患者偏好时间超出弹性
)

// Conflict 冲突信息
type Conflict struct {
	Type           ConflictType `json:"type"`
	Severity       string       `json:"severity"` // error/warning
	ProfessionalID uuid.UUID    `json:"professional_id"`
	Date           string       `json:"date"`
	Message        string       `json:"message"`
	Assignments    []uuid.UUID  `json:"assignments,omitempty"` // 相关的分配ID
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	MaxVisitsPerDay  int  // 每日访视上限
	CheckPreferences bool // 是否检查患者偏好时间
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		MaxVisitsPerDay:  4,
		CheckPreferences: true,
	}
}

// ConflictDetector 访视冲突检测器
type ConflictDetector struct {
	config *DetectorConfig
	travel *travel.Estimator
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig, estimator *travel.Estimator) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config, travel: estimator}
}

// DetectDay 检测某专业人员某日排期的全部冲突
//
// visits 为该日已排访视，patients 为访视患者索引（偏好检查用，可为 nil）。
func (d *ConflictDetector) DetectDay(
	profile *model.ProfessionalProfile,
	date string,
	visits []model.ScheduledVisit,
	patients map[uuid.UUID]*model.Patient,
) []Conflict {
	var conflicts []Conflict
	profID := profile.Professional.ID

	if len(visits) > d.config.MaxVisitsPerDay {
		conflicts = append(conflicts, Conflict{
			Type:           ConflictOverCapacity,
			Severity:       "error",
			ProfessionalID: profID,
			Date:           date,
			Message:        fmt.Sprintf("当日访视 %d 次，超过上限 %d", len(visits), d.config.MaxVisitsPerDay),
		})
	}

	sorted := make([]model.ScheduledVisit, len(visits))
	copy(sorted, visits)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].VisitTime < sorted[j].VisitTime
	})

	conflicts = append(conflicts, d.detectOverlaps(profID, date, sorted, patients)...)
	conflicts = append(conflicts, d.detectOutsideHours(profile, date, sorted, patients)...)
	if d.config.CheckPreferences && patients != nil {
		conflicts = append(conflicts, d.detectPreferenceViolations(profID, date, sorted, patients)...)
	}

	return conflicts
}

// detectOverlaps 检测相邻访视是否重叠
//
// 判定口径：前一访视的结束时间加上两点间路上时间，
// 晚于后一访视的开始时间即为重叠。
func (d *ConflictDetector) detectOverlaps(profID uuid.UUID, date string, sorted []model.ScheduledVisit, patients map[uuid.UUID]*model.Patient) []Conflict {
	var conflicts []Conflict

	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]

		prevStart, err := model.ParseClock(prev.VisitTime)
		if err != nil {
			continue
		}
		currStart, err := model.ParseClock(curr.VisitTime)
		if err != nil {
			continue
		}

		prevEnd := prevStart + d.careDuration(prev, patients)
		travelMin := d.travel.TravelMinutes(prev.Location(), curr.Location())

		if prevEnd+travelMin > currStart {
			conflicts = append(conflicts, Conflict{
				Type:           ConflictOverlap,
				Severity:       "error",
				ProfessionalID: profID,
				Date:           date,
				Message: fmt.Sprintf("%s 的访视结束加路上时间（%d 分钟）晚于 %s 的访视开始",
					prev.VisitTime, travelMin, curr.VisitTime),
				Assignments: []uuid.UUID{prev.AssignmentID, curr.AssignmentID},
			})
		}
	}
	return conflicts
}

// detectOutsideHours 检测访视是否落在班次之外
func (d *ConflictDetector) detectOutsideHours(profile *model.ProfessionalProfile, date string, sorted []model.ScheduledVisit, patients map[uuid.UUID]*model.Patient) []Conflict {
	var conflicts []Conflict
	profID := profile.Professional.ID

	weekday, err := model.WeekdayOf(date)
	if err != nil {
		return nil
	}

	hours := profile.HoursFor(weekday)
	if hours == nil {
		for _, v := range sorted {
			conflicts = append(conflicts, Conflict{
				Type:           ConflictOutsideHours,
				Severity:       "error",
				ProfessionalID: profID,
				Date:           date,
				Message:        fmt.Sprintf("%s 当日无班次却排有访视", date),
				Assignments:    []uuid.UUID{v.AssignmentID},
			})
		}
		return conflicts
	}

	shiftStart, shiftEnd, err := hours.ShiftWindow()
	if err != nil {
		return nil
	}

	for _, v := range sorted {
		start, err := model.ParseClock(v.VisitTime)
		if err != nil {
			continue
		}
		end := start + d.careDuration(v, patients)
		if start < shiftStart || end > shiftEnd {
			conflicts = append(conflicts, Conflict{
				Type:           ConflictOutsideHours,
				Severity:       "error",
				ProfessionalID: profID,
				Date:           date,
				Message: fmt.Sprintf("访视 %s 超出班次 %s-%s",
					v.VisitTime, hours.StartTime, hours.EndTime),
				Assignments: []uuid.UUID{v.AssignmentID},
			})
		}
	}
	return conflicts
}

// detectPreferenceViolations 检测访视时间是否偏离患者偏好超出弹性
func (d *ConflictDetector) detectPreferenceViolations(profID uuid.UUID, date string, sorted []model.ScheduledVisit, patients map[uuid.UUID]*model.Patient) []Conflict {
	var conflicts []Conflict

	for _, v := range sorted {
		patient := patients[v.PatientID]
		if patient == nil || patient.PreferredVisitTime == "" {
			continue
		}
		deviation := patient.VisitTimeFlexibility.DeviationMinutes()
		if deviation < 0 {
			continue
		}

		start, err := model.ParseClock(v.VisitTime)
		if err != nil {
			continue
		}
		preferred, err := model.ParseClock(patient.PreferredVisitTime)
		if err != nil {
			continue
		}

		diff := start - preferred
		if diff < 0 {
			diff = -diff
		}
		if diff > deviation {
			conflicts = append(conflicts, Conflict{
				Type:           ConflictPreference,
				Severity:       "warning",
				ProfessionalID: profID,
				Date:           date,
				Message: fmt.Sprintf("访视 %s 偏离患者偏好 %s 共 %d 分钟，超出弹性 %d 分钟",
					v.VisitTime, patient.PreferredVisitTime, diff, deviation),
				Assignments: []uuid.UUID{v.AssignmentID},
			})
		}
	}
	return conflicts
}

// careDuration 取访视护理时长
func (d *ConflictDetector) careDuration(v model.ScheduledVisit, patients map[uuid.UUID]*model.Patient) int {
	override := 0
	if patients != nil {
		if p := patients[v.PatientID]; p != nil {
			override = p.EstimatedCareDuration
		}
	}
	return slot.CareDuration(v.CareNeeded, override)
}
