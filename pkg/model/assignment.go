// Package model 定义居家护理调度系统的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// PatientAssignment 患者-专业人员分配记录
// 不变式：同一患者最多存在一条 active 记录
type PatientAssignment struct {
	BaseModel
	PatientID      uuid.UUID `json:"patient_id" db:"patient_id"`
	ProfessionalID uuid.UUID `json:"professional_id" db:"professional_id"`
	AssignedByID   uuid.UUID `json:"assigned_by_id" db:"assigned_by_id"`

	AssignmentDate     time.Time `json:"assignment_date" db:"assignment_date"`
	ScheduledVisitDate string    `json:"scheduled_visit_date" db:"scheduled_visit_date"` // YYYY-MM-DD
	ScheduledVisitTime string    `json:"scheduled_visit_time" db:"scheduled_visit_time"` // HH:MM

	ServiceArea      string           `json:"service_area" db:"service_area"` // 分配时从患者冗余
	MatchScore       float64          `json:"match_score" db:"match_score"`
	AssignmentReason string           `json:"assignment_reason,omitempty" db:"assignment_reason"`
	Status           AssignmentStatus `json:"status" db:"status"`
}

// IsActive 检查分配是否有效
func (a *PatientAssignment) IsActive() bool {
	return a.Status == AssignmentActive
}

// IsOnDate 检查分配是否在指定日期
func (a *PatientAssignment) IsOnDate(date string) bool {
	return a.ScheduledVisitDate == date
}

// AssignmentHistory 分配变更审计记录（只追加，不修改不删除）
type AssignmentHistory struct {
	ID                     uuid.UUID  `json:"id" db:"id"`
	PatientID              uuid.UUID  `json:"patient_id" db:"patient_id"`
	PreviousProfessionalID *uuid.UUID `json:"previous_professional_id,omitempty" db:"previous_professional_id"`
	NewProfessionalID      uuid.UUID  `json:"new_professional_id" db:"new_professional_id"`
	ChangedByID            uuid.UUID  `json:"changed_by_id" db:"changed_by_id"`
	Reason                 string     `json:"reason,omitempty" db:"reason"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
}

// ScheduledVisit 某日已排访视（时段计算用的只读视图）
type ScheduledVisit struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	PatientID    uuid.UUID `json:"patient_id"`
	VisitTime    string    `json:"visit_time"` // HH:MM
	CareNeeded   string    `json:"care_needed"`
	Area         string    `json:"area"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
}

// Location 返回访视地点
func (v *ScheduledVisit) Location() Location {
	loc := Location{Area: v.Area}
	if v.Latitude != nil && v.Longitude != nil {
		loc.Latitude = *v.Latitude
		loc.Longitude = *v.Longitude
	}
	return loc
}
