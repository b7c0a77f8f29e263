// Package model 定义居家护理调度系统的核心数据模型
package model

import (
	"strings"

	"github.com/google/uuid"
)

// Professional 护理专业人员（护士/医生/治疗师）
type Professional struct {
	BaseModel
	ProfileID uuid.UUID `json:"profile_id" db:"profile_id"`
	Name      string    `json:"name" db:"name"`
	Kind      string    `json:"kind" db:"kind"` // doctor/nurse/therapist
	Specialty string    `json:"specialty,omitempty" db:"specialty"`

	// 容量计数
	MaxPatients         int `json:"max_patients" db:"max_patients"`
	CurrentPatientCount int `json:"current_patient_count" db:"current_patient_count"`

	IsActive     bool      `json:"is_active" db:"is_active"`
	HomeLocation *Location `json:"home_location,omitempty" db:"home_location"`
}

// AtCapacity 检查是否已满员
func (p *Professional) AtCapacity() bool {
	return p.MaxPatients > 0 && p.CurrentPatientCount >= p.MaxPatients
}

// RemainingSlots 返回剩余可接收患者数
func (p *Professional) RemainingSlots() int {
	remaining := p.MaxPatients - p.CurrentPatientCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ServiceArea 服务区（一名专业人员可服务多个区）
type ServiceArea struct {
	ProfessionalID uuid.UUID `json:"professional_id" db:"professional_id"`
	Area           string    `json:"service_area" db:"service_area"`
	IsPrimary      bool      `json:"is_primary" db:"is_primary"`
}

// WorkingHours 工作时段，每 (专业人员, 星期) 一条记录
type WorkingHours struct {
	ProfessionalID uuid.UUID `json:"professional_id" db:"professional_id"`
	Weekday        int       `json:"weekday" db:"weekday"`       // 1=周一 ... 7=周日
	StartTime      string    `json:"start_time" db:"start_time"` // HH:MM
	EndTime        string    `json:"end_time" db:"end_time"`     // HH:MM
	IsRecurring    bool      `json:"is_recurring" db:"is_recurring"`
}

// ShiftWindow 返回班次窗口（当日分钟数）
func (w *WorkingHours) ShiftWindow() (start, end int, err error) {
	start, err = ParseClock(w.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err = ParseClock(w.EndTime)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ProfessionalProfile 专业人员完整画像（评分器输入）
type ProfessionalProfile struct {
	Professional    *Professional  `json:"professional"`
	Specializations []string       `json:"specializations"`
	ServiceAreas    []ServiceArea  `json:"service_areas"`
	WorkingHours    []WorkingHours `json:"working_hours"`

	// 各服务区内当前有效患者数（地理聚类加分用）
	ActivePatientsByArea map[string]int `json:"active_patients_by_area,omitempty"`
}

// HasSpecialization 检查是否具备某专长（忽略大小写）
func (p *ProfessionalProfile) HasSpecialization(spec string) bool {
	for _, s := range p.Specializations {
		if strings.EqualFold(s, spec) {
			return true
		}
	}
	return false
}

// ServesArea 检查是否服务指定区域
func (p *ProfessionalProfile) ServesArea(area string) bool {
	for _, a := range p.ServiceAreas {
		if strings.EqualFold(a.Area, area) {
			return true
		}
	}
	return false
}

// HoursFor 返回指定星期的工作时段，无则返回 nil
func (p *ProfessionalProfile) HoursFor(weekday int) *WorkingHours {
	for i := range p.WorkingHours {
		if p.WorkingHours[i].Weekday == weekday {
			return &p.WorkingHours[i]
		}
	}
	return nil
}
