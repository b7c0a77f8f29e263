// Package model 定义居家护理调度系统的核心数据模型
package model

import "strings"

// VisitTimeFlexibility 访视时间弹性
type VisitTimeFlexibility string

const (
	FlexibilityFixed     VisitTimeFlexibility = "fixed"            // 固定时间（±30分钟）
	FlexibilityTwoHours  VisitTimeFlexibility = "flexible_2hours"  // ±2小时
	FlexibilityFourHours VisitTimeFlexibility = "flexible_4hours"  // ±4小时
	FlexibilityAllDay    VisitTimeFlexibility = "flexible_all_day" // 全天任意时间
)

// DeviationMinutes 返回允许偏离偏好时间的分钟数，-1 表示不限
func (f VisitTimeFlexibility) DeviationMinutes() int {
	switch f {
	case FlexibilityFixed:
		return 30
	case FlexibilityTwoHours:
		return 120
	case FlexibilityFourHours:
		return 240
	default:
		return -1
	}
}

// Patient 患者
type Patient struct {
	BaseModel
	Name    string `json:"name" db:"name"`
	Phone   string `json:"phone,omitempty" db:"phone"`
	Address string `json:"address,omitempty" db:"address"`

	// 护理需求
	CareNeeded            string `json:"care_needed" db:"care_needed"`
	EstimatedCareDuration int    `json:"estimated_care_duration,omitempty" db:"estimated_care_duration"` // 分钟，0 表示按护理类型推导

	// 位置
	Area      string   `json:"area" db:"area"` // 服务区名称
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`

	// 访视时间偏好
	PreferredVisitTime   string               `json:"preferred_visit_time,omitempty" db:"preferred_visit_time"` // HH:MM
	VisitTimeFlexibility VisitTimeFlexibility `json:"visit_time_flexibility,omitempty" db:"visit_time_flexibility"`

	Status string `json:"status" db:"status"` // pending/assigned/discharged
	Notes  string `json:"notes,omitempty" db:"notes"`
}

// HasCoordinates 检查患者是否有经纬度坐标
func (p *Patient) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Location 返回患者位置（无坐标时只携带服务区）
func (p *Patient) Location() Location {
	loc := Location{Address: p.Address, Area: p.Area}
	if p.HasCoordinates() {
		loc.Latitude = *p.Latitude
		loc.Longitude = *p.Longitude
	}
	return loc
}

// InArea 检查患者是否在指定服务区（忽略大小写）
func (p *Patient) InArea(area string) bool {
	return strings.EqualFold(p.Area, area)
}
