// Package slot 提供访视时段查找
//
// 在未来有限窗口内为指定专业人员扫描空闲时段，
// 考虑班次窗口、每日患者上限、访视间路程时间和患者时间偏好。
// 查找本身是对只读快照的纯扫描，不持有任何状态。
package slot

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/errors"
	"github.com/kotihoito/kotihoito/pkg/model"
	"github.com/kotihoito/kotihoito/pkg/travel"
)

// Config 时段查找配置
type Config struct {
	HorizonDays       int    // 单时段搜索窗口（天）
	PreviewDays       int    // 时段预览窗口（天）
	MaxVisitsPerDay   int    // 每日每人最大访视数
	SlotBufferMinutes int    // 访视时长之外要求的空档余量
	StartZone         string // 当日首个访视的路程起点
}

// DefaultConfig 返回默认配置
// 每日上限 4 对应隐含的 8 小时班次
func DefaultConfig() Config {
	return Config{
		HorizonDays:       14,
		PreviewDays:       7,
		MaxVisitsPerDay:   4,
		SlotBufferMinutes: 15,
		StartZone:         travel.DefaultStartZone,
	}
}

// VisitSource 只读数据快照接口（由仓储层实现，测试中用内存伪实现）
type VisitSource interface {
	// WorkingHoursFor 返回指定星期的工作时段，无班次返回 nil
	WorkingHoursFor(ctx context.Context, professionalID uuid.UUID, weekday int) (*model.WorkingHours, error)

	// ActiveVisitsOn 返回指定日期的有效访视（含患者护理类型与位置）
	ActiveVisitsOn(ctx context.Context, professionalID uuid.UUID, date string) ([]model.ScheduledVisit, error)
}

// FreeSlot 空闲时段（当日分钟数）
type FreeSlot struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Duration 返回空档长度（分钟）
func (s FreeSlot) Duration() int { return s.End - s.Start }

// DaySchedule 某日的可用情况
type DaySchedule struct {
	Date             string     `json:"date"`
	Available        bool       `json:"available"`
	Reason           string     `json:"reason,omitempty"`
	Slots            []FreeSlot `json:"slots,omitempty"`
	DayStart         string     `json:"day_start,omitempty"`
	DayEnd           string     `json:"day_end,omitempty"`
	TotalFreeMinutes int        `json:"total_free_minutes"`
	VisitCount       int        `json:"visit_count"`
	MaxPerDay        int        `json:"max_per_day"`
}

// Placement 选定的访视安排
type Placement struct {
	Date              string `json:"date"`
	Time              string `json:"time"`
	VisitCountOnDay   int    `json:"visit_count_on_day"`
	MatchesPreference bool   `json:"matches_preference"`
}

// SlotOption 预览时段
type SlotOption struct {
	Date              string `json:"date"`
	Time              string `json:"time"`
	DurationAvailable int    `json:"duration_available"`
}

// Finder 时段查找器
type Finder struct {
	cfg    Config
	travel *travel.Estimator
	source VisitSource
	now    func() time.Time
}

// NewFinder 创建时段查找器
func NewFinder(cfg Config, estimator *travel.Estimator, source VisitSource) *Finder {
	return &Finder{cfg: cfg, travel: estimator, source: source, now: time.Now}
}

// WithClock 替换时钟（测试用）
func (f *Finder) WithClock(now func() time.Time) *Finder {
	f.now = now
	return f
}

// Config 返回查找器配置
func (f *Finder) Config() Config { return f.cfg }

// FindSlot 在 [明天, 明天+HorizonDays-1] 内为患者查找最早可用时段
//
// pending 为本批次内已选定但尚未落库的分配，计入每日容量，
// 避免批量分配时同一天被重复占满。
func (f *Finder) FindSlot(ctx context.Context, patient *model.Patient, professionalID uuid.UUID, pending []*model.PatientAssignment) (*Placement, error) {
	careDuration := CareDuration(patient.CareNeeded, patient.EstimatedCareDuration)
	required := careDuration + f.cfg.SlotBufferMinutes

	sawHours := false
	sawCapacityFull := false

	for i := 1; i <= f.cfg.HorizonDays; i++ {
		date := model.DateAfter(f.now(), i)

		visits, err := f.source.ActiveVisitsOn(ctx, professionalID, date)
		if err != nil {
			return nil, errors.DataError("查询当日访视", err)
		}

		// 已落库的分配会同时出现在 visits 和 pending 里，按 ID 去重
		committed := make(map[uuid.UUID]bool, len(visits))
		for _, v := range visits {
			committed[v.AssignmentID] = true
		}
		pendingCount := 0
		for _, a := range pending {
			if committed[a.ID] {
				continue
			}
			if a.ProfessionalID == professionalID && a.IsOnDate(date) {
				pendingCount++
			}
		}

		total := len(visits) + pendingCount
		if total >= f.cfg.MaxVisitsPerDay {
			sawCapacityFull = true
			continue
		}

		weekday, err := model.WeekdayOf(date)
		if err != nil {
			return nil, errors.InvalidInput("date", err.Error())
		}

		hours, err := f.source.WorkingHoursFor(ctx, professionalID, weekday)
		if err != nil {
			return nil, errors.DataError("查询工作时段", err)
		}
		if hours == nil {
			continue
		}
		sawHours = true

		slots, err := f.freeSlots(hours, visits)
		if err != nil {
			return nil, err
		}

		// 第一遍：只接受符合患者时间偏好的空档
		for _, s := range slots {
			if s.Duration() >= required && matchesPreference(s.StartTime, patient) {
				return &Placement{Date: date, Time: s.StartTime, VisitCountOnDay: total, MatchesPreference: true}, nil
			}
		}

		// 第二遍：偏好不是 fixed 时接受任何足够长的空档
		if patient.VisitTimeFlexibility != model.FlexibilityFixed {
			for _, s := range slots {
				if s.Duration() >= required {
					return &Placement{Date: date, Time: s.StartTime, VisitCountOnDay: total, MatchesPreference: false}, nil
				}
			}
		}
	}

	reason := errors.NoSlotNoGap
	if !sawHours {
		reason = errors.NoSlotNoWorkingHours
		if sawCapacityFull {
			reason = errors.NoSlotAtCapacity
		}
	} else if sawCapacityFull {
		// 有班次的日子全都没有足够空档，满容量的日子被跳过
		reason = errors.NoSlotNoGap
	}

	return nil, errors.NoSlot(professionalID.String(), f.cfg.HorizonDays, reason)
}

// DaySlots 返回专业人员在指定日期的空闲时段
func (f *Finder) DaySlots(ctx context.Context, professionalID uuid.UUID, date string) (*DaySchedule, error) {
	schedule := &DaySchedule{Date: date, MaxPerDay: f.cfg.MaxVisitsPerDay}

	visits, err := f.source.ActiveVisitsOn(ctx, professionalID, date)
	if err != nil {
		return nil, errors.DataError("查询当日访视", err)
	}
	schedule.VisitCount = len(visits)

	if len(visits) >= f.cfg.MaxVisitsPerDay {
		schedule.Reason = string(errors.NoSlotAtCapacity)
		return schedule, nil
	}

	weekday, err := model.WeekdayOf(date)
	if err != nil {
		return nil, errors.InvalidInput("date", err.Error())
	}

	hours, err := f.source.WorkingHoursFor(ctx, professionalID, weekday)
	if err != nil {
		return nil, errors.DataError("查询工作时段", err)
	}
	if hours == nil {
		schedule.Reason = string(errors.NoSlotNoWorkingHours)
		return schedule, nil
	}

	dayStart, dayEnd, err := hours.ShiftWindow()
	if err != nil {
		return nil, errors.InvalidInput("working_hours", err.Error())
	}
	schedule.DayStart = model.FormatClock(dayStart)
	schedule.DayEnd = model.FormatClock(dayEnd)

	slots, err := f.freeSlots(hours, visits)
	if err != nil {
		return nil, err
	}

	schedule.Slots = slots
	schedule.Available = len(slots) > 0
	for _, s := range slots {
		schedule.TotalFreeMinutes += s.Duration()
	}
	if !schedule.Available {
		schedule.Reason = string(errors.NoSlotNoGap)
	}
	return schedule, nil
}

// PreviewSlots 返回未来 PreviewDays 天内所有能容纳指定护理时长的时段
func (f *Finder) PreviewSlots(ctx context.Context, professionalID uuid.UUID, careDuration int) ([]SlotOption, error) {
	required := careDuration + f.cfg.SlotBufferMinutes
	var options []SlotOption

	for i := 0; i < f.cfg.PreviewDays; i++ {
		date := model.DateAfter(f.now(), i)

		schedule, err := f.DaySlots(ctx, professionalID, date)
		if err != nil {
			return nil, err
		}
		if !schedule.Available {
			continue
		}

		for _, s := range schedule.Slots {
			if s.Duration() >= required {
				options = append(options, SlotOption{
					Date:              date,
					Time:              s.StartTime,
					DurationAvailable: s.Duration(),
				})
			}
		}
	}

	return options, nil
}

// freeSlots 计算班次窗口内扣除已排访视（含路程占用）后的空闲时段
//
// 每个访视的占用区间向两侧各扩一段路程时间：
// [开始-来程, 开始+护理时长+去程]，来程从前一个访视地点（当日首个从 StartZone）出发。
func (f *Finder) freeSlots(hours *model.WorkingHours, visits []model.ScheduledVisit) ([]FreeSlot, error) {
	dayStart, dayEnd, err := hours.ShiftWindow()
	if err != nil {
		return nil, errors.InvalidInput("working_hours", err.Error())
	}

	ordered := make([]model.ScheduledVisit, len(visits))
	copy(ordered, visits)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].VisitTime < ordered[j].VisitTime
	})

	type timeRange struct{ start, end int }
	occupied := make([]timeRange, 0, len(ordered))
	current := model.Location{Area: f.cfg.StartZone}

	for _, v := range ordered {
		visitStart, err := model.ParseClock(v.VisitTime)
		if err != nil {
			return nil, errors.InvalidInput("scheduled_visit_time", err.Error())
		}
		careDuration := CareDuration(v.CareNeeded, 0)
		travelTime := f.travel.TravelMinutes(current, v.Location())

		start := visitStart - travelTime
		if start < 0 {
			start = 0
		}
		end := visitStart + careDuration + travelTime
		if end > dayEnd {
			end = dayEnd
		}
		occupied = append(occupied, timeRange{start, end})
		current = v.Location()
	}

	// 来程扩展可能让后面访视的占用起点早于前面访视，
	// 补集计算前必须按占用起点重排，否则会放出与占用重叠的"空闲"段
	sort.Slice(occupied, func(i, j int) bool {
		return occupied[i].start < occupied[j].start
	})

	// 占用区间的补集即空闲时段
	var slots []FreeSlot
	cursor := dayStart
	for _, r := range occupied {
		if cursor < r.start {
			end := r.start
			if end > dayEnd {
				end = dayEnd
			}
			slots = append(slots, newFreeSlot(cursor, end))
		}
		if r.end > cursor {
			cursor = r.end
		}
	}
	if cursor < dayEnd {
		slots = append(slots, newFreeSlot(cursor, dayEnd))
	}

	return slots, nil
}

func newFreeSlot(start, end int) FreeSlot {
	return FreeSlot{
		Start:     start,
		End:       end,
		StartTime: model.FormatClock(start),
		EndTime:   model.FormatClock(end),
	}
}

// matchesPreference 检查时段起点是否符合患者的时间偏好
func matchesPreference(startTime string, patient *model.Patient) bool {
	if patient.PreferredVisitTime == "" {
		return true
	}

	deviation := patient.VisitTimeFlexibility.DeviationMinutes()
	if deviation < 0 {
		return true
	}

	start, err := model.ParseClock(startTime)
	if err != nil {
		return false
	}
	preferred, err := model.ParseClock(patient.PreferredVisitTime)
	if err != nil {
		return true
	}

	diff := start - preferred
	if diff < 0 {
		diff = -diff
	}
	return diff <= deviation
}
