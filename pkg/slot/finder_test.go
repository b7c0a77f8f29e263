package slot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/kotihoito/kotihoito/pkg/errors"
	"github.com/kotihoito/kotihoito/pkg/model"
	"github.com/kotihoito/kotihoito/pkg/travel"
)

// fakeSource 内存数据快照
type fakeSource struct {
	hours  map[int]*model.WorkingHours       // weekday -> 班次
	visits map[string][]model.ScheduledVisit // date -> 访视
}

func (f *fakeSource) WorkingHoursFor(_ context.Context, _ uuid.UUID, weekday int) (*model.WorkingHours, error) {
	return f.hours[weekday], nil
}

func (f *fakeSource) ActiveVisitsOn(_ context.Context, _ uuid.UUID, date string) ([]model.ScheduledVisit, error) {
	return f.visits[date], nil
}

// 2025-06-02 是周一，搜索从 06-03（周二）开始
func fixedClock() time.Time {
	return time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
}

func allWeekHours(start, end string) map[int]*model.WorkingHours {
	hours := make(map[int]*model.WorkingHours)
	for wd := 1; wd <= 7; wd++ {
		hours[wd] = &model.WorkingHours{Weekday: wd, StartTime: start, EndTime: end, IsRecurring: true}
	}
	return hours
}

func newTestFinder(src *fakeSource) *Finder {
	est := travel.New(travel.DefaultConfig())
	return NewFinder(DefaultConfig(), est, src).WithClock(fixedClock)
}

func TestFindSlotEmptySchedule(t *testing.T) {
	src := &fakeSource{hours: allWeekHours("08:00", "16:00"), visits: map[string][]model.ScheduledVisit{}}
	f := newTestFinder(src)

	patient := &model.Patient{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		CareNeeded: "Medication Administration",
		Area:       "Keskusta (City Center)",
	}

	placement, err := f.FindSlot(context.Background(), patient, uuid.New(), nil)
	if err != nil {
		t.Fatalf("空排期查找失败: %v", err)
	}
	if placement.Date != "2025-06-03" {
		t.Errorf("日期 = %s, 期望明天 2025-06-03", placement.Date)
	}
	if placement.Time != "08:00" {
		t.Errorf("时间 = %s, 期望班次起点 08:00", placement.Time)
	}
	if placement.VisitCountOnDay != 0 {
		t.Errorf("当日已有访视数 = %d, 期望 0", placement.VisitCountOnDay)
	}
	if !placement.MatchesPreference {
		t.Error("无偏好患者应视为符合偏好")
	}
}

func TestFindSlotAfterOccupiedVisit(t *testing.T) {
	// 已有访视 09:00 Nursing Care (50 分钟)，同区无路程
	// 班次 08:30 起，首个空档只有 30 分钟，不够 30+15
	src := &fakeSource{
		hours: allWeekHours("08:30", "16:00"),
		visits: map[string][]model.ScheduledVisit{
			"2025-06-03": {
				{AssignmentID: uuid.New(), PatientID: uuid.New(), VisitTime: "09:00",
					CareNeeded: "Nursing Care", Area: "Keskusta (City Center)"},
			},
		},
	}
	f := newTestFinder(src)

	patient := &model.Patient{
		CareNeeded: "Medication Administration",
		Area:       "Keskusta (City Center)",
	}

	placement, err := f.FindSlot(context.Background(), patient, uuid.New(), nil)
	if err != nil {
		t.Fatalf("查找失败: %v", err)
	}
	if placement.Date != "2025-06-03" || placement.Time != "09:50" {
		t.Errorf("安排 = %s %s, 期望 2025-06-03 09:50（已排访视之后）", placement.Date, placement.Time)
	}
	if placement.VisitCountOnDay != 1 {
		t.Errorf("当日已有访视数 = %d, 期望 1", placement.VisitCountOnDay)
	}
}

func TestFindSlotSkipsFullDay(t *testing.T) {
	full := make([]model.ScheduledVisit, 4)
	for i := range full {
		full[i] = model.ScheduledVisit{AssignmentID: uuid.New(), VisitTime: "09:00",
			CareNeeded: "Nursing Care", Area: "Keskusta (City Center)"}
	}
	src := &fakeSource{
		hours:  allWeekHours("08:00", "16:00"),
		visits: map[string][]model.ScheduledVisit{"2025-06-03": full},
	}
	f := newTestFinder(src)

	patient := &model.Patient{CareNeeded: "Nursing Care", Area: "Keskusta (City Center)"}

	placement, err := f.FindSlot(context.Background(), patient, uuid.New(), nil)
	if err != nil {
		t.Fatalf("查找失败: %v", err)
	}
	if placement.Date != "2025-06-04" {
		t.Errorf("满容量日应跳过, 安排在 %s, 期望 2025-06-04", placement.Date)
	}
}

func TestFindSlotCountsPendingAssignments(t *testing.T) {
	profID := uuid.New()
	visits := make([]model.ScheduledVisit, 3)
	for i := range visits {
		visits[i] = model.ScheduledVisit{AssignmentID: uuid.New(), VisitTime: "09:00",
			CareNeeded: "Nursing Care", Area: "Keskusta (City Center)"}
	}
	src := &fakeSource{
		hours:  allWeekHours("08:00", "16:00"),
		visits: map[string][]model.ScheduledVisit{"2025-06-03": visits},
	}
	f := newTestFinder(src)
	patient := &model.Patient{CareNeeded: "Nursing Care", Area: "Keskusta (City Center)"}

	// 3 条已落库 + 1 条待落库 = 满，应跳到下一天
	pending := []*model.PatientAssignment{
		{BaseModel: model.BaseModel{ID: uuid.New()}, ProfessionalID: profID,
			ScheduledVisitDate: "2025-06-03", Status: model.AssignmentActive},
	}
	placement, err := f.FindSlot(context.Background(), patient, profID, pending)
	if err != nil {
		t.Fatalf("查找失败: %v", err)
	}
	if placement.Date != "2025-06-04" {
		t.Errorf("待落库分配未计入容量, 安排在 %s, 期望 2025-06-04", placement.Date)
	}

	// 已落库的分配同时出现在 visits 和 pending 里时不重复计数
	committed := []*model.PatientAssignment{
		{BaseModel: model.BaseModel{ID: visits[0].AssignmentID}, ProfessionalID: profID,
			ScheduledVisitDate: "2025-06-03", Status: model.AssignmentActive},
	}
	placement, err = f.FindSlot(context.Background(), patient, profID, committed)
	if err != nil {
		t.Fatalf("查找失败: %v", err)
	}
	if placement.Date != "2025-06-03" {
		t.Errorf("重复计数: 安排在 %s, 期望 2025-06-03", placement.Date)
	}
}

func TestFindSlotFixedPreference(t *testing.T) {
	// 已有访视 12:45-13:35，其后的空档起点 13:35 落在偏好 14:00 ±30 内
	src := &fakeSource{
		hours: allWeekHours("08:00", "16:00"),
		visits: map[string][]model.ScheduledVisit{
			"2025-06-03": {
				{AssignmentID: uuid.New(), VisitTime: "12:45",
					CareNeeded: "Nursing Care", Area: "Keskusta (City Center)"},
			},
		},
	}
	f := newTestFinder(src)

	patient := &model.Patient{
		CareNeeded:           "Medication Administration",
		Area:                 "Keskusta (City Center)",
		PreferredVisitTime:   "14:00",
		VisitTimeFlexibility: model.FlexibilityFixed,
	}

	placement, err := f.FindSlot(context.Background(), patient, uuid.New(), nil)
	if err != nil {
		t.Fatalf("查找失败: %v", err)
	}
	if placement.Time != "13:35" {
		t.Errorf("时间 = %s, 期望 13:35（偏好 ±30 内的空档）", placement.Time)
	}
	if !placement.MatchesPreference {
		t.Error("应标记为符合偏好")
	}
}

func TestFindSlotRelaxesFlexiblePreference(t *testing.T) {
	src := &fakeSource{hours: allWeekHours("08:00", "16:00"), visits: map[string][]model.ScheduledVisit{}}
	f := newTestFinder(src)

	patient := &model.Patient{
		CareNeeded:           "Medication Administration",
		Area:                 "Keskusta (City Center)",
		PreferredVisitTime:   "14:00",
		VisitTimeFlexibility: model.FlexibilityTwoHours,
	}

	// 空排期下唯一空档起点 08:00 偏离 14:00 超过 ±120，
	// 弹性偏好降级接受，并标记不符合偏好
	placement, err := f.FindSlot(context.Background(), patient, uuid.New(), nil)
	if err != nil {
		t.Fatalf("查找失败: %v", err)
	}
	if placement.Date != "2025-06-03" || placement.Time != "08:00" {
		t.Errorf("安排 = %s %s, 期望降级到 2025-06-03 08:00", placement.Date, placement.Time)
	}
	if placement.MatchesPreference {
		t.Error("降级安排不应标记为符合偏好")
	}
}

func TestFindSlotFixedPreferenceNeverRelaxes(t *testing.T) {
	// 班次 08:00-10:00，空档起点永远是 08:00，偏离固定偏好 14:00
	src := &fakeSource{hours: allWeekHours("08:00", "10:00"), visits: map[string][]model.ScheduledVisit{}}
	f := newTestFinder(src)

	patient := &model.Patient{
		CareNeeded:           "Medication Administration",
		Area:                 "Keskusta (City Center)",
		PreferredVisitTime:   "14:00",
		VisitTimeFlexibility: model.FlexibilityFixed,
	}

	_, err := f.FindSlot(context.Background(), patient, uuid.New(), nil)
	if err == nil {
		t.Fatal("固定偏好无法满足时应返回 NO_SLOT")
	}
	if !apperrors.Is(err, apperrors.CodeNoSlot) {
		t.Errorf("错误码 = %v, 期望 NO_SLOT", apperrors.GetCode(err))
	}
}

func TestFindSlotNoWorkingHours(t *testing.T) {
	src := &fakeSource{hours: map[int]*model.WorkingHours{}, visits: map[string][]model.ScheduledVisit{}}
	f := newTestFinder(src)

	patient := &model.Patient{CareNeeded: "Nursing Care", Area: "Tuira"}

	_, err := f.FindSlot(context.Background(), patient, uuid.New(), nil)
	if err == nil {
		t.Fatal("无班次应返回 NO_SLOT")
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("错误类型 = %T", err)
	}
	if appErr.Fields["reason"] != string(apperrors.NoSlotNoWorkingHours) {
		t.Errorf("原因 = %v, 期望 no_working_hours", appErr.Fields["reason"])
	}
}

func TestFindSlotAtCapacityReason(t *testing.T) {
	full := make([]model.ScheduledVisit, 4)
	for i := range full {
		full[i] = model.ScheduledVisit{AssignmentID: uuid.New(), VisitTime: "09:00",
			CareNeeded: "Nursing Care", Area: "Tuira"}
	}
	visits := make(map[string][]model.ScheduledVisit)
	for i := 1; i <= DefaultConfig().HorizonDays; i++ {
		visits[model.DateAfter(fixedClock(), i)] = full
	}
	src := &fakeSource{hours: allWeekHours("08:00", "16:00"), visits: visits}
	f := newTestFinder(src)

	patient := &model.Patient{CareNeeded: "Nursing Care", Area: "Tuira"}

	_, err := f.FindSlot(context.Background(), patient, uuid.New(), nil)
	if err == nil {
		t.Fatal("窗口内全满应返回 NO_SLOT")
	}
	appErr := err.(*apperrors.AppError)
	if appErr.Fields["reason"] != string(apperrors.NoSlotAtCapacity) {
		t.Errorf("原因 = %v, 期望 at_capacity", appErr.Fields["reason"])
	}
}

func TestDaySlots(t *testing.T) {
	src := &fakeSource{
		hours: allWeekHours("08:00", "16:00"),
		visits: map[string][]model.ScheduledVisit{
			"2025-06-03": {
				{AssignmentID: uuid.New(), VisitTime: "09:00",
					CareNeeded: "Nursing Care", Area: "Keskusta (City Center)"},
			},
		},
	}
	f := newTestFinder(src)

	schedule, err := f.DaySlots(context.Background(), uuid.New(), "2025-06-03")
	if err != nil {
		t.Fatalf("DaySlots 失败: %v", err)
	}
	if !schedule.Available {
		t.Fatal("当日应有空闲时段")
	}
	if schedule.DayStart != "08:00" || schedule.DayEnd != "16:00" {
		t.Errorf("班次窗口 = %s-%s", schedule.DayStart, schedule.DayEnd)
	}
	if schedule.VisitCount != 1 {
		t.Errorf("访视数 = %d, 期望 1", schedule.VisitCount)
	}
	// 访视占用 09:00-09:50，空闲 [08:00,09:00] 和 [09:50,16:00]
	if len(schedule.Slots) != 2 {
		t.Fatalf("空闲时段数 = %d, 期望 2", len(schedule.Slots))
	}
	if schedule.TotalFreeMinutes != 60+370 {
		t.Errorf("总空闲 = %d 分钟, 期望 430", schedule.TotalFreeMinutes)
	}
}

func TestDaySlotsTravelExpandedOverlap(t *testing.T) {
	// 09:00 Keskusta（来程 0，占用 09:00-09:30），
	// 09:05 Pateniemi（来程 30，占用提前到 08:35，直到 10:05）。
	// 后一个访视的占用起点早于前一个，空闲段不得与 08:35-10:05 重叠
	src := &fakeSource{
		hours: allWeekHours("08:00", "16:00"),
		visits: map[string][]model.ScheduledVisit{
			"2025-06-03": {
				{AssignmentID: uuid.New(), VisitTime: "09:00",
					CareNeeded: "Medication Administration", Area: "Keskusta (City Center)"},
				{AssignmentID: uuid.New(), VisitTime: "09:05",
					CareNeeded: "Medication Administration", Area: "Pateniemi"},
			},
		},
	}
	f := newTestFinder(src)

	schedule, err := f.DaySlots(context.Background(), uuid.New(), "2025-06-03")
	if err != nil {
		t.Fatalf("DaySlots 失败: %v", err)
	}
	if len(schedule.Slots) != 2 {
		t.Fatalf("空闲时段数 = %d, 期望 2", len(schedule.Slots))
	}
	if schedule.Slots[0].StartTime != "08:00" || schedule.Slots[0].EndTime != "08:35" {
		t.Errorf("首个空闲段 = %s-%s, 期望 08:00-08:35",
			schedule.Slots[0].StartTime, schedule.Slots[0].EndTime)
	}
	if schedule.Slots[1].StartTime != "10:05" || schedule.Slots[1].EndTime != "16:00" {
		t.Errorf("第二个空闲段 = %s-%s, 期望 10:05-16:00",
			schedule.Slots[1].StartTime, schedule.Slots[1].EndTime)
	}
	// 占用区间 08:35-10:05 = [515, 605)
	for _, s := range schedule.Slots {
		if s.Start < 605 && s.End > 515 {
			t.Errorf("空闲段 %s-%s 与占用区间 08:35-10:05 重叠", s.StartTime, s.EndTime)
		}
	}
}

func TestDaySlotsNoShift(t *testing.T) {
	src := &fakeSource{hours: map[int]*model.WorkingHours{}, visits: map[string][]model.ScheduledVisit{}}
	f := newTestFinder(src)

	schedule, err := f.DaySlots(context.Background(), uuid.New(), "2025-06-03")
	if err != nil {
		t.Fatalf("DaySlots 失败: %v", err)
	}
	if schedule.Available {
		t.Error("无班次不应有空闲时段")
	}
	if schedule.Reason != string(apperrors.NoSlotNoWorkingHours) {
		t.Errorf("原因 = %s, 期望 no_working_hours", schedule.Reason)
	}
}

func TestPreviewSlots(t *testing.T) {
	src := &fakeSource{hours: allWeekHours("08:00", "16:00"), visits: map[string][]model.ScheduledVisit{}}
	f := newTestFinder(src)

	options, err := f.PreviewSlots(context.Background(), uuid.New(), 45)
	if err != nil {
		t.Fatalf("PreviewSlots 失败: %v", err)
	}
	// 预览从今天起，每天一个整班空档
	if len(options) != DefaultConfig().PreviewDays {
		t.Fatalf("预览时段数 = %d, 期望 %d", len(options), DefaultConfig().PreviewDays)
	}
	if options[0].Date != "2025-06-02" || options[0].Time != "08:00" {
		t.Errorf("首个预览 = %s %s", options[0].Date, options[0].Time)
	}
	if options[0].DurationAvailable != 480 {
		t.Errorf("可用时长 = %d, 期望 480", options[0].DurationAvailable)
	}
}

func TestCareDuration(t *testing.T) {
	if got := CareDuration("Nursing Care", 0); got != 50 {
		t.Errorf("Nursing Care = %d, 期望 50", got)
	}
	if got := CareDuration("Nursing Care", 90); got != 90 {
		t.Errorf("显式时长应优先, 得到 %d", got)
	}
	if got := CareDuration("Unknown Type", 0); got != DefaultCareDuration {
		t.Errorf("未知类型 = %d, 期望默认 %d", got, DefaultCareDuration)
	}
}
