package assigner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/errors"
	"github.com/kotihoito/kotihoito/pkg/logger"
	"github.com/kotihoito/kotihoito/pkg/model"
	"github.com/kotihoito/kotihoito/pkg/scoring"
	"github.com/kotihoito/kotihoito/pkg/slot"
)

// Config 引擎配置
type Config struct {
	MaxCandidates   int     // 候选人返回数上限
	SmartMatchScore float64 // 人工指定专业人员时记录的默认匹配分
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxCandidates:   5,
		SmartMatchScore: 85,
	}
}

// Engine 分配编排引擎
type Engine struct {
	store          Store
	finder         *slot.Finder
	autoStrategy   scoring.Strategy // 自动分配：加权评分
	manualStrategy scoring.Strategy // 人工推荐：简化评分
	cfg            Config
	log            *logger.AssignerLogger
}

// New 创建分配引擎
func New(store Store, finder *slot.Finder) *Engine {
	return &Engine{
		store:          store,
		finder:         finder,
		autoStrategy:   scoring.NewWeightedStrategy(),
		manualStrategy: scoring.NewSimpleStrategy(),
		cfg:            DefaultConfig(),
		log:            logger.NewAssignerLogger(),
	}
}

// WithConfig 替换引擎配置
func (e *Engine) WithConfig(cfg Config) *Engine {
	e.cfg = cfg
	return e
}

// ScheduledDetails 已排访视详情
type ScheduledDetails struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	CareDuration    int    `json:"care_duration"`
	Location        string `json:"location"`
	VisitCountOnDay int    `json:"visit_count_on_day"` // 含本次
}

// MatchDetails 匹配详情
type MatchDetails struct {
	Professional    string  `json:"professional"`
	FinalScore      float64 `json:"final_score"`
	SkillMatch      float64 `json:"skill_match"`
	Availability    float64 `json:"availability"`
	AreaMatch       float64 `json:"area_match"`
	ClusteringBonus float64 `json:"clustering_bonus"`
	Reasoning       string  `json:"reasoning"`
}

// AssignResult 单患者分配结果
// 预期内的失败（无候选/无时段/冲突）通过 Success=false + ErrorCode 返回，
// 不作为 error 抛出；error 仅用于数据访问层故障
type AssignResult struct {
	Success          bool                     `json:"success"`
	Message          string                   `json:"message"`
	ErrorCode        errors.Code              `json:"error_code,omitempty"`
	Assignment       *model.PatientAssignment `json:"assignment,omitempty"`
	ScheduledDetails *ScheduledDetails        `json:"scheduled_details,omitempty"`
	MatchDetails     *MatchDetails            `json:"match_details,omitempty"`
}

// BulkItem 批量分配单项结果
type BulkItem struct {
	PatientID uuid.UUID   `json:"patient_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	ErrorCode errors.Code `json:"error_code,omitempty"`
}

// BulkResult 批量分配汇总
type BulkResult struct {
	Total        int        `json:"total"`
	SuccessCount int        `json:"success_count"`
	FailCount    int        `json:"fail_count"`
	Items        []BulkItem `json:"items"`
}

// FindBestMatches 为患者返回按总分降序的前 N 名候选专业人员
func (e *Engine) FindBestMatches(ctx context.Context, patientID uuid.UUID) ([]scoring.CandidateScore, error) {
	patient, err := e.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	profiles, err := e.activeProfiles(ctx)
	if err != nil {
		return nil, err
	}

	return scoring.RankCandidates(e.autoStrategy, patient, profiles, e.cfg.MaxCandidates), nil
}

// AutoAssignPatient 自动分配：评分选人 + 时段查找 + 提交
//
// pending 为本批次内尚未落库的分配，透传给时段查找器计入容量。
func (e *Engine) AutoAssignPatient(ctx context.Context, patientID, assignedBy uuid.UUID, pending []*model.PatientAssignment) (*AssignResult, error) {
	matches, err := e.FindBestMatches(ctx, patientID)
	if err != nil {
		return nil, err
	}
	e.log.StartAssign(patientID.String(), len(matches))

	if len(matches) == 0 {
		e.log.AssignFailed(patientID.String(), string(errors.CodeNoMatches))
		return &AssignResult{
			Success:   false,
			ErrorCode: errors.CodeNoMatches,
			Message:   "没有符合条件的专业人员",
		}, nil
	}

	best := matches[0]
	result, err := e.assignWithSlot(ctx, patientID, best.ProfessionalID, assignedBy, pending, best.FinalScore, "")
	if err != nil {
		return nil, err
	}

	if result.Success {
		result.Message = fmt.Sprintf("已分配给 %s", best.ProfessionalName)
		result.MatchDetails = &MatchDetails{
			Professional:    best.ProfessionalName,
			FinalScore:      best.FinalScore,
			SkillMatch:      best.SkillScore,
			Availability:    best.AvailabilityScore,
			AreaMatch:       best.AreaScore,
			ClusteringBonus: best.ClusteringBonus,
			Reasoning:       best.Reasoning,
		}
	}
	return result, nil
}

// SmartAssignPatient 为人工指定的专业人员查找时段并提交
func (e *Engine) SmartAssignPatient(ctx context.Context, patientID, professionalID, assignedBy uuid.UUID, pending []*model.PatientAssignment) (*AssignResult, error) {
	return e.assignWithSlot(ctx, patientID, professionalID, assignedBy, pending, e.cfg.SmartMatchScore, "")
}

// BulkAutoAssign 批量自动分配
//
// 严格顺序处理：每次成功的分配都会进入 pending 列表，
// 供后续患者的容量/时段搜索使用。落库后的读取可能滞后，
// 不用内存承接会导致整批患者挤进同一个"最早可用"时段。
func (e *Engine) BulkAutoAssign(ctx context.Context, patientIDs []uuid.UUID, assignedBy uuid.UUID) (*BulkResult, error) {
	start := time.Now()
	result := &BulkResult{Total: len(patientIDs)}
	pending := make([]*model.PatientAssignment, 0, len(patientIDs))

	for _, patientID := range patientIDs {
		item := BulkItem{PatientID: patientID}

		r, err := e.AutoAssignPatient(ctx, patientID, assignedBy, pending)
		if err != nil {
			item.Message = err.Error()
			item.ErrorCode = errors.GetCode(err)
			result.FailCount++
			result.Items = append(result.Items, item)
			continue
		}

		item.Success = r.Success
		item.Message = r.Message
		item.ErrorCode = r.ErrorCode
		if r.Success {
			result.SuccessCount++
			pending = append(pending, r.Assignment)
		} else {
			result.FailCount++
		}
		result.Items = append(result.Items, item)
	}

	e.log.BulkComplete(result.Total, result.SuccessCount, result.FailCount, time.Since(start))
	return result, nil
}

// assignWithSlot 时段查找 + 提交的公共路径
func (e *Engine) assignWithSlot(ctx context.Context, patientID, professionalID, assignedBy uuid.UUID, pending []*model.PatientAssignment, matchScore float64, reason string) (*AssignResult, error) {
	patient, err := e.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	placement, err := e.finder.FindSlot(ctx, patient, professionalID, pending)
	if err != nil {
		if errors.Is(err, errors.CodeNoSlot) {
			e.log.AssignFailed(patientID.String(), err.Error())
			return &AssignResult{
				Success:   false,
				ErrorCode: errors.CodeNoSlot,
				Message:   err.Error(),
			}, nil
		}
		return nil, err
	}

	careDuration := slot.CareDuration(patient.CareNeeded, patient.EstimatedCareDuration)
	if reason == "" {
		reason = fmt.Sprintf("Smart scheduled - %d min care + travel time", careDuration)
	}

	assignment, commitErr := e.commit(ctx, patient, professionalID, assignedBy, placement, matchScore, reason, nil)
	if commitErr != nil {
		if errors.Is(commitErr, errors.CodeAssignmentConflict) {
			return &AssignResult{
				Success:   false,
				ErrorCode: errors.CodeAssignmentConflict,
				Message:   commitErr.Error(),
			}, nil
		}
		return nil, commitErr
	}

	e.log.SlotFound(patientID.String(), professionalID.String(), placement.Date, placement.Time)

	return &AssignResult{
		Success:    true,
		Assignment: assignment,
		ScheduledDetails: &ScheduledDetails{
			Date:            placement.Date,
			Time:            placement.Time,
			CareDuration:    careDuration,
			Location:        patient.Area,
			VisitCountOnDay: placement.VisitCountOnDay + 1,
		},
	}, nil
}

// activeProfiles 拉取所有在职专业人员的完整画像
func (e *Engine) activeProfiles(ctx context.Context) ([]*model.ProfessionalProfile, error) {
	professionals, err := e.store.ListActiveProfessionals(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]*model.ProfessionalProfile, 0, len(professionals))
	for _, p := range professionals {
		profile, err := e.store.GetProfile(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}
