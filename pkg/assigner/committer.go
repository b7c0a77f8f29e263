package assigner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/errors"
	"github.com/kotihoito/kotihoito/pkg/model"
	"github.com/kotihoito/kotihoito/pkg/slot"
)

// commit 写入分配记录并递增计数
//
// 三步顺序固定：插入分配 → 递增计数 → 追加审计。
// 插入命中"每患者至多一条 active"约束时返回冲突错误；
// 计数递增失败只记日志不回滚，计数漂移由 stats 包暴露。
func (e *Engine) commit(ctx context.Context, patient *model.Patient, professionalID, assignedBy uuid.UUID, placement *slot.Placement, matchScore float64, reason string, prevProfessionalID *uuid.UUID) (*model.PatientAssignment, error) {
	assignment := &model.PatientAssignment{
		BaseModel:          model.NewBaseModel(),
		PatientID:          patient.ID,
		ProfessionalID:     professionalID,
		AssignedByID:       assignedBy,
		AssignmentDate:     time.Now(),
		ScheduledVisitDate: placement.Date,
		ScheduledVisitTime: placement.Time,
		ServiceArea:        patient.Area,
		MatchScore:         matchScore,
		AssignmentReason:   reason,
		Status:             model.AssignmentActive,
	}

	if err := e.store.CreateAssignment(ctx, assignment); err != nil {
		if errors.Is(err, errors.CodeAssignmentConflict) {
			return nil, err
		}
		return nil, errors.DataError("create assignment", err)
	}

	if err := e.store.IncrementPatientCount(ctx, professionalID); err != nil {
		e.log.AssignFailed(patient.ID.String(), fmt.Sprintf("递增患者计数失败: %v", err))
	}

	history := &model.AssignmentHistory{
		ID:                     uuid.New(),
		PatientID:              patient.ID,
		PreviousProfessionalID: prevProfessionalID,
		NewProfessionalID:      professionalID,
		ChangedByID:            assignedBy,
		Reason:                 reason,
		CreatedAt:              time.Now(),
	}
	if err := e.store.AppendHistory(ctx, history); err != nil {
		return nil, errors.DataError("append assignment history", err)
	}

	return assignment, nil
}

// ReassignPatient 将患者从当前专业人员改派给新专业人员
//
// 旧分配标记为 reassigned 而非删除，审计记录带上前任。
// 旧专业人员的患者计数不回退，与递增侧的"只进不出"保持一致口径，
// 漂移量可通过 stats 包对账。
func (e *Engine) ReassignPatient(ctx context.Context, patientID, newProfessionalID, changedBy uuid.UUID, reason string) (*AssignResult, error) {
	patient, err := e.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	current, err := e.store.ActiveAssignmentFor(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return &AssignResult{
			Success:   false,
			ErrorCode: errors.CodeNotFound,
			Message:   "患者当前没有有效分配",
		}, nil
	}
	if current.ProfessionalID == newProfessionalID {
		return &AssignResult{
			Success:   false,
			ErrorCode: errors.CodeAssignmentConflict,
			Message:   "患者已分配给该专业人员",
		}, nil
	}

	placement, err := e.finder.FindSlot(ctx, patient, newProfessionalID, nil)
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

	if err := e.store.MarkReassigned(ctx, current.ID); err != nil {
		return nil, errors.DataError("mark assignment reassigned", err)
	}

	if reason == "" {
		reason = "Reassigned by staff"
	}
	prev := current.ProfessionalID
	assignment, err := e.commit(ctx, patient, newProfessionalID, changedBy, placement, e.cfg.SmartMatchScore, reason, &prev)
	if err != nil {
		return nil, err
	}

	e.log.SlotFound(patientID.String(), newProfessionalID.String(), placement.Date, placement.Time)

	careDuration := slot.CareDuration(patient.CareNeeded, patient.EstimatedCareDuration)
	return &AssignResult{
		Success:    true,
		Message:    "改派成功",
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

// UnassignPatient 解除患者的当前分配
//
// 直接删除分配记录，不写审计、不回退计数。
func (e *Engine) UnassignPatient(ctx context.Context, patientID uuid.UUID) (*AssignResult, error) {
	current, err := e.store.ActiveAssignmentFor(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return &AssignResult{
			Success:   false,
			ErrorCode: errors.CodeNotFound,
			Message:   "患者当前没有有效分配",
		}, nil
	}

	if err := e.store.DeleteAssignment(ctx, current.ID); err != nil {
		return nil, errors.DataError("delete assignment", err)
	}

	return &AssignResult{
		Success: true,
		Message: "已解除分配",
	}, nil
}
