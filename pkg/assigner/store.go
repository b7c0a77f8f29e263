// Package assigner 提供患者分配编排引擎
//
// 组合评分、时段查找与提交：为患者挑选最合适的专业人员，
// 找到具体访视时段并落库。批量模式下通过内存中的
// 待落库分配列表避免同一批次内超订。
package assigner

import (
	"context"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/model"
	"github.com/kotihoito/kotihoito/pkg/slot"
)

// Store 数据访问接口（依赖倒置，由仓储层实现）
type Store interface {
	slot.VisitSource

	// GetPatient 获取患者
	GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)

	// GetProfessional 获取专业人员
	GetProfessional(ctx context.Context, id uuid.UUID) (*model.Professional, error)

	// ListActiveProfessionals 列出所有在职专业人员
	ListActiveProfessionals(ctx context.Context) ([]*model.Professional, error)

	// GetProfile 获取专业人员完整画像（专长/服务区/班次/各区有效患者数）
	GetProfile(ctx context.Context, professionalID uuid.UUID) (*model.ProfessionalProfile, error)

	// ActiveAssignmentFor 返回患者当前的有效分配，无则返回 nil
	ActiveAssignmentFor(ctx context.Context, patientID uuid.UUID) (*model.PatientAssignment, error)

	// ActivePatientsOf 返回专业人员名下的有效患者
	ActivePatientsOf(ctx context.Context, professionalID uuid.UUID) ([]*model.Patient, error)

	// CreateAssignment 插入分配记录；违反"每患者至多一条 active"约束时
	// 返回可被识别为冲突的错误
	CreateAssignment(ctx context.Context, a *model.PatientAssignment) error

	// IncrementPatientCount 原子递增专业人员的患者计数
	// 必须是单条 UPDATE，不允许读-改-写
	IncrementPatientCount(ctx context.Context, professionalID uuid.UUID) error

	// MarkReassigned 将分配标记为已改派
	MarkReassigned(ctx context.Context, assignmentID uuid.UUID) error

	// DeleteAssignment 删除分配记录
	DeleteAssignment(ctx context.Context, assignmentID uuid.UUID) error

	// AppendHistory 追加分配变更审计记录
	AppendHistory(ctx context.Context, h *model.AssignmentHistory) error
}
