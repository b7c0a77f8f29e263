package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/model"
)

// Store 组合仓储，实现分配引擎的数据访问接口
type Store struct {
	Patients      *PatientRepository
	Professionals *ProfessionalRepository
	Assignments   *AssignmentRepository
}

// NewStore 创建组合仓储
func NewStore(db DB) *Store {
	return &Store{
		Patients:      NewPatientRepository(db),
		Professionals: NewProfessionalRepository(db),
		Assignments:   NewAssignmentRepository(db),
	}
}

// GetPatient 获取患者
func (s *Store) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.Patients.GetByID(ctx, id)
}

// GetProfessional 获取专业人员
func (s *Store) GetProfessional(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	return s.Professionals.GetByID(ctx, id)
}

// ListActiveProfessionals 列出所有在职专业人员
func (s *Store) ListActiveProfessionals(ctx context.Context) ([]*model.Professional, error) {
	return s.Professionals.ListActive(ctx)
}

// GetProfile 获取专业人员完整画像
func (s *Store) GetProfile(ctx context.Context, professionalID uuid.UUID) (*model.ProfessionalProfile, error) {
	return s.Professionals.GetProfile(ctx, professionalID)
}

// WorkingHoursFor 返回专业人员指定星期的班次
func (s *Store) WorkingHoursFor(ctx context.Context, professionalID uuid.UUID, weekday int) (*model.WorkingHours, error) {
	return s.Professionals.WorkingHoursFor(ctx, professionalID, weekday)
}

// ActiveVisitsOn 返回专业人员某日的已排访视
func (s *Store) ActiveVisitsOn(ctx context.Context, professionalID uuid.UUID, date string) ([]model.ScheduledVisit, error) {
	return s.Assignments.ActiveVisitsOn(ctx, professionalID, date)
}

// ActiveAssignmentFor 返回患者当前的有效分配
func (s *Store) ActiveAssignmentFor(ctx context.Context, patientID uuid.UUID) (*model.PatientAssignment, error) {
	return s.Assignments.ActiveForPatient(ctx, patientID)
}

// ActivePatientsOf 返回专业人员名下的有效患者
func (s *Store) ActivePatientsOf(ctx context.Context, professionalID uuid.UUID) ([]*model.Patient, error) {
	return s.Assignments.ActivePatientsOf(ctx, professionalID)
}

// CreateAssignment 插入分配记录
func (s *Store) CreateAssignment(ctx context.Context, a *model.PatientAssignment) error {
	return s.Assignments.Create(ctx, a)
}

// IncrementPatientCount 原子递增专业人员的患者计数
func (s *Store) IncrementPatientCount(ctx context.Context, professionalID uuid.UUID) error {
	return s.Professionals.IncrementPatientCount(ctx, professionalID)
}

// MarkReassigned 将分配标记为已改派
func (s *Store) MarkReassigned(ctx context.Context, assignmentID uuid.UUID) error {
	return s.Assignments.MarkReassigned(ctx, assignmentID)
}

// DeleteAssignment 删除分配记录
func (s *Store) DeleteAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	return s.Assignments.Delete(ctx, assignmentID)
}

// AppendHistory 追加分配变更审计记录
func (s *Store) AppendHistory(ctx context.Context, h *model.AssignmentHistory) error {
	return s.Assignments.AppendHistory(ctx, h)
}
