package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "github.com/kotihoito/kotihoito/pkg/errors"
	"github.com/kotihoito/kotihoito/pkg/model"
)

// AssignmentRepository 分配仓储
type AssignmentRepository struct {
	db DB
}

// NewAssignmentRepository 创建分配仓储
func NewAssignmentRepository(db DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `
	id, patient_id, professional_id, assigned_by_id, assignment_date,
	scheduled_visit_date, scheduled_visit_time, service_area,
	match_score, assignment_reason, status, created_at, updated_at`

// uniqueViolation lib/pq 唯一约束冲突错误码
const uniqueViolation = "23505"

// Create 插入分配记录
//
// 表上有 (patient_id) WHERE status = 'active' 的部分唯一索引，
// 命中时转为冲突错误，调用方据此返回 409。
func (r *AssignmentRepository) Create(ctx context.Context, a *model.PatientAssignment) error {
	query := `
		INSERT INTO patient_assignments (
			id, patient_id, professional_id, assigned_by_id, assignment_date,
			scheduled_visit_date, scheduled_visit_time, service_area,
			match_score, assignment_reason, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.PatientID, a.ProfessionalID, a.AssignedByID, a.AssignmentDate,
		a.ScheduledVisitDate, a.ScheduledVisitTime, a.ServiceArea,
		a.MatchScore, a.AssignmentReason, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return apperrors.AssignmentConflict(a.PatientID.String(), "已存在有效分配")
		}
		return fmt.Errorf("创建分配失败: %w", err)
	}
	return nil
}

// ActiveForPatient 返回患者的有效分配，无则返回 nil
func (r *AssignmentRepository) ActiveForPatient(ctx context.Context, patientID uuid.UUID) (*model.PatientAssignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM patient_assignments
		WHERE patient_id = $1 AND status = 'active'
	`, assignmentColumns)

	a, err := scanAssignmentFields(r.db.QueryRowContext(ctx, query, patientID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询有效分配失败: %w", err)
	}
	return a, nil
}

// ListActive 列出所有有效分配
func (r *AssignmentRepository) ListActive(ctx context.Context) ([]*model.PatientAssignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM patient_assignments
		WHERE status = 'active'
		ORDER BY scheduled_visit_date ASC, scheduled_visit_time ASC
	`, assignmentColumns)

	return r.queryAssignments(ctx, query)
}

// ListActiveByProfessional 列出专业人员的有效分配
func (r *AssignmentRepository) ListActiveByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*model.PatientAssignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM patient_assignments
		WHERE professional_id = $1 AND status = 'active'
		ORDER BY scheduled_visit_date ASC, scheduled_visit_time ASC
	`, assignmentColumns)

	return r.queryAssignments(ctx, query, professionalID)
}

// ActiveVisitsOn 返回专业人员某日的已排访视（联表取患者位置）
func (r *AssignmentRepository) ActiveVisitsOn(ctx context.Context, professionalID uuid.UUID, date string) ([]model.ScheduledVisit, error) {
	query := `
		SELECT a.id, a.patient_id, a.scheduled_visit_time,
			p.care_needed, p.area, p.latitude, p.longitude
		FROM patient_assignments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.professional_id = $1 AND a.scheduled_visit_date = $2 AND a.status = 'active'
		ORDER BY a.scheduled_visit_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("查询当日访视失败: %w", err)
	}
	defer rows.Close()

	var visits []model.ScheduledVisit
	for rows.Next() {
		var v model.ScheduledVisit
		if err := rows.Scan(&v.AssignmentID, &v.PatientID, &v.VisitTime, &v.CareNeeded, &v.Area, &v.Latitude, &v.Longitude); err != nil {
			return nil, fmt.Errorf("扫描访视失败: %w", err)
		}
		visits = append(visits, v)
	}
	return visits, nil
}

// ActivePatientsOf 返回专业人员名下的有效患者
func (r *AssignmentRepository) ActivePatientsOf(ctx context.Context, professionalID uuid.UUID) ([]*model.Patient, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM patients
		WHERE deleted_at IS NULL AND id IN (
			SELECT patient_id FROM patient_assignments
			WHERE professional_id = $1 AND status = 'active'
		)
		ORDER BY name ASC
	`, patientColumns)

	rows, err := r.db.QueryContext(ctx, query, professionalID)
	if err != nil {
		return nil, fmt.Errorf("查询名下患者失败: %w", err)
	}
	defer rows.Close()

	var patients []*model.Patient
	for rows.Next() {
		p, err := scanPatientFields(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描患者失败: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, nil
}

// MarkReassigned 将分配标记为已改派
func (r *AssignmentRepository) MarkReassigned(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE patient_assignments SET status = 'reassigned', updated_at = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("标记改派失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("分配不存在")
	}
	return nil
}

// Delete 删除分配记录
func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM patient_assignments WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("删除分配失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("分配不存在")
	}
	return nil
}

// AppendHistory 追加分配变更审计记录
func (r *AssignmentRepository) AppendHistory(ctx context.Context, h *model.AssignmentHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO assignment_history (
			id, patient_id, previous_professional_id, new_professional_id,
			changed_by_id, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.PatientID, h.PreviousProfessionalID, h.NewProfessionalID,
		h.ChangedByID, h.Reason, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("追加审计记录失败: %w", err)
	}
	return nil
}

// HistoryForPatient 返回患者的分配变更历史（新到旧）
func (r *AssignmentRepository) HistoryForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.AssignmentHistory, error) {
	query := `
		SELECT id, patient_id, previous_professional_id, new_professional_id,
			changed_by_id, reason, created_at
		FROM assignment_history
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("查询审计记录失败: %w", err)
	}
	defer rows.Close()

	var history []*model.AssignmentHistory
	for rows.Next() {
		var h model.AssignmentHistory
		if err := rows.Scan(&h.ID, &h.PatientID, &h.PreviousProfessionalID, &h.NewProfessionalID, &h.ChangedByID, &h.Reason, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("扫描审计记录失败: %w", err)
		}
		history = append(history, &h)
	}
	return history, nil
}

// queryAssignments 执行查询并扫描多行
func (r *AssignmentRepository) queryAssignments(ctx context.Context, query string, args ...interface{}) ([]*model.PatientAssignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询分配失败: %w", err)
	}
	defer rows.Close()

	var assignments []*model.PatientAssignment
	for rows.Next() {
		a, err := scanAssignmentFields(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描分配失败: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

// scanAssignmentFields 按列顺序扫描分配字段
func scanAssignmentFields(s Scanner) (*model.PatientAssignment, error) {
	var a model.PatientAssignment
	var reason sql.NullString

	err := s.Scan(
		&a.ID, &a.PatientID, &a.ProfessionalID, &a.AssignedByID, &a.AssignmentDate,
		&a.ScheduledVisitDate, &a.ScheduledVisitTime, &a.ServiceArea,
		&a.MatchScore, &reason, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.AssignmentReason = reason.String
	return &a, nil
}
