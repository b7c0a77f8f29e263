package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/model"
)

// ProfessionalRepository 专业人员仓储
type ProfessionalRepository struct {
	db DB
}

// NewProfessionalRepository 创建专业人员仓储
func NewProfessionalRepository(db DB) *ProfessionalRepository {
	return &ProfessionalRepository{db: db}
}

const professionalColumns = `
	id, profile_id, name, kind, specialty, max_patients,
	current_patient_count, is_active, created_at, updated_at`

// Create 创建专业人员
func (r *ProfessionalRepository) Create(ctx context.Context, p *model.Professional) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO professionals (
			id, profile_id, name, kind, specialty, max_patients,
			current_patient_count, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.ProfileID, p.Name, p.Kind, p.Specialty, p.MaxPatients,
		p.CurrentPatientCount, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建专业人员失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取专业人员
func (r *ProfessionalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	query := fmt.Sprintf(`SELECT %s FROM professionals WHERE id = $1 AND deleted_at IS NULL`, professionalColumns)

	p, err := scanProfessionalFields(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("专业人员不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("扫描专业人员失败: %w", err)
	}
	return p, nil
}

// ListActive 获取所有在职专业人员
func (r *ProfessionalRepository) ListActive(ctx context.Context) ([]*model.Professional, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM professionals
		WHERE is_active = TRUE AND deleted_at IS NULL
		ORDER BY name ASC
	`, professionalColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询专业人员失败: %w", err)
	}
	defer rows.Close()

	var professionals []*model.Professional
	for rows.Next() {
		p, err := scanProfessionalFields(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描专业人员失败: %w", err)
		}
		professionals = append(professionals, p)
	}
	return professionals, nil
}

// IncrementPatientCount 原子递增患者计数
//
// 单条 UPDATE，读-改-写在并发分配下会丢更新。
func (r *ProfessionalRepository) IncrementPatientCount(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE professionals
		SET current_patient_count = current_patient_count + 1, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("递增患者计数失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("专业人员不存在")
	}
	return nil
}

// GetProfile 获取专业人员完整画像
//
// 四次查询拼装：基础信息、专长、服务区、班次，
// 外加各服务区有效患者数（聚类加分用）。
func (r *ProfessionalRepository) GetProfile(ctx context.Context, id uuid.UUID) (*model.ProfessionalProfile, error) {
	professional, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &model.ProfessionalProfile{
		Professional:         professional,
		ActivePatientsByArea: make(map[string]int),
	}

	if profile.Specializations, err = r.specializations(ctx, id); err != nil {
		return nil, err
	}
	if profile.ServiceAreas, err = r.serviceAreas(ctx, id); err != nil {
		return nil, err
	}
	if profile.WorkingHours, err = r.workingHours(ctx, id); err != nil {
		return nil, err
	}

	areaQuery := `
		SELECT service_area, COUNT(*)
		FROM patient_assignments
		WHERE professional_id = $1 AND status = 'active'
		GROUP BY service_area
	`
	rows, err := r.db.QueryContext(ctx, areaQuery, id)
	if err != nil {
		return nil, fmt.Errorf("查询分区患者数失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var area string
		var count int
		if err := rows.Scan(&area, &count); err != nil {
			return nil, fmt.Errorf("扫描分区患者数失败: %w", err)
		}
		profile.ActivePatientsByArea[area] = count
	}

	return profile, nil
}

// WorkingHoursFor 返回指定星期的班次，无则返回 nil
func (r *ProfessionalRepository) WorkingHoursFor(ctx context.Context, id uuid.UUID, weekday int) (*model.WorkingHours, error) {
	query := `
		SELECT professional_id, weekday, start_time, end_time, is_recurring
		FROM professional_working_hours
		WHERE professional_id = $1 AND weekday = $2
	`

	var wh model.WorkingHours
	err := r.db.QueryRowContext(ctx, query, id, weekday).Scan(
		&wh.ProfessionalID, &wh.Weekday, &wh.StartTime, &wh.EndTime, &wh.IsRecurring,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询班次失败: %w", err)
	}
	return &wh, nil
}

// specializations 查询专长列表
func (r *ProfessionalRepository) specializations(ctx context.Context, id uuid.UUID) ([]string, error) {
	query := `SELECT specialization FROM professional_specializations WHERE professional_id = $1`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("查询专长失败: %w", err)
	}
	defer rows.Close()

	var specs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("扫描专长失败: %w", err)
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// serviceAreas 查询服务区列表
func (r *ProfessionalRepository) serviceAreas(ctx context.Context, id uuid.UUID) ([]model.ServiceArea, error) {
	query := `
		SELECT professional_id, service_area, is_primary
		FROM professional_service_areas
		WHERE professional_id = $1
		ORDER BY is_primary DESC, service_area ASC
	`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("查询服务区失败: %w", err)
	}
	defer rows.Close()

	var areas []model.ServiceArea
	for rows.Next() {
		var a model.ServiceArea
		if err := rows.Scan(&a.ProfessionalID, &a.Area, &a.IsPrimary); err != nil {
			return nil, fmt.Errorf("扫描服务区失败: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, nil
}

// workingHours 查询全部班次
func (r *ProfessionalRepository) workingHours(ctx context.Context, id uuid.UUID) ([]model.WorkingHours, error) {
	query := `
		SELECT professional_id, weekday, start_time, end_time, is_recurring
		FROM professional_working_hours
		WHERE professional_id = $1
		ORDER BY weekday ASC
	`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("查询班次失败: %w", err)
	}
	defer rows.Close()

	var hours []model.WorkingHours
	for rows.Next() {
		var wh model.WorkingHours
		if err := rows.Scan(&wh.ProfessionalID, &wh.Weekday, &wh.StartTime, &wh.EndTime, &wh.IsRecurring); err != nil {
			return nil, fmt.Errorf("扫描班次失败: %w", err)
		}
		hours = append(hours, wh)
	}
	return hours, nil
}

// scanProfessionalFields 按列顺序扫描专业人员字段
func scanProfessionalFields(s Scanner) (*model.Professional, error) {
	var p model.Professional
	var specialty sql.NullString

	err := s.Scan(
		&p.ID, &p.ProfileID, &p.Name, &p.Kind, &specialty, &p.MaxPatients,
		&p.CurrentPatientCount, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Specialty = specialty.String
	return &p, nil
}
