package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kotihoito/kotihoito/pkg/model"
)

// PatientRepository 患者仓储
type PatientRepository struct {
	db DB
}

// NewPatientRepository 创建患者仓储
func NewPatientRepository(db DB) *PatientRepository {
	return &PatientRepository{db: db}
}

const patientColumns = `
	id, name, phone, address, care_needed, estimated_care_duration,
	area, latitude, longitude, preferred_visit_time, visit_time_flexibility,
	status, notes, created_at, updated_at`

// Create 创建患者
func (r *PatientRepository) Create(ctx context.Context, p *model.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = "pending"
	}

	query := `
		INSERT INTO patients (
			id, name, phone, address, care_needed, estimated_care_duration,
			area, latitude, longitude, preferred_visit_time, visit_time_flexibility,
			status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Phone, p.Address, p.CareNeeded, p.EstimatedCareDuration,
		p.Area, p.Latitude, p.Longitude, p.PreferredVisitTime, p.VisitTimeFlexibility,
		p.Status, p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建患者失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取患者
func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE id = $1 AND deleted_at IS NULL`, patientColumns)
	return r.scanPatient(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新患者
func (r *PatientRepository) Update(ctx context.Context, p *model.Patient) error {
	p.UpdatedAt = time.Now()

	query := `
		UPDATE patients SET
			name = $2, phone = $3, address = $4, care_needed = $5,
			estimated_care_duration = $6, area = $7, latitude = $8, longitude = $9,
			preferred_visit_time = $10, visit_time_flexibility = $11,
			status = $12, notes = $13, updated_at = $14
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Phone, p.Address, p.CareNeeded,
		p.EstimatedCareDuration, p.Area, p.Latitude, p.Longitude,
		p.PreferredVisitTime, p.VisitTimeFlexibility,
		p.Status, p.Notes, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新患者失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("患者不存在")
	}
	return nil
}

// UpdateStatus 更新患者状态
func (r *PatientRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE patients SET status = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新患者状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("患者不存在")
	}
	return nil
}

// UpdateCoordinates 回填患者经纬度
func (r *PatientRepository) UpdateCoordinates(ctx context.Context, id uuid.UUID, lat, lng float64) error {
	query := `UPDATE patients SET latitude = $2, longitude = $3, updated_at = $4 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, lat, lng, time.Now())
	if err != nil {
		return fmt.Errorf("更新患者坐标失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("患者不存在")
	}
	return nil
}

// Delete 软删除患者
func (r *PatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE patients SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除患者失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("患者不存在")
	}
	return nil
}

// List 查询患者列表
func (r *PatientRepository) List(ctx context.Context, filter ListFilter) ([]*model.Patient, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Area != "" {
		conditions = append(conditions, fmt.Sprintf("area = $%d", argIndex))
		args = append(args, filter.Area)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d OR address ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM patients WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM patients
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, patientColumns, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var patients []*model.Patient
	for rows.Next() {
		p, err := r.scanPatientRow(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}

	return patients, total, nil
}

// ListPending 获取所有待分配患者
func (r *PatientRepository) ListPending(ctx context.Context) ([]*model.Patient, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM patients
		WHERE status = 'pending' AND deleted_at IS NULL
		ORDER BY created_at ASC
	`, patientColumns)

	return r.queryPatients(ctx, query)
}

// ListWithoutCoordinates 获取有地址但缺坐标的患者（地理编码回填用）
func (r *PatientRepository) ListWithoutCoordinates(ctx context.Context, limit int) ([]*model.Patient, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM patients
		WHERE address <> '' AND (latitude IS NULL OR longitude IS NULL) AND deleted_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, patientColumns)

	return r.queryPatients(ctx, query, limit)
}

// queryPatients 执行查询并扫描多行
func (r *PatientRepository) queryPatients(ctx context.Context, query string, args ...interface{}) ([]*model.Patient, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询患者失败: %w", err)
	}
	defer rows.Close()

	var patients []*model.Patient
	for rows.Next() {
		p, err := r.scanPatientRow(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, nil
}

// scanPatient 扫描单行患者
func (r *PatientRepository) scanPatient(row *sql.Row) (*model.Patient, error) {
	p, err := scanPatientFields(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("患者不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("扫描患者失败: %w", err)
	}
	return p, nil
}

// scanPatientRow 扫描结果集中的患者行
func (r *PatientRepository) scanPatientRow(rows *sql.Rows) (*model.Patient, error) {
	p, err := scanPatientFields(rows)
	if err != nil {
		return nil, fmt.Errorf("扫描患者失败: %w", err)
	}
	return p, nil
}

// scanPatientFields 按列顺序扫描患者字段
func scanPatientFields(s Scanner) (*model.Patient, error) {
	var p model.Patient
	var phone, address, preferredTime, flexibility, notes sql.NullString
	var careDuration sql.NullInt64

	err := s.Scan(
		&p.ID, &p.Name, &phone, &address, &p.CareNeeded, &careDuration,
		&p.Area, &p.Latitude, &p.Longitude, &preferredTime, &flexibility,
		&p.Status, &notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Phone = phone.String
	p.Address = address.String
	p.PreferredVisitTime = preferredTime.String
	p.VisitTimeFlexibility = model.VisitTimeFlexibility(flexibility.String)
	p.Notes = notes.String
	p.EstimatedCareDuration = int(careDuration.Int64)
	return &p, nil
}
