package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProfessionalRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *ProfessionalRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewProfessionalRepository(db)
}

func professionalRows(id uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "profile_id", "name", "kind", "specialty", "max_patients",
		"current_patient_count", "is_active", "created_at", "updated_at",
	}).AddRow(id, uuid.New(), "Maija Niemi", "nurse", "Wound Care", 10, 3, true, now, now)
}

func TestProfessionalRepositoryListActive(t *testing.T) {
	db, mock, repo := setupProfessionalRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM professionals`).
		WillReturnRows(professionalRows(uuid.New()))

	professionals, err := repo.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, professionals, 1)
	assert.Equal(t, "Maija Niemi", professionals[0].Name)
	assert.Equal(t, 3, professionals[0].CurrentPatientCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfessionalRepositoryIncrementPatientCount(t *testing.T) {
	db, mock, repo := setupProfessionalRepo(t)
	defer db.Close()

	id := uuid.New()
	// 单条 UPDATE 原子递增
	mock.ExpectExec(`current_patient_count = current_patient_count \+ 1`).
		WithArgs(id, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IncrementPatientCount(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfessionalRepositoryIncrementNotFound(t *testing.T) {
	db, mock, repo := setupProfessionalRepo(t)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(`current_patient_count = current_patient_count \+ 1`).
		WithArgs(id, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.IncrementPatientCount(context.Background(), id)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "专业人员不存在")
}

func TestProfessionalRepositoryGetProfile(t *testing.T) {
	db, mock, repo := setupProfessionalRepo(t)
	defer db.Close()

	id := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM professionals WHERE id`).
		WithArgs(id).
		WillReturnRows(professionalRows(id))
	mock.ExpectQuery(`FROM professional_specializations`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"specialization"}).AddRow("Wound Care").AddRow("Nursing Care"))
	mock.ExpectQuery(`FROM professional_service_areas`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"professional_id", "service_area", "is_primary"}).
			AddRow(id, "Tuira", true))
	mock.ExpectQuery(`FROM professional_working_hours`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"professional_id", "weekday", "start_time", "end_time", "is_recurring"}).
			AddRow(id, 1, "08:00", "16:00", true).
			AddRow(id, 2, "08:00", "16:00", true))
	mock.ExpectQuery(`GROUP BY service_area`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"service_area", "count"}).AddRow("Tuira", 3))

	profile, err := repo.GetProfile(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "Maija Niemi", profile.Professional.Name)
	assert.Len(t, profile.Specializations, 2)
	assert.True(t, profile.ServesArea("Tuira"))
	require.NotNil(t, profile.HoursFor(1))
	assert.Equal(t, 3, profile.ActivePatientsByArea["Tuira"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfessionalRepositoryWorkingHoursForNone(t *testing.T) {
	db, mock, repo := setupProfessionalRepo(t)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`FROM professional_working_hours`).
		WithArgs(id, 7).
		WillReturnError(sql.ErrNoRows)

	hours, err := repo.WorkingHoursFor(context.Background(), id, 7)

	// 当天无班次不是错误
	require.NoError(t, err)
	assert.Nil(t, hours)
	assert.NoError(t, mock.ExpectationsWereMet())
}
