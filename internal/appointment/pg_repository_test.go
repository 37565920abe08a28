package appointment

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestBuildListWhere_NoFilters(t *testing.T) {
	where, args := buildListWhere(Filter{})

	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildListWhere_AllFilters(t *testing.T) {
	doctorID, patientID := uuid.New(), uuid.New()
	status := StatusConfirmed
	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	where, args := buildListWhere(Filter{
		DoctorID:  &doctorID,
		PatientID: &patientID,
		Status:    &status,
		From:      &from,
		To:        &to,
	})

	assert.Equal(t,
		"WHERE doctor_id = $1 AND patient_id = $2 AND status = $3 AND scheduled_at >= $4 AND scheduled_at <= $5",
		where)
	assert.Equal(t, []any{doctorID, patientID, "CONFIRMED", from, to}, args)
}

func TestBuildListWhere_PlaceholdersFollowSetFields(t *testing.T) {
	patientID := uuid.New()
	to := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	where, args := buildListWhere(Filter{PatientID: &patientID, To: &to})

	assert.Equal(t, "WHERE patient_id = $1 AND scheduled_at <= $2", where)
	assert.Equal(t, []any{patientID, to}, args)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
