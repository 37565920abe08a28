package appointment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidTransition_Table(t *testing.T) {
	all := []AppointmentStatus{StatusCreated, StatusConfirmed, StatusCancelled, StatusCompleted}
	allowed := map[AppointmentStatus]map[AppointmentStatus]bool{
		StatusCreated:   {StatusConfirmed: true, StatusCancelled: true},
		StatusConfirmed: {StatusCompleted: true, StatusCancelled: true},
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				assert.Equal(t, allowed[from][to], IsValidTransition(from, to))
			})
		}
	}
}

func TestIsValidTransition_SelfAndTerminal(t *testing.T) {
	for _, s := range []AppointmentStatus{StatusCreated, StatusConfirmed, StatusCancelled, StatusCompleted} {
		assert.False(t, IsValidTransition(s, s), "self transition %s", s)
	}
	assert.False(t, IsValidTransition(StatusCancelled, StatusCreated))
	assert.False(t, IsValidTransition(StatusCompleted, StatusConfirmed))
}

func TestIsValidTransition_UnknownFailsClosed(t *testing.T) {
	assert.False(t, IsValidTransition("PENDING", StatusConfirmed))
	assert.False(t, IsValidTransition("", StatusCancelled))
	assert.False(t, IsValidTransition(StatusCreated, "ARCHIVED"))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	s, err = ParseStatus(" COMPLETED ")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)

	_, err = ParseStatus("expired")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStatusActivity(t *testing.T) {
	assert.True(t, StatusCreated.IsActive())
	assert.True(t, StatusConfirmed.IsActive())
	assert.False(t, StatusCancelled.IsActive())
	assert.False(t, StatusCompleted.IsActive())

	assert.True(t, StatusCancelled.IsFinal())
	assert.True(t, StatusCompleted.IsFinal())
	assert.False(t, StatusCreated.IsFinal())
}
