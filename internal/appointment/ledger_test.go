package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var (
	t1 = time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)
	t2 = time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)
	t3 = time.Date(2030, 3, 4, 11, 0, 0, 0, time.UTC)
)

func apptAt(at time.Time, status AppointmentStatus) Appointment {
	return Appointment{ID: uuid.New(), ScheduledAt: at, Status: status}
}

func TestFreeSlots_SubtractsActiveOnly(t *testing.T) {
	catalog := []time.Time{t3, t1, t2}
	appts := []Appointment{
		apptAt(t1, StatusCreated),
		apptAt(t2, StatusCancelled),
		apptAt(t3, StatusConfirmed),
	}

	assert.Equal(t, []time.Time{t2}, FreeSlots(catalog, appts))
}

func TestFreeSlots_CompletedAndCancelledDoNotHold(t *testing.T) {
	catalog := []time.Time{t1, t2}
	appts := []Appointment{
		apptAt(t1, StatusCompleted),
		apptAt(t2, StatusCancelled),
	}

	assert.Equal(t, []time.Time{t1, t2}, FreeSlots(catalog, appts))
}

func TestFreeSlots_PreservesCatalogOrder(t *testing.T) {
	catalog := []time.Time{t3, t1, t2}

	assert.Equal(t, []time.Time{t3, t1, t2}, FreeSlots(catalog, nil))
}

func TestFreeSlots_MatchesAcrossZones(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	catalog := []time.Time{t1, t2}
	appts := []Appointment{apptAt(t1.In(loc), StatusCreated)}

	assert.Equal(t, []time.Time{t2}, FreeSlots(catalog, appts))
}

func TestFreeSlots_IgnoresAppointmentsOutsideCatalog(t *testing.T) {
	catalog := []time.Time{t1}
	appts := []Appointment{apptAt(t2, StatusCreated)}

	assert.Equal(t, []time.Time{t1}, FreeSlots(catalog, appts))
}

func TestDedupeSlots(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	in := []time.Time{t2, t1, t2.In(loc), t1.Add(300 * time.Nanosecond)}

	out := DedupeSlots(in)

	assert.Equal(t, []time.Time{t1, t2}, out)
	for _, s := range out {
		assert.Equal(t, time.UTC, s.Location())
	}
}

func TestContainsSlot(t *testing.T) {
	catalog := []time.Time{t1, t2}

	assert.True(t, ContainsSlot(catalog, t1))
	assert.True(t, ContainsSlot(catalog, t2.In(time.FixedZone("X", 3600))))
	assert.False(t, ContainsSlot(catalog, t3))
	assert.False(t, ContainsSlot(nil, t1))
}
