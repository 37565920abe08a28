// Package apptest provides in-memory stand-ins for the scheduler's storage and
// slot locker, used by tests across packages.
package apptest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-appointment-scheduling/internal/appointment"
	redisclient "github.com/hackgods/hospital-appointment-scheduling/internal/redis"
)

// MemoryRepository implements appointment.Repository over maps. WithinTx
// serializes units of work and rolls back every change when fn fails.
type MemoryRepository struct {
	txMu sync.Mutex
	mu   sync.Mutex

	doctors  map[uuid.UUID]appointment.Doctor
	patients map[uuid.UUID]struct{}
	appts    map[uuid.UUID]appointment.Appointment
	events   []appointment.EventLog

	// Fail hooks let tests inject storage errors.
	FailInsertAppointment error
	FailInsertEvent       error
	FailList              error
}

var _ appointment.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		doctors:  make(map[uuid.UUID]appointment.Doctor),
		patients: make(map[uuid.UUID]struct{}),
		appts:    make(map[uuid.UUID]appointment.Appointment),
	}
}

// AddPatient registers a patient id so bookings for it pass the existence check.
func (r *MemoryRepository) AddPatient(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[id] = struct{}{}
}

// PutAppointment stores an appointment as-is, bypassing every scheduler rule.
func (r *MemoryRepository) PutAppointment(a appointment.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ScheduledAt = appointment.NormalizeSlot(a.ScheduledAt)
	r.appts[a.ID] = a
}

func (r *MemoryRepository) Appointments() []appointment.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]appointment.Appointment, 0, len(r.appts))
	for _, a := range r.appts {
		out = append(out, a)
	}
	return out
}

func (r *MemoryRepository) Events() []appointment.EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]appointment.EventLog(nil), r.events...)
}

func (r *MemoryRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, q appointment.Queries) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	doctors := make(map[uuid.UUID]appointment.Doctor, len(r.doctors))
	for k, v := range r.doctors {
		doctors[k] = cloneDoctor(v)
	}
	appts := make(map[uuid.UUID]appointment.Appointment, len(r.appts))
	for k, v := range r.appts {
		appts[k] = v
	}
	r.mu.Unlock()

	if err := fn(ctx, r); err != nil {
		r.mu.Lock()
		r.doctors = doctors
		r.appts = appts
		r.mu.Unlock()
		return err
	}
	return nil
}

func cloneDoctor(d appointment.Doctor) appointment.Doctor {
	d.AvailableSlots = append([]time.Time(nil), d.AvailableSlots...)
	return d
}

func (r *MemoryRepository) GetDoctorByID(_ context.Context, id uuid.UUID) (*appointment.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, appointment.ErrDoctorNotFound
	}
	c := cloneDoctor(d)
	return &c, nil
}

func (r *MemoryRepository) GetDoctorForUpdate(ctx context.Context, id uuid.UUID) (*appointment.Doctor, error) {
	return r.GetDoctorByID(ctx, id)
}

func (r *MemoryRepository) ListDoctors(_ context.Context, activeOnly bool) ([]appointment.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []appointment.Doctor
	for _, d := range r.doctors {
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, cloneDoctor(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *MemoryRepository) CreateDoctor(_ context.Context, d *appointment.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	d.CreatedAt, d.UpdatedAt = now, now
	r.doctors[d.ID] = cloneDoctor(*d)
	return nil
}

func (r *MemoryRepository) UpdateDoctor(_ context.Context, d *appointment.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[d.ID]; !ok {
		return appointment.ErrDoctorNotFound
	}
	d.UpdatedAt = time.Now()
	r.doctors[d.ID] = cloneDoctor(*d)
	return nil
}

func (r *MemoryRepository) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.patients[id]
	return ok, nil
}

func (r *MemoryRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) GetAppointmentForUpdate(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return r.GetAppointmentByID(ctx, id)
}

func (r *MemoryRepository) FindActiveAppointment(_ context.Context, doctorID uuid.UUID, at time.Time, excludeID uuid.UUID) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appts {
		if a.ID != excludeID && a.DoctorID == doctorID && a.Status.IsActive() && a.ScheduledAt.Equal(at) {
			found := a
			return &found, nil
		}
	}
	return nil, appointment.ErrAppointmentNotFound
}

func (r *MemoryRepository) ListActiveAppointmentsForDoctor(_ context.Context, doctorID uuid.UUID) ([]appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []appointment.Appointment
	for _, a := range r.appts {
		if a.DoctorID == doctorID && a.Status.IsActive() {
			out = append(out, a)
		}
	}
	return out, nil
}

// InsertAppointment enforces the active-slot uniqueness the Postgres index provides.
func (r *MemoryRepository) InsertAppointment(_ context.Context, a *appointment.Appointment) error {
	if r.FailInsertAppointment != nil {
		return r.FailInsertAppointment
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.Status.IsActive() && r.activeTakenLocked(a.DoctorID, a.ScheduledAt, a.ID) {
		return appointment.ErrSlotConflict
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	r.appts[a.ID] = *a
	return nil
}

func (r *MemoryRepository) UpdateAppointment(_ context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appts[a.ID]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	if a.Status.IsActive() && r.activeTakenLocked(a.DoctorID, a.ScheduledAt, a.ID) {
		return appointment.ErrSlotConflict
	}
	a.UpdatedAt = time.Now()
	r.appts[a.ID] = *a
	return nil
}

func (r *MemoryRepository) activeTakenLocked(doctorID uuid.UUID, at time.Time, excludeID uuid.UUID) bool {
	for _, other := range r.appts {
		if other.ID != excludeID && other.DoctorID == doctorID && other.Status.IsActive() && other.ScheduledAt.Equal(at) {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) ListAppointments(_ context.Context, f appointment.Filter, p appointment.Page) ([]appointment.Appointment, int, error) {
	if r.FailList != nil {
		return nil, 0, r.FailList
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []appointment.Appointment
	for _, a := range r.appts {
		if f.Matches(a) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ScheduledAt.Equal(matched[j].ScheduledAt) {
			return matched[i].ScheduledAt.Before(matched[j].ScheduledAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := p.Offset()
	if start >= total {
		return []appointment.Appointment{}, total, nil
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *MemoryRepository) InsertEvent(_ context.Context, ev appointment.EventLog) error {
	if r.FailInsertEvent != nil {
		return r.FailInsertEvent
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Locker is an in-process redisclient.Locker: one holder per (doctor, instant),
// contenders fail fast with ErrLockNotAcquired like the Redis implementation.
type Locker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

var _ redisclient.Locker = (*Locker)(nil)

func NewLocker() *Locker {
	return &Locker{held: make(map[string]struct{})}
}

func (l *Locker) WithSlotLock(ctx context.Context, doctorID uuid.UUID, at time.Time, fn func(ctx context.Context) error) error {
	key := redisclient.SlotLockKey(doctorID, at)

	l.mu.Lock()
	if _, busy := l.held[key]; busy {
		l.mu.Unlock()
		return redisclient.ErrLockNotAcquired
	}
	l.held[key] = struct{}{}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()

	return fn(ctx)
}
