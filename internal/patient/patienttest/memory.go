// Package patienttest provides an in-memory patient.Repository for tests.
package patienttest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-appointment-scheduling/internal/patient"
)

type MemoryRepository struct {
	mu       sync.Mutex
	patients map[uuid.UUID]patient.Patient
}

var _ patient.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{patients: make(map[uuid.UUID]patient.Patient)}
}

func (r *MemoryRepository) Create(_ context.Context, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.patients {
		if strings.EqualFold(existing.Email, p.Email) {
			return patient.ErrEmailTaken
		}
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.patients[p.ID] = *p
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if strings.EqualFold(p.Email, email) {
			found := p
			return &found, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (r *MemoryRepository) List(_ context.Context) ([]patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]patient.Patient, 0, len(r.patients))
	for _, p := range r.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
