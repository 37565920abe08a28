package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound    = errors.New("patient not found")
	ErrEmailTaken         = errors.New("patient already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	List(ctx context.Context) ([]Patient, error)
}
