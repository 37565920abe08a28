package patient

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        *string
	BirthDate    *time.Time
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
