package patient_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackgods/hospital-appointment-scheduling/internal/patient"
	"github.com/hackgods/hospital-appointment-scheduling/internal/patient/patienttest"
)

func newService() *patient.Service {
	return patient.NewService(
		patienttest.NewMemoryRepository(),
		patient.NewPasswordHasher(bcrypt.MinCost),
		patient.NewTokenIssuer("test-secret", 7*24*time.Hour),
		zerolog.Nop(),
	)
}

func register(t *testing.T, svc *patient.Service, email string) *patient.Session {
	t.Helper()
	birth := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	s, err := svc.Register(context.Background(), patient.RegisterInput{
		Name:      "Ana Lima",
		Email:     email,
		Password:  "s3cret-pass",
		BirthDate: &birth,
	})
	require.NoError(t, err)
	return s
}

func TestRegister(t *testing.T) {
	svc := newService()

	s := register(t, svc, "ana@example.com")

	assert.NotEqual(t, uuid.Nil, s.Patient.ID)
	assert.NotEqual(t, "s3cret-pass", s.Patient.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(s.Patient.PasswordHash), []byte("s3cret-pass")))

	sub, err := svc.PatientFromToken(s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.Patient.ID, sub)
}

func TestRegister_DuplicateEmailIgnoresCase(t *testing.T) {
	svc := newService()
	register(t, svc, "ana@example.com")

	_, err := svc.Register(context.Background(), patient.RegisterInput{
		Name:     "Other",
		Email:    "ANA@example.com",
		Password: "x",
	})
	assert.ErrorIs(t, err, patient.ErrEmailTaken)
}

func TestRegister_MissingFields(t *testing.T) {
	svc := newService()

	_, err := svc.Register(context.Background(), patient.RegisterInput{Name: "A", Email: "a@example.com"})
	assert.ErrorIs(t, err, patient.ErrValidation)
}

func TestLogin(t *testing.T) {
	svc := newService()
	registered := register(t, svc, "ana@example.com")
	ctx := context.Background()

	s, err := svc.Login(ctx, "Ana@Example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, registered.Patient.ID, s.Patient.ID)
	assert.NotEmpty(t, s.Token)

	_, err = svc.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, patient.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, patient.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, patient.ErrValidation)
}

func TestGetAndList(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	s := register(t, svc, "ana@example.com")

	got, err := svc.Get(ctx, s.Patient.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Email)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, patient.ErrPatientNotFound)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
