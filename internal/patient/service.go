package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	Phone     *string
	BirthDate *time.Time
}

// Session is a patient together with a freshly issued token.
type Session struct {
	Patient *Patient
	Token   string
}

type Service struct {
	repo   Repository
	hasher *PasswordHasher
	tokens *TokenIssuer
	log    zerolog.Logger
}

func NewService(repo Repository, hasher *PasswordHasher, tokens *TokenIssuer, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		log:    log.With().Str("component", "patients").Logger(),
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrValidation)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("lookup patient: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	p := &Patient{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Phone:        in.Phone,
		BirthDate:    in.BirthDate,
		PasswordHash: hash,
	}
	// The unique index still wins a race between the lookup and the insert.
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(p.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("patient_id", p.ID.String()).Msg("patient registered")
	return &Session{Patient: p, Token: token}, nil
}

// Login does not reveal whether the email exists.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrValidation)
	}

	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup patient: %w", err)
	}

	ok, err := s.hasher.Verify(p.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(p.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Patient: p, Token: token}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]Patient, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if patients == nil {
		patients = []Patient{}
	}
	return patients, nil
}

// PatientFromToken resolves the subject of a session token.
func (s *Service) PatientFromToken(token string) (uuid.UUID, error) {
	return s.tokens.Parse(token)
}
