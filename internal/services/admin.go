package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicdesk/complaint-server/internal/models"
)

// bcryptCost matches the cost used by the original bootstrap tooling so
// existing hashes keep verifying.
const bcryptCost = 12

// AdminService handles admin authentication and the bootstrap step.
type AdminService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewAdminService creates a new admin service
func NewAdminService(db *pgxpool.Pool, logger *zap.SugaredLogger) *AdminService {
	return &AdminService{db: db, logger: logger}
}

// Authenticate verifies an email/password pair against the stored bcrypt
// hash. Unknown email and wrong password are indistinguishable to the
// caller: both return ErrInvalidCredentials.
func (s *AdminService) Authenticate(ctx context.Context, email, password string) (*models.Admin, error) {
	admin, err := s.adminBy(ctx, "email", email)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

// AdminByID resolves a credential subject to its admin row.
func (s *AdminService) AdminByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	return s.adminBy(ctx, "id", id)
}

// Bootstrap creates the single environment-seeded admin account. It is
// idempotent: when the email already exists nothing is written.
func (s *AdminService) Bootstrap(ctx context.Context, email, password, name string) error {
	_, err := s.adminBy(ctx, "email", email)
	if err == nil {
		s.logger.Infow("Admin already exists, skipping bootstrap", "email", email)
		return nil
	}
	if !errors.Is(err, ErrAdminNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	query := `
		INSERT INTO admins (id, name, email, password, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.Exec(ctx, query, uuid.New(), name, email, string(hash), time.Now()); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}

	s.logger.Infow("Admin created", "email", email)
	return nil
}

func (s *AdminService) adminBy(ctx context.Context, column string, value any) (*models.Admin, error) {
	query := fmt.Sprintf(`SELECT id, name, email, password, created_at FROM admins WHERE %s = $1`, column)

	var admin models.Admin
	row := s.db.QueryRow(ctx, query, value)
	err := row.Scan(&admin.ID, &admin.Name, &admin.Email, &admin.Password, &admin.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query admin: %w", err)
	}
	return &admin, nil
}
