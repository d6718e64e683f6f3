package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/civicdesk/complaint-server/internal/models"
)

// UserService provisions and resolves citizen accounts.
type UserService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewUserService creates a new user service
func NewUserService(db *pgxpool.Pool, logger *zap.SugaredLogger) *UserService {
	return &UserService{db: db, logger: logger}
}

// EnsureUser provisions a citizen account on first authenticated request.
// The upsert keys on email; a returning citizen gets their existing row and
// the stored name is kept even if the identity provider's changed.
func (s *UserService) EnsureUser(ctx context.Context, email, name string) (*models.User, error) {
	if name == "" {
		name = email
	}

	query := `
		INSERT INTO users (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, name, email, created_at
	`

	var user models.User
	row := s.db.QueryRow(ctx, query, uuid.New(), name, email, time.Now())
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &user, nil
}
