package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/civicdesk/complaint-server/internal/models"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// AuthorityService manages department handler accounts.
type AuthorityService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewAuthorityService creates a new authority service
func NewAuthorityService(db *pgxpool.Pool, logger *zap.SugaredLogger) *AuthorityService {
	return &AuthorityService{db: db, logger: logger}
}

// Create registers a new authority, active unconditionally. A duplicate
// email is ErrDuplicateEmail and performs no write; the unique index backs
// the pre-check so a concurrent create cannot slip a duplicate through.
func (s *AuthorityService) Create(ctx context.Context, req *models.CreateAuthorityRequest) (*models.Authority, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM authorities WHERE email = $1)`, req.Email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check authority email: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	authority := models.Authority{
		ID:         uuid.New(),
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	if req.Phone != "" {
		phone := req.Phone
		authority.Phone = &phone
	}

	query := `
		INSERT INTO authorities (id, name, email, department, phone, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.Exec(ctx, query,
		authority.ID, authority.Name, authority.Email,
		authority.Department, authority.Phone, authority.IsActive, authority.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert authority: %w", err)
	}

	s.logger.Infow("Authority created",
		"id", authority.ID,
		"department", authority.Department,
	)
	return &authority, nil
}

// List returns all authorities ordered by name with their complaint counts.
func (s *AuthorityService) List(ctx context.Context) ([]models.AuthorityWithCount, error) {
	query := `
		SELECT a.id, a.name, a.email, a.department, a.phone, a.is_active, a.created_at,
			COUNT(c.id) AS complaint_count
		FROM authorities a
		LEFT JOIN complaints c ON c.authority_id = a.id
		GROUP BY a.id
		ORDER BY a.name ASC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query authorities: %w", err)
	}
	defer rows.Close()

	authorities := []models.AuthorityWithCount{}
	for rows.Next() {
		var a models.AuthorityWithCount
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Department,
			&a.Phone, &a.IsActive, &a.CreatedAt, &a.ComplaintCount); err != nil {
			return nil, fmt.Errorf("scan authority: %w", err)
		}
		authorities = append(authorities, a)
	}
	return authorities, rows.Err()
}
