package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/civicdesk/complaint-server/internal/models"
)

// statsCacheKey holds the serialized dashboard counters in Redis.
const statsCacheKey = "civicdesk:stats"

const complaintColumns = `id, title, description, category, priority, status,
	location, created_at, updated_at, user_id, authority_id`

// ComplaintService owns the complaint lifecycle: creation, listing,
// status transitions and authority assignment.
type ComplaintService struct {
	db       *pgxpool.Pool
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.SugaredLogger
}

// NewComplaintService creates a new complaint service. cache may be nil to
// serve stats straight from the database.
func NewComplaintService(db *pgxpool.Pool, cache *redis.Client, cacheTTL time.Duration, logger *zap.SugaredLogger) *ComplaintService {
	return &ComplaintService{db: db, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Create files a new complaint for its owning user. Status is always
// PENDING and no authority is assigned. The handler has already defaulted
// and validated the priority.
func (s *ComplaintService) Create(ctx context.Context, userID uuid.UUID, req *models.CreateComplaintRequest) (*models.Complaint, error) {
	now := time.Now()
	complaint := models.Complaint{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      userID,
	}
	if req.Location != "" {
		location := req.Location
		complaint.Location = &location
	}

	query := `
		INSERT INTO complaints (id, title, description, category, priority, status, location, created_at, updated_at, user_id, authority_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULL)
	`
	_, err := s.db.Exec(ctx, query,
		complaint.ID, complaint.Title, complaint.Description, complaint.Category,
		complaint.Priority, complaint.Status, complaint.Location,
		complaint.CreatedAt, complaint.UpdatedAt, complaint.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert complaint: %w", err)
	}

	s.logger.Infow("Complaint filed",
		"id", complaint.ID,
		"category", complaint.Category,
		"priority", complaint.Priority,
	)
	return &complaint, nil
}

// ListForAdmin returns every complaint newest-first, joined with the owning
// user's profile and, when assigned, the handling authority.
func (s *ComplaintService) ListForAdmin(ctx context.Context) ([]models.ComplaintDetail, error) {
	query := `
		SELECT c.id, c.title, c.description, c.category, c.priority, c.status,
			c.location, c.created_at, c.updated_at, c.user_id, c.authority_id,
			u.name, u.email,
			a.id, a.name, a.department
		FROM complaints c
		JOIN users u ON u.id = c.user_id
		LEFT JOIN authorities a ON a.id = c.authority_id
		ORDER BY c.created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query complaints: %w", err)
	}
	defer rows.Close()

	complaints := []models.ComplaintDetail{}
	for rows.Next() {
		var (
			d             models.ComplaintDetail
			user          models.UserSummary
			authorityID   *uuid.UUID
			authorityName *string
			authorityDept *string
		)
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.Category, &d.Priority, &d.Status,
			&d.Location, &d.CreatedAt, &d.UpdatedAt, &d.UserID, &d.AuthorityID,
			&user.Name, &user.Email,
			&authorityID, &authorityName, &authorityDept); err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		d.User = &user
		if authorityID != nil {
			d.Authority = &models.AuthoritySummary{
				ID:         authorityID,
				Name:       *authorityName,
				Department: *authorityDept,
			}
		}
		complaints = append(complaints, d)
	}
	return complaints, rows.Err()
}

// ListForUser returns one citizen's complaints newest-first, joined with
// the handling authority's name and department when assigned.
func (s *ComplaintService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ComplaintDetail, error) {
	query := `
		SELECT c.id, c.title, c.description, c.category, c.priority, c.status,
			c.location, c.created_at, c.updated_at, c.user_id, c.authority_id,
			a.name, a.department
		FROM complaints c
		LEFT JOIN authorities a ON a.id = c.authority_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query complaints: %w", err)
	}
	defer rows.Close()

	complaints := []models.ComplaintDetail{}
	for rows.Next() {
		var (
			d             models.ComplaintDetail
			authorityName *string
			authorityDept *string
		)
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.Category, &d.Priority, &d.Status,
			&d.Location, &d.CreatedAt, &d.UpdatedAt, &d.UserID, &d.AuthorityID,
			&authorityName, &authorityDept); err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		if authorityName != nil {
			d.Authority = &models.AuthoritySummary{
				Name:       *authorityName,
				Department: *authorityDept,
			}
		}
		complaints = append(complaints, d)
	}
	return complaints, rows.Err()
}

// SetStatus overwrites a complaint's status. Any of the five states may be
// set from any other; no adjacency rule is enforced.
func (s *ComplaintService) SetStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Complaint, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	query := fmt.Sprintf(`
		UPDATE complaints SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING %s
	`, complaintColumns)

	return s.scanComplaint(s.db.QueryRow(ctx, query, id, status, time.Now()))
}

// AssignAuthority sets or clears a complaint's authority. Both fields
// change in one UPDATE so status and assignment can never tear: a non-null
// authority forces ASSIGNED, null forces PENDING, whatever the prior state.
// The authority id itself is only checked by the foreign key.
func (s *ComplaintService) AssignAuthority(ctx context.Context, id uuid.UUID, authorityID *uuid.UUID) (*models.Complaint, error) {
	query := fmt.Sprintf(`
		UPDATE complaints SET authority_id = $2, status = $3, updated_at = $4
		WHERE id = $1
		RETURNING %s
	`, complaintColumns)

	return s.scanComplaint(s.db.QueryRow(ctx, query, id, authorityID, models.StatusForAssignment(authorityID), time.Now()))
}

// Stats returns the four dashboard counters, cached in Redis for a short
// TTL. Cache failures degrade to a direct query.
func (s *ComplaintService) Stats(ctx context.Context) (*models.Stats, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, statsCacheKey).Bytes(); err == nil {
			var stats models.Stats
			if err := json.Unmarshal(cached, &stats); err == nil {
				return &stats, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warnw("Stats cache read failed", "error", err)
		}
	}

	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('PENDING', 'ASSIGNED', 'IN_PROGRESS')),
			COUNT(*) FILTER (WHERE status IN ('RESOLVED', 'CLOSED')),
			(SELECT COUNT(*) FROM authorities WHERE is_active)
		FROM complaints
	`

	var stats models.Stats
	row := s.db.QueryRow(ctx, query)
	if err := row.Scan(&stats.TotalComplaints, &stats.PendingComplaints,
		&stats.ResolvedComplaints, &stats.TotalAuthorities); err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(&stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warnw("Stats cache write failed", "error", err)
			}
		}
	}
	return &stats, nil
}

func (s *ComplaintService) scanComplaint(row pgx.Row) (*models.Complaint, error) {
	var c models.Complaint
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Priority, &c.Status,
		&c.Location, &c.CreatedAt, &c.UpdatedAt, &c.UserID, &c.AuthorityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan complaint: %w", err)
	}
	return &c, nil
}
