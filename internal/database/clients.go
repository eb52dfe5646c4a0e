package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/google/uuid"
)

const clientColumns = `id, email, full_name, company_name, status, google_id, linkedin_id,
	avatar_url, email_verified, failed_login_attempts, last_login_at, created_at, updated_at`

// ClientRepository handles client record database operations
type ClientRepository struct {
	db *DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func scanClient(row interface{ Scan(...any) error }) (*models.Client, error) {
	c := &models.Client{}
	var lastLogin sql.NullTime
	err := row.Scan(
		&c.ID,
		&c.Email,
		&c.FullName,
		&c.CompanyName,
		&c.Status,
		&c.GoogleID,
		&c.LinkedInID,
		&c.AvatarURL,
		&c.EmailVerified,
		&c.FailedLoginAttempts,
		&lastLogin,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		c.LastLoginAt = &lastLogin.Time
	}
	return c, nil
}

// Create creates a new client record
func (r *ClientRepository) Create(ctx context.Context, c *models.Client) error {
	query := `
		INSERT INTO clients (id, email, full_name, company_name, status, google_id, linkedin_id,
			avatar_url, email_verified, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		c.ID,
		c.Email,
		c.FullName,
		c.CompanyName,
		c.Status,
		c.GoogleID,
		c.LinkedInID,
		c.AvatarURL,
		c.EmailVerified,
		now,
		now,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// GetByID retrieves a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	c, err := scanClient(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return c, nil
}

// GetByEmail retrieves a client by email, case-insensitively
func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE email = lower($1)`

	c, err := scanClient(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by email: %w", err)
	}

	return c, nil
}

// GetByProviderID retrieves a client by google_id or linkedin_id
func (r *ClientRepository) GetByProviderID(ctx context.Context, provider, providerID string) (*models.Client, error) {
	column := "google_id"
	if provider == "linkedin" {
		column = "linkedin_id"
	}
	query := `SELECT ` + clientColumns + ` FROM clients WHERE ` + column + ` = $1`

	c, err := scanClient(r.db.QueryRowContext(ctx, query, providerID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by provider ID: %w", err)
	}

	return c, nil
}

// Update updates the mutable profile fields of a client record
func (r *ClientRepository) Update(ctx context.Context, c *models.Client) error {
	query := `
		UPDATE clients
		SET email = lower($2), full_name = $3, company_name = $4, google_id = $5,
			linkedin_id = $6, avatar_url = $7, email_verified = $8, updated_at = $9
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		c.ID,
		c.Email,
		c.FullName,
		c.CompanyName,
		c.GoogleID,
		c.LinkedInID,
		c.AvatarURL,
		c.EmailVerified,
		time.Now(),
	).Scan(&c.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("client not found: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	return nil
}

// SetStatus transitions a client to the given status. The transition is
// idempotent: setting the current status again succeeds without change.
func (r *ClientRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.ClientStatus) (*models.Client, error) {
	query := `
		UPDATE clients SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + clientColumns

	c, err := scanClient(r.db.QueryRowContext(ctx, query, id, status, time.Now()))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set client status: %w", err)
	}

	return c, nil
}

// RecordLogin stamps last_login_at and resets failed_login_attempts
func (r *ClientRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE clients SET last_login_at = $2, failed_login_attempts = 0, updated_at = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// RecordLoginFailure increments failed_login_attempts for the email, if known
func (r *ClientRepository) RecordLoginFailure(ctx context.Context, email string) error {
	query := `
		UPDATE clients SET failed_login_attempts = failed_login_attempts + 1, updated_at = $2
		WHERE email = lower($1)
	`
	if _, err := r.db.ExecContext(ctx, query, email, time.Now()); err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	return nil
}

// List retrieves clients with pagination, optionally filtered by status and a
// case-insensitive search over email, full name, and company name.
func (r *ClientRepository) List(ctx context.Context, status *models.ClientStatus, search string, page, pageSize int) ([]*models.Client, int, error) {
	conditions := []string{}
	args := []any{}

	if status != nil {
		args = append(args, *status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(email LIKE $%d OR lower(coalesce(full_name, '')) LIKE $%d OR lower(coalesce(company_name, '')) LIKE $%d)", n, n, n))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM clients` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := `SELECT ` + clientColumns + ` FROM clients` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate clients: %w", err)
	}

	return clients, total, nil
}

// Pending retrieves all clients awaiting admin review, oldest first
func (r *ClientRepository) Pending(ctx context.Context) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE status = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.ClientStatusPendingApproval)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending clients: %w", err)
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending clients: %w", err)
	}

	return clients, nil
}

// Stats returns client counts per lifecycle state
func (r *ClientRepository) Stats(ctx context.Context) (*models.ClientStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending_approval'),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*) FILTER (WHERE status = 'suspended')
		FROM clients
	`

	stats := &models.ClientStats{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Total,
		&stats.PendingApproval,
		&stats.Active,
		&stats.Rejected,
		&stats.Suspended,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get client stats: %w", err)
	}

	return stats, nil
}
