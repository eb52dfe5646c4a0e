package database

import (
	"context"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/google/uuid"
)

// ClientRepositoryInterface defines the client repository operations used by
// handlers and the session issuer. It enables mock implementations in tests.
type ClientRepositoryInterface interface {
	Create(ctx context.Context, c *models.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	GetByEmail(ctx context.Context, email string) (*models.Client, error)
	GetByProviderID(ctx context.Context, provider, providerID string) (*models.Client, error)
	Update(ctx context.Context, c *models.Client) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.ClientStatus) (*models.Client, error)
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordLoginFailure(ctx context.Context, email string) error
	List(ctx context.Context, status *models.ClientStatus, search string, page, pageSize int) ([]*models.Client, int, error)
	Pending(ctx context.Context) ([]*models.Client, error)
	Stats(ctx context.Context) (*models.ClientStats, error)
}

// NotificationRepositoryInterface defines the notification feed operations.
type NotificationRepositoryInterface interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID string, id uuid.UUID) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// Ensure concrete types implement the interfaces
var (
	_ ClientRepositoryInterface       = (*ClientRepository)(nil)
	_ NotificationRepositoryInterface = (*NotificationRepository)(nil)
)
