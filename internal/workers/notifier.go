package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/bakiel/jasper-portal-api/internal/database"
	"github.com/bakiel/jasper-portal-api/internal/imail"
	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/bakiel/jasper-portal-api/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EmailSender sends a templated email batch. Satisfied by *imail.Service.
type EmailSender interface {
	Send(req *imail.SendRequest) (*imail.SendReport, error)
}

// ErrUnknownJobType marks a job the notifier cannot handle. Callers should
// dead-letter instead of retrying.
var ErrUnknownJobType = errors.New("unknown job type")

// Notifier processes notification jobs: each job becomes a feed row for the
// user plus a templated email. The feed write and the email are independent
// best-effort steps; a failed email does not roll back the feed row.
type Notifier struct {
	notificationRepo database.NotificationRepositoryInterface
	mailer           EmailSender
	logger           *zap.Logger
}

// NewNotifier creates a notification job processor
func NewNotifier(notificationRepo database.NotificationRepositoryInterface, mailer EmailSender, logger *zap.Logger) *Notifier {
	return &Notifier{
		notificationRepo: notificationRepo,
		mailer:           mailer,
		logger:           logger,
	}
}

// notificationContent is the feed/email shape derived from a job type
type notificationContent struct {
	feedType models.NotificationType
	title    string
	body     string
	template string
}

func contentFor(job *queue.Job) (*notificationContent, error) {
	switch job.Type {
	case queue.JobTypeLoginAlert:
		provider, _ := job.Metadata["provider"].(string)
		body := "Your account was used to sign in."
		if provider != "" {
			body = fmt.Sprintf("Your account was used to sign in via %s.", provider)
		}
		return &notificationContent{
			feedType: models.NotificationTypeLoginAlert,
			title:    "New sign-in to your account",
			body:     body,
			template: imail.TemplateLoginAlert,
		}, nil
	case queue.JobTypeClientApproved:
		return &notificationContent{
			feedType: models.NotificationTypeClientApproved,
			title:    "Portal access approved",
			body:     "An administrator has approved your account. You can now sign in.",
			template: imail.TemplateApproved,
		}, nil
	case queue.JobTypeClientRejected:
		return &notificationContent{
			feedType: models.NotificationTypeClientRejected,
			title:    "Portal access request declined",
			body:     "Your portal access request was not approved.",
			template: imail.TemplateRejected,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownJobType, job.Type)
	}
}

// ProcessJob handles one notification job. Returns an error only for
// failures worth retrying; an unknown job type is permanent and the caller
// should dead-letter it.
func (n *Notifier) ProcessJob(ctx context.Context, job *queue.Job) error {
	content, err := contentFor(job)
	if err != nil {
		return err
	}

	notification := &models.Notification{
		ID:     uuid.New(),
		UserID: job.UserID.String(),
		Type:   content.feedType,
		Title:  content.title,
		Body:   content.body,
	}
	if err := n.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if job.Email == "" {
		n.logger.Debug("notification_email_skipped",
			zap.String("job_id", job.ID.String()),
			zap.String("reason", "no recipient"))
		return nil
	}

	report, err := n.mailer.Send(&imail.SendRequest{
		To:       []string{job.Email},
		Template: content.template,
		Data:     job.Metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	if !report.Success {
		return fmt.Errorf("notification email was not delivered")
	}

	n.logger.Info("notification_processed",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.String("tracking_id", report.TrackingID))

	return nil
}
