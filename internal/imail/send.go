package imail

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SendRequest is one send job, possibly addressed to multiple recipients.
// Exactly one of Template, HTML, or Text supplies the body.
type SendRequest struct {
	To       []string       `json:"to" validate:"required,min=1,dive,email"`
	Subject  string         `json:"subject"`
	Template string         `json:"template,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Text     string         `json:"text,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	From     string         `json:"from,omitempty"`
	ReplyTo  string         `json:"replyTo,omitempty"`
}

// RecipientResult is the per-recipient outcome of a send
type RecipientResult struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SendReport aggregates a multi-recipient send. Success means at least one
// recipient was delivered to; per-recipient failures are visible in Results.
type SendReport struct {
	Success    bool              `json:"success"`
	TrackingID string            `json:"trackingId"`
	Sent       int               `json:"sent"`
	Failed     int               `json:"failed"`
	Results    []RecipientResult `json:"results"`
}

// Service sends transactional email through an injected transport
type Service struct {
	sender      Sender
	defaultFrom string
	logger      *zap.Logger
}

// NewService creates an email send service
func NewService(sender Sender, defaultFrom string, logger *zap.Logger) *Service {
	return &Service{
		sender:      sender,
		defaultFrom: defaultFrom,
		logger:      logger,
	}
}

// Send delivers the request to every recipient sequentially, continuing past
// per-recipient failures. The batch is never atomic: the report carries what
// succeeded and what did not.
func (s *Service) Send(req *SendRequest) (*SendReport, error) {
	if len(req.To) == 0 {
		return nil, fmt.Errorf("no recipients")
	}

	subject := req.Subject
	html := req.HTML
	text := req.Text

	if req.Template != "" {
		templateSubject, rendered, err := RenderTemplate(req.Template, req.Data)
		if err != nil {
			return nil, err
		}
		html = rendered
		if subject == "" {
			subject = templateSubject
		}
	}

	if html == "" && text == "" {
		return nil, fmt.Errorf("no message body: provide template, html, or text")
	}
	if subject == "" {
		return nil, fmt.Errorf("no subject")
	}

	from := req.From
	if from == "" {
		from = s.defaultFrom
	}

	report := &SendReport{
		TrackingID: uuid.New().String(),
		Results:    make([]RecipientResult, 0, len(req.To)),
	}

	for _, recipient := range req.To {
		recipient = strings.TrimSpace(recipient)
		err := s.sender.Send(&Message{
			From:    from,
			To:      recipient,
			ReplyTo: req.ReplyTo,
			Subject: subject,
			HTML:    html,
			Text:    text,
		})
		if err != nil {
			report.Failed++
			report.Results = append(report.Results, RecipientResult{
				Email:   recipient,
				Success: false,
				Error:   err.Error(),
			})
			s.logger.Warn("email_send_recipient_failed",
				zap.String("tracking_id", report.TrackingID),
				zap.Error(err))
			continue
		}
		report.Sent++
		report.Results = append(report.Results, RecipientResult{
			Email:   recipient,
			Success: true,
		})
	}

	report.Success = report.Sent > 0
	s.logger.Info("email_send_completed",
		zap.String("tracking_id", report.TrackingID),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed))

	return report, nil
}
