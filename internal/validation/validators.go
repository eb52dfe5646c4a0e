package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("client_status", validateClientStatus); err != nil {
		panic(fmt.Sprintf("failed to register client_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("notification_type", validateNotificationType); err != nil {
		panic(fmt.Sprintf("failed to register notification_type validator: %v", err))
	}
}

// validateClientStatus validates that a string is a valid ClientStatus enum value
func validateClientStatus(fl validator.FieldLevel) bool {
	return ValidateClientStatus(fl.Field().String()) == nil
}

// validateNotificationType validates that a string is a valid NotificationType enum value
func validateNotificationType(fl validator.FieldLevel) bool {
	switch models.NotificationType(fl.Field().String()) {
	case models.NotificationTypeLoginAlert, models.NotificationTypeClientApproved,
		models.NotificationTypeClientRejected, models.NotificationTypeGeneral:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateClientStatus validates a ClientStatus string value
func ValidateClientStatus(value string) error {
	switch models.ClientStatus(value) {
	case models.ClientStatusPendingVerification, models.ClientStatusPendingApproval,
		models.ClientStatusActive, models.ClientStatusRejected, models.ClientStatusSuspended:
		return nil
	default:
		return fmt.Errorf("invalid status: %s", value)
	}
}
