// Package notify delivers applicant notifications for lifecycle events.
// Delivery is best effort: a failed send is logged and counted, it never
// rolls back the transition that triggered it.
package notify

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"grantflow/internal/common/config"
	"grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/models"
)

// SESService is the slice of the SES API the sender needs.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Sender is the notification surface the lifecycle service depends on.
type Sender interface {
	SendDecision(ctx context.Context, app models.Application) error
	SendFeedbackRequest(ctx context.Context, app models.Application, comment string) error
}

// EmailSender delivers notifications over SES.
type EmailSender struct {
	ses       SESService
	fromEmail string
	enabled   bool
	log       logger.Logger
}

// NewEmailSender builds the SES-backed sender.
func NewEmailSender(sesClient SESService, cfg config.NotificationConfig, log logger.Logger) *EmailSender {
	return &EmailSender{
		ses:       sesClient,
		fromEmail: cfg.Email.FromEmail,
		enabled:   cfg.Email.Enabled,
		log:       log,
	}
}

// SendDecision emails the applicant about an approval or rejection.
func (s *EmailSender) SendDecision(ctx context.Context, app models.Application) error {
	var subject, body string
	switch app.Decision {
	case models.DecisionApproved:
		subject = fmt.Sprintf("Grant application %s approved", app.ReferenceNumber)
		body = fmt.Sprintf(
			"Dear %s,\n\nYour application %q (%s) has been approved for %.2f.\n",
			app.ApplicantName, app.ProjectTitle, app.ReferenceNumber, app.RequestedAmount,
		)
	case models.DecisionRejected:
		subject = fmt.Sprintf("Grant application %s decision", app.ReferenceNumber)
		body = fmt.Sprintf(
			"Dear %s,\n\nYour application %q (%s) was not selected for funding.\n",
			app.ApplicantName, app.ProjectTitle, app.ReferenceNumber,
		)
	default:
		return errors.NewValidationError(
			fmt.Sprintf("application %s has no decision to notify about", app.ID), nil)
	}
	if app.DecisionReason != "" {
		body += fmt.Sprintf("\nReviewer note: %s\n", app.DecisionReason)
	}
	return s.send(ctx, "decision", app.ApplicantEmail, subject, body)
}

// SendFeedbackRequest emails the applicant that a reviewer needs more
// information before a decision.
func (s *EmailSender) SendFeedbackRequest(ctx context.Context, app models.Application, comment string) error {
	subject := fmt.Sprintf("Additional information needed for %s", app.ReferenceNumber)
	body := fmt.Sprintf(
		"Dear %s,\n\nA reviewer needs more information about your application %q (%s):\n\n%s\n",
		app.ApplicantName, app.ProjectTitle, app.ReferenceNumber, comment,
	)
	return s.send(ctx, "feedback_request", app.ApplicantEmail, subject, body)
}

func (s *EmailSender) send(ctx context.Context, notificationType, to, subject, body string) error {
	if !s.enabled {
		s.log.Debug("email notifications disabled, skipping", map[string]interface{}{
			"type": notificationType,
		})
		return nil
	}
	if to == "" {
		s.log.Warn("no applicant email on record, skipping notification", map[string]interface{}{
			"type": notificationType,
		})
		return nil
	}

	input := &ses.SendEmailInput{
		Source: awssdk.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: awssdk.String(body)},
			},
		},
	}

	if _, err := s.ses.SendEmail(ctx, input); err != nil {
		return errors.NewNotificationSendFailedError(notificationType, err)
	}
	s.log.Info("notification sent", map[string]interface{}{
		"type":      notificationType,
		"recipient": to,
	})
	return nil
}
