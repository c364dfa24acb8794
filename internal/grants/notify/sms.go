// internal/grants/notify/sms.go
package notify

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"grantflow/internal/common/config"
	"grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/models"
)

// SNSService is the slice of the SNS API the SMS sender needs.
type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SMSSender delivers short applicant notices over SNS. Applications with no
// phone number on record are skipped.
type SMSSender struct {
	sns     SNSService
	enabled bool
	log     logger.Logger
}

// NewSMSSender builds the SNS-backed sender.
func NewSMSSender(snsClient SNSService, cfg config.NotificationConfig, log logger.Logger) *SMSSender {
	return &SMSSender{
		sns:     snsClient,
		enabled: cfg.SMS.Enabled,
		log:     log,
	}
}

// SendDecision texts the applicant the outcome of their application.
func (s *SMSSender) SendDecision(ctx context.Context, app models.Application) error {
	var message string
	switch app.Decision {
	case models.DecisionApproved:
		message = fmt.Sprintf("Your grant application %s has been approved.", app.ReferenceNumber)
	case models.DecisionRejected:
		message = fmt.Sprintf("A decision has been made on your grant application %s. Check your email for details.", app.ReferenceNumber)
	default:
		return errors.NewValidationError(
			fmt.Sprintf("application %s has no decision to notify about", app.ID), nil)
	}
	return s.send(ctx, "decision", app.ApplicantPhone, message)
}

// SendFeedbackRequest texts the applicant that more information is needed.
func (s *SMSSender) SendFeedbackRequest(ctx context.Context, app models.Application, comment string) error {
	message := fmt.Sprintf("A reviewer needs more information on your grant application %s. Check your email for details.", app.ReferenceNumber)
	return s.send(ctx, "feedback_request", app.ApplicantPhone, message)
}

func (s *SMSSender) send(ctx context.Context, notificationType, phone, message string) error {
	if !s.enabled {
		s.log.Debug("sms notifications disabled, skipping", map[string]interface{}{
			"type": notificationType,
		})
		return nil
	}
	if phone == "" {
		return nil
	}

	input := &sns.PublishInput{
		PhoneNumber: awssdk.String(phone),
		Message:     awssdk.String(message),
	}
	if _, err := s.sns.Publish(ctx, input); err != nil {
		return errors.NewNotificationSendFailedError(notificationType+"_sms", err)
	}
	s.log.Info("sms notification sent", map[string]interface{}{
		"type": notificationType,
	})
	return nil
}

// MultiSender fans one notification out to several channels. Each channel
// failure is reported but does not stop the others.
type MultiSender []Sender

func (m MultiSender) SendDecision(ctx context.Context, app models.Application) error {
	var firstErr error
	for _, s := range m {
		if err := s.SendDecision(ctx, app); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m MultiSender) SendFeedbackRequest(ctx context.Context, app models.Application, comment string) error {
	var firstErr error
	for _, s := range m {
		if err := s.SendFeedbackRequest(ctx, app, comment); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
