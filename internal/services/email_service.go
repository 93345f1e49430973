package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Mailer sends the transactional emails produced by the notification worker.
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, token string) error
}

// sesAPI is the part of the SES v2 client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. Without a sender address the service is
// disabled and every send is a logged no-op.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		slog.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, appBaseURL: appBaseURL}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	slog.Info("email service enabled", "from", fromEmail, "region", awsRegion)
	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	subject := "Welcome to TaskFlow"
	textBody := fmt.Sprintf(`Hi %s,

Your TaskFlow account is ready. Plan your week, track what gets done and share chores with your family.

Sign in: %s/login
`, toName, s.appBaseURL)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<p>Hi %s,</p>
	<p>Your TaskFlow account is ready. Plan your week, track what gets done and share chores with your family.</p>
	<p><a href="%s/login">Sign in to TaskFlow</a></p>
</body>
</html>
`, toName, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, token string) error {
	resetLink := s.ResetLink(token)
	subject := "Reset your TaskFlow password"
	textBody := fmt.Sprintf(`Hi %s,

We received a request to reset your TaskFlow password. Open the link below to choose a new one:

%s

This link expires in 1 hour. If you did not request a reset you can ignore this email.
`, toName, resetLink)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<p>Hi %s,</p>
	<p>We received a request to reset your TaskFlow password.</p>
	<p><a href="%s">Choose a new password</a></p>
	<p>This link expires in 1 hour. If you did not request a reset you can ignore this email.</p>
</body>
</html>
`, toName, resetLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// ResetLink builds the frontend URL that carries a raw reset token.
func (s *EmailService) ResetLink(token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, url.QueryEscape(token))
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	if !s.enabled {
		slog.Info("skipping email send, service disabled", "to", toEmail, "subject", subject)
		return nil
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	slog.Info("email sent", "to", toEmail, "subject", subject, "message_id", aws.ToString(result.MessageId))
	return nil
}
