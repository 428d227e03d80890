package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sesv2types "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"

	"collabcalendar/internal/domain"
)

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// MailerConfig holds configuration for creating a mailer.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// NewMailer creates a mailer from config.
// Provider "ses" uses the SES v1 API with static credentials, "sesv2" uses the SES v2
// API with the default AWS credential chain, and "noop" or unknown uses a no-op mailer.
func NewMailer(ctx context.Context, config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	switch config.Provider {
	case "ses":
		sesConfig := config.SES
		if sesConfig.InsecureSkipVerify {
			logger.Warn("TLS certificate verification is disabled for SES. Use only in development.")
		}
		httpClient := &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: sesConfig.InsecureSkipVerify,
					MinVersion:         tls.VersionTLS12,
				},
			},
		}
		awsCfg := aws.Config{
			Region: sesConfig.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					sesConfig.AccessKeyID,
					sesConfig.SecretAccessKey,
					"",
				),
			),
			HTTPClient: httpClient,
		}
		return &sesMailer{
			client: ses.NewFromConfig(awsCfg),
			source: sourceAddress(config),
			logger: logger,
		}, nil
	case "sesv2":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.SES.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return &sesv2Mailer{
			client: sesv2.NewFromConfig(awsCfg),
			source: sourceAddress(config),
			logger: logger,
		}, nil
	case "noop", "":
		return &noopMailer{logger: logger}, nil
	default:
		logger.Warn("unknown email provider, using noop", "provider", config.Provider)
		return &noopMailer{logger: logger}, nil
	}
}

func sourceAddress(config MailerConfig) string {
	if config.FromName != "" {
		return fmt.Sprintf("%s <%s>", config.FromName, config.FromAddress)
	}
	return config.FromAddress
}

// sesSendAPI is the slice of the SES v1 client used here.
type sesSendAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesMailer struct {
	client sesSendAPI
	source string
	logger *slog.Logger
}

func (s *sesMailer) Send(ctx context.Context, to, subject, html, text string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.source),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}
	if html != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(html),
			Charset: aws.String("UTF-8"),
		}
	}
	if text != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(text),
			Charset: aws.String("UTF-8"),
		}
	}
	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return classifySendError("SES", err)
	}
	s.logger.Info("email sent via SES", "message_id", aws.ToString(result.MessageId))
	return nil
}

// sesv2SendAPI is the slice of the SES v2 client used here.
type sesv2SendAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesv2Mailer struct {
	client sesv2SendAPI
	source string
	logger *slog.Logger
}

func (s *sesv2Mailer) Send(ctx context.Context, to, subject, html, text string) error {
	body := &sesv2types.Body{}
	if html != "" {
		body.Html = &sesv2types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")}
	}
	if text != "" {
		body.Text = &sesv2types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")}
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.source),
		Destination: &sesv2types.Destination{
			ToAddresses: []string{to},
		},
		Content: &sesv2types.EmailContent{
			Simple: &sesv2types.Message{
				Subject: &sesv2types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}
	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return classifySendError("SES v2", err)
	}
	s.logger.Info("email sent via SES v2", "message_id", aws.ToString(result.MessageId))
	return nil
}

// isRetryableCode reports whether an AWS error code clears up on its own even
// when reported as a client fault.
func isRetryableCode(code string) bool {
	switch code {
	case "Throttling", "ThrottlingException", "TooManyRequestsException",
		"LimitExceededException", "SendingPausedException",
		"ServiceUnavailable", "ServiceUnavailableException",
		"RequestTimeout", "RequestTimeoutException", "InternalFailure":
		return true
	}
	return false
}

// classifySendError maps an AWS error to the delivery taxonomy. Client faults such
// as a rejected message or unverified sender are permanent; everything else,
// including network errors and throttling, is transient.
func classifySendError(via string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if isRetryableCode(apiErr.ErrorCode()) {
			return fmt.Errorf("%w: send via %s: %w", domain.ErrTransientDelivery, via, err)
		}
		if apiErr.ErrorFault() == smithy.FaultClient {
			return fmt.Errorf("%w: send via %s: %w", domain.ErrPermanentDelivery, via, err)
		}
	}
	return fmt.Errorf("%w: send via %s: %w", domain.ErrTransientDelivery, via, err)
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(_ context.Context, to, subject, _, _ string) error {
	n.logger.Info("email would be sent (noop)", "to", to, "subject", subject)
	return nil
}
