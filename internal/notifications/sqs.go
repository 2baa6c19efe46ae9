package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"meteo/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses *sqs.Client.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPresenter publishes each notification as a JSON message. Downstream
// consumers (push gateway, mailer) own the actual delivery.
type SQSPresenter struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewSQSPresenter creates a presenter targeting queueURL.
func NewSQSPresenter(client SQSSender, queueURL string, logger *slog.Logger) *SQSPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQSPresenter{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

func (p *SQSPresenter) Name() string { return "sqs" }

// Present sends n to the queue. The city travels as a message attribute so
// consumers can filter without decoding the body.
func (p *SQSPresenter) Present(ctx context.Context, n types.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("sqs presenter: marshal notification: %w", err)
	}

	out, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"city": {DataType: aws.String("String"), StringValue: aws.String(n.City)},
		},
	})
	if err != nil {
		return fmt.Errorf("sqs presenter: send to %s: %w", p.queueURL, err)
	}

	p.logger.InfoContext(ctx, "notification queued",
		"notification_id", n.ID,
		"city", n.City,
		"message_id", aws.ToString(out.MessageId),
	)
	return nil
}
