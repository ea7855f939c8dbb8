// Package notify forwards recognition events to external services.
package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/pkg/errors"

	"github.com/ironsheep/plate-gate/internal/imaging"
	"github.com/ironsheep/plate-gate/internal/pipeline"
)

// SQSAPI is the part of the SQS client the notifier uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Message is the JSON body posted for each event.
type Message struct {
	ID              string    `json:"id"`
	Plate           string    `json:"plate"`
	CharConfidence  int       `json:"char_confidence"`
	PlateConfidence int       `json:"plate_confidence"`
	Status          int       `json:"status"`
	LoggedAt        time.Time `json:"logged_at"`
	ImageJPEGBase64 string    `json:"image_jpeg_base64,omitempty"`
}

// SQSNotifier posts events to an SQS queue.
type SQSNotifier struct {
	client   SQSAPI
	queueURL string

	// Timeout bounds each send. Zero means no extra deadline.
	Timeout time.Duration
}

// NewSQSNotifier returns a notifier sending to queueURL with client.
func NewSQSNotifier(client SQSAPI, queueURL string) *SQSNotifier {
	return &SQSNotifier{client: client, queueURL: queueURL, Timeout: 5 * time.Second}
}

// NewSQSNotifierFromEnv builds the SQS client from the default AWS config
// chain. An empty region defers to the environment.
func NewSQSNotifierFromEnv(ctx context.Context, region, queueURL string) (*SQSNotifier, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}
	return NewSQSNotifier(sqs.NewFromConfig(cfg), queueURL), nil
}

// Notify sends one event.
func (n *SQSNotifier) Notify(ctx context.Context, ev pipeline.RecognitionEvent) error {
	body, err := EncodeMessage(ev)
	if err != nil {
		return err
	}
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}
	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_id": {DataType: aws.String("String"), StringValue: aws.String(ev.ID.String())},
			"plate":    {DataType: aws.String("String"), StringValue: aws.String(ev.PlateText)},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "send %s to SQS", ev.PlateText)
	}
	return nil
}

// EncodeMessage renders ev as the JSON message body.
func EncodeMessage(ev pipeline.RecognitionEvent) ([]byte, error) {
	msg := Message{
		ID:              ev.ID.String(),
		Plate:           ev.PlateText,
		CharConfidence:  ev.CharConfidence,
		PlateConfidence: ev.PlateConfidence,
		Status:          int(ev.Status),
		LoggedAt:        ev.Timestamp.UTC(),
	}
	if ev.Image != nil {
		jpg, err := imaging.EncodeJPEG(ev.Image, 85)
		if err != nil {
			return nil, errors.Wrap(err, "encode event image")
		}
		msg.ImageJPEGBase64 = base64.StdEncoding.EncodeToString(jpg)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(err, "marshal event")
	}
	return body, nil
}

// Nop discards events.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, pipeline.RecognitionEvent) error { return nil }
