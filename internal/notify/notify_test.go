package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"github.com/ironsheep/plate-gate/internal/pipeline"
	"github.com/ironsheep/plate-gate/internal/store"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{}, nil
}

func testEvent() pipeline.RecognitionEvent {
	return pipeline.RecognitionEvent{
		ID:              uuid.MustParse("6f1c1a52-2b9e-4a8e-9a4f-8d9c2f7c1b11"),
		PlateText:       "ABC123",
		CharConfidence:  88,
		PlateConfidence: 94,
		Status:          store.Authorized,
		Timestamp:       time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
		Image:           image.NewRGBA(image.Rect(0, 0, 60, 14)),
	}
}

func TestNotifySendsMessage(t *testing.T) {
	fake := &fakeSQS{}
	n := NewSQSNotifier(fake, "https://sqs.example/queue")

	if err := n.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fake.inputs))
	}
	in := fake.inputs[0]
	if *in.QueueUrl != "https://sqs.example/queue" {
		t.Errorf("QueueUrl = %q", *in.QueueUrl)
	}

	if got := *in.MessageAttributes["plate"].StringValue; got != "ABC123" {
		t.Errorf("plate attribute = %q", got)
	}

	var msg Message
	if err := json.Unmarshal([]byte(*in.MessageBody), &msg); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if msg.Plate != "ABC123" || msg.Status != 1 || msg.CharConfidence != 88 || msg.PlateConfidence != 94 {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.ID != "6f1c1a52-2b9e-4a8e-9a4f-8d9c2f7c1b11" {
		t.Errorf("ID = %q", msg.ID)
	}

	raw, err := base64.StdEncoding.DecodeString(msg.ImageJPEGBase64)
	if err != nil {
		t.Fatalf("image is not base64: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("image is not JPEG: %v", err)
	}
	if img.Bounds().Dx() != 60 {
		t.Errorf("image width = %d, want 60", img.Bounds().Dx())
	}
}

func TestNotifyWithoutImage(t *testing.T) {
	ev := testEvent()
	ev.Image = nil
	body, err := EncodeMessage(ev)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(body, []byte("image_jpeg_base64")) {
		t.Errorf("body should omit the image: %s", body)
	}
}

func TestNotifyError(t *testing.T) {
	boom := errors.New("throttled")
	n := NewSQSNotifier(&fakeSQS{err: boom}, "q")
	if err := n.Notify(context.Background(), testEvent()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapping %v", err, boom)
	}
}

func TestNop(t *testing.T) {
	var n pipeline.Notifier = Nop{}
	if err := n.Notify(context.Background(), testEvent()); err != nil {
		t.Errorf("Nop.Notify = %v", err)
	}
}
