package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushSender delivers ChannelPush jobs through Firebase Cloud Messaging.
type PushSender struct {
	client messagingClient
}

// NewPushSender builds an FCM client from a service account file.
func NewPushSender(ctx context.Context, credentialsFile string) (*PushSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: messaging client: %w", err)
	}

	return &PushSender{client: client}, nil
}

func (p *PushSender) Send(ctx context.Context, job Job) error {
	if job.To == "" {
		return fmt.Errorf("push job %s has no device token", job.ID)
	}

	_, err := p.client.Send(ctx, pushMessage(job))
	return err
}

func pushMessage(job Job) *messaging.Message {
	data := make(map[string]string, len(job.Data)+1)
	for k, v := range job.Data {
		data[k] = v
	}
	data["kind"] = job.Kind

	return &messaging.Message{
		Token: job.To,
		Notification: &messaging.Notification{
			Title: job.Subject,
			Body:  job.Body,
		},
		Data: data,
	}
}
