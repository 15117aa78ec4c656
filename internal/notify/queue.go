package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"treinopp/internal/logger"
	"treinopp/internal/metrics"
)

const (
	queueKey  = "notifications"
	failedKey = "notifications:failed"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// Job is one outbound notification. To is an email address for ChannelEmail
// and a device token for ChannelPush.
type Job struct {
	ID      string            `json:"id"`
	Channel Channel           `json:"channel"`
	Kind    string            `json:"kind"`
	To      string            `json:"to"`
	Name    string            `json:"name"`
	Subject string            `json:"subject"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
	Tries   int               `json:"tries"`
	Created time.Time         `json:"created"`
}

// Sender delivers a job over one channel.
type Sender interface {
	Send(ctx context.Context, job Job) error
}

// Notifier is the producer side used by the domain services.
type Notifier interface {
	Enqueue(ctx context.Context, jobs ...Job) error
}

type Options struct {
	MaxTries   int
	RetryDelay time.Duration
	PopTimeout time.Duration
}

// Queue is a Redis list backed notification queue and its worker.
type Queue struct {
	redis   *redis.Client
	opts    Options
	mu      sync.RWMutex
	senders map[Channel]Sender
}

func NewQueue(rdb *redis.Client, opts Options) *Queue {
	if opts.MaxTries <= 0 {
		opts.MaxTries = 3
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 2 * time.Second
	}
	return &Queue{
		redis:   rdb,
		opts:    opts,
		senders: make(map[Channel]Sender),
	}
}

func (q *Queue) Register(ch Channel, s Sender) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.senders[ch] = s
}

func (q *Queue) Enqueue(ctx context.Context, jobs ...Job) error {
	for _, job := range jobs {
		if job.ID == "" {
			job.ID = uuid.NewString()
		}
		if job.Created.IsZero() {
			job.Created = time.Now()
		}

		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}

		if err := q.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
			logger.Error("Failed to queue notification", "kind", job.Kind, "channel", job.Channel, "error", err)
			return fmt.Errorf("queue notification: %w", err)
		}

		logger.Info("Notification queued", "id", job.ID, "kind", job.Kind, "channel", job.Channel)
	}
	return nil
}

// Start pops and delivers jobs until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	logger.Info("Notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification worker stopped")
			return
		default:
			q.processNext(ctx)
		}
	}
}

func (q *Queue) processNext(ctx context.Context) {
	result, err := q.redis.BRPop(ctx, q.opts.PopTimeout, queueKey).Result()
	if errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return
	}
	if err != nil {
		logger.Error("Failed to pop notification", "error", err)
		select {
		case <-ctx.Done():
		case <-time.After(q.opts.PopTimeout):
		}
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("Bad notification payload", "error", err)
		return
	}

	q.deliver(ctx, job)
}

func (q *Queue) deliver(ctx context.Context, job Job) {
	q.mu.RLock()
	sender, ok := q.senders[job.Channel]
	q.mu.RUnlock()

	if !ok {
		metrics.RecordNotification(string(job.Channel), "unsupported")
		q.saveFailed(ctx, job, fmt.Errorf("no sender for channel %q", job.Channel))
		return
	}

	job.Tries++
	err := sender.Send(ctx, job)
	if err == nil {
		metrics.RecordNotification(string(job.Channel), "sent")
		logger.Info("Notification sent", "id", job.ID, "kind", job.Kind, "channel", job.Channel, "attempt", job.Tries)
		return
	}

	logger.Error("Failed to send notification", "id", job.ID, "channel", job.Channel, "attempt", job.Tries, "error", err)

	if job.Tries >= q.opts.MaxTries {
		metrics.RecordNotification(string(job.Channel), "failed")
		q.saveFailed(ctx, job, err)
		return
	}

	metrics.RecordNotification(string(job.Channel), "retried")
	if q.opts.RetryDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(q.opts.RetryDelay):
		}
	}

	data, _ := json.Marshal(job)
	if err := q.redis.LPush(context.WithoutCancel(ctx), queueKey, string(data)).Err(); err != nil {
		logger.Error("Failed to requeue notification", "id", job.ID, "error", err)
	}
}

func (q *Queue) saveFailed(ctx context.Context, job Job, cause error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": cause.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	if err := q.redis.LPush(context.WithoutCancel(ctx), failedKey, string(data)).Err(); err != nil {
		logger.Error("Failed to store failed notification", "id", job.ID, "error", err)
		return
	}
	logger.Warn("Notification moved to failed queue", "id", job.ID, "channel", job.Channel)
}

// QueueLength reports the pending job count and refreshes the queue gauge.
func (q *Queue) QueueLength(ctx context.Context) (int64, error) {
	length, err := q.redis.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0, err
	}
	metrics.NotificationQueueLength.Set(float64(length))
	return length, nil
}

func (q *Queue) Close() error {
	return q.redis.Close()
}
