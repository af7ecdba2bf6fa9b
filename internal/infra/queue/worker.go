package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-marketplace/internal/entity"
	"github.com/xavierca1/lead-marketplace/internal/infra/metrics"
)

// Sender delivers one rendered notification, e.g. over SMTP.
type Sender interface {
	Send(ctx context.Context, to entity.User, msg entity.Message) error
}

// Consumer is the consuming side of an AMQP channel.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

var errMalformedJob = errors.New("malformed email job")

type Worker struct {
	Channel Consumer
	Sender  Sender
	Logger  *zap.Logger
}

func NewWorker(ch Consumer, sender Sender, logger *zap.Logger) *Worker {
	return &Worker{
		Channel: ch,
		Sender:  sender,
		Logger:  logger.Named("email_worker"),
	}
}

// Start consumes queueName until ctx is done or the channel closes.
// Malformed jobs go straight to the dead letter queue; a failed send is
// requeued once and dead-lettered on its second failure.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	w.Logger.Info("worker waiting for jobs", zap.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	err := w.Process(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errMalformedJob):
		w.Logger.Error("dropping malformed job", zap.Error(err))
		_ = d.Nack(false, false)
	default:
		w.Logger.Warn("email delivery failed",
			zap.Bool("redelivered", d.Redelivered),
			zap.Error(err),
		)
		_ = d.Nack(false, !d.Redelivered)
	}
}

// Process decodes one job body and sends it.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", errMalformedJob, err)
	}
	if job.Email == "" || job.Title == "" {
		return fmt.Errorf("%w: missing recipient or title", errMalformedJob)
	}

	err := w.Sender.Send(ctx, job.Recipient(), job.Message())
	metrics.RecordDelivery("email", err)
	if err != nil {
		return err
	}
	w.Logger.Debug("email sent",
		zap.String("user_id", job.UserID),
		zap.String("kind", string(job.Kind)),
	)
	return nil
}
