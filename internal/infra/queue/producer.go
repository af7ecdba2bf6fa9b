package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

// EmailJob is one email notification waiting for the worker.
type EmailJob struct {
	UserID   string                  `json:"user_id"`
	Email    string                  `json:"email"`
	Name     string                  `json:"name"`
	Kind     entity.NotificationKind `json:"kind"`
	Title    string                  `json:"title"`
	Body     string                  `json:"body"`
	Link     string                  `json:"link,omitempty"`
	Metadata map[string]string       `json:"metadata,omitempty"`
}

func NewEmailJob(to entity.User, msg entity.Message) EmailJob {
	return EmailJob{
		UserID:   to.ID,
		Email:    to.Email,
		Name:     to.Name,
		Kind:     msg.Kind,
		Title:    msg.Title,
		Body:     msg.Body,
		Link:     msg.Link,
		Metadata: msg.Metadata,
	}
}

func (j EmailJob) Recipient() entity.User {
	return entity.User{ID: j.UserID, Email: j.Email, Name: j.Name}
}

func (j EmailJob) Message() entity.Message {
	return entity.Message{Kind: j.Kind, Title: j.Title, Body: j.Body, Link: j.Link, Metadata: j.Metadata}
}

// Publisher is the publishing side of an AMQP channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// EmailProducer queues email notifications instead of sending them inline.
type EmailProducer struct {
	Ch Publisher
}

func NewEmailProducer(ch Publisher) *EmailProducer {
	return &EmailProducer{Ch: ch}
}

func (p *EmailProducer) Name() string { return "email_queue" }

func (p *EmailProducer) Send(ctx context.Context, to entity.User, msg entity.Message) error {
	if to.Email == "" {
		return fmt.Errorf("user %s has no email address", to.ID)
	}

	body, err := json.Marshal(NewEmailJob(to, msg))
	if err != nil {
		return fmt.Errorf("failed to encode email job: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Type:         string(msg.Kind),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}
	return nil
}
