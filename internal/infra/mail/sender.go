package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

//go:embed templates/*.html
var templatesFS embed.FS

var notificationTemplate = template.Must(template.ParseFS(templatesFS, "templates/notification.html"))

var detailLabels = map[string]string{
	"specialty":     "Specialty",
	"region":        "Region",
	"urgency":       "Urgency",
	"quality_score": "Quality score",
	"base_price":    "Price",
	"price_paid":    "Price paid",
}

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

// WithDialer replaces the SMTP dialer.
func (s *EmailSender) WithDialer(d Dialer) *EmailSender {
	s.dialer = d
	return s
}

func (s *EmailSender) Name() string { return "email" }

// Send renders msg and delivers it over SMTP.
func (s *EmailSender) Send(ctx context.Context, to entity.User, msg entity.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to.Email == "" {
		return fmt.Errorf("user %s has no email address", to.ID)
	}

	body, err := RenderNotification(to, msg)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetAddressHeader("To", to.Email, to.Name)
	m.SetHeader("Subject", msg.Title)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}
	return nil
}

// RenderNotification renders the HTML body of a notification email.
func RenderNotification(to entity.User, msg entity.Message) (string, error) {
	data := NotificationEmailData{
		RecipientName: to.Name,
		Title:         msg.Title,
		Body:          msg.Body,
		Link:          msg.Link,
		Details:       details(msg.Metadata),
	}

	var body bytes.Buffer
	if err := notificationTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return body.String(), nil
}

func details(metadata map[string]string) []Detail {
	out := make([]Detail, 0, len(metadata))
	for key, label := range detailLabels {
		v := strings.TrimSpace(metadata[key])
		if v == "" || v == "-" {
			continue
		}
		out = append(out, Detail{Label: label, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
