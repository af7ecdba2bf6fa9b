package mail

import "gopkg.in/gomail.v2"

// Dialer is the part of gomail.Dialer the sender needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	dialer Dialer
}

type NotificationEmailData struct {
	RecipientName string
	Title         string
	Body          string
	Link          string
	Details       []Detail
}

type Detail struct {
	Label string
	Value string
}
