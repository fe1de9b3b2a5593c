// Package mailer defines the outbound mail contract and its SMTP and
// queue-backed implementations. Delivery is best effort: a failure is
// reported to the caller but never retried.
package mailer

import (
	"encoding/json"
	"fmt"
	"net/smtp"

	"annonces/pkg/rabbitmq"
)

// Notifier dispatches a single email.
type Notifier interface {
	Send(to, subject, text, html string) error
}

// Message is the mail job payload exchanged over the queue.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// SMTPNotifier delivers mail over plain SMTP.
type SMTPNotifier struct {
	addr string
	from string
}

// NewSMTPNotifier creates a notifier targeting host:port.
func NewSMTPNotifier(host string, port int, from string) *SMTPNotifier {
	return &SMTPNotifier{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
	}
}

// Send delivers one message. The HTML body is preferred when present.
func (n *SMTPNotifier) Send(to, subject, text, html string) error {
	body := text
	contentType := "text/plain; charset=utf-8"
	if html != "" {
		body = html
		contentType = "text/html; charset=utf-8"
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: %s\r\n\r\n%s\r\n",
		n.from, to, subject, contentType, body)

	if err := smtp.SendMail(n.addr, nil, n.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// QueueNotifier hands mail jobs off to the RabbitMQ delivery worker instead
// of dialing SMTP inside the request path.
type QueueNotifier struct {
	mq *rabbitmq.Client
}

// NewQueueNotifier creates a notifier publishing to the mail queue.
func NewQueueNotifier(mq *rabbitmq.Client) *QueueNotifier {
	return &QueueNotifier{mq: mq}
}

// Send enqueues one mail job.
func (n *QueueNotifier) Send(to, subject, text, html string) error {
	body, err := json.Marshal(Message{To: to, Subject: subject, Text: text, HTML: html})
	if err != nil {
		return fmt.Errorf("failed to marshal mail job: %w", err)
	}
	return n.mq.PublishMailJob(body)
}
