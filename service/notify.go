package service

import (
	"context"
	"fmt"

	mail "github.com/go-mail/mail/v2"
	"github.com/kevinaaaquil/bookworm/models"
)

// MailSender delivers one message. *mail.Dialer satisfies it.
type MailSender interface {
	DialAndSend(m ...*mail.Message) error
}

// Mailer sends review notifications over SMTP.
type Mailer struct {
	from   string
	sender MailSender
}

func NewMailer(host string, port int, user, password, from string) *Mailer {
	d := mail.NewDialer(host, port, user, password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	return &Mailer{from: from, sender: d}
}

func (m *Mailer) ReviewApproved(ctx context.Context, to *models.User, book *models.Book, review *models.Review) error {
	if to == nil || to.Email == "" {
		return fmt.Errorf("reviewer has no email")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := reviewApprovedMessage(m.from, to, book, review)
	if err := m.sender.DialAndSend(msg); err != nil {
		notificationsSent.WithLabelValues("error").Inc()
		return fmt.Errorf("send review notification: %w", err)
	}
	notificationsSent.WithLabelValues("sent").Inc()
	return nil
}

func reviewApprovedMessage(from string, to *models.User, book *models.Book, review *models.Review) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetAddressHeader("To", to.Email, to.Name)
	msg.SetHeader("Subject", fmt.Sprintf("Your review of %s is live", book.Title))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYour %d-star review of %s by %s has been approved and is now visible to other readers.\n\nBookWorm",
		to.Name, review.Rating, book.Title, book.Author,
	))
	return msg
}
