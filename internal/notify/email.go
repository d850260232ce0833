// Package notify sends user notifications by email
package notify

import (
	"fmt"
	"net/smtp"

	"github.com/Dan9191/card-service/internal/config"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/utils"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Notifier delivers the notifications of the card service
type Notifier interface {
	Welcome(user models.User) error
	CardAdded(user models.User, card models.Card) error
}

// Sender handles sending emails via SMTP
type Sender struct {
	from   string
	addr   string
	auth   smtp.Auth
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		from:   cfg.SenderEmail,
		addr:   fmt.Sprintf("%s:%s", cfg.SMTPHost, cfg.SMTPPort),
		logger: logger,
	}
	if cfg.SMTPUsername != "" {
		s.auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	s.send = func(e *email.Email) error {
		return e.Send(s.addr, s.auth)
	}
	return s
}

// Welcome greets a newly registered user
func (s *Sender) Welcome(user models.User) error {
	body := fmt.Sprintf("Dear %s,\n\n", user.Username)
	body += "Your account has been created. You can now add and manage your cards.\n"
	return s.deliver(user.Email, "Welcome to the Online Card Service", body)
}

// CardAdded tells the owner that a card was added to their account
func (s *Sender) CardAdded(user models.User, card models.Card) error {
	body := fmt.Sprintf("Dear %s,\n\n", user.Username)
	body += fmt.Sprintf(
		"A %s card %s was added to your account.\n"+
			"Time: %s\n"+
			"Balance: %.2f\n"+
			"If this was not you, please delete the card and change your password.\n",
		card.CardType, utils.MaskCardNumber(card.CardNumber),
		card.CreatedAt.Format("2006-01-02 15:04:05"), card.Balance,
	)
	return s.deliver(user.Email, "New card added", body)
}

func (s *Sender) deliver(to, subject, body string) error {
	e := email.NewEmail()
	e.From = s.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body + "\nBest regards,\nCard Service")

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// Nop discards every notification
type Nop struct{}

func (Nop) Welcome(models.User) error                { return nil }
func (Nop) CardAdded(models.User, models.Card) error { return nil }
