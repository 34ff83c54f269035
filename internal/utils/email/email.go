package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mkazlouski/budget-bank/internal/config"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendDepositDecision notifies the card holder about a deposit decision
func (s *Sender) SendDepositDecision(to, username string, approved bool, amount decimal.Decimal) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if approved {
		e.Subject = "Deposit Approved"
	} else {
		e.Subject = "Deposit Rejected"
	}

	body := fmt.Sprintf("Dear %s,\n\n", username)
	if approved {
		body += fmt.Sprintf(
			"Your deposit of %s has been approved and credited to your card.\n"+
				"Processed at: %s\n",
			amount.StringFixed(2), time.Now().Format("2006-01-02 15:04:05"),
		)
	} else {
		body += fmt.Sprintf(
			"Your deposit request of %s has been rejected.\n"+
				"Your card balance was not changed. Please contact support for details.\n",
			amount.StringFixed(2),
		)
	}
	body += "\nBest regards,\nBudget Bank"
	e.Text = []byte(body)

	return s.send(e, to)
}

// SendPaymentReminder sends a credit payment notice
func (s *Sender) SendPaymentReminder(to, username string, amount decimal.Decimal, shortfall bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if shortfall {
		e.Subject = "Missed Credit Payment Notification"
	} else {
		e.Subject = "Upcoming Credit Payment Reminder"
	}

	body := fmt.Sprintf("Dear %s,\n\n", username)
	if shortfall {
		body += fmt.Sprintf(
			"Your monthly credit payment of %s could not be charged to your card.\n"+
				"The payment will be retried next month. Please top up the card to avoid arrears.\n",
			amount.StringFixed(2),
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that your credit payment of %s is due.\n"+
				"Please ensure sufficient funds are available on your card.\n",
			amount.StringFixed(2),
		)
	}
	body += "\nBest regards,\nBudget Bank"
	e.Text = []byte(body)

	return s.send(e, to)
}

func (s *Sender) send(e *email.Email, to string) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
