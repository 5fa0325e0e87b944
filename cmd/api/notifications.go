package main

import (
	"fmt"

	"github.com/Mekazstan/payment-first-signup-api/internal/email"
	"github.com/Mekazstan/payment-first-signup-api/internal/outbox"
)

// emailSender delivers outbox messages through the SMTP service.
type emailSender struct {
	service *email.Service
}

func (s *emailSender) Deliver(msg outbox.Message) error {
	switch msg.Kind {
	case outbox.KindSignupAuthorization:
		return s.service.SendSignupAuthorization(msg.Recipient, msg.Token, msg.PlanType, msg.Amount, msg.ExpiresIn)
	case outbox.KindPaymentFailed:
		return s.service.SendPaymentFailed(msg.Recipient, msg.Reference, msg.Reason, msg.Amount)
	default:
		return fmt.Errorf("unknown message kind: %s", msg.Kind)
	}
}
