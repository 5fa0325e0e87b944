package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// Service sends transactional email over SMTP. When no SMTP host is
// configured the service runs in log-only mode: messages are written to the
// process log instead of being delivered, which keeps local development and
// tests free of a mail server.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
	appURL       string
	templates    map[string]*template.Template
}

type Settings struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	AppURL       string
}

type Message struct {
	To          string
	Subject     string
	TemplateKey string
	Data        interface{}
}

func NewService(settings Settings) (*Service, error) {
	service := &Service{
		smtpHost:     settings.SMTPHost,
		smtpPort:     settings.SMTPPort,
		smtpUsername: settings.SMTPUsername,
		smtpPassword: settings.SMTPPassword,
		fromEmail:    settings.FromEmail,
		fromName:     settings.FromName,
		appURL:       settings.AppURL,
		templates:    make(map[string]*template.Template),
	}

	if err := service.loadTemplates(); err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return service, nil
}

func (s *Service) loadTemplates() error {
	templateDir := "internal/email/templates"

	templates := map[string]string{
		"signup_authorization": "signup_authorization.html",
		"payment_failed":       "payment_failed.html",
	}

	for key, filename := range templates {
		path := filepath.Join(templateDir, filename)
		tmpl, err := template.ParseFiles(path)
		if err != nil {
			tmpl = template.Must(template.New(key).Parse(defaultTemplate))
		}
		s.templates[key] = tmpl
	}

	return nil
}

func (s *Service) Send(msg Message) error {
	tmpl, ok := s.templates[msg.TemplateKey]
	if !ok {
		return fmt.Errorf("template %s not found", msg.TemplateKey)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, msg.Data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	if s.smtpHost == "" {
		log.Printf("Email (log-only) to %s: %s", msg.To, msg.Subject)
		return nil
	}

	message := fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s", s.fromName, s.fromEmail, msg.To, msg.Subject, body.String())

	auth := smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)
	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)

	if err := smtp.SendMail(addr, auth, s.fromEmail, []string{msg.To}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

type SignupAuthorizationData struct {
	PlanType  string
	Amount    string
	SignupURL string
	Token     string
	ExpiresIn string
}

// SendSignupAuthorization delivers the one-time signup token issued after a
// completed payment. Amount is in the minor currency unit.
func (s *Service) SendSignupAuthorization(to, token, planType string, amount int64, expiresIn string) error {
	return s.Send(Message{
		To:          to,
		Subject:     "Your payment is confirmed - complete your signup",
		TemplateKey: "signup_authorization",
		Data: SignupAuthorizationData{
			PlanType:  planType,
			Amount:    formatAmount(amount),
			SignupURL: fmt.Sprintf("%s/signup?token=%s", s.appURL, token),
			Token:     token,
			ExpiresIn: expiresIn,
		},
	})
}

type PaymentFailedData struct {
	Reference string
	Amount    string
	Reason    string
	RetryURL  string
}

func (s *Service) SendPaymentFailed(to, reference, reason string, amount int64) error {
	return s.Send(Message{
		To:          to,
		Subject:     "Your payment could not be processed",
		TemplateKey: "payment_failed",
		Data: PaymentFailedData{
			Reference: reference,
			Amount:    formatAmount(amount),
			Reason:    reason,
			RetryURL:  s.appURL,
		},
	})
}

// formatAmount converts a minor-unit amount (kobo) to its display value.
func formatAmount(minor int64) string {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).StringFixed(2)
}

const defaultTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Email</title>
</head>
<body>
    <p>{{.}}</p>
</body>
</html>
`
