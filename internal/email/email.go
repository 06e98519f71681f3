package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// Mailer sends plain-text mail over SMTP. When SMTP_HOST is unset the
// mailer logs the message to the console instead, which keeps local
// development working without a mail account.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewMailerFromEnv builds a Mailer from SMTP_HOST, SMTP_PORT, SMTP_USERNAME,
// SMTP_PASSWORD and SMTP_FROM.
func NewMailerFromEnv() *Mailer {
	return &Mailer{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
	}
}

// Send delivers a single plain-text message.
func (m *Mailer) Send(to, subject, body string) error {
	if m.host == "" {
		log.Println("====================================================")
		log.Printf("--- EMAIL (SMTP not configured, logging instead) ---")
		log.Printf("To: %s", to)
		log.Printf("Subject: %s", subject)
		log.Println(body)
		log.Println("====================================================")
		return nil
	}

	port := m.port
	if port == "" {
		port = "587"
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		m.from, to, subject, body,
	))

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	return smtp.SendMail(m.host+":"+port, auth, m.from, []string{to}, msg)
}

// SendVerificationEmail mails the code a new account must confirm with.
func (m *Mailer) SendVerificationEmail(to, code string) error {
	body := fmt.Sprintf(
		"Welcome to Glowora!\n\nYour verification code is: %s\n\nThis code will expire in 15 minutes.",
		code,
	)
	return m.Send(to, "Verify your Glowora account", body)
}

// SendPasswordResetEmail mails a password reset code.
func (m *Mailer) SendPasswordResetEmail(to, code string) error {
	body := fmt.Sprintf(
		"We received a request to reset your password.\n\nYour reset code is: %s\n\nIf you did not request this, you can ignore this email.",
		code,
	)
	return m.Send(to, "Reset your Glowora password", body)
}

// SendOrderConfirmation mails a short confirmation after checkout.
func (m *Mailer) SendOrderConfirmation(to string, orderID int64, total int64) error {
	body := fmt.Sprintf(
		"Thank you for your order!\n\nOrder #%d has been received and is pending processing.\nOrder total: %d\n\nWe will email you again when it ships.",
		orderID, total,
	)
	return m.Send(to, fmt.Sprintf("Glowora order #%d confirmed", orderID), body)
}
