/*-------------------------------------------------------------------------
 *
 * email.go
 *    Transactional email messenger
 *
 * Sends templated transactional messages over SMTP. Templates are
 * registered by id; variables are substituted into subject and body.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/notifications/email.go
 *
 *-------------------------------------------------------------------------
 */

package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"

	"github.com/hoopsho/basecamp/internal/decisions"
)

/* Template is one registered transactional message shape */
type Template struct {
	Subject string
	Body    string
}

/* EmailMessenger sends templated messages over SMTP */
type EmailMessenger struct {
	smtpHost     string
	smtpPort     int
	smtpUser     string
	smtpPassword string
	smtpFrom     string
	templates    map[string]Template
	enabled      bool
}

/* NewEmailMessenger creates a new messenger */
func NewEmailMessenger(smtpHost string, smtpPort int, smtpUser, smtpPassword, smtpFrom string) *EmailMessenger {
	return &EmailMessenger{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		smtpFrom:     smtpFrom,
		templates:    make(map[string]Template),
		enabled:      smtpHost != "" && smtpPort > 0,
	}
}

/* RegisterTemplate adds or replaces a template */
func (m *EmailMessenger) RegisterTemplate(id string, tpl Template) {
	m.templates[id] = tpl
}

/* SendTemplated renders a template and sends it, returning a message id */
func (m *EmailMessenger) SendTemplated(ctx context.Context, recipient, templateID string, variables map[string]interface{}) (string, error) {
	if !m.enabled {
		return "", fmt.Errorf("email messenger not configured")
	}
	if !strings.Contains(recipient, "@") {
		return "", fmt.Errorf("invalid email address: %s", recipient)
	}

	tpl, ok := m.templates[templateID]
	if !ok {
		return "", fmt.Errorf("unknown email template: id='%s'", templateID)
	}

	subject := decisions.RenderTemplate(tpl.Subject, variables)
	body := decisions.RenderTemplate(tpl.Body, variables)

	msg := fmt.Sprintf("From: %s\r\n", m.smtpFrom)
	msg += fmt.Sprintf("To: %s\r\n", recipient)
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "\r\n"
	msg += body

	auth := smtp.PlainAuth("", m.smtpUser, m.smtpPassword, m.smtpHost)
	addr := fmt.Sprintf("%s:%d", m.smtpHost, m.smtpPort)
	if err := smtp.SendMail(addr, auth, m.smtpFrom, []string{recipient}, []byte(msg)); err != nil {
		return "", fmt.Errorf("email send failed: to='%s', template='%s', error=%w", recipient, templateID, err)
	}

	return uuid.New().String(), nil
}
