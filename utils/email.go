package utils

import (
	"fmt"
	"html"
	"net/smtp"

	"nexura/pkg/log"
)

// SMTPMailer sends admin invites through an SMTP relay. With no host
// configured the invite link is only logged.
type SMTPMailer struct {
	Host        string
	Port        int
	Username    string
	Password    string
	SenderEmail string
	SenderName  string
}

func inviteMessage(to, fromName, fromEmail, link string) []byte {
	return []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s <%s>\r\n"+
			"Subject: You have been invited to the Nexura admin console\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n"+
			"<p>You have been invited to join Nexura as an admin.</p>\r\n"+
			"<p><a href=\"%s\">Accept the invite</a>. The link can be used once.</p>\r\n",
		to, fromName, fromEmail, html.EscapeString(link)))
}

func (m *SMTPMailer) SendAdminInvite(to, link string) error {
	if m == nil || m.Host == "" {
		log.Infof("SMTP not configured, invite for %s: %s", to, link)
		return nil
	}
	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	msg := inviteMessage(to, m.SenderName, m.SenderEmail, link)
	if err := smtp.SendMail(addr, auth, m.SenderEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send invite email: %v", err)
	}
	return nil
}
