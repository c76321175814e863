package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"gucnotify/config"
	"gucnotify/internal/model"
)

// SMTPMailer submits mail over SMTP with STARTTLS and LOGIN auth, the same
// relay setup the notifier has always used (smtp.gmail.com:587 in prod).
type SMTPMailer struct {
	addr     string
	host     string
	sender   string
	password string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		host:     cfg.Host,
		sender:   cfg.Sender,
		password: cfg.Password,
	}
}

// SendAnnouncement mails the raw announcement HTML for one course.
func (m *SMTPMailer) SendAnnouncement(to string, course model.CourseMetadata, announcement string) error {
	subject := fmt.Sprintf("[Announcement] %s", course.Name)
	msg := buildMessage(m.sender, to, subject, "text/html; charset=utf-8", announcement)
	return m.send(to, msg)
}

// SendCourseItem mails a plain-text summary of one new course item.
func (m *SMTPMailer) SendCourseItem(to string, course model.CourseMetadata, week model.Week, item model.CourseItem) error {
	subject := fmt.Sprintf("%s - %s", course.Name, item.Title)
	body := fmt.Sprintf(
		"Course: %s | %s\nItem: %s\nDescription: %s\nType: %s\nURL: %s\nWeek: %s\n",
		course.Code,
		course.Name,
		item.Title,
		item.Description,
		item.Type,
		item.URL,
		week.StartDate.Format("2006-01-02"),
	)
	msg := buildMessage(m.sender, to, subject, "text/plain; charset=utf-8", body)
	return m.send(to, msg)
}

func (m *SMTPMailer) send(to string, msg []byte) error {
	auth := smtp.PlainAuth("", m.sender, m.password, m.host)
	// smtp.SendMail 会自动使用 STARTTLS
	if err := smtp.SendMail(m.addr, auth, m.sender, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, contentType, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	fmt.Fprintf(&b, "\r\n%s", body)
	return []byte(b.String())
}
