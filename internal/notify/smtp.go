package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/mahmudshamim/ExamFlow/internal/config"
)

// SMTPMailer sends the result email over plain SMTP with an HTML body.
type SMTPMailer struct {
	cfg config.SMTP
}

func NewSMTPMailer(cfg config.SMTP) *SMTPMailer { return &SMTPMailer{cfg: cfg} }

func (m *SMTPMailer) SendResult(_ context.Context, r Result) error {
	var body bytes.Buffer
	if err := resultTmpl.Execute(&body, tmplData{Result: r, Date: time.Now().Format("January 2, 2006")}); err != nil {
		return fmt.Errorf("render result email: %w", err)
	}

	to := []string{r.To}
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: \"ExamFlow\" <%s>\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", r.To)
	if m.cfg.CC != "" {
		fmt.Fprintf(&msg, "Cc: %s\r\n", m.cfg.CC)
		to = append(to, m.cfg.CC)
	}
	fmt.Fprintf(&msg, "Subject: %s - Assessment Result\r\n", sanitizeHeader(r.ExamTitle))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.cfg.From, to, msg.Bytes())
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

type tmplData struct {
	Result
	Date string
}

var resultTmpl = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; background-color: #f8fafc; color: #1e293b; margin: 0; padding: 24px;">
  <div style="max-width: 600px; margin: 0 auto; background: #ffffff; border: 1px solid #e2e8f0; border-radius: 12px; padding: 32px;">
    <div style="text-align: center;">
      <div style="font-size: 20px; font-weight: 700; color: #6366f1;">ExamFlow</div>
      <div style="font-size: 13px; color: #94a3b8;">{{.Date}}</div>
      <h1 style="font-size: 24px; margin: 16px 0;">Assessment Result</h1>
      <p style="color: #64748b;">Hello <strong>{{.Name}}</strong>, here is your result for <strong>{{.ExamTitle}}</strong>.</p>
      <div style="background: #f1f5f9; border-radius: 10px; padding: 20px; margin: 16px 0;">
        <span style="font-size: 13px; color: #64748b; text-transform: uppercase;">Final Score</span>
        <div style="font-size: 32px; font-weight: 800; color: #6366f1;">{{.Score}} <span style="font-size: 20px; color: #cbd5e1;">/ {{.TotalMarks}}</span></div>
      </div>
    </div>
    {{if .Breakdown}}
    <table style="width: 100%; border-collapse: collapse; margin-top: 16px;">
      <thead>
        <tr style="border-bottom: 2px solid #f1f5f9; font-size: 11px; color: #94a3b8; text-transform: uppercase;">
          <th style="padding: 8px; text-align: left;">#</th>
          <th style="padding: 8px; text-align: left;">Question</th>
          <th style="padding: 8px; text-align: center;">Marks</th>
          <th style="padding: 8px; text-align: center;">Status</th>
        </tr>
      </thead>
      <tbody>
      {{range .Breakdown}}
        <tr style="border-bottom: 1px solid #f8fafc; font-size: 13px;">
          <td style="padding: 10px 8px; color: #94a3b8;">{{.Number}}</td>
          <td style="padding: 10px 8px;">{{.Text}}</td>
          <td style="padding: 10px 8px; text-align: center;">{{.MarksObtained}} / {{.Marks}}</td>
          <td style="padding: 10px 8px; text-align: center;">{{if not .Graded}}Pending{{else if gt .MarksObtained 0.0}}Correct{{else}}Incorrect{{end}}</td>
        </tr>
      {{end}}
      </tbody>
    </table>
    {{end}}
    <div style="margin-top: 24px; font-size: 13px; color: #94a3b8;">Best regards,<br><strong style="color: #475569;">The ExamFlow Team</strong></div>
  </div>
</body>
</html>`))
