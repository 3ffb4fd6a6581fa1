package alert

import (
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// SMTPConfig holds delivery settings for the dashboard email.
type SMTPConfig struct {
	Server   string
	Port     int
	From     string
	Password string
	To       string
}

// Mailer delivers a rendered dashboard email; tests substitute a recorder.
type Mailer interface {
	Send(subject, textBody, htmlBody string) error
}

// Compile-time interface check.
var _ Mailer = (*SMTPMailer)(nil)

// SMTPMailer sends multipart (plain + HTML) mail over STARTTLS SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates a mailer for the given SMTP settings.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers one email with a plain-text and an HTML alternative.
func (m *SMTPMailer) Send(subject, textBody, htmlBody string) error {
	if m.cfg.From == "" || m.cfg.Password == "" {
		return errors.New("alert: email credentials not configured")
	}

	const boundary = "stockalert-alt"
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.cfg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, textBody)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, htmlBody)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", m.cfg.Server, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Server)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{m.cfg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// HTML rendering
// ---------------------------------------------------------------------------

type emailData struct {
	*Metrics
	ReturnColor template.CSS
	RSIColor    template.CSS
	SMAColor    template.CSS
}

// RenderHTML renders the dashboard email body.
func RenderHTML(m *Metrics) (string, error) {
	data := emailData{
		Metrics:     m,
		ReturnColor: colorForReturn(m),
		RSIColor:    colorForRSIZone(m.RSIZone()),
		SMAColor:    colorForSMAStatus(m.SMAStatus()),
	}
	var b strings.Builder
	if err := emailTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering email: %w", err)
	}
	return b.String(), nil
}

const (
	colorUp      = template.CSS("#28a745")
	colorDown    = template.CSS("#dc3545")
	colorNeutral = template.CSS("#ffc107")
	colorMuted   = template.CSS("#6c757d")
)

func colorForReturn(m *Metrics) template.CSS {
	if m.Row.HasReturn() && m.Row.Return > 0 {
		return colorUp
	}
	return colorDown
}

func colorForRSIZone(zone string) template.CSS {
	switch zone {
	case "Oversold":
		return colorUp
	case "Overbought":
		return colorDown
	case "Neutral":
		return colorNeutral
	default:
		return colorMuted
	}
}

func colorForSMAStatus(status string) template.CSS {
	switch status {
	case "ABOVE":
		return colorUp
	case "BELOW":
		return colorDown
	default:
		return colorMuted
	}
}

var emailTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Ticker}} Dashboard</title></head>
<body style="margin:0;padding:20px;font-family:-apple-system,'Segoe UI',Roboto,Arial,sans-serif;background-color:#f8f9fa;">
  <div style="max-width:600px;margin:0 auto;background-color:#ffffff;border-radius:12px;overflow:hidden;">
    <div style="background:linear-gradient(135deg,#1e3a5f 0%,#2d5a87 100%);color:white;padding:30px;text-align:center;">
      <h1 style="margin:0;font-size:28px;">{{.Ticker}} Dashboard</h1>
      <p style="margin:10px 0 0 0;opacity:0.9;">{{.Date.Format "2006-01-02"}}</p>
    </div>
    <div style="padding:25px;text-align:center;border-bottom:1px solid #e9ecef;">
      <p style="margin:0;color:#6c757d;font-size:14px;text-transform:uppercase;">Latest Price</p>
      <h2 style="margin:10px 0 0 0;font-size:42px;color:#212529;">${{printf "%.2f" .LatestPrice}}</h2>
    </div>
    <table style="width:100%;border-collapse:collapse;"><tr>
      <td style="padding:15px;text-align:center;width:50%;">
        <div style="background-color:#f8f9fa;border-radius:8px;padding:20px;">
          <p style="margin:0 0 5px 0;color:#6c757d;font-size:12px;text-transform:uppercase;">Rolling Return</p>
          <p style="margin:0;font-size:28px;color:{{.ReturnColor}};">{{.ReturnDisplay}}</p>
        </div>
      </td>
      <td style="padding:15px;text-align:center;width:50%;">
        <div style="background-color:#f8f9fa;border-radius:8px;padding:20px;">
          <p style="margin:0 0 5px 0;color:#6c757d;font-size:12px;text-transform:uppercase;">RSI</p>
          <p style="margin:0;font-size:28px;color:{{.RSIColor}};">{{.RSIDisplay}}</p>
          <p style="margin:5px 0 0 0;color:{{.RSIColor}};font-size:11px;">{{.RSIZone}}</p>
        </div>
      </td>
    </tr></table>
    <div style="padding:0 20px 20px 20px;">
      <div style="background-color:#f8f9fa;border-radius:8px;padding:20px;text-align:center;">
        <p style="margin:0 0 5px 0;color:#6c757d;font-size:12px;text-transform:uppercase;">SMA Status</p>
        <p style="margin:0;font-size:24px;color:{{.SMAColor}};">{{.SMAStatus}}</p>
        <p style="margin:10px 0 0 0;color:#6c757d;font-size:13px;">
          Open: <strong>${{printf "%.2f" .CurrentOpen}}</strong> | SMA: <strong>{{.SMADisplay}}</strong>
        </p>
      </div>
    </div>
    <div style="background-color:#f8f9fa;padding:20px;text-align:center;border-top:1px solid #e9ecef;">
      <p style="margin:0;color:#6c757d;font-size:12px;">Generated by StockAlert</p>
    </div>
  </div>
</body>
</html>
`))
