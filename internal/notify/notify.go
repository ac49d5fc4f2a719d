// Package notify delivers transactional email.
package notify

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

type sendgridNotifier struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
}

// NewSendgrid returns a Notifier backed by the SendGrid v3 API. Subjects are
// prefixed with "[appName] ".
func NewSendgrid(key, appName, fromName, fromEmail string) Notifier {
	return &sendgridNotifier{
		client:     sendgrid.NewSendClient(key),
		from:       sgmail.NewEmail(fromName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (n *sendgridNotifier) Send(ctx context.Context, msg Message) error {
	m := sgmail.NewSingleEmail(n.from, n.subjPrefix+msg.Subject,
		sgmail.NewEmail(msg.ToName, msg.ToEmail), msg.Text, msg.HTML)

	res, err := n.client.SendWithContext(ctx, m)
	if err != nil {
		return errors.Wrap(err, "sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

type consoleNotifier struct {
	log logrus.FieldLogger
}

// NewConsole returns a Notifier that only logs messages.
func NewConsole(log logrus.FieldLogger) Notifier {
	return &consoleNotifier{log: log}
}

func (n *consoleNotifier) Send(_ context.Context, msg Message) error {
	n.log.WithFields(logrus.Fields{
		"to":      msg.ToEmail,
		"subject": msg.Subject,
	}).Info(msg.Text)
	return nil
}

var certificateHTML = template.Must(template.New("certificate").Parse(
	`<p>Hello {{.Name}},</p><p>Your certificate <strong>{{.CertificateID}}</strong> for ` +
		`<em>{{.CourseTitle}}</em> has been issued. You can download it from your {{.AppName}} dashboard.</p>`))

// CertificateIssued builds the mail sent to a student when a certificate is
// created. Values are escaped in the HTML body.
func CertificateIssued(appName, name, email, courseTitle, certificateID string) Message {
	text := fmt.Sprintf("Hello %s,\n\nYour certificate %s for %q has been issued. "+
		"You can download it from your %s dashboard.\n", name, certificateID, courseTitle, appName)

	var html strings.Builder
	_ = certificateHTML.Execute(&html, struct {
		AppName, Name, CourseTitle, CertificateID string
	}{appName, name, courseTitle, certificateID})

	return Message{
		ToName:  name,
		ToEmail: email,
		Subject: "Certificate issued: " + courseTitle,
		Text:    text,
		HTML:    html.String(),
	}
}
