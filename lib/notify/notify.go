// Package notify emails missing-assignment digests to the configured
// household recipients.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/dp-pcs/noah-hw-mcp/lib/portal/extract"
	"github.com/dp-pcs/noah-hw-mcp/lib/telemetry"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("portal/notify")

type SmtpConfig struct {
	Server       string
	Port         int
	EmailAddress string
	Password     string
}

type Options struct {
	Smtp       SmtpConfig
	Recipients []string
}

type Notifier struct {
	config Options
}

func NewNotifier(options Options) Notifier {
	return Notifier{config: options}
}

// SendMissingAssignments emails a plain-text digest of the given
// assignments to every configured recipient.
func (n Notifier) SendMissingAssignments(ctx context.Context, items []extract.Assignment) error {
	ctx, span := tracer.Start(ctx, "SendMissingAssignments")
	defer span.End()
	span.SetAttributes(attribute.Int("assignments", len(items)))

	if len(n.config.Recipients) == 0 {
		return fmt.Errorf("no notification recipients are configured")
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Homework Portal <%s>", n.config.Smtp.EmailAddress)
	mail.To = n.config.Recipients
	mail.Subject = subjectLine(items)
	mail.Text = []byte(renderDigest(items))

	err := mail.Send(
		fmt.Sprintf("%s:%d", n.config.Smtp.Server, n.config.Smtp.Port),
		smtp.PlainAuth("", n.config.Smtp.EmailAddress, n.config.Smtp.Password, n.config.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(fmt.Sprintf("%s:%d", n.config.Smtp.Server, n.config.Smtp.Port), nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to send email")
			return err
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}

	return nil
}

func subjectLine(items []extract.Assignment) string {
	if len(items) == 0 {
		return "No missing assignments"
	}
	return fmt.Sprintf("%d missing assignment(s)", len(items))
}

func renderDigest(items []extract.Assignment) string {
	if len(items) == 0 {
		return "The portal lists no missing assignments right now.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The portal lists %d missing assignment(s):\n\n", len(items))
	for _, item := range items {
		due := "no due date"
		if item.DueDate != nil {
			due = "due " + item.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "- %s (%s, %s)\n", item.Title, item.Course, due)
	}
	return b.String()
}
