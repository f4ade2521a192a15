package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string
	Port         int
	EmailAddress string
	Password     string
	AlertTo      []string
}

// sendAlert emails the operators when a sync session dies on a
// terminal credential failure. Alerting is best-effort: an unset
// server or recipient list just skips it.
func (s Service) sendAlert(ctx context.Context, userID string, cause error) {
	if s.config.Smtp.Server == "" || len(s.config.Smtp.AlertTo) == 0 {
		return
	}

	ctx, span := tracer.Start(ctx, "sendAlert")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("douban sync <%s>", s.config.Smtp.EmailAddress)
	mail.To = s.config.Smtp.AlertTo
	mail.Subject = fmt.Sprintf("douban sync interrupted for %s", userID)

	body := fmt.Sprintf(`Syncing records for "%s" stopped: %v

The stored cookie no longer reaches the account, so every further
request would fail the same way. Log in to douban in a browser,
complete any verification it asks for, and store the fresh cookie.`, userID, cause)
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", s.config.Smtp.Server, s.config.Smtp.Port)
	err := mail.Send(addr, smtp.PlainAuth("", s.config.Smtp.EmailAddress, s.config.Smtp.Password, s.config.Smtp.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send alert")
		slog.WarnContext(ctx, "failed to send alert email", "user_id", userID, "err", err)
	}
}
