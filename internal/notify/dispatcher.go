// Package notify delivers user notifications over Telegram and SendGrid and
// builds the links and labels that go into them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/repository"
	"github.com/trudify/trudify-core/pkg/logger/sl"
)

// Result is the outcome of a single delivery.
type Result = domain.DeliveryResult

const (
	ChannelTelegram = "telegram"
	ChannelEmail    = "email"
)

var deliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "trudify_notification_deliveries_total",
		Help: "Notification deliveries by channel and outcome.",
	},
	[]string{"channel", "status"},
)

func sent() Result {
	return Result{Status: domain.DeliverySent}
}

func skipped(reason string) Result {
	return Result{Status: domain.DeliverySkipped, Reason: reason}
}

func failed(reason string) Result {
	return Result{Status: domain.DeliveryFailed, Reason: reason}
}

// Dispatcher resolves users to their contact data and opt-outs before
// handing messages to the channel clients. It never returns errors, every
// problem is reported in the Result.
type Dispatcher struct {
	log        *slog.Logger
	recipients repository.RecipientRepository
	telegram   *Telegram
	email      *SendGrid
}

func NewDispatcher(log *slog.Logger, recipients repository.RecipientRepository, telegram *Telegram, email *SendGrid) *Dispatcher {
	return &Dispatcher{
		log:        log,
		recipients: recipients,
		telegram:   telegram,
		email:      email,
	}
}

func (d *Dispatcher) SendTelegram(ctx context.Context, userID string, message string) Result {
	res := d.sendTelegram(ctx, userID, message)
	deliveriesTotal.WithLabelValues(ChannelTelegram, string(res.Status)).Inc()

	return res
}

func (d *Dispatcher) sendTelegram(ctx context.Context, userID string, message string) Result {
	const op = "internal.notify.Dispatcher.SendTelegram"
	log := d.log.With(slog.String("op", op), slog.String("user_id", userID))

	if !d.telegram.Enabled() {
		return skipped("telegram is not configured")
	}

	r, err := d.recipients.GetRecipient(ctx, userID)
	if err != nil {
		log.Error("failed to load recipient", sl.Err(err))
		return failed("recipient lookup failed")
	}

	switch {
	case r.TelegramChatID == nil || *r.TelegramChatID == "":
		return skipped("no telegram chat linked")
	case !r.TelegramNotifications:
		return skipped("telegram notifications disabled")
	}

	if err := d.telegram.Send(ctx, *r.TelegramChatID, message); err != nil {
		log.Warn("telegram delivery failed", sl.Err(err))
		return failed(err.Error())
	}

	return sent()
}

// SendEmail renders templateKey for the user. An empty locale means the
// user's preferred language.
func (d *Dispatcher) SendEmail(ctx context.Context, userID string, templateKey string, data map[string]any, locale string) Result {
	res := d.sendEmail(ctx, userID, templateKey, data, locale)
	deliveriesTotal.WithLabelValues(ChannelEmail, string(res.Status)).Inc()

	return res
}

func (d *Dispatcher) sendEmail(ctx context.Context, userID string, templateKey string, data map[string]any, locale string) Result {
	const op = "internal.notify.Dispatcher.SendEmail"
	log := d.log.With(slog.String("op", op), slog.String("user_id", userID), slog.String("template", templateKey))

	if !d.email.Enabled() {
		return skipped("email is not configured")
	}

	r, err := d.recipients.GetRecipient(ctx, userID)
	if err != nil {
		log.Error("failed to load recipient", sl.Err(err))
		return failed("recipient lookup failed")
	}

	switch {
	case r.Email == nil || *r.Email == "":
		return skipped("no email address")
	case !r.EmailNotifications:
		return skipped("email notifications disabled")
	}

	if locale == "" {
		locale = r.Locale()
	}

	templateID, ok := d.email.TemplateID(templateKey, locale)
	if !ok {
		log.Warn("no email template configured", slog.String("locale", locale))
		return skipped(fmt.Sprintf("no template for %q", templateKey))
	}

	payload := make(map[string]any, len(data)+2)
	maps.Copy(payload, data)
	payload["locale"] = locale

	name := ""
	if r.FullName != nil {
		name = *r.FullName
		payload["name"] = name
	}

	if err := d.email.Send(ctx, Email{To: *r.Email, ToName: name, TemplateID: templateID, Data: payload}); err != nil {
		log.Warn("email delivery failed", sl.Err(err))
		return failed(err.Error())
	}

	return sent()
}

// ShareContact tells the professional how to reach the customer once their
// application is accepted. With ContactCustom only a notice is sent and the
// customer is expected to reach out.
func (d *Dispatcher) ShareContact(ctx context.Context, share domain.ContactShare) Result {
	const op = "internal.notify.Dispatcher.ShareContact"
	log := d.log.With(slog.String("op", op), slog.String("task_id", share.TaskID))

	customer, err := d.recipients.GetRecipient(ctx, share.CustomerID)
	if err != nil {
		log.Error("failed to load customer", sl.Err(err))
		return failed("customer lookup failed")
	}

	contact := ""

	switch share.Method {
	case domain.ContactPhone:
		if customer.Phone != nil {
			contact = *customer.Phone
		}
	case domain.ContactEmail:
		if customer.Email != nil {
			contact = *customer.Email
		}
	}

	if share.Method != domain.ContactCustom && contact == "" {
		return skipped(fmt.Sprintf("customer has no %s", share.Method))
	}

	customerName := ""
	if customer.FullName != nil {
		customerName = *customer.FullName
	}

	message := fmt.Sprintf("Your application for %q was accepted. The customer will contact you.", share.TaskTitle)
	if contact != "" {
		message = fmt.Sprintf("Your application for %q was accepted. Contact %s: %s", share.TaskTitle, customerName, contact)
	}

	results := []Result{
		d.SendTelegram(ctx, share.ProfessionalID, message),
		d.SendEmail(ctx, share.ProfessionalID, "contact_shared", map[string]any{
			"task_id":        share.TaskID,
			"task_title":     share.TaskTitle,
			"customer_name":  customerName,
			"contact_method": string(share.Method),
			"contact":        contact,
		}, ""),
	}

	return combine(results)
}

// combine reports sent when any channel delivered, failed when none did and
// at least one failed, skipped otherwise.
func combine(results []Result) Result {
	var reasons []string
	anyFailed := false

	for _, r := range results {
		if r.Status == domain.DeliverySent {
			return sent()
		}

		if r.Status == domain.DeliveryFailed {
			anyFailed = true
		}

		if r.Reason != "" {
			reasons = append(reasons, r.Reason)
		}
	}

	reason := strings.Join(reasons, "; ")

	if anyFailed {
		return failed(reason)
	}

	return skipped(reason)
}
