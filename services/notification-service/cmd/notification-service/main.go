package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/eventcoordinator/libs/config"
	"github.com/md-rashed-zaman/eventcoordinator/libs/db"
	"github.com/md-rashed-zaman/eventcoordinator/libs/httpx"
	"github.com/md-rashed-zaman/eventcoordinator/libs/kafkax"
	otelx "github.com/md-rashed-zaman/eventcoordinator/libs/otel"
	"github.com/md-rashed-zaman/eventcoordinator/libs/runtime"
	"github.com/md-rashed-zaman/eventcoordinator/libs/schedule"
	"github.com/md-rashed-zaman/eventcoordinator/services/notification-service/internal/consumer"
	"github.com/md-rashed-zaman/eventcoordinator/services/notification-service/internal/eligibility"
	"github.com/md-rashed-zaman/eventcoordinator/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/eventcoordinator/services/notification-service/internal/inbox"
	"github.com/md-rashed-zaman/eventcoordinator/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/eventcoordinator/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	topicEventCreated = "event.created.v1"
	topicEventDeleted = "event.deleted.v1"
)

type eventNotice struct {
	EventID        string `json:"event_id"`
	OrganizationID string `json:"organization_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
}

func composeCreated(orgName string, n eventNotice, start, end time.Time) (subject, body string) {
	subject = fmt.Sprintf("New event: %s", n.Title)
	body = fmt.Sprintf("%s scheduled %q on %s from %s to %s.",
		orgName, n.Title,
		start.Format("Monday, Jan 02, 2006"),
		start.Format("15:04"), end.Format("15:04"))
	if n.Location != "" {
		body += " Location: " + n.Location + "."
	}
	if n.Description != "" {
		body += "\n\n" + n.Description
	}
	return subject, body
}

func composeDeleted(orgName string, n eventNotice, start time.Time) (subject, body string) {
	subject = fmt.Sprintf("Event cancelled: %s", n.Title)
	body = fmt.Sprintf("%s cancelled %q that was planned for %s at %s.",
		orgName, n.Title,
		start.Format("Monday, Jan 02, 2006"),
		start.Format("15:04"))
	return subject, body
}

// contactFor picks the address matching the organization's channel. An
// empty address means the subscriber cannot be reached on that channel.
func contactFor(channel string, rec storage.Recipient) string {
	switch channel {
	case "sms":
		return strings.TrimSpace(rec.PhoneNumber)
	case "whatsapp":
		if v := strings.TrimSpace(rec.WhatsAppNumber); v != "" {
			return v
		}
		return strings.TrimSpace(rec.PhoneNumber)
	default:
		return strings.TrimSpace(rec.Email)
	}
}

type dispatcher struct {
	repo        *storage.Repository
	logger      *slog.Logger
	emailSender email.Sender
	smsSender   sms.Sender
	waSender    sms.Sender
}

func (d *dispatcher) send(ctx context.Context, channel, to, subject, body string) error {
	switch channel {
	case "sms":
		return d.smsSender.Send(ctx, to, body)
	case "whatsapp":
		return d.waSender.Send(ctx, to, subject+"\n"+body)
	default:
		return d.emailSender.Send(to, subject, body)
	}
}

func (d *dispatcher) fanOut(ctx context.Context, n eventNotice, deleted bool) error {
	org, err := d.repo.GetOrganization(ctx, n.OrganizationID)
	if err != nil {
		return fmt.Errorf("load organization %s: %w", n.OrganizationID, err)
	}
	recipients, err := d.repo.ListRecipients(ctx, n.OrganizationID)
	if err != nil {
		return fmt.Errorf("load recipients: %w", err)
	}

	start, err := time.Parse(time.RFC3339, n.StartTime)
	if err != nil {
		d.logger.Error("invalid start_time in event notice", "event_id", n.EventID, "err", err)
		return nil
	}
	end, err := time.Parse(time.RFC3339, n.EndTime)
	if err != nil {
		d.logger.Error("invalid end_time in event notice", "event_id", n.EventID, "err", err)
		return nil
	}

	var subject, body string
	if deleted {
		subject, body = composeDeleted(org.Name, n, start)
	} else {
		subject, body = composeCreated(org.Name, n, start, end)
	}

	for _, rec := range recipients {
		var decision eligibility.Decision
		if deleted {
			decision = eligibility.ForDeletion()
		} else {
			rules, rulesErr := d.repo.RulesForOwner(ctx, n.OrganizationID, rec.Subscriber)
			if rulesErr != nil {
				d.logger.Warn("rule load failed; notifying anyway",
					"subscriber", rec.Subscriber.Key(), "err", rulesErr)
			}
			decision = eligibility.ForCreation(rec.Preference, rules, rulesErr, schedule.Event{Start: start, End: end})
		}

		entry := storage.LogEntry{
			EventID:        n.EventID,
			OrganizationID: n.OrganizationID,
			Subscriber:     rec.Subscriber,
			Channel:        org.NotificationChannel,
		}

		if !decision.Notify {
			entry.Status = "skipped"
			entry.ErrorMessage = decision.Reason
			entry.Recipient = contactFor(org.NotificationChannel, rec)
			if err := d.repo.InsertLog(ctx, entry); err != nil {
				d.logger.Error("failed to log skipped notification", "err", err)
			}
			continue
		}

		to := contactFor(org.NotificationChannel, rec)
		entry.Recipient = to
		if to == "" {
			entry.Status = "skipped"
			entry.ErrorMessage = "no contact for channel " + org.NotificationChannel
			if err := d.repo.InsertLog(ctx, entry); err != nil {
				d.logger.Error("failed to log skipped notification", "err", err)
			}
			continue
		}

		if err := d.send(ctx, org.NotificationChannel, to, subject, body); err != nil {
			entry.Status = "failed"
			entry.ErrorMessage = err.Error()
			d.logger.Error("notification send failed",
				"channel", org.NotificationChannel, "recipient", to, "err", err)
		} else {
			entry.Status = "sent"
		}
		if err := d.repo.InsertLog(ctx, entry); err != nil {
			d.logger.Error("failed to persist notification log", "err", err)
		}
	}

	d.logger.Info("event fan-out complete",
		"event_id", n.EventID, "deleted", deleted, "recipients", len(recipients))
	return nil
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	repo := storage.NewRepository(pool, logger)

	smtpHost := config.String("SMTP_HOST", "mailpit")
	smtpPort := config.String("SMTP_PORT", "1025")
	smtpFrom := config.String("SMTP_FROM", "no-reply@eventcoordinator.local")
	emailSender := email.NewSMTPSender(smtpHost, smtpPort, smtpFrom)

	smsProvider := strings.ToLower(config.String("SMS_PROVIDER", "noop"))
	smsWebhookURL := config.String("SMS_WEBHOOK_URL", "")
	smsWebhookToken := config.String("SMS_WEBHOOK_TOKEN", "")
	var smsSender sms.Sender
	switch smsProvider {
	case "noop":
		smsSender = sms.NewNoopSender()
	default:
		smsSender = sms.NewWebhookSender(smsWebhookURL, smsWebhookToken)
	}

	d := &dispatcher{
		repo:        repo,
		logger:      logger,
		emailSender: emailSender,
		smsSender:   smsSender,
		waSender:    sms.NewWhatsAppSender(smsSender),
	}

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "notification-service")

	handle := func(deleted bool) consumer.Handler {
		return func(ctx context.Context, msg kafka.Message) error {
			var n eventNotice
			if err := json.Unmarshal(msg.Value, &n); err != nil {
				logger.Error("invalid event notice", "err", err)
				return nil
			}
			if n.EventID == "" || n.OrganizationID == "" || n.Title == "" {
				logger.Error("missing event notice fields")
				return nil
			}
			return d.fanOut(ctx, n, deleted)
		}
	}

	createdConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_CREATED_TOPIC", topicEventCreated),
	}, handle(false))
	go createdConsumer.Run(ctx)

	deletedConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_DELETED_TOPIC", topicEventDeleted),
	}, handle(true))
	go deletedConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
