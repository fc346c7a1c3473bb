package notifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Service dispatches outbound notifications asynchronously. Enqueue never
// blocks the caller and delivery failures are only logged: verification flows
// must not stall or fail because a mail relay is down.
type Service struct {
	mailer mailer
	sms    smsSender
	queue  chan domain.Notification
	logger *slog.Logger
	wg     sync.WaitGroup
}

// New builds the dispatcher. sms may be nil when SNS is not configured; phone
// notifications are then dropped with a log line.
func New(m mailer, sms smsSender, logger *slog.Logger) *Service {
	return &Service{
		mailer: m,
		sms:    sms,
		queue:  make(chan domain.Notification, 256),
		logger: logger,
	}
}

// Start launches the delivery worker. It drains the queue until Close is
// called, then exits.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for n := range s.queue {
			s.deliver(ctx, n)
		}
	}()
}

// Enqueue hands a notification to the worker. When the queue is full the
// notification is dropped and logged rather than blocking the caller.
func (s *Service) Enqueue(n domain.Notification) {
	select {
	case s.queue <- n:
	default:
		s.logger.Warn("notification queue full, dropping message",
			"channel", n.Channel, "recipient", n.Recipient)
	}
}

// Close stops accepting notifications and waits for the worker to drain the
// queue.
func (s *Service) Close() {
	close(s.queue)
	s.wg.Wait()
}

func (s *Service) deliver(ctx context.Context, n domain.Notification) {
	var err error
	switch n.Channel {
	case domain.ChannelEmail:
		err = s.mailer.SendEmail(n.Recipient, n.Subject, n.Body)
	case domain.ChannelPhone:
		if s.sms == nil {
			s.logger.Warn("sms sender not configured, dropping message", "recipient", n.Recipient)
			return
		}
		err = s.sms.SendSMS(ctx, n.Recipient, n.Body)
	default:
		s.logger.Error("unknown notification channel", "channel", n.Channel)
		return
	}
	if err != nil {
		s.logger.Warn("notification delivery failed",
			"channel", n.Channel, "recipient", n.Recipient, "err", err)
	}
}
