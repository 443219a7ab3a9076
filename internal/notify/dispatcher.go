package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"inbox-cleaner-api/internal/ledger"
)

// Dispatcher selects a template by notification type, renders it and hands the
// result to the mail capability. It reads the ledger only to enrich payloads,
// never to mutate it.
type Dispatcher struct {
	mailer Mailer
	store  *ledger.Store
	from   string
	log    *zap.Logger
}

func NewDispatcher(mailer Mailer, store *ledger.Store, from string, log *zap.Logger) *Dispatcher {
	return &Dispatcher{mailer: mailer, store: store, from: from, log: log}
}

// Dispatch renders and sends one notification, returning the mail provider's
// message id.
func (d *Dispatcher) Dispatch(ctx context.Context, to string, p Payload) (string, error) {
	p = d.enrich(p)

	subject, html, err := render(p)
	if err != nil {
		return "", err
	}

	messageID, err := d.mailer.Send(ctx, Message{
		From:    d.from,
		To:      to,
		Subject: subject,
		HTML:    html,
		ReplyTo: d.from,
	})
	if err != nil {
		return "", err
	}

	d.log.Info("notification sent",
		zap.String("type", string(p.notificationType())),
		zap.String("to", to),
		zap.String("messageId", messageID))
	return messageID, nil
}

// DispatchAsync sends in the background. Failures are logged and dropped:
// notifications must never roll back or retry the billing write that
// triggered them.
func (d *Dispatcher) DispatchAsync(to string, p Payload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := d.Dispatch(ctx, to, p); err != nil {
			d.log.Warn("notification dispatch failed",
				zap.String("type", string(p.notificationType())),
				zap.String("to", to),
				zap.Error(err))
		}
	}()
}

// enrich fills counters the caller left zero from the ledger.
func (d *Dispatcher) enrich(p Payload) Payload {
	w, ok := p.(FreeTierWarning)
	if !ok || w.UserID == "" || w.EmailsClassified != 0 {
		return p
	}
	rec := d.store.Get(w.UserID)
	w.EmailsClassified = rec.Usage.EmailsClassified
	return w
}
