// Package notify renders billing notifications and hands them to the mail
// capability. Dispatch is fire-and-forget relative to the billing write that
// triggered it: a notification failure never affects the ledger.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidType = errors.New("unknown notification type")
	ErrUnavailable = errors.New("email service not configured")
)

// Type selects the template a notification renders with. The set is closed:
// adding a type means adding a payload, a template and a ParsePayload case.
type Type string

const (
	TypePaymentSuccessful Type = "payment_successful"
	TypeFreeTierWarning   Type = "free_tier_warning"
	TypePaymentFailed     Type = "payment_failed"
)

// Message is the rendered mail handed to the Mailer.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	ReplyTo string
}

// Mailer is the external mail capability. Send returns the provider's message
// id. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NoMailer stands in when no mail transport is configured. Every send fails
// with ErrUnavailable before any side effect.
type NoMailer struct{}

func (NoMailer) Send(context.Context, Message) (string, error) {
	return "", ErrUnavailable
}

// Payload is one of the typed per-notification data records.
type Payload interface {
	notificationType() Type
}

// PaymentSuccessful confirms a completed charge.
type PaymentSuccessful struct {
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"paymentMethod"`
	Timestamp     string  `json:"timestamp"`
}

func (PaymentSuccessful) notificationType() Type { return TypePaymentSuccessful }

// FreeTierWarning tells a free-tier user they are near or past the metered
// limit. UserID lets the dispatcher fill the counters from the ledger when
// the caller leaves them zero.
type FreeTierWarning struct {
	UserID           string `json:"userId"`
	EmailsClassified int64  `json:"emailsClassified"`
	Limit            int64  `json:"limit"`
}

func (FreeTierWarning) notificationType() Type { return TypeFreeTierWarning }

// PaymentFailed reports a charge that did not complete.
type PaymentFailed struct {
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Reason        string  `json:"reason"`
}

func (PaymentFailed) notificationType() Type { return TypePaymentFailed }

// ParsePayload decodes the wire-level {type, data} pair into a typed payload.
// Unknown types fail before any provider interaction.
func ParsePayload(typ string, data json.RawMessage) (Payload, error) {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	switch Type(typ) {
	case TypePaymentSuccessful:
		var p PaymentSuccessful
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding %s data: %w", typ, err)
		}
		return p, nil
	case TypeFreeTierWarning:
		var p FreeTierWarning
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding %s data: %w", typ, err)
		}
		return p, nil
	case TypePaymentFailed:
		var p PaymentFailed
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding %s data: %w", typ, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
}
