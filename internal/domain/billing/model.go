package billing

import (
	"strings"
	"time"
)

// Tier is the coarse billing status of a user.
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// SimulatedPrefix marks transaction ids generated locally instead of by the
// payment provider, so downstream consumers can tell the two apart.
const SimulatedPrefix = "sim_"

// PaymentRecord is immutable once its status is terminal. TransactionID doubles
// as the idempotency key for webhook reconciliation.
type PaymentRecord struct {
	TransactionID string        `json:"transactionId"`
	AmountMinor   int64         `json:"amountMinor"`
	Currency      string        `json:"currency"`
	Status        PaymentStatus `json:"status"`
	Timestamp     time.Time     `json:"timestamp"`
}

func (p PaymentRecord) Terminal() bool {
	return p.Status == PaymentCompleted || p.Status == PaymentFailed
}

func (p PaymentRecord) Simulated() bool {
	return strings.HasPrefix(p.TransactionID, SimulatedPrefix)
}

// Usage holds the metered free-tier counters. Counters only grow; period
// resets are an external collaborator's job.
type Usage struct {
	EmailsClassified int64 `json:"emailsClassified"`
	TotalCostMinor   int64 `json:"totalCostMinor"`
}

// UserBillingRecord is the per-user ledger entry. LastPayment is a cached copy
// of the most recently applied payment, not a separate payment.
type UserBillingRecord struct {
	Tier        Tier            `json:"tier"`
	Email       string          `json:"email,omitempty"`
	Payments    []PaymentRecord `json:"payments"`
	LastPayment *PaymentRecord  `json:"lastPayment,omitempty"`
	Usage       Usage           `json:"usage"`
}

// NewUserBillingRecord returns the default record synthesized for users that
// have never been written: free tier, no payments, zero usage.
func NewUserBillingRecord() UserBillingRecord {
	return UserBillingRecord{Tier: TierFree}
}

// Clone deep-copies the record so callers can never alias stored state.
func (r UserBillingRecord) Clone() UserBillingRecord {
	out := r
	if r.Payments != nil {
		out.Payments = make([]PaymentRecord, len(r.Payments))
		copy(out.Payments, r.Payments)
	}
	if r.LastPayment != nil {
		p := *r.LastPayment
		out.LastPayment = &p
	}
	return out
}

// FindPayment returns the index of the payment with the given transaction id,
// or -1 if none exists.
func (r UserBillingRecord) FindPayment(transactionID string) int {
	for i := range r.Payments {
		if r.Payments[i].TransactionID == transactionID {
			return i
		}
	}
	return -1
}

// WithPayment appends a payment, refreshes LastPayment and recomputes the
// tier. Tier is monotonic: a completed payment upgrades to paid, nothing here
// ever downgrades.
func (r UserBillingRecord) WithPayment(p PaymentRecord) UserBillingRecord {
	out := r.Clone()
	out.Payments = append(out.Payments, p)
	out.LastPayment = &p
	if p.Status == PaymentCompleted {
		out.Tier = TierPaid
	}
	return out
}

// WithPaymentStatus transitions the payment with the given transaction id to
// the new status. Terminal payments never change (pending -> completed and
// pending -> failed are the only legal moves). Returns the updated record and
// whether a transition actually happened.
func (r UserBillingRecord) WithPaymentStatus(transactionID string, status PaymentStatus) (UserBillingRecord, bool) {
	i := r.FindPayment(transactionID)
	if i < 0 || r.Payments[i].Terminal() {
		return r, false
	}
	out := r.Clone()
	out.Payments[i].Status = status
	out.LastPayment = &out.Payments[i]
	if status == PaymentCompleted {
		out.Tier = TierPaid
	}
	return out, true
}
