package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var (
	paymentSuccessfulTmpl = template.Must(template.New("payment_successful").Parse(`
<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
  <h2>Payment Received</h2>
  <p>Thanks for upgrading to Inbox Cleaner Pro!</p>
  <table cellpadding="4">
    <tr><td>Amount</td><td><strong>{{.Amount}}</strong></td></tr>
    <tr><td>Payment method</td><td>{{.PaymentMethod}}</td></tr>
    <tr><td>Transaction</td><td>{{.TransactionID}}</td></tr>
    <tr><td>Date</td><td>{{.Timestamp}}</td></tr>
  </table>
  <p>Your account is now on the paid tier with unlimited classification.</p>
</div>`))

	freeTierWarningTmpl = template.Must(template.New("free_tier_warning").Parse(`
<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
  <h2>You're close to your free-tier limit</h2>
  <p>You've classified <strong>{{.EmailsClassified}}</strong> of the
  <strong>{{.Limit}}</strong> emails included in the free tier.</p>
  <p>Upgrade to keep your inbox clean without interruption.</p>
</div>`))

	paymentFailedTmpl = template.Must(template.New("payment_failed").Parse(`
<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
  <h2>Payment Unsuccessful</h2>
  <p>We couldn't process your payment{{if .Amount}} of <strong>{{.Amount}}</strong>{{end}}.</p>
  {{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
  {{if .TransactionID}}<p>Reference: {{.TransactionID}}</p>{{end}}
  <p>No charge was made. Please check your payment details and try again.</p>
</div>`))
)

type successView struct {
	Amount        string
	PaymentMethod string
	TransactionID string
	Timestamp     string
}

type failedView struct {
	Amount        string
	Reason        string
	TransactionID string
}

func formatAmount(amount float64, currency string) string {
	if amount == 0 {
		return ""
	}
	symbol := map[string]string{"usd": "$", "eur": "€", "gbp": "£"}[currency]
	if symbol == "" {
		symbol = currency + " "
	}
	return fmt.Sprintf("%s%.2f", symbol, amount)
}

// render produces the subject and HTML body for a payload. Missing optional
// fields fall back to safe defaults; rendering never touches the ledger.
func render(p Payload) (subject, html string, err error) {
	var buf bytes.Buffer
	switch v := p.(type) {
	case PaymentSuccessful:
		view := successView{
			Amount:        formatAmount(v.Amount, v.Currency),
			PaymentMethod: v.PaymentMethod,
			TransactionID: v.TransactionID,
			Timestamp:     v.Timestamp,
		}
		if view.PaymentMethod == "" {
			view.PaymentMethod = "Card"
		}
		if view.Timestamp == "" {
			view.Timestamp = time.Now().UTC().Format(time.RFC1123)
		}
		err = paymentSuccessfulTmpl.Execute(&buf, view)
		subject = "Your Inbox Cleaner Pro payment was successful"
	case FreeTierWarning:
		err = freeTierWarningTmpl.Execute(&buf, v)
		subject = "You're approaching your free-tier limit"
	case PaymentFailed:
		view := failedView{
			Amount:        formatAmount(v.Amount, v.Currency),
			Reason:        v.Reason,
			TransactionID: v.TransactionID,
		}
		err = paymentFailedTmpl.Execute(&buf, view)
		subject = "There was a problem with your payment"
	default:
		return "", "", fmt.Errorf("%w: %T", ErrInvalidType, p)
	}
	if err != nil {
		return "", "", fmt.Errorf("rendering notification: %w", err)
	}
	return subject, buf.String(), nil
}
