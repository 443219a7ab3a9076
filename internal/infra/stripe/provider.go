// Package stripe implements the payment provider capability on the Stripe
// API. Amounts cross this boundary in currency minor units only.
package stripe

import (
	"context"

	stripego "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/paymentintent"

	"inbox-cleaner-api/internal/payments"
)

type Client struct{}

func NewClient(secretKey string) *Client {
	stripego.Key = secretKey
	return &Client{}
}

func (c *Client) CreateIntent(_ context.Context, amountMinor int64, currency string, metadata map[string]string) (payments.Intent, error) {
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(amountMinor),
		Currency: stripego.String(currency),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripego.Bool(true),
			AllowRedirects: stripego.String("never"),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return payments.Intent{}, err
	}
	return intentFrom(pi), nil
}

func (c *Client) Confirm(_ context.Context, intentID, paymentMethodRef string) (payments.Intent, error) {
	params := &stripego.PaymentIntentConfirmParams{
		PaymentMethod: stripego.String(paymentMethodRef),
	}

	pi, err := paymentintent.Confirm(intentID, params)
	if err != nil {
		return payments.Intent{}, err
	}
	return intentFrom(pi), nil
}

func intentFrom(pi *stripego.PaymentIntent) payments.Intent {
	return payments.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}
}
