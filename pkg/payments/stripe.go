package payments

import (
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeClient wraps the Stripe API for payment intent creation.
type StripeClient struct {
	sc *client.API
}

// NewStripe initialises a Stripe client with the provided secret key.
func NewStripe(secretKey string) (*StripeClient, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe secret key is not configured")
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeClient{sc: sc}, nil
}

// CreatePaymentIntent creates a card PaymentIntent for the given amount in
// cents and returns its client secret.
func (c *StripeClient) CreatePaymentIntent(amountCents int64, currency string) (string, error) {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}

	intent, err := c.sc.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return intent.ClientSecret, nil
}
