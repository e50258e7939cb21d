package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
)

type StripeConfig struct {
	SecretKey  string
	Currency   string
	SuccessURL string
	CancelURL  string
}

func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	if c.SuccessURL == "" || c.CancelURL == "" {
		return fmt.Errorf("stripe: success and cancel URLs are required")
	}
	return nil
}

// StripeGateway creates hosted Checkout Sessions from a manifest.
type StripeGateway struct {
	cfg StripeConfig
}

func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Currency == "" {
		cfg.Currency = "gbp"
	}
	stripe.Key = cfg.SecretKey
	return &StripeGateway{cfg: cfg}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, manifest []LineItem) (*Session, error) {
	if len(manifest) == 0 {
		return nil, fmt.Errorf("stripe: empty manifest")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(manifest))
	for _, li := range manifest {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.cfg.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
				UnitAmount: stripe.Int64(MinorUnits(li.UnitPrice)),
			},
			Quantity: stripe.Int64(int64(li.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(g.cfg.SuccessURL),
		CancelURL:          stripe.String(g.cfg.CancelURL),
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}
