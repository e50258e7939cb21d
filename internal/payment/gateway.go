package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// LineItem is one line of the manifest handed to the gateway: a display name,
// the frozen unit price and the quantity. The gateway never sees cart or
// catalog internals.
type LineItem struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  uint            `json:"quantity"`
}

// Session is the opaque redirect handle returned by the gateway.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// Gateway turns a manifest into a hosted payment session. Implementations are
// free to fail independently of checkout; the order already exists by the time
// this is called.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, manifest []LineItem) (*Session, error)
}

// MinorUnits converts a decimal price into integer minor units (pennies) the
// way card processors expect.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
