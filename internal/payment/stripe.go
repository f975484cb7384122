// Package payment crée les PaymentIntent Stripe des commandes payées en ligne.
package payment

import (
	"context"
	"fmt"

	"pokestore_back_end/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
)

const DefaultCurrency = "inr"

var hundred = decimal.NewFromInt(100)

// StripeInitiator : la clé API est posée dans stripe.Key au démarrage
type StripeInitiator struct {
	currency  string
	newIntent func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

func NewStripeInitiator(currency string) *StripeInitiator {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &StripeInitiator{currency: currency, newIntent: paymentintent.New}
}

// MinorUnits convertit un montant en plus petite unité (paise, centimes)
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func (s *StripeInitiator) Initiate(ctx context.Context, order models.Order) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(order.Total)),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		ReceiptEmail: stripe.String(order.CustomerInfo.Email),
		Metadata: map[string]string{
			"order_id": order.ID,
			"user_id":  order.UserID,
		},
	}

	intent, err := s.newIntent(params)
	if err != nil {
		return "", "", fmt.Errorf("stripe: %w", err)
	}
	return intent.ID, intent.ClientSecret, nil
}
