package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusConfirmed, OrderStatusCompleted, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, OrderStatusCompleted.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusPending.Terminal())
	assert.False(t, OrderStatus("shipped").Valid())
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, PaymentMethodCOD.Valid())
	assert.True(t, PaymentMethodOnline.Valid())
	assert.False(t, PaymentMethod("card").Valid())
	assert.False(t, PaymentMethod("").Valid())
}

func TestCustomerInfoMissingFields(t *testing.T) {
	c := CustomerInfo{Name: " Ash ", Email: "ash@example.com", Phone: "  ", City: "Pallet"}

	assert.Equal(t, []string{"phone", "address", "pincode"}, c.MissingFields())
	assert.Equal(t, "Ash", c.Trimmed().Name)
	assert.Empty(t, CustomerInfo{
		Name: "a", Email: "b", Phone: "c", Address: "d", City: "e", Pincode: "f",
	}.MissingFields())
}

func TestOrderShortID(t *testing.T) {
	assert.Equal(t, "abc", Order{ID: "abc"}.ShortID())
	assert.Equal(t, "89abcdef", Order{ID: "0123456789abcdef"}.ShortID())
}
