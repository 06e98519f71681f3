package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusCanTransitionTo(t *testing.T) {
	testCases := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to processing", OrderPending, OrderProcessing, true},
		{"processing to shipped", OrderProcessing, OrderShipped, true},
		{"shipped to out for delivery", OrderShipped, OrderOutForDelivery, true},
		{"out for delivery to delivered", OrderOutForDelivery, OrderDelivered, true},
		{"pending cannot skip to shipped", OrderPending, OrderShipped, false},
		{"pending cannot skip to delivered", OrderPending, OrderDelivered, false},
		{"no moving backwards", OrderShipped, OrderProcessing, false},
		{"cancel from pending", OrderPending, OrderCancelled, true},
		{"cancel from processing", OrderProcessing, OrderCancelled, true},
		{"cancel from out for delivery", OrderOutForDelivery, OrderCancelled, true},
		{"cannot cancel delivered", OrderDelivered, OrderCancelled, false},
		{"cancelled is terminal", OrderCancelled, OrderProcessing, false},
		{"delivered is terminal", OrderDelivered, OrderProcessing, false},
		{"unknown target rejected", OrderPending, OrderStatus("refunded"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderDelivered.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.False(t, OrderPending.Terminal())
	assert.False(t, OrderOutForDelivery.Terminal())
}
