// internal/models/common_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())

	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusShipped} {
		assert.False(t, status.IsTerminal(), string(status))
	}
}

func TestIsValidOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses {
		assert.True(t, IsValidOrderStatus(status), string(status))
	}
	assert.False(t, IsValidOrderStatus(OrderStatus("returned")))
}

func TestIsValidProductTag(t *testing.T) {
	for _, tag := range ProductTags {
		assert.True(t, IsValidProductTag(tag), tag)
	}
	assert.False(t, IsValidProductTag("no-such-tag"))
}
