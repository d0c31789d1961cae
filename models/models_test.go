package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderCreated.CanTransitionTo(OrderPaid))
	assert.True(t, OrderCreated.CanTransitionTo(OrderCancelled))
	assert.False(t, OrderCreated.CanTransitionTo(OrderCreated))

	for _, terminal := range []OrderStatus{OrderPaid, OrderCancelled} {
		for _, next := range []OrderStatus{OrderCreated, OrderPaid, OrderCancelled} {
			assert.False(t, terminal.CanTransitionTo(next), "%s -> %s", terminal, next)
		}
	}
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderPaid.Valid())
	assert.False(t, OrderStatus("SHIPPED").Valid())
}

func TestProductAvailable(t *testing.T) {
	assert.True(t, Product{Active: true, Stock: 1}.Available())
	assert.False(t, Product{Active: true, Stock: 0}.Available())
	assert.False(t, Product{Active: false, Stock: 5}.Available())
}

func TestUserDisplayName(t *testing.T) {
	u := User{Username: "cesar"}
	assert.Equal(t, "cesar", u.DisplayName())
	u.Profile.DisplayName = "César R."
	assert.Equal(t, "César R.", u.DisplayName())
}
