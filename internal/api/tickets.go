package api

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmptyCart = errors.New("checkout needs at least one item")

func (a *API) Tickets(ctx context.Context, eventID int) ([]TicketType, error) {
	var out []TicketType
	if err := a.c.Get(ctx, fmt.Sprintf("/events/%d/tickets/", eventID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Checkout creates an order and returns the payment provider URL.
func (a *API) Checkout(ctx context.Context, items ...CheckoutItem) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	var o Order
	if err := a.c.Post(ctx, "/checkout/", CheckoutRequest{Items: items}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
