package order

import (
	"context"
	"errors"
	"sort"
)

// Service provides business logic for order history.
type Service struct {
	gw Gateway
}

func NewService(gw Gateway) *Service {
	return &Service{gw: gw}
}

// History returns the shopper's orders, newest first.
func (s *Service) History(ctx context.Context, token string) ([]Order, error) {
	if token == "" {
		return nil, errors.New("missing token")
	}
	orders, err := s.gw.GetUserOrders(ctx, token)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// Get returns one order. The commerce API scopes the lookup to the token's
// user, so a foreign order surfaces as ErrNotFound.
func (s *Service) Get(ctx context.Context, token string, id int) (Order, error) {
	if token == "" {
		return Order{}, errors.New("missing token")
	}
	if id <= 0 {
		return Order{}, ErrNotFound
	}
	return s.gw.GetOrder(ctx, token, id)
}
