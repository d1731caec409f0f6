package api

import (
	"context"
	"net/http"

	"github.com/pcforge/storefront/internal/domain"
)

// Profile reads the delivery profile of the authenticated user. The backend
// creates an empty profile on first read.
func (c *Client) Profile(ctx context.Context, token string) (*domain.Profile, error) {
	var out domain.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile/", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, profile domain.Profile) error {
	return c.do(ctx, http.MethodPatch, "/api/profile/", nil, token, profile, nil)
}

// SavedCards lists the user's stored payment cards, masked to the last four
// digits.
func (c *Client) SavedCards(ctx context.Context, token string) ([]domain.SavedCard, error) {
	var out []domain.SavedCard
	if err := c.do(ctx, http.MethodGet, "/api/saved-cards/", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type saveCardRequest struct {
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
}

func (c *Client) SaveCard(ctx context.Context, token, cardNumber, expiry string) error {
	return c.do(ctx, http.MethodPost, "/api/save-card/", nil, token, saveCardRequest{
		CardNumber: cardNumber,
		Expiry:     expiry,
	}, nil)
}
