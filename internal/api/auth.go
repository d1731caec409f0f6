package api

import (
	"context"
	"net/http"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token exchanges credentials for an access token.
func (c *Client) Token(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Access string `json:"access"`
	}
	err := c.do(ctx, http.MethodPost, "/api/token/", nil, "", credentials{
		Username: username,
		Password: password,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Access, nil
}

// Register creates an account. Duplicate username/email comes back as a 400
// StatusError carrying the backend's validation message.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	return c.do(ctx, http.MethodPost, "/api/register/", nil, "", registration{
		Username: username,
		Email:    email,
		Password: password,
	}, nil)
}
