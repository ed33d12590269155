// ABOUTME: Authentication endpoints for the bookshelf service
// ABOUTME: Login is form-encoded, registration is JSON

package client

import (
	"context"
	"net/http"
	"net/url"
)

// Login calls POST /auth/login
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var resp LoginResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", form: form}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register calls POST /auth/register
func (c *Client) Register(ctx context.Context, input RegisterRequest) (*User, error) {
	var user User
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: input}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
