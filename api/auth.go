package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
}

func (c *Client) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	payload := map[string]string{
		"username": username,
		"password": password,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", nil, payload)
	if err != nil {
		return AuthResponse{}, err
	}

	var resp AuthResponse
	if err := c.doJSON(req, &resp); err != nil {
		return AuthResponse{}, err
	}
	if resp.AccessToken == "" {
		return AuthResponse{}, fmt.Errorf("login failed: missing access_token")
	}

	c.AccessToken = resp.AccessToken
	return resp, nil
}

// Profile returns the account behind the current token.
func (c *Client) Profile(ctx context.Context) (User, error) {
	req, err := c.newAuthedRequest(ctx, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return User{}, err
	}

	var user User
	if err := c.doJSON(req, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// TokenClaims is what the CLI reads out of the bearer token for display.
// The signature is not verified; the backend re-checks every request.
type TokenClaims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

func ParseTokenClaims(token string) (TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("parse token: %w", err)
	}

	out := TokenClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time.UTC()
	}
	return out, nil
}
