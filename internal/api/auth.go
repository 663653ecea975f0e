package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Login authenticates with email and password and installs the returned
// bearer token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return TokenResponse{}, err
	}
	if out.TokenType == "" {
		out.TokenType = "bearer"
	}
	c.SetToken(out.AccessToken)
	return out, nil
}

// TokenResponse is the auth endpoint payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
}

// CheckEmailResult reports whether an account exists for an email.
type CheckEmailResult struct {
	Exists      bool   `json:"exists"`
	HasPassword bool   `json:"has_password"`
	Message     string `json:"message"`
}

// CheckEmail asks whether an account exists and has a password set.
func (c *Client) CheckEmail(ctx context.Context, email string) (CheckEmailResult, error) {
	var out CheckEmailResult
	err := c.do(ctx, http.MethodPost, "/auth/check-email", nil, map[string]string{"email": email}, &out)
	return out, err
}

// SendVerificationCode triggers a one-time code email for first-time
// password setup.
func (c *Client) SendVerificationCode(ctx context.Context, email string) error {
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/send-verification-code", nil, map[string]string{"email": email}, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("api: verification code not sent: %s", out.Message)
	}
	return nil
}

// VerifyCodeAndSetPassword completes first-time setup and installs the
// returned token.
func (c *Client) VerifyCodeAndSetPassword(ctx context.Context, email, code, password string) (TokenResponse, error) {
	body := map[string]string{"email": email, "code": code, "password": password}
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/verify-code-and-set-password", nil, body, &out); err != nil {
		return TokenResponse{}, err
	}
	if out.TokenType == "" {
		out.TokenType = "bearer"
	}
	c.SetToken(out.AccessToken)
	return out, nil
}

// Logout discards the installed token. Purely local; the backend keeps no
// session state.
func (c *Client) Logout() {
	c.SetToken("")
}

// TokenExpired inspects the installed token's exp claim without verifying
// the signature (the signing key lives on the backend). It errs on the
// side of expiry: a missing or unparseable token counts as expired.
func (c *Client) TokenExpired() bool {
	token := c.Token()
	if token == "" {
		return true
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.Before(time.Now())
}

// TokenRole returns the role claim of the installed token, or empty when
// absent. Like TokenExpired, this trusts the backend-issued token without
// verifying it locally.
func (c *Client) TokenRole() string {
	token := c.Token()
	if token == "" {
		return ""
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	if role, ok := claims["role"].(string); ok {
		return role
	}
	return ""
}
