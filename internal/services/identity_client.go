package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"
)

// Session is what the identity provider hands back after a successful
// token exchange or OTP verification.
type Session struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	TokenType    string        `json:"token_type"`
	User         *IdentityUser `json:"user"`
}

type IdentityUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// FullName returns the user's display name from metadata, empty when the
// profile has not been completed yet.
func (u *IdentityUser) FullName() string {
	if u == nil || u.UserMetadata == nil {
		return ""
	}
	name, _ := u.UserMetadata["full_name"].(string)
	return name
}

// IdentityProvider is the external auth collaborator. Sessions are created
// and owned by the provider; this service only transports them.
type IdentityProvider interface {
	VerifyOTP(ctx context.Context, token, otpType string) (*Session, error)
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)
	GetUser(ctx context.Context, accessToken string) (*IdentityUser, error)
}

// IdentityClient talks to a GoTrue-style identity service over HTTP.
type IdentityClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewIdentityClient() *IdentityClient {
	viper.SetDefault("identity.base_url", "http://localhost:9999")
	viper.SetDefault("identity.timeout", 10*time.Second)

	return &IdentityClient{
		baseURL: viper.GetString("identity.base_url"),
		apiKey:  viper.GetString("identity.api_key"),
		http:    &http.Client{Timeout: viper.GetDuration("identity.timeout")},
	}
}

// VerifyOTP exchanges a one-time token for a session. The provider rejects
// a replayed token, which surfaces here as ErrAuthProvider.
func (c *IdentityClient) VerifyOTP(ctx context.Context, token, otpType string) (*Session, error) {
	payload := map[string]string{
		"token": token,
		"type":  otpType,
	}

	var session Session
	if err := c.post(ctx, "/verify", "", payload, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// SetSession validates an access/refresh token pair against the provider.
// A live access token is confirmed via /user; a stale one is traded in with
// the refresh token.
func (c *IdentityClient) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	user, err := c.GetUser(ctx, accessToken)
	if err == nil {
		return &Session{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "bearer",
			User:         user,
		}, nil
	}

	payload := map[string]string{"refresh_token": refreshToken}

	var session Session
	if err := c.post(ctx, "/token?grant_type=refresh_token", "", payload, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// GetUser fetches the profile behind an access token.
func (c *IdentityClient) GetUser(ctx context.Context, accessToken string) (*IdentityUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, providerError(resp)
	}

	var user IdentityUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: decoding user: %v", ErrAuthProvider, err)
	}

	return &user, nil
}

func (c *IdentityClient) post(ctx context.Context, path, accessToken string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return providerError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// providerError carries the provider's message through opaquely.
func providerError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case body.ErrorDescription != "":
			return fmt.Errorf("%w: %s", ErrAuthProvider, body.ErrorDescription)
		case body.Msg != "":
			return fmt.Errorf("%w: %s", ErrAuthProvider, body.Msg)
		case body.Error != "":
			return fmt.Errorf("%w: %s", ErrAuthProvider, body.Error)
		}
	}

	return fmt.Errorf("%w: status %d", ErrAuthProvider, resp.StatusCode)
}
