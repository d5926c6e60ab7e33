package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketfund/backend/internal/services"
	"github.com/stretchr/testify/assert"
)

// stubProvider returns canned responses; err wins when set.
type stubProvider struct {
	session *services.Session
	err     error
}

func (p *stubProvider) VerifyOTP(ctx context.Context, token, otpType string) (*services.Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

func (p *stubProvider) SetSession(ctx context.Context, accessToken, refreshToken string) (*services.Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

func (p *stubProvider) GetUser(ctx context.Context, accessToken string) (*services.IdentityUser, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.session.User, nil
}

func postCallback(handler *CallbackHandler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/callback", strings.NewReader(body))
	handler.HandleCallback(rec, req)
	return rec
}

func TestCallbackHandler_HandleCallback(t *testing.T) {
	t.Run("establishes a session from a token pair", func(t *testing.T) {
		provider := &stubProvider{session: &services.Session{
			AccessToken: "AAA",
			User: &services.IdentityUser{
				ID:           "user-1",
				UserMetadata: map[string]any{"full_name": "Ada"},
			},
		}}
		handler := NewCallbackHandler(services.NewCallbackService(provider))

		rec := postCallback(handler, `{"url":"pocketfund://auth-callback#access_token=AAA&refresh_token=BBB"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		var result services.CallbackResult
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		assert.Equal(t, services.CallbackSessionEstablished, result.State)
		assert.Equal(t, services.NavigateHome, result.Navigation)
	})

	t.Run("replayed URL answers 401 instead of crashing", func(t *testing.T) {
		provider := &stubProvider{err: fmt.Errorf("%w: refresh token already used", services.ErrAuthProvider)}
		handler := NewCallbackHandler(services.NewCallbackService(provider))

		rec := postCallback(handler, `{"url":"pocketfund://auth-callback#access_token=AAA&refresh_token=BBB"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unrelated URL is reported as ignored", func(t *testing.T) {
		handler := NewCallbackHandler(services.NewCallbackService(&stubProvider{}))

		rec := postCallback(handler, `{"url":"https://example.com/"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		var result services.CallbackResult
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		assert.Equal(t, services.CallbackIgnored, result.State)
	})

	t.Run("missing url fails validation", func(t *testing.T) {
		handler := NewCallbackHandler(services.NewCallbackService(&stubProvider{}))

		rec := postCallback(handler, `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		handler := NewCallbackHandler(services.NewCallbackService(&stubProvider{}))

		rec := postCallback(handler, `{"url":"https://example.com/","extra":1}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
