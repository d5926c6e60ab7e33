package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

const testUserID = "user-42"

func requestWithUser(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(context.WithValue(req.Context(), "userID", testUserID))
}

func TestPreferenceService_GetLastAccount(t *testing.T) {
	t.Run("returns stored account", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectGet("pref:last_account:" + testUserID).SetVal(testAccountID)

		service := NewPreferenceService(db)
		rec := httptest.NewRecorder()
		service.GetLastAccount(rec, requestWithUser(http.MethodGet, "/api/v1/preferences/last-account", ""))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]string
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, testAccountID, resp["accountId"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing preference yields empty id", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectGet("pref:last_account:" + testUserID).RedisNil()

		service := NewPreferenceService(db)
		rec := httptest.NewRecorder()
		service.GetLastAccount(rec, requestWithUser(http.MethodGet, "/api/v1/preferences/last-account", ""))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]string
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "", resp["accountId"])
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		db, _ := redismock.NewClientMock()
		service := NewPreferenceService(db)
		rec := httptest.NewRecorder()
		service.GetLastAccount(rec, httptest.NewRequest(http.MethodGet, "/api/v1/preferences/last-account", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPreferenceService_SetLastAccount(t *testing.T) {
	t.Run("stores the account id", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectSet("pref:last_account:"+testUserID, testAccountID, 0).SetVal("OK")

		service := NewPreferenceService(db)
		rec := httptest.NewRecorder()
		service.SetLastAccount(rec, requestWithUser(http.MethodPut, "/api/v1/preferences/last-account",
			`{"accountId":"`+testAccountID+`"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a non-uuid id", func(t *testing.T) {
		db, _ := redismock.NewClientMock()
		service := NewPreferenceService(db)
		rec := httptest.NewRecorder()
		service.SetLastAccount(rec, requestWithUser(http.MethodPut, "/api/v1/preferences/last-account",
			`{"accountId":"not-a-uuid"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		db, _ := redismock.NewClientMock()
		service := NewPreferenceService(db)
		rec := httptest.NewRecorder()
		service.SetLastAccount(rec, requestWithUser(http.MethodPut, "/api/v1/preferences/last-account",
			`{"accountId":"`+testAccountID+`","extra":true}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
