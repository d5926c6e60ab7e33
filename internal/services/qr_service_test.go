package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/pocketfund/backend/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestQRService_GenerateTopUpQR(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	service := NewQRService(db, redisClient, &config.FundsConfig{QRRequestTTL: 15 * time.Minute})

	t.Run("generates a decodable code", func(t *testing.T) {
		dbMock.ExpectQuery(`SELECT currency FROM accounts WHERE id = \$1`).
			WithArgs(testAccountID).
			WillReturnRows(sqlmock.NewRows([]string{"currency"}).AddRow("USD"))
		redisMock.Regexp().ExpectSet(`qr:topup:.*`, `.*`, 15*time.Minute).SetVal("OK")

		code, image, err := service.GenerateTopUpQR(context.Background(), testAccountID, 5000)
		assert.NoError(t, err)
		assert.NotEmpty(t, image)

		// The code itself is the request, base64url-wrapped.
		data, err := base64.URLEncoding.DecodeString(code)
		assert.NoError(t, err)
		var request topUpRequest
		assert.NoError(t, json.Unmarshal(data, &request))
		assert.Equal(t, testAccountID, request.AccountID)
		assert.Equal(t, int64(5000), request.Amount)
		assert.Equal(t, "USD", request.Currency)
		assert.NotEmpty(t, request.Nonce)
	})

	t.Run("unknown account", func(t *testing.T) {
		dbMock.ExpectQuery(`SELECT currency FROM accounts WHERE id = \$1`).
			WithArgs(testAccountID).
			WillReturnRows(sqlmock.NewRows([]string{"currency"}))

		_, _, err := service.GenerateTopUpQR(context.Background(), testAccountID, 5000)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestQRService_ProcessTopUpQR(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	service := NewQRService(db, redisClient, &config.FundsConfig{QRRequestTTL: 15 * time.Minute})

	t.Run("consumes the request once", func(t *testing.T) {
		payload, _ := json.Marshal(topUpRequest{AccountID: testAccountID, Amount: 5000, Currency: "USD"})
		code := base64.URLEncoding.EncodeToString(payload)

		redisMock.ExpectGet("qr:topup:" + code).SetVal(string(payload))
		redisMock.ExpectDel("qr:topup:" + code).SetVal(1)

		result, err := service.ProcessTopUpQR(context.Background(), code)
		assert.NoError(t, err)
		assert.Equal(t, testAccountID, result["accountId"])
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("expired or unknown code", func(t *testing.T) {
		redisMock.ExpectGet("qr:topup:gone").RedisNil()

		_, err := service.ProcessTopUpQR(context.Background(), "gone")
		assert.Error(t, err)
	})
}
