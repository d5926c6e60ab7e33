package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func setArgon2TestParams() {
	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
}

func TestHashAndVerifyPasscode(t *testing.T) {
	setArgon2TestParams()

	hashed, err := hashPasscode("123456")
	assert.NoError(t, err)
	assert.NotContains(t, hashed, "123456")

	assert.True(t, verifyPasscode("123456", hashed))
	assert.False(t, verifyPasscode("654321", hashed))
	assert.False(t, verifyPasscode("123456", "garbage"))

	// Fresh salt every time, so two hashes of the same passcode differ.
	again, err := hashPasscode("123456")
	assert.NoError(t, err)
	assert.NotEqual(t, hashed, again)
}

func TestPasscodeService_SetPasscode(t *testing.T) {
	setArgon2TestParams()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewPasscodeService(db)

	t.Run("stores the hash, never the passcode", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO app_passcodes`).
			WithArgs(testUserID, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		rec := httptest.NewRecorder()
		service.SetPasscode(rec, requestWithUser(http.MethodPut, "/api/v1/passcode", `{"passcode":"123456"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a short passcode", func(t *testing.T) {
		rec := httptest.NewRecorder()
		service.SetPasscode(rec, requestWithUser(http.MethodPut, "/api/v1/passcode", `{"passcode":"123"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a non-numeric passcode", func(t *testing.T) {
		rec := httptest.NewRecorder()
		service.SetPasscode(rec, requestWithUser(http.MethodPut, "/api/v1/passcode", `{"passcode":"abc123"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPasscodeService_VerifyPasscode(t *testing.T) {
	setArgon2TestParams()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewPasscodeService(db)

	hashed, err := hashPasscode("123456")
	assert.NoError(t, err)

	t.Run("correct passcode", func(t *testing.T) {
		mock.ExpectQuery(`SELECT passcode_hash FROM app_passcodes WHERE user_id = \$1`).
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"passcode_hash"}).AddRow(hashed))

		rec := httptest.NewRecorder()
		service.VerifyPasscode(rec, requestWithUser(http.MethodPost, "/api/v1/passcode/verify", `{"passcode":"123456"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong passcode", func(t *testing.T) {
		mock.ExpectQuery(`SELECT passcode_hash FROM app_passcodes WHERE user_id = \$1`).
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"passcode_hash"}).AddRow(hashed))

		rec := httptest.NewRecorder()
		service.VerifyPasscode(rec, requestWithUser(http.MethodPost, "/api/v1/passcode/verify", `{"passcode":"654321"}`))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no passcode on file", func(t *testing.T) {
		mock.ExpectQuery(`SELECT passcode_hash FROM app_passcodes WHERE user_id = \$1`).
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"passcode_hash"}))

		rec := httptest.NewRecorder()
		service.VerifyPasscode(rec, requestWithUser(http.MethodPost, "/api/v1/passcode/verify", `{"passcode":"123456"}`))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
