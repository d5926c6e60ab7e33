package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCategoryService_CreateCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)

	t.Run("creates a category", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO categories`).
			WithArgs(sqlmock.AnyArg(), testUserID, "Groceries", "🛒", "#34d399", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		rec := httptest.NewRecorder()
		service.CreateCategory(rec, requestWithUser(http.MethodPost, "/api/v1/categories",
			`{"name":"Groceries","emoji":"🛒","color":"#34d399"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a bad color", func(t *testing.T) {
		rec := httptest.NewRecorder()
		service.CreateCategory(rec, requestWithUser(http.MethodPost, "/api/v1/categories",
			`{"name":"Groceries","color":"green"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		rec := httptest.NewRecorder()
		service.CreateCategory(rec, requestWithUser(http.MethodPost, "/api/v1/categories", `{"name":""}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCategoryService_UpdateCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)

	t.Run("updates display fields", func(t *testing.T) {
		mock.ExpectExec(`UPDATE categories SET name = \$1, emoji = \$2, color = \$3`).
			WithArgs("Food", "🍜", "#f59e0b", sqlmock.AnyArg(), testCategoryID, testUserID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rec := httptest.NewRecorder()
		req := withURLParam(requestWithUser(http.MethodPut, "/api/v1/categories/"+testCategoryID,
			`{"name":"Food","emoji":"🍜","color":"#f59e0b"}`), "categoryId", testCategoryID)
		service.UpdateCategory(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("someone else's category looks missing", func(t *testing.T) {
		mock.ExpectExec(`UPDATE categories SET name = \$1, emoji = \$2, color = \$3`).
			WithArgs("Food", "", "", sqlmock.AnyArg(), testCategoryID, testUserID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rec := httptest.NewRecorder()
		req := withURLParam(requestWithUser(http.MethodPut, "/api/v1/categories/"+testCategoryID,
			`{"name":"Food"}`), "categoryId", testCategoryID)
		service.UpdateCategory(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCategoryService_DeleteCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)

	mock.ExpectExec(`DELETE FROM categories WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(testCategoryID, testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	req := withURLParam(requestWithUser(http.MethodDelete, "/api/v1/categories/"+testCategoryID, ""),
		"categoryId", testCategoryID)
	service.DeleteCategory(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
