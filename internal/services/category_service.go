package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pocketfund/backend/internal/models"
)

type CategoryService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewCategoryService(db *sql.DB) *CategoryService {
	return &CategoryService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// CreateCategory creates a budget category
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,emoji=string,color=string} true "Category creation request"
// @Success 200 {object} models.Category
// @Failure 400 {object} ErrorResponse
// @Router /categories [post]
func (s *CategoryService) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Name  string `json:"name" validate:"required,min=1,max=40"`
		Emoji string `json:"emoji" validate:"max=8"`
		Color string `json:"color" validate:"omitempty,hexcolor"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	now := time.Now()
	category := models.Category{
		ID:        uuid.NewString(),
		OwnerID:   userID,
		Name:      req.Name,
		Emoji:     req.Emoji,
		Color:     req.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(`
		INSERT INTO categories (id, owner_id, name, emoji, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		category.ID, category.OwnerID, category.Name, category.Emoji, category.Color, now, now)
	if err != nil {
		log.Printf("[CATEGORIES] Create failed for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to create category", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(category)
}

// ListCategories returns the user's categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *CategoryService) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, owner_id, name, emoji, color, created_at, updated_at
		FROM categories
		WHERE owner_id = $1
		ORDER BY name`, userID)
	if err != nil {
		SendErrorResponse(w, "Failed to fetch categories", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Emoji, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch categories", http.StatusInternalServerError, nil)
			return
		}
		categories = append(categories, c)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"categories": categories,
	})
}

// UpdateCategory updates category display fields
// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param categoryId path string true "Category ID"
// @Param request body object{name=string,emoji=string,color=string} true "Category update"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} ErrorResponse
// @Router /categories/{categoryId} [put]
func (s *CategoryService) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	categoryID := chi.URLParam(r, "categoryId")

	var req struct {
		Name  string `json:"name" validate:"required,min=1,max=40"`
		Emoji string `json:"emoji" validate:"max=8"`
		Color string `json:"color" validate:"omitempty,hexcolor"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := s.db.Exec(`
		UPDATE categories SET name = $1, emoji = $2, color = $3, updated_at = $4
		WHERE id = $5 AND owner_id = $6`,
		req.Name, req.Emoji, req.Color, time.Now(), categoryID, userID)
	if err != nil {
		SendErrorResponse(w, "Failed to update category", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// DeleteCategory removes a category; its reservations cascade
// @Summary Delete category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param categoryId path string true "Category ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} ErrorResponse
// @Router /categories/{categoryId} [delete]
func (s *CategoryService) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	categoryID := chi.URLParam(r, "categoryId")

	result, err := s.db.Exec(`DELETE FROM categories WHERE id = $1 AND owner_id = $2`, categoryID, userID)
	if err != nil {
		log.Printf("[CATEGORIES] Delete failed for %s: %v", categoryID, err)
		SendErrorResponse(w, "Failed to delete category", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}
