package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxCategoryNameLength bounds category names.
const MaxCategoryNameLength = 100

// Validation errors for Category
var (
	ErrEmptyCategoryID      = validationError("category ID cannot be empty")
	ErrEmptyCategoryName    = validationError("category name cannot be empty")
	ErrCategoryNameTooLong  = validationError("category name must be at most 100 characters long")
	ErrEmptyCategoryOwnerID = validationError("category user ID cannot be empty")
)

// Category groups a user's tasks. Names are unique per owner.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Color       *string   `json:"color,omitempty"`
	UserID      uuid.UUID `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCategory creates a new Category owned by userID.
func NewCategory(name string, description, color *string, userID uuid.UUID) (*Category, error) {
	now := time.Now().UTC()
	c := &Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Color:       color,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the Category has valid data.
func (c *Category) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCategoryID
	}
	if c.Name == "" {
		return ErrEmptyCategoryName
	}
	if len(c.Name) > MaxCategoryNameLength {
		return ErrCategoryNameTooLong
	}
	if c.UserID == uuid.Nil {
		return ErrEmptyCategoryOwnerID
	}
	return nil
}

// CategoryPatch carries a partial update. Nil fields are left unchanged.
type CategoryPatch struct {
	Name        *string
	Description *string
	Color       *string
}

// Apply copies the set fields onto the category and re-validates.
func (c *Category) Apply(p CategoryPatch) error {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		c.Description = p.Description
	}
	if p.Color != nil {
		c.Color = p.Color
	}
	c.UpdatedAt = time.Now().UTC()
	return c.Validate()
}
