package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookstore-service/internal/models"
)

// GetBookByID retrieves a book by ID
func (s *Store) GetBookByID(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	err := s.db.GetContext(ctx, &book, "SELECT * FROM books WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBooks retrieves the full catalog
func (s *Store) GetBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	err := s.db.SelectContext(ctx, &books, "SELECT * FROM books ORDER BY created_at DESC")
	return books, err
}

// CreateBook inserts a catalog entry, used by seeding.
func (s *Store) CreateBook(ctx context.Context, book *models.Book) error {
	query := `
		INSERT INTO books (title, author, price, stock_quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		book.Title, book.Author, book.Price, book.StockQuantity,
	).Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt)
}

// CreateUser inserts a user, used by seeding. Existing emails are left
// untouched so seeding stays idempotent.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, name)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET name = users.name
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		user.Email, user.Name,
	).Scan(&user.ID, &user.CreatedAt)
}
