// Package port declares the persistence contracts the order placement
// engine consumes. The engine receives an implementation by injection;
// it never reaches into process-wide state.
package port

import (
	"context"

	"bookstore-service/internal/models"
)

// Tx is a single open transaction against the persistence substrate.
// Every method is scoped to that transaction; locks taken through it are
// released when the transaction commits or rolls back.
type Tx interface {
	// GetUser returns the user row, or nil if no such user exists.
	GetUser(ctx context.Context, id string) (*models.User, error)

	// LockBook acquires an exclusive row lock on the book and returns the
	// row as observed under that lock, or nil if no such book exists.
	// Blocks until any competing holder commits or rolls back, bounded by
	// the store's configured lock-wait ceiling.
	LockBook(ctx context.Context, id string) (*models.Book, error)

	// InsertOrder persists the order and fills in its generated fields.
	InsertOrder(ctx context.Context, order *models.Order) error

	// InsertOrderItem persists one order line and fills in its id.
	InsertOrderItem(ctx context.Context, item *models.OrderItem) error

	// DecrementBookStock reduces the book's stock by quantity. Callers
	// must hold the book's row lock.
	DecrementBookStock(ctx context.Context, bookID string, quantity int) error

	// UpdateOrderStatus transitions the order's status.
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
}

// Store is a transaction-capable persistence handle plus the read-side
// queries the HTTP boundary serves.
type Store interface {
	// WithinTx runs fn inside one transaction: committed when fn returns
	// nil, rolled back otherwise. The error from fn is returned as-is so
	// callers can classify it.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID string) ([]models.OrderItem, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error)
	GetBookByID(ctx context.Context, id string) (*models.Book, error)
	GetBooks(ctx context.Context) ([]models.Book, error)
}
