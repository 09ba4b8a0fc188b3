package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookstore-service/internal/models"
	"bookstore-service/internal/port"

	"github.com/jmoiron/sqlx"
)

// Tx wraps one open sqlx transaction as a port.Tx.
type Tx struct {
	tx *sqlx.Tx
}

var _ port.Tx = (*Tx)(nil)

// GetUser returns the user row, or nil if absent.
func (t *Tx) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := t.tx.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// LockBook acquires the book's exclusive row lock (SELECT ... FOR UPDATE)
// and returns the row as observed under that lock, or nil if absent.
func (t *Tx) LockBook(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	err := t.tx.GetContext(ctx, &book, "SELECT * FROM books WHERE id = $1 FOR UPDATE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if isLockNotAvailable(err) {
		return nil, fmt.Errorf("lock book %s: %w", id, ErrLockTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("lock book %s: %w", id, err)
	}
	return &book, nil
}

// InsertOrder persists the order and fills in generated fields.
func (t *Tx) InsertOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (user_id, status, total_amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return t.tx.QueryRowxContext(ctx, query,
		order.UserID, order.Status, order.TotalAmount,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

// InsertOrderItem persists one order line and fills in its id.
func (t *Tx) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, book_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return t.tx.QueryRowxContext(ctx, query,
		item.OrderID, item.BookID, item.Quantity, item.UnitPrice,
	).Scan(&item.ID)
}

// DecrementBookStock reduces stock by quantity. The guard clause cannot
// fire while the caller holds the row lock and has checked availability;
// zero rows affected means the stock invariant was violated elsewhere.
func (t *Tx) DecrementBookStock(ctx context.Context, bookID string, quantity int) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE books
		 SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		 WHERE id = $2 AND stock_quantity >= $1`,
		quantity, bookID)
	if err != nil {
		return fmt.Errorf("decrement stock for book %s: %w", bookID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock for book %s: %w", bookID, err)
	}
	if rows == 0 {
		return fmt.Errorf("stock for book %s changed outside its row lock", bookID)
	}
	return nil
}

// UpdateOrderStatus transitions the order's status.
func (t *Tx) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return fmt.Errorf("update order %s status: %w", orderID, err)
	}
	return nil
}
