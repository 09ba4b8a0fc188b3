package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bookstore-service/internal/models"
	"bookstore-service/internal/port"

	"github.com/google/uuid"
)

// fakeStore is an in-memory port.Store. Transactions take a single mutex
// for their whole lifetime, which gives the same serializable behavior a
// row-locked database provides for transactions touching the same rows,
// and rollback discards all staged writes.
type fakeStore struct {
	mu         sync.Mutex
	users      map[string]models.User
	books      map[string]models.Book
	orders     map[string]models.Order
	orderItems map[string][]models.OrderItem

	// recorded across transactions, guarded by mu
	lockSeq []string
	txCount int

	beginErr   error
	commitErr  error
	lockErr    error
	insertErrs map[string]error // keyed by book title, fails InsertOrderItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[string]models.User),
		books:      make(map[string]models.Book),
		orders:     make(map[string]models.Order),
		orderItems: make(map[string][]models.OrderItem),
	}
}

func (f *fakeStore) addUser(name string) string {
	id := uuid.New().String()
	f.users[id] = models.User{ID: id, Email: name + "@example.com", Name: name, CreatedAt: time.Now()}
	return id
}

func (f *fakeStore) addBook(title string, price int64, stock int) string {
	id := uuid.New().String()
	f.books[id] = models.Book{ID: id, Title: title, Author: "Test Author", Price: price, StockQuantity: stock}
	return id
}

func (f *fakeStore) stockOf(bookID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.books[bookID].StockQuantity
}

func (f *fakeStore) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(tx port.Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.beginErr != nil {
		return fmt.Errorf("begin tx: %w", f.beginErr)
	}
	f.txCount++

	snapBooks := make(map[string]models.Book, len(f.books))
	for k, v := range f.books {
		snapBooks[k] = v
	}
	snapOrders := make(map[string]models.Order, len(f.orders))
	for k, v := range f.orders {
		snapOrders[k] = v
	}
	snapItems := make(map[string][]models.OrderItem, len(f.orderItems))
	for k, v := range f.orderItems {
		snapItems[k] = append([]models.OrderItem(nil), v...)
	}

	rollback := func() {
		f.books = snapBooks
		f.orders = snapOrders
		f.orderItems = snapItems
	}

	if err := fn(&fakeTx{store: f}); err != nil {
		rollback()
		return err
	}

	if f.commitErr != nil {
		rollback()
		return fmt.Errorf("commit tx: %w", f.commitErr)
	}
	return nil
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, ok := t.store.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (t *fakeTx) LockBook(ctx context.Context, id string) (*models.Book, error) {
	if t.store.lockErr != nil {
		return nil, t.store.lockErr
	}
	t.store.lockSeq = append(t.store.lockSeq, id)
	book, ok := t.store.books[id]
	if !ok {
		return nil, nil
	}
	return &book, nil
}

func (t *fakeTx) InsertOrder(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New().String()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	t.store.orders[order.ID] = *order
	return nil
}

func (t *fakeTx) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	if book, ok := t.store.books[item.BookID]; ok {
		if err := t.store.insertErrs[book.Title]; err != nil {
			return err
		}
	}
	item.ID = uuid.New().String()
	t.store.orderItems[item.OrderID] = append(t.store.orderItems[item.OrderID], *item)
	return nil
}

func (t *fakeTx) DecrementBookStock(ctx context.Context, bookID string, quantity int) error {
	book, ok := t.store.books[bookID]
	if !ok {
		return fmt.Errorf("book not found: %s", bookID)
	}
	if book.StockQuantity < quantity {
		return errors.New("stock underflow")
	}
	book.StockQuantity -= quantity
	t.store.books[bookID] = book
	return nil
}

func (t *fakeTx) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	order, ok := t.store.orders[orderID]
	if !ok {
		return fmt.Errorf("order not found: %s", orderID)
	}
	order.Status = status
	t.store.orders[orderID] = order
	return nil
}

func (f *fakeStore) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order not found: %s", id)
	}
	return &order, nil
}

func (f *fakeStore) GetOrderItemsByOrderID(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OrderItem(nil), f.orderItems[orderID]...), nil
}

func (f *fakeStore) GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []models.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (f *fakeStore) GetBookByID(ctx context.Context, id string) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	book, ok := f.books[id]
	if !ok {
		return nil, fmt.Errorf("book not found: %s", id)
	}
	return &book, nil
}

func (f *fakeStore) GetBooks(ctx context.Context) ([]models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	books := make([]models.Book, 0, len(f.books))
	for _, book := range f.books {
		books = append(books, book)
	}
	return books, nil
}

// fakePublisher captures published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []*models.OrderPlacedEvent
	err    error
}

func (p *fakePublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}
