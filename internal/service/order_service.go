package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"bookstore-service/internal/models"
	"bookstore-service/internal/port"
	"bookstore-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderEventPublisher emits domain events after a placement commits.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
}

// OrderService is the order placement engine. It validates a request,
// serializes access to the books it touches through row locks, decrements
// stock and persists the order as one all-or-nothing transaction.
type OrderService struct {
	store     port.Store
	publisher OrderEventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service. The publisher may be nil,
// in which case no events are emitted.
func NewOrderService(store port.Store, publisher OrderEventPublisher) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// PlaceOrderRequest represents a request to place an order
type PlaceOrderRequest struct {
	UserID string             `json:"user_id" binding:"required"`
	Items  []OrderItemRequest `json:"items" binding:"required,min=1"`
}

// OrderItemRequest represents one requested book. Quantity is validated
// by the engine, not by binding, so a zero or negative value surfaces as
// a VALIDATION_ERROR instead of a bare bind failure.
type OrderItemRequest struct {
	BookID   string `json:"book_id" binding:"required"`
	Quantity int    `json:"quantity"`
}

// OrderSummary is the success result of a placement
type OrderSummary struct {
	Order       models.Order       `json:"order"`
	OrderItems  []models.OrderItem `json:"order_items"`
	TotalAmount int64              `json:"total_amount"`
}

// PlaceOrder places a multi-item order against shared inventory. Either
// every line commits (order DELIVERED, stock durably reduced) or the
// datastore is left untouched. On failure the returned error is always an
// *OrderPlacementError.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*OrderSummary, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderPlacementLatency.Observe(time.Since(start).Seconds())
	}()

	// Cheap local checks before any transaction or lock work.
	if err := validateRequest(req); err != nil {
		s.fail(err)
		return nil, err
	}

	items := normalizeItems(req.Items)

	var summary *OrderSummary
	err := s.store.WithinTx(ctx, func(tx port.Tx) error {
		user, err := tx.GetUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return newUserNotFoundError(req.UserID)
		}

		// Books are locked in ascending id order regardless of request
		// order, so two in-flight orders can never hold locks the other
		// one is waiting for.
		var totalAmount int64
		locked := make([]lockedItem, 0, len(items))
		for _, item := range items {
			book, err := s.lockBook(ctx, tx, item.BookID)
			if err != nil {
				return err
			}
			if book == nil {
				return newBookNotFoundError(item.BookID)
			}

			if book.StockQuantity < item.Quantity {
				return newInsufficientStockError(book.Title, book.StockQuantity, item.Quantity)
			}

			totalAmount += book.Price * int64(item.Quantity)
			locked = append(locked, lockedItem{book: book, quantity: item.Quantity})
		}

		order := &models.Order{
			UserID:      user.ID,
			Status:      models.OrderStatusProcessing,
			TotalAmount: totalAmount,
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		orderItems := make([]models.OrderItem, 0, len(locked))
		for _, li := range locked {
			orderItem := models.OrderItem{
				OrderID:   order.ID,
				BookID:    li.book.ID,
				Quantity:  li.quantity,
				UnitPrice: li.book.Price,
			}
			if err := tx.InsertOrderItem(ctx, &orderItem); err != nil {
				return err
			}
			orderItems = append(orderItems, orderItem)

			if err := tx.DecrementBookStock(ctx, li.book.ID, li.quantity); err != nil {
				return err
			}
		}

		// Fulfillment is modeled as instantaneous: the order leaves the
		// transaction already DELIVERED.
		if err := tx.UpdateOrderStatus(ctx, order.ID, models.OrderStatusDelivered); err != nil {
			return err
		}
		order.Status = models.OrderStatusDelivered

		summary = &OrderSummary{
			Order:       *order,
			OrderItems:  orderItems,
			TotalAmount: totalAmount,
		}
		return nil
	})
	if err != nil {
		placementErr := classify(err)
		s.fail(placementErr)
		s.logger.Warn("Order placement failed",
			zap.String("user_id", req.UserID),
			zap.String("code", string(placementErr.Code)),
			zap.Error(err))
		return nil, placementErr
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", summary.Order.ID),
		zap.String("user_id", summary.Order.UserID),
		zap.Int64("total_amount", summary.TotalAmount))

	s.publishOrderPlaced(ctx, summary)

	return summary, nil
}

type lockedItem struct {
	book     *models.Book
	quantity int
}

// lockBook acquires the book's row lock, timing how long the transaction
// waited on competing holders.
func (s *OrderService) lockBook(ctx context.Context, tx port.Tx, bookID string) (*models.Book, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.lockBook")
	defer span.End()

	start := time.Now()
	book, err := tx.LockBook(ctx, bookID)
	util.BookLockWaitSeconds.Observe(time.Since(start).Seconds())
	return book, err
}

// validateRequest enforces the request preconditions: non-empty items,
// positive quantities, well-formed ids.
func validateRequest(req *PlaceOrderRequest) *OrderPlacementError {
	if _, err := uuid.Parse(req.UserID); err != nil {
		return newValidationError("invalid user id: %s", req.UserID)
	}
	if len(req.Items) == 0 {
		return newValidationError("order must contain at least one item")
	}
	for _, item := range req.Items {
		if _, err := uuid.Parse(item.BookID); err != nil {
			return newValidationError("invalid book id: %s", item.BookID)
		}
		if item.Quantity <= 0 {
			return newValidationError("invalid quantity %d for book %s", item.Quantity, item.BookID)
		}
	}
	return nil
}

// normalizeItems merges duplicate book ids and sorts by book id, fixing
// the lock acquisition order for every request shape.
func normalizeItems(items []OrderItemRequest) []OrderItemRequest {
	merged := make(map[string]int, len(items))
	for _, item := range items {
		merged[item.BookID] += item.Quantity
	}

	normalized := make([]OrderItemRequest, 0, len(merged))
	for bookID, quantity := range merged {
		normalized = append(normalized, OrderItemRequest{BookID: bookID, Quantity: quantity})
	}
	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].BookID < normalized[j].BookID
	})
	return normalized
}

// classify maps an error out of the transaction to exactly one taxonomy
// kind. Anything that is not already a placement error is a transport or
// transaction failure, lock-wait timeouts included.
func classify(err error) *OrderPlacementError {
	if placementErr, ok := AsPlacementError(err); ok {
		return placementErr
	}
	return newDatabaseError(err)
}

func (s *OrderService) fail(err *OrderPlacementError) {
	reason := strings.ToLower(string(err.Code))
	util.OrdersFailedTotal.WithLabelValues(reason).Inc()
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, summary *OrderSummary) {
	if s.publisher == nil {
		return
	}

	items := make([]models.OrderItemData, 0, len(summary.OrderItems))
	for _, item := range summary.OrderItems {
		items = append(items, models.OrderItemData{
			BookID:    item.BookID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     summary.Order.ID,
		UserID:      summary.Order.UserID,
		Status:      summary.Order.Status,
		TotalAmount: summary.TotalAmount,
		Items:       items,
	}

	// Best effort: the order is already committed, a publish failure
	// must not turn a placed order into an error.
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.String("order_id", summary.Order.ID),
			zap.Error(err))
	}
}

// GetOrder retrieves an order and its items by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// GetUserOrders retrieves a user's orders, newest first
func (s *OrderService) GetUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

// GetBook retrieves a catalog entry by ID
func (s *OrderService) GetBook(ctx context.Context, bookID string) (*models.Book, error) {
	return s.store.GetBookByID(ctx, bookID)
}

// ListBooks retrieves the catalog
func (s *OrderService) ListBooks(ctx context.Context) ([]models.Book, error) {
	return s.store.GetBooks(ctx)
}
