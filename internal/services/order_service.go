// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openshelf/shop-backend/internal/models"
	"github.com/openshelf/shop-backend/internal/utils"
)

type OrderService struct {
	db        *gorm.DB
	inventory *InventoryService
	pricing   *PricingEngine
}

func NewOrderService(db *gorm.DB, inventory *InventoryService, pricing *PricingEngine) *OrderService {
	return &OrderService{
		db:        db,
		inventory: inventory,
		pricing:   pricing,
	}
}

type CartItem struct {
	ProductID uuid.UUID `json:"product" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	// The empty-cart case is the orchestrator's own failure mode, not a
	// validation failure, so the slice itself carries no required tag.
	Items           []CartItem             `json:"order_items" validate:"dive"`
	ShippingAddress map[string]interface{} `json:"shipping_address" validate:"required"`
	PaymentMethod   string                 `json:"payment_method" validate:"required"`
}

type OrderSearchParams struct {
	utils.PaginationParams
	UserID *uuid.UUID
	Status *models.OrderStatus
}

// Legal lifecycle edges out of the non-terminal states; cancellation is
// reachable from every one of them.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusCancelled},
}

func canTransition(from, to models.OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateOrder turns a cart into a persisted order, all or nothing. Each
// line item is reserved in caller order; on any failure — mid-cart
// reservation, persistence, or a cancelled context — every reservation
// already taken is released before the error surfaces. Stock tracks
// committed orders only.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	var reserved []*StockReservation

	// Compensation runs on a background context: an aborted request must
	// not strand decremented stock.
	rollback := func() {
		for _, r := range reserved {
			if err := s.inventory.Release(context.Background(), r.ProductID, r.Quantity); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"product_id": r.ProductID,
					"quantity":   r.Quantity,
				}).Error("Failed to release reserved stock")
			}
		}
	}

	for _, item := range req.Items {
		reservation, err := s.inventory.Reserve(ctx, item.ProductID, item.Quantity)
		if err != nil {
			rollback()
			return nil, err
		}
		reserved = append(reserved, reservation)
	}

	now := time.Now()
	var itemsPrice float64
	orderItems := make([]models.OrderItem, 0, len(reserved))

	for _, r := range reserved {
		unitPrice := s.pricing.EffectivePrice(&r.Product, now)
		itemsPrice += unitPrice * float64(r.Quantity)

		orderItems = append(orderItems, models.OrderItem{
			ProductID: r.ProductID,
			Name:      r.Product.Name,
			Image:     r.Product.PrimaryImage(),
			Price:     unitPrice,
			Quantity:  r.Quantity,
		})
	}

	itemsPrice = roundMoney(itemsPrice)
	taxPrice, shippingPrice, totalPrice := s.pricing.Totals(itemsPrice)

	order := &models.Order{
		UserID:          userID,
		Status:          models.OrderStatusPending,
		Items:           orderItems,
		ShippingAddress: models.JSONB(req.ShippingAddress),
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      itemsPrice,
		TaxPrice:        taxPrice,
		ShippingPrice:   shippingPrice,
		TotalPrice:      totalPrice,
		IsPaid:          false,
		IsDelivered:     false,
	}

	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		rollback()
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	return order, nil
}

// GetOrder returns the order if the requester owns it or is an admin.
func (s *OrderService) GetOrder(orderID, requesterID uuid.UUID, isAdmin bool) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").Preload("User").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.UserID != requesterID && !isAdmin {
		return nil, ErrNotOrderOwner
	}

	return &order, nil
}

// SearchOrders lists orders newest first, optionally scoped to one user
// and/or one status.
func (s *OrderService) SearchOrders(params OrderSearchParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Preload("Items")

	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "status", "total_price"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// UpdateStatus moves an order along the lifecycle graph. The write is
// conditional on the status it validated against, so two concurrent
// updates cannot both apply; the loser gets ErrConcurrentConflict instead
// of a retry (retrying is the caller's decision).
func (s *OrderService) UpdateStatus(orderID uuid.UUID, newStatus models.OrderStatus) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !canTransition(order.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_at": time.Now(),
	}
	if newStatus == models.OrderStatusDelivered {
		updates["is_delivered"] = true
		updates["delivered_at"] = time.Now()
	}

	res := s.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, order.Status).
		UpdateColumns(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrConcurrentConflict
	}

	if err := s.db.Preload("Items").First(&order, orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return &order, nil
}

// RecordPayment marks the order paid and stores the opaque payment result.
// Payment is independent of the status graph and touches only the payment
// columns, so it cannot clobber a concurrent status update.
func (s *OrderService) RecordPayment(orderID uuid.UUID, paymentResult map[string]interface{}) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	res := s.db.Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumns(map[string]interface{}{
			"is_paid":        true,
			"paid_at":        time.Now(),
			"payment_result": models.JSONB(paymentResult),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to record payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrOrderNotFound
	}

	if err := s.db.Preload("Items").First(&order, orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return &order, nil
}
