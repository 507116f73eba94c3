// internal/services/inventory_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openshelf/shop-backend/internal/models"
)

// InventoryService is the stock ledger. Reservations are a single
// conditional UPDATE ("decrement iff enough stock"), so two concurrent
// requests for the last unit can never both succeed; reading the counter
// and comparing in application code is exactly the race this exists to
// prevent.
type InventoryService struct {
	db *gorm.DB
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

// StockReservation is the result of a successful reserve: the quantity now
// held plus a row snapshot taken while the decrement's row lock was held.
// Order line items are built from this snapshot, never from a re-read of
// the live product.
type StockReservation struct {
	ProductID uuid.UUID
	Quantity  int
	Product   models.Product
}

// Reserve atomically takes quantity units of the product's stock. It fails
// with ErrProductNotFound, ErrProductInactive or ErrInsufficientStock
// without mutating anything.
func (s *InventoryService) Reserve(ctx context.Context, productID uuid.UUID, quantity int) (*StockReservation, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	reservation := &StockReservation{ProductID: productID, Quantity: quantity}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).
			Where("id = ? AND is_active = ? AND stock >= ?", productID, true, quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
		if res.Error != nil {
			return fmt.Errorf("failed to reserve stock: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return s.classifyReserveFailure(tx, productID)
		}

		// Snapshot the row while the update's lock is still held.
		if err := tx.First(&reservation.Product, productID).Error; err != nil {
			return fmt.Errorf("failed to snapshot product: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// classifyReserveFailure turns the zero-rows case into the precise reason.
func (s *InventoryService) classifyReserveFailure(tx *gorm.DB, productID uuid.UUID) error {
	var product models.Product
	if err := tx.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}
	if !product.IsActive {
		return ErrProductInactive
	}
	return ErrInsufficientStock
}

// Release returns quantity units to the product's stock. Used only to
// compensate a reservation whose order did not commit; callers must not
// release the same reservation twice.
func (s *InventoryService) Release(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to release stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		logrus.WithField("product_id", productID).Warn("Released stock for missing product")
		return ErrProductNotFound
	}
	return nil
}

// ReserveOption follows the Reserve contract scoped to a variation
// option's own counter. Option stock and the parent product's stock are
// independent; this never touches the product-level counter.
func (s *InventoryService) ReserveOption(ctx context.Context, productID, optionID uuid.UUID, quantity int) (*models.VariationOption, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var option models.VariationOption

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}
		if !product.IsActive {
			return ErrProductInactive
		}

		res := tx.Model(&models.VariationOption{}).
			Where("id = ? AND stock >= ?", optionID, quantity).
			Where("variation_id IN (?)",
				tx.Model(&models.Variation{}).Select("id").Where("product_id = ?", productID)).
			UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
		if res.Error != nil {
			return fmt.Errorf("failed to reserve option stock: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.VariationOption{}).
				Joins("JOIN variations ON variations.id = variation_options.variation_id").
				Where("variation_options.id = ? AND variations.product_id = ?", optionID, productID).
				Count(&count).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			if count == 0 {
				return ErrVariationNotFound
			}
			return ErrInsufficientStock
		}

		return tx.First(&option, optionID).Error
	})

	if err != nil {
		return nil, err
	}
	return &option, nil
}

// ReleaseOption compensates a ReserveOption.
func (s *InventoryService) ReleaseOption(ctx context.Context, optionID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	res := s.db.WithContext(ctx).Model(&models.VariationOption{}).
		Where("id = ?", optionID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to release option stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVariationNotFound
	}
	return nil
}
