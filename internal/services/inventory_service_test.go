// internal/services/inventory_service_test.go
package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openshelf/shop-backend/internal/models"
)

type InventoryServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *InventoryService
}

func (s *InventoryServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.svc = NewInventoryService(s.db)
}

func (s *InventoryServiceTestSuite) productStock(id uuid.UUID) int {
	var product models.Product
	s.Require().NoError(s.db.First(&product, id).Error)
	return product.Stock
}

func (s *InventoryServiceTestSuite) TestReserveDecrementsStock() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 29.99, 10)

	reservation, err := s.svc.Reserve(context.Background(), product.ID, 3)
	s.Require().NoError(err)

	s.Equal(product.ID, reservation.ProductID)
	s.Equal(3, reservation.Quantity)
	s.Equal("Desk Lamp", reservation.Product.Name)
	s.Equal(29.99, reservation.Product.Price)
	s.Equal(7, reservation.Product.Stock)
	s.Equal(7, s.productStock(product.ID))
}

func (s *InventoryServiceTestSuite) TestReserveUnknownProduct() {
	_, err := s.svc.Reserve(context.Background(), uuid.New(), 1)
	s.ErrorIs(err, ErrProductNotFound)
}

func (s *InventoryServiceTestSuite) TestReserveInactiveProduct() {
	product := createTestProduct(s.T(), s.db, "Retired Chair", 120, 5)
	s.Require().NoError(s.db.Model(product).Update("is_active", false).Error)

	_, err := s.svc.Reserve(context.Background(), product.ID, 1)
	s.ErrorIs(err, ErrProductInactive)
	s.Equal(5, s.productStock(product.ID))
}

func (s *InventoryServiceTestSuite) TestReserveInsufficientStock() {
	product := createTestProduct(s.T(), s.db, "Notebook", 4.5, 2)

	_, err := s.svc.Reserve(context.Background(), product.ID, 3)
	s.ErrorIs(err, ErrInsufficientStock)
	s.Equal(2, s.productStock(product.ID))
}

func (s *InventoryServiceTestSuite) TestReserveInvalidQuantity() {
	product := createTestProduct(s.T(), s.db, "Pen", 1.5, 10)

	_, err := s.svc.Reserve(context.Background(), product.ID, 0)
	s.ErrorIs(err, ErrInvalidQuantity)

	_, err = s.svc.Reserve(context.Background(), product.ID, -2)
	s.ErrorIs(err, ErrInvalidQuantity)
}

func (s *InventoryServiceTestSuite) TestReleaseRestoresStock() {
	product := createTestProduct(s.T(), s.db, "Mug", 8, 10)

	_, err := s.svc.Reserve(context.Background(), product.ID, 4)
	s.Require().NoError(err)
	s.Equal(6, s.productStock(product.ID))

	s.Require().NoError(s.svc.Release(context.Background(), product.ID, 4))
	s.Equal(10, s.productStock(product.ID))
}

func (s *InventoryServiceTestSuite) TestReleaseUnknownProduct() {
	err := s.svc.Release(context.Background(), uuid.New(), 1)
	s.ErrorIs(err, ErrProductNotFound)
}

func (s *InventoryServiceTestSuite) TestConcurrentReservesNeverOversell() {
	const stock = 5
	const attempts = 8

	product := createTestProduct(s.T(), s.db, "Limited Print", 250, stock)

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.svc.Reserve(context.Background(), product.ID, 1)
		}(i)
	}
	wg.Wait()

	var succeeded, failed int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, ErrInsufficientStock)
			failed++
		}
	}

	s.Equal(stock, succeeded)
	s.Equal(attempts-stock, failed)
	s.Equal(0, s.productStock(product.ID))
}

func (s *InventoryServiceTestSuite) createVariation(productID uuid.UUID, value string, stock int) *models.VariationOption {
	variation := &models.Variation{ProductID: productID, Name: "size"}
	s.Require().NoError(s.db.Create(variation).Error)

	option := &models.VariationOption{VariationID: variation.ID, Value: value, Stock: stock}
	s.Require().NoError(s.db.Create(option).Error)
	return option
}

func (s *InventoryServiceTestSuite) optionStock(id uuid.UUID) int {
	var option models.VariationOption
	s.Require().NoError(s.db.First(&option, id).Error)
	return option.Stock
}

func (s *InventoryServiceTestSuite) TestReserveOptionLeavesProductStockAlone() {
	product := createTestProduct(s.T(), s.db, "T-Shirt", 15, 100)
	option := s.createVariation(product.ID, "L", 10)

	reserved, err := s.svc.ReserveOption(context.Background(), product.ID, option.ID, 3)
	s.Require().NoError(err)

	s.Equal(7, reserved.Stock)
	s.Equal(7, s.optionStock(option.ID))
	s.Equal(100, s.productStock(product.ID))
}

func (s *InventoryServiceTestSuite) TestReserveOptionWrongProduct() {
	productA := createTestProduct(s.T(), s.db, "T-Shirt", 15, 100)
	productB := createTestProduct(s.T(), s.db, "Hoodie", 40, 100)
	option := s.createVariation(productA.ID, "M", 10)

	_, err := s.svc.ReserveOption(context.Background(), productB.ID, option.ID, 1)
	s.ErrorIs(err, ErrVariationNotFound)
	s.Equal(10, s.optionStock(option.ID))
}

func (s *InventoryServiceTestSuite) TestReserveOptionInsufficientStock() {
	product := createTestProduct(s.T(), s.db, "T-Shirt", 15, 100)
	option := s.createVariation(product.ID, "S", 1)

	_, err := s.svc.ReserveOption(context.Background(), product.ID, option.ID, 2)
	s.ErrorIs(err, ErrInsufficientStock)
	s.Equal(1, s.optionStock(option.ID))
}

func (s *InventoryServiceTestSuite) TestReleaseOptionRestoresStock() {
	product := createTestProduct(s.T(), s.db, "T-Shirt", 15, 100)
	option := s.createVariation(product.ID, "XL", 5)

	_, err := s.svc.ReserveOption(context.Background(), product.ID, option.ID, 2)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.ReleaseOption(context.Background(), option.ID, 2))
	s.Equal(5, s.optionStock(option.ID))
}

func TestInventoryServiceSuite(t *testing.T) {
	suite.Run(t, new(InventoryServiceTestSuite))
}
