// internal/services/product_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openshelf/shop-backend/internal/models"
	"github.com/openshelf/shop-backend/internal/utils"
)

type ProductServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *ProductService
}

func (s *ProductServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.svc = NewProductService(s.db)
}

func (s *ProductServiceTestSuite) TestCreateProduct() {
	product, err := s.svc.CreateProduct(&CreateProductRequest{
		Name:        "Desk Lamp",
		Description: "A small adjustable desk lamp.",
		SKU:         "LAMP-001",
		Price:       29.99,
		Stock:       10,
		Tags:        []string{models.TagFeatured, models.TagFeatured, models.TagPremium},
	})
	s.Require().NoError(err)

	s.NotEqual(uuid.Nil, product.ID)
	s.True(product.IsActive)
	s.Equal(10, product.Stock)
	// Duplicate tags collapse on write.
	s.ElementsMatch([]string{models.TagFeatured, models.TagPremium}, []string(product.Tags))
}

func (s *ProductServiceTestSuite) TestCreateProductRejectsUnknownTag() {
	_, err := s.svc.CreateProduct(&CreateProductRequest{
		Name:        "Desk Lamp",
		Description: "A small adjustable desk lamp.",
		SKU:         "LAMP-002",
		Price:       29.99,
		Tags:        []string{"no-such-tag"},
	})
	s.Error(err)
}

func (s *ProductServiceTestSuite) TestGetProductUnknown() {
	_, err := s.svc.GetProduct(uuid.New())
	s.ErrorIs(err, ErrProductNotFound)
}

func (s *ProductServiceTestSuite) TestUpdateProductLeavesStockAlone() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 30, 10)

	newPrice := 25.0
	updated, err := s.svc.UpdateProduct(product.ID, &UpdateProductRequest{
		Name:  "Desk Lamp v2",
		Price: &newPrice,
	})
	s.Require().NoError(err)
	s.Equal("Desk Lamp v2", updated.Name)

	var reloaded models.Product
	s.Require().NoError(s.db.First(&reloaded, product.ID).Error)
	s.Equal(25.0, reloaded.Price)
	s.Equal(10, reloaded.Stock)
}

func (s *ProductServiceTestSuite) TestDeactivateHidesFromListings() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 30, 10)

	_, err := s.svc.DeactivateProduct(product.ID)
	s.Require().NoError(err)

	// Direct fetch still works so order history can resolve snapshots.
	fetched, err := s.svc.GetProduct(product.ID)
	s.Require().NoError(err)
	s.False(fetched.IsActive)

	_, total, err := s.svc.SearchProducts(ProductSearchParams{})
	s.Require().NoError(err)
	s.Zero(total)

	_, total, err = s.svc.SearchProducts(ProductSearchParams{IncludeInactive: true})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
}

func (s *ProductServiceTestSuite) TestSearchProductsFilters() {
	cheap := createTestProduct(s.T(), s.db, "Pen", 1.5, 50)
	createTestProduct(s.T(), s.db, "Keyboard", 50, 5)

	min := 10.0
	_, total, err := s.svc.SearchProducts(ProductSearchParams{PriceMin: &min})
	s.Require().NoError(err)
	s.Equal(int64(1), total)

	params := ProductSearchParams{}
	params.Search = "pen"
	results, total, err := s.svc.SearchProducts(params)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(results, 1)
	s.Equal(cheap.ID, results[0].ID)
}

func (s *ProductServiceTestSuite) TestRateAggregatesAcrossUsers() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 30, 10)
	alice := createTestUser(s.T(), s.db, "alice")
	bob := createTestUser(s.T(), s.db, "bob")

	_, err := s.svc.Rate(product.ID, alice.ID, &RateProductRequest{Rating: 2})
	s.Require().NoError(err)

	rated, err := s.svc.Rate(product.ID, bob.ID, &RateProductRequest{Rating: 4, Review: "Decent lamp."})
	s.Require().NoError(err)

	s.Equal(3.0, rated.AverageRating)
	s.Equal(int64(2), rated.TotalRatings)
	s.Len(rated.Ratings, 2)
}

func (s *ProductServiceTestSuite) TestReRatingOverwrites() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 30, 10)
	alice := createTestUser(s.T(), s.db, "alice")
	bob := createTestUser(s.T(), s.db, "bob")

	_, err := s.svc.Rate(product.ID, alice.ID, &RateProductRequest{Rating: 2})
	s.Require().NoError(err)
	_, err = s.svc.Rate(product.ID, bob.ID, &RateProductRequest{Rating: 4})
	s.Require().NoError(err)

	rated, err := s.svc.Rate(product.ID, alice.ID, &RateProductRequest{Rating: 3})
	s.Require().NoError(err)

	// Count stays at one row per user; only the value moved.
	s.Equal(3.5, rated.AverageRating)
	s.Equal(int64(2), rated.TotalRatings)
}

func (s *ProductServiceTestSuite) TestRateUnknownProduct() {
	alice := createTestUser(s.T(), s.db, "alice")

	_, err := s.svc.Rate(uuid.New(), alice.ID, &RateProductRequest{Rating: 5})
	s.ErrorIs(err, ErrProductNotFound)
}

func (s *ProductServiceTestSuite) TestRateRejectsOutOfRange() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 30, 10)
	alice := createTestUser(s.T(), s.db, "alice")

	_, err := s.svc.Rate(product.ID, alice.ID, &RateProductRequest{Rating: 6})
	s.Error(err)

	_, err = s.svc.Rate(product.ID, alice.ID, &RateProductRequest{Rating: 0})
	s.Error(err)
}

func (s *ProductServiceTestSuite) TestAddTagsIsIdempotent() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 30, 10)

	updated, err := s.svc.AddTags(product.ID, []string{models.TagSale, models.TagTrending})
	s.Require().NoError(err)
	s.ElementsMatch([]string{models.TagSale, models.TagTrending}, []string(updated.Tags))

	updated, err = s.svc.AddTags(product.ID, []string{models.TagSale})
	s.Require().NoError(err)
	s.ElementsMatch([]string{models.TagSale, models.TagTrending}, []string(updated.Tags))
}

func (s *ProductServiceTestSuite) TestAddTagsRejectsUnknownTag() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 30, 10)

	_, err := s.svc.AddTags(product.ID, []string{"no-such-tag"})
	s.Error(err)
}

func (s *ProductServiceTestSuite) TestRemoveTags() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 30, 10)

	_, err := s.svc.AddTags(product.ID, []string{models.TagSale, models.TagTrending})
	s.Require().NoError(err)

	updated, err := s.svc.RemoveTags(product.ID, []string{models.TagSale, models.TagPremium})
	s.Require().NoError(err)
	s.ElementsMatch([]string{models.TagTrending}, []string(updated.Tags))
}

func (s *ProductServiceTestSuite) TestListingShortcuts() {
	featured := createTestProduct(s.T(), s.db, "Desk Lamp", 30, 10)
	s.Require().NoError(s.db.Model(featured).Update("featured", true).Error)

	arrival := createTestProduct(s.T(), s.db, "Mug", 8.5, 4)
	s.Require().NoError(s.db.Model(arrival).Update("new_arrival", true).Error)

	sale := createTestProduct(s.T(), s.db, "Poster", 35, 5)
	s.Require().NoError(s.db.Model(sale).Update("sale_price", 20.0).Error)

	got, err := s.svc.GetFeaturedProducts(8)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(featured.ID, got[0].ID)

	got, err = s.svc.GetNewArrivals(8)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(arrival.ID, got[0].ID)

	got, err = s.svc.GetSaleProducts(8)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(sale.ID, got[0].ID)
}

func (s *ProductServiceTestSuite) TestSearchProductsPagination() {
	for i := 0; i < 5; i++ {
		createTestProduct(s.T(), s.db, "Widget", 10, 1)
	}

	params := ProductSearchParams{PaginationParams: utils.PaginationParams{Page: 2, Limit: 2}}
	results, total, err := s.svc.SearchProducts(params)
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Len(results, 2)
}

func TestProductServiceSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}
