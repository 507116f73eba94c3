// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openshelf/shop-backend/internal/models"
	"github.com/openshelf/shop-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

type CreateProductRequest struct {
	Name        string     `json:"name" validate:"required,min=2,max=255"`
	Description string     `json:"description" validate:"required,min=10"`
	SKU         string     `json:"sku" validate:"required"`
	Brand       string     `json:"brand,omitempty"`
	Category    string     `json:"category,omitempty"`
	Price       float64    `json:"price" validate:"min=0"`
	SalePrice   *float64   `json:"sale_price,omitempty" validate:"omitempty,min=0"`
	SaleEndsAt  *time.Time `json:"sale_ends_at,omitempty"`
	Stock       int        `json:"stock" validate:"min=0"`
	Images      []string   `json:"images,omitempty"`
	Tags        []string   `json:"tags,omitempty" validate:"dive,product_tag"`
	Featured    bool       `json:"featured,omitempty"`
	NewArrival  bool       `json:"new_arrival,omitempty"`
}

type UpdateProductRequest struct {
	Name        string     `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description string     `json:"description,omitempty" validate:"omitempty,min=10"`
	Brand       string     `json:"brand,omitempty"`
	Category    string     `json:"category,omitempty"`
	Price       *float64   `json:"price,omitempty" validate:"omitempty,min=0"`
	SalePrice   *float64   `json:"sale_price,omitempty" validate:"omitempty,min=0"`
	SaleEndsAt  *time.Time `json:"sale_ends_at,omitempty"`
	Images      []string   `json:"images,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	Featured    *bool      `json:"featured,omitempty"`
	NewArrival  *bool      `json:"new_arrival,omitempty"`
}

type RateProductRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review,omitempty" validate:"max=2000"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	Category        string
	PriceMin        *float64
	PriceMax        *float64
	Tags            []string
	Featured        *bool
	NewArrival      *bool
	OnSale          *bool
	IncludeInactive bool // admin listings only
}

func (s *ProductService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		SKU:         req.SKU,
		Brand:       req.Brand,
		Category:    req.Category,
		Price:       req.Price,
		SalePrice:   req.SalePrice,
		SaleEndsAt:  req.SaleEndsAt,
		Stock:       req.Stock,
		IsActive:    true,
		Featured:    req.Featured,
		NewArrival:  req.NewArrival,
		Images:      pqArray(req.Images),
		Tags:        pqArray(dedupeTags(req.Tags)),
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *ProductService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Variations.Options").Preload("Ratings").
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Brand != "" {
		updates["brand"] = req.Brand
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.SalePrice != nil {
		updates["sale_price"] = *req.SalePrice
	}
	if req.SaleEndsAt != nil {
		updates["sale_ends_at"] = *req.SaleEndsAt
	}
	if req.Images != nil {
		updates["images"] = pqArray(req.Images)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if req.NewArrival != nil {
		updates["new_arrival"] = *req.NewArrival
	}

	// Stock is deliberately absent: the inventory ledger owns that column.

	if err := s.db.Model(&product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return &product, nil
}

// DeactivateProduct takes a product off the catalog without deleting it;
// existing order snapshots keep referencing it.
func (s *ProductService) DeactivateProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Model(&product).Update("is_active", false).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate product: %w", err)
	}

	return &product, nil
}

func (s *ProductService) SearchProducts(params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{})

	if !params.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ?",
			searchTerm, searchTerm, searchTerm,
		)
	}

	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}

	if len(params.Tags) > 0 {
		query = query.Where("tags && ?", pqArray(params.Tags))
	}

	if params.Featured != nil {
		query = query.Where("featured = ?", *params.Featured)
	}
	if params.NewArrival != nil {
		query = query.Where("new_arrival = ?", *params.NewArrival)
	}

	if params.OnSale != nil && *params.OnSale {
		query = query.Where("sale_price IS NOT NULL").
			Where("sale_ends_at IS NULL OR sale_ends_at > ?", time.Now())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "price", "average_rating"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *ProductService) GetFeaturedProducts(limit int) ([]models.Product, error) {
	return s.listActive(limit, "featured = ?", true)
}

func (s *ProductService) GetNewArrivals(limit int) ([]models.Product, error) {
	return s.listActive(limit, "new_arrival = ?", true)
}

func (s *ProductService) GetSaleProducts(limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.Where("is_active = ?", true).
		Where("sale_price IS NOT NULL").
		Where("sale_ends_at IS NULL OR sale_ends_at > ?", time.Now()).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sale products: %w", err)
	}
	return products, nil
}

func (s *ProductService) listActive(limit int, cond string, args ...interface{}) ([]models.Product, error) {
	var products []models.Product
	err := s.db.Where("is_active = ?", true).
		Where(cond, args...).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

// Rate stores or overwrites the user's rating of the product and recomputes
// the aggregates inside the same transaction. averageRating/totalRatings
// are always derived from the ratings table; a reader can never observe the
// list and the aggregates disagreeing.
func (s *ProductService) Rate(productID, userID uuid.UUID, req *RateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		rating := models.Rating{
			ProductID: productID,
			UserID:    userID,
			Rating:    req.Rating,
			Review:    req.Review,
			RatedAt:   time.Now(),
		}

		// Upsert keyed on (product_id, user_id): re-rating overwrites.
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "rated_at"}),
		}).Create(&rating).Error; err != nil {
			return fmt.Errorf("failed to save rating: %w", err)
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", productID).
			UpdateColumns(map[string]interface{}{
				"average_rating": gorm.Expr("(SELECT COALESCE(AVG(rating), 0) FROM ratings WHERE product_id = ?)", productID),
				"total_ratings":  gorm.Expr("(SELECT COUNT(*) FROM ratings WHERE product_id = ?)", productID),
			}).Error; err != nil {
			return fmt.Errorf("failed to recompute rating aggregates: %w", err)
		}

		return tx.Preload("Ratings").First(&product, productID).Error
	})

	if err != nil {
		return nil, err
	}
	return &product, nil
}

// AddTags adds the given tags as a set operation: duplicates collapse and
// re-adding an existing tag is a no-op.
func (s *ProductService) AddTags(productID uuid.UUID, tags []string) (*models.Product, error) {
	for _, tag := range tags {
		if !models.IsValidProductTag(tag) {
			return nil, fmt.Errorf("unknown product tag %q", tag)
		}
	}

	var product models.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		merged := append([]string(nil), product.Tags...)
		for _, tag := range tags {
			if !containsTag(merged, tag) {
				merged = append(merged, tag)
			}
		}

		product.Tags = pqArray(merged)
		return tx.Model(&product).UpdateColumn("tags", pqArray(merged)).Error
	})

	if err != nil {
		return nil, err
	}
	return &product, nil
}

// RemoveTags removes the given tags; removing an absent tag is a no-op.
func (s *ProductService) RemoveTags(productID uuid.UUID, tags []string) (*models.Product, error) {
	var product models.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		kept := make([]string, 0, len(product.Tags))
		for _, tag := range product.Tags {
			if !containsTag(tags, tag) {
				kept = append(kept, tag)
			}
		}

		product.Tags = pqArray(kept)
		return tx.Model(&product).UpdateColumn("tags", pqArray(kept)).Error
	})

	if err != nil {
		return nil, err
	}
	return &product, nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !containsTag(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func pqArray(values []string) pq.StringArray {
	return pq.StringArray(values)
}
