// internal/services/pricing.go
package services

import (
	"math"
	"time"

	"github.com/openshelf/shop-backend/internal/config"
	"github.com/openshelf/shop-backend/internal/models"
)

// PricingEngine resolves effective unit prices and order totals. Price
// resolution is a pure function of a product snapshot and the evaluation
// time; tax and shipping come from the configured policy (zero by default).
type PricingEngine struct {
	policy config.PricingConfig
}

func NewPricingEngine(policy config.PricingConfig) *PricingEngine {
	return &PricingEngine{policy: policy}
}

// OnSale reports whether the sale price applies at the given time. A sale
// with no end date is open-ended; an end date in the past disables it.
func OnSale(p *models.Product, now time.Time) bool {
	if p.SalePrice == nil {
		return false
	}
	if p.SaleEndsAt != nil && !p.SaleEndsAt.After(now) {
		return false
	}
	return true
}

// EffectivePrice returns the sale price while a sale window is active,
// otherwise the list price.
func (e *PricingEngine) EffectivePrice(p *models.Product, now time.Time) float64 {
	if OnSale(p, now) {
		return *p.SalePrice
	}
	return p.Price
}

// Totals derives tax, shipping and grand total from the items subtotal.
func (e *PricingEngine) Totals(itemsPrice float64) (taxPrice, shippingPrice, totalPrice float64) {
	taxPrice = roundMoney(itemsPrice * e.policy.TaxRate)
	shippingPrice = e.policy.FlatShippingPrice
	totalPrice = roundMoney(itemsPrice + taxPrice + shippingPrice)
	return taxPrice, shippingPrice, totalPrice
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
