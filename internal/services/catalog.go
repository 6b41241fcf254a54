package services

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/models"
	"github.com/asadk95/estore/internal/store"
)

const (
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 100

	featuredLimit    = 8
	relatedLimit     = 4
	placeholderImage = "https://via.placeholder.com/400"
)

// ProductQuery is the catalog filter. Zero values mean "no filter"; MinPrice
// and MaxPrice are pointers so a bound of 0 can still be expressed.
type ProductQuery struct {
	Category  string
	Search    string
	MinPrice  *int64
	MaxPrice  *int64
	Badge     string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type ProductPage struct {
	Products   []models.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ProductInput is a create payload or a partial patch; nil fields are left
// untouched on update.
type ProductInput struct {
	Name          *string `json:"name"`
	Price         *int64  `json:"price"`
	OriginalPrice *int64  `json:"originalPrice"`
	Category      *string `json:"category"`
	Image         *string `json:"image"`
	Description   *string `json:"description"`
	Stock         *int    `json:"stock"`
	Badge         *string `json:"badge"`
}

type Catalog struct {
	store  store.Store
	logger *zap.Logger
}

func NewCatalog(st store.Store, logger *zap.Logger) *Catalog {
	return &Catalog{store: st, logger: logger.Named("catalog")}
}

// NormalizePage applies the default page size and caps it.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func (q ProductQuery) matches(p models.Product) bool {
	if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Category), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.Badge != "" && p.Badge != q.Badge {
		return false
	}
	return true
}

// sortProducts orders in place. Records arrive in id order and the sort is
// stable, so ties keep id order.
func sortProducts(products []models.Product, sortBy, sortOrder string) {
	asc := sortOrder == "asc"
	var less func(a, b models.Product) bool
	switch sortBy {
	case "price":
		less = func(a, b models.Product) bool {
			if asc {
				return a.Price < b.Price
			}
			return a.Price > b.Price
		}
	case "rating":
		less = func(a, b models.Product) bool {
			if asc {
				return a.Rating < b.Rating
			}
			return a.Rating > b.Rating
		}
	case "name":
		less = func(a, b models.Product) bool {
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if asc {
				return an < bn
			}
			return an > bn
		}
	default:
		less = func(a, b models.Product) bool {
			if asc {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	sort.SliceStable(products, func(i, j int) bool { return less(products[i], products[j]) })
}

func (c *Catalog) List(ctx context.Context, q ProductQuery) (ProductPage, error) {
	products, err := c.store.Products().Filter(ctx, q.matches)
	if err != nil {
		return ProductPage{}, storeErr(err)
	}
	sortProducts(products, q.SortBy, q.SortOrder)

	page, limit := NormalizePage(q.Page, q.Limit)
	total := len(products)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return ProductPage{
		Products: products[start:end],
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

// Featured returns up to eight products flagged Hot or New.
func (c *Catalog) Featured(ctx context.Context) ([]models.Product, error) {
	products, err := c.store.Products().Filter(ctx, func(p models.Product) bool {
		return p.Badge == "Hot" || p.Badge == "New"
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if len(products) > featuredLimit {
		products = products[:featuredLimit]
	}
	return products, nil
}

// Categories lists distinct categories in first-seen order with counts.
func (c *Catalog) Categories(ctx context.Context) ([]CategoryCount, error) {
	products, err := c.store.Products().FindAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	counts := make([]CategoryCount, 0)
	index := make(map[string]int)
	for _, p := range products {
		i, ok := index[p.Category]
		if !ok {
			i = len(counts)
			index[p.Category] = i
			counts = append(counts, CategoryCount{Name: p.Category})
		}
		counts[i].Count++
	}
	return counts, nil
}

// Get returns the product and up to four others from its category.
func (c *Catalog) Get(ctx context.Context, id int64) (models.Product, []models.Product, error) {
	product, err := c.store.Products().FindByID(ctx, id)
	if err != nil {
		return models.Product{}, nil, lookupErr(err, "Product not found")
	}
	related, err := c.store.Products().Filter(ctx, func(p models.Product) bool {
		return p.Category == product.Category && p.ID != product.ID
	})
	if err != nil {
		return models.Product{}, nil, storeErr(err)
	}
	if len(related) > relatedLimit {
		related = related[:relatedLimit]
	}
	return product, related, nil
}

func (c *Catalog) Create(ctx context.Context, in ProductInput) (models.Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Price == nil || in.Category == nil || strings.TrimSpace(*in.Category) == "" {
		return models.Product{}, apperror.Validation("Name, price, and category are required")
	}

	product := models.Product{Image: placeholderImage}
	if err := in.apply(&product); err != nil {
		return models.Product{}, err
	}

	created, err := c.store.Products().Create(ctx, product)
	if err != nil {
		return models.Product{}, storeErr(err)
	}
	c.logger.Info("product created", zap.Int64("product_id", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (c *Catalog) Update(ctx context.Context, id int64, in ProductInput) (models.Product, error) {
	updated, err := c.store.Products().Update(ctx, id, func(p *models.Product) error {
		return in.apply(p)
	})
	if err != nil {
		return models.Product{}, lookupErr(err, "Product not found")
	}
	c.logger.Info("product updated", zap.Int64("product_id", id))
	return updated, nil
}

func (c *Catalog) Delete(ctx context.Context, id int64) error {
	if err := c.store.Products().Delete(ctx, id); err != nil {
		return lookupErr(err, "Product not found")
	}
	c.logger.Info("product deleted", zap.Int64("product_id", id))
	return nil
}

func (in ProductInput) apply(p *models.Product) error {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			return apperror.Validation("Price must be greater than 0")
		}
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		if *in.OriginalPrice > 0 {
			original := *in.OriginalPrice
			p.OriginalPrice = &original
		} else {
			p.OriginalPrice = nil
		}
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Image != nil && strings.TrimSpace(*in.Image) != "" {
		p.Image = strings.TrimSpace(*in.Image)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return apperror.Validation("Stock cannot be negative")
		}
		p.Stock = *in.Stock
	}
	if in.Badge != nil {
		p.Badge = strings.TrimSpace(*in.Badge)
	}
	if in.Price != nil || in.OriginalPrice != nil {
		return validateSalePrice(*p)
	}
	return nil
}

// validateSalePrice requires the struck-through price to be above the
// selling price when one is shown.
func validateSalePrice(p models.Product) error {
	if p.OriginalPrice != nil && *p.OriginalPrice <= p.Price {
		return apperror.Validation("originalPrice must be greater than price")
	}
	return nil
}
