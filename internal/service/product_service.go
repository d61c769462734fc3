package service

import (
	"context"
	"errors"
	"fmt"

	"product-api/internal/discount"
	"product-api/internal/domain"
	"product-api/internal/repository"
	"product-api/internal/status"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ProductService defines the product enrichment operations.
//
// Requests are expected to be validated by the caller. Records violating the product rules are
// rejected by the store and surface as errors.
type ProductService interface {
	Create(ctx context.Context, req domain.ProductRequest) (*domain.ProductView, error)
	Update(ctx context.Context, id int64, req domain.ProductRequest) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.ProductView, bool, error)
}

type productService struct {
	productRepo repository.ProductRepository
	statuses    status.Resolver
	discounts   discount.Fetcher
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	statuses status.Resolver,
	discounts discount.Fetcher,
) ProductService {
	return &productService{
		productRepo: productRepo,
		statuses:    statuses,
		discounts:   discounts,
	}
}

// Create stores a new product and returns it decorated with the id and values the store holds
func (s *productService) Create(ctx context.Context, req domain.ProductRequest) (*domain.ProductView, error) {
	product := &domain.Product{
		Name:        req.Name,
		Status:      req.Status,
		Stock:       req.Stock,
		Description: req.Description,
		Price:       req.Price,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.buildView(ctx, product)
}

// Update overwrites every mutable field of an existing product. It reports false, without
// writing anything, when the product does not exist.
func (s *productService) Update(ctx context.Context, id int64, req domain.ProductRequest) (bool, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find product: %w", err)
	}

	product.Name = req.Name
	product.Status = req.Status
	product.Stock = req.Stock
	product.Description = req.Description
	product.Price = req.Price

	if err := s.productRepo.Update(ctx, product); err != nil {
		// deleted between lookup and write
		if errors.Is(err, repository.ErrProductNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update product: %w", err)
	}

	return true, nil
}

// GetByID returns the decorated product, or false when it does not exist
func (s *productService) GetByID(ctx context.Context, id int64) (*domain.ProductView, bool, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get product: %w", err)
	}

	view, err := s.buildView(ctx, product)
	if err != nil {
		return nil, false, err
	}

	return view, true, nil
}

// buildView resolves the status name and discount concurrently; both only read committed data
func (s *productService) buildView(ctx context.Context, product *domain.Product) (*domain.ProductView, error) {
	var (
		statusName string
		pct        decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		statusName = s.statuses.Resolve(gctx, product.Status)
		return nil
	})
	g.Go(func() error {
		pct = s.discounts.FetchDiscount(gctx, product.ID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to enrich product: %w", err)
	}

	return &domain.ProductView{
		ProductID:   product.ID,
		Name:        product.Name,
		Status:      product.Status,
		StatusName:  statusName,
		Stock:       product.Stock,
		Description: product.Description,
		Price:       product.Price,
		Discount:    pct,
		FinalPrice:  domain.FinalPrice(product.Price, pct),
	}, nil
}
