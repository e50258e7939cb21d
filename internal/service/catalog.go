package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atelierworks/storefront/internal/models"
	"github.com/atelierworks/storefront/internal/repo"
	"github.com/atelierworks/storefront/pkg/logging"
)

const productIndex = "products"

// CatalogService is the product side of the shop: listing and admin CRUD over
// the database, plus a search index kept in step with writes. The index is
// best-effort; the database stays the source of truth and a missing ES client
// just disables search.
type CatalogService struct {
	Repo *repo.GormRepo
	ES   *elasticsearch.Client
}

func (s *CatalogService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
	}
	return p, err
}

func (s *CatalogService) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListProducts(ctx, limit, offset)
}

type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
}

func (in *ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name required: %w", ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("price must not be negative: %w", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.index(ctx, p)
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, productID uuid.UUID, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.ImageURL = in.ImageURL
	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	s.index(ctx, p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
		}
		return err
	}
	s.deindex(ctx, productID)
	return nil
}

// Search runs a fuzzy multi_match over name and description.
func (s *CatalogService) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	if s.ES == nil {
		return 0, nil, fmt.Errorf("search is not configured: %w", ErrNotFound)
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	if from < 0 {
		from = 0
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(productIndex),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	products := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		products[i] = hit.Source
	}
	return r.Hits.Total.Value, products, nil
}

func (s *CatalogService) index(ctx context.Context, p *models.Product) {
	if s.ES == nil {
		return
	}
	l := logging.FromContext(ctx).With("svc", "catalog.index", "product", p.ID)
	doc, err := json.Marshal(p)
	if err != nil {
		l.Error("marshal product", "error", err)
		return
	}
	res, err := s.ES.Index(
		productIndex,
		bytes.NewReader(doc),
		s.ES.Index.WithDocumentID(p.ID.String()),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		l.Error("index product", "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		l.Error("index product", "status", res.Status())
	}
}

func (s *CatalogService) deindex(ctx context.Context, productID uuid.UUID) {
	if s.ES == nil {
		return
	}
	l := logging.FromContext(ctx).With("svc", "catalog.deindex", "product", productID)
	res, err := s.ES.Delete(productIndex, productID.String(), s.ES.Delete.WithContext(ctx))
	if err != nil {
		l.Error("delete product doc", "error", err)
		return
	}
	res.Body.Close()
}
