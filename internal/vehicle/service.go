package vehicle

import (
	"context"
	"strings"
)

type Service interface {
	ListBrands(ctx context.Context) ([]*Brand, error)
	ListModels(ctx context.Context, brandID string) ([]*Model, error)
	CreateBrand(ctx context.Context, name string) (*Brand, error)
	CreateModel(ctx context.Context, brandID, name string) (*Model, error)
	// ResolveNames maps optional brand/model ids to the display names the
	// catalog filter matches against. Empty ids resolve to empty names.
	ResolveNames(ctx context.Context, brandID, modelID string) (brandName, modelName string, err error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListBrands(ctx context.Context) ([]*Brand, error) {
	return s.repo.ListBrands(ctx)
}

func (s *service) ListModels(ctx context.Context, brandID string) ([]*Model, error) {
	return s.repo.ListModels(ctx, brandID)
}

func (s *service) CreateBrand(ctx context.Context, name string) (*Brand, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	b := &Brand{Name: strings.TrimSpace(name)}
	if err := s.repo.CreateBrand(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) CreateModel(ctx context.Context, brandID, name string) (*Model, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	if _, err := s.repo.GetBrandByID(ctx, brandID); err != nil {
		return nil, err
	}
	m := &Model{BrandID: brandID, Name: strings.TrimSpace(name)}
	if err := s.repo.CreateModel(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) ResolveNames(ctx context.Context, brandID, modelID string) (string, string, error) {
	var brandName, modelName string

	if brandID != "" {
		b, err := s.repo.GetBrandByID(ctx, brandID)
		if err != nil {
			return "", "", err
		}
		brandName = b.Name
	}

	if modelID != "" {
		m, err := s.repo.GetModelByID(ctx, modelID)
		if err != nil {
			return "", "", err
		}
		modelName = m.Name
		// A model implies its brand even when only the model id was given.
		if brandName == "" {
			modelBrand, err := s.repo.GetBrandByID(ctx, m.BrandID)
			if err != nil {
				return "", "", err
			}
			brandName = modelBrand.Name
		}
	}

	return brandName, modelName, nil
}
