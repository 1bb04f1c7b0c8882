package product

import (
	"context"
	"io"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/parts-market-backend/internal/catalog"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/storage"
	"github.com/nekogravitycat/parts-market-backend/internal/store"
)

type CreateRequest struct {
	StoreID     string
	Title       string
	Description string
	BrandName   string
	ModelName   string
	LotNumber   int64
	PriceCents  int64
}

type UpdateRequest struct {
	Title       *string
	Description *string
	BrandName   *string
	ModelName   *string
	LotNumber   *int64
	PriceCents  *int64
}

// ListResult is one listing page plus the advisory total. Total degrades to
// zero when the count query fails; HasMore on the page stays reliable because
// it is derived from the returned row count.
type ListResult struct {
	Page  catalog.Page[*Product]
	Total int
}

type Service interface {
	List(ctx context.Context, f catalog.Filter) (*ListResult, error)
	GetByID(ctx context.Context, id string, audience catalog.Audience) (*Product, error)
	Create(ctx context.Context, actorID string, actorIsAdmin bool, req CreateRequest) (*Product, error)
	Update(ctx context.Context, id, actorID string, actorIsAdmin bool, req UpdateRequest) (*Product, error)
	SetStatus(ctx context.Context, id, actorID string, actorIsAdmin bool, status catalog.Status) (*Product, error)
	Delete(ctx context.Context, id, actorID string, actorIsAdmin bool) error

	UploadImage(ctx context.Context, productID, actorID string, actorIsAdmin bool, header *multipart.FileHeader) (*Image, error)
	DeleteImage(ctx context.Context, imageID, actorID string, actorIsAdmin bool) error
	SetPrimaryImage(ctx context.Context, productID, imageID, actorID string, actorIsAdmin bool) error
	OpenImage(ctx context.Context, imageID string, thumbnail bool) (io.ReadCloser, *Image, error)
}

type service struct {
	repo    Repository
	stores  store.Service
	storage storage.Storage
	imgProc *storage.ImageProcessor
	log     zerolog.Logger
}

func NewService(repo Repository, stores store.Service, st storage.Storage, log zerolog.Logger) Service {
	return &service{
		repo:    repo,
		stores:  stores,
		storage: st,
		imgProc: storage.NewImageProcessor(),
		log:     log,
	}
}

func (s *service) List(ctx context.Context, f catalog.Filter) (*ListResult, error) {
	f.Normalize()

	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	// The count is advisory. A failing count must not take down a listing
	// that already has its rows, so it degrades to zero.
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		s.log.Warn().Err(err).Msg("product count query failed, degrading total to 0")
		total = 0
	}

	return &ListResult{
		Page:  catalog.NewPage(items, f.Page, f.PageSize),
		Total: total,
	}, nil
}

func (s *service) GetByID(ctx context.Context, id string, audience catalog.Audience) (*Product, error) {
	return s.repo.GetByID(ctx, id, audience)
}

func (s *service) Create(ctx context.Context, actorID string, actorIsAdmin bool, req CreateRequest) (*Product, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	st, err := s.stores.GetByID(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}
	if st.OwnerID != actorID && !actorIsAdmin {
		return nil, ErrNotStoreOwner
	}

	p := &Product{
		StoreID:     st.ID,
		StoreName:   st.Name,
		Title:       title,
		Description: req.Description,
		BrandName:   strings.TrimSpace(req.BrandName),
		ModelName:   strings.TrimSpace(req.ModelName),
		LotNumber:   req.LotNumber,
		PriceCents:  req.PriceCents,
		Status:      catalog.StatusActive,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, id, actorID string, actorIsAdmin bool, req UpdateRequest) (*Product, error) {
	p, err := s.authorize(ctx, id, actorID, actorIsAdmin)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		p.Title = title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.BrandName != nil {
		p.BrandName = strings.TrimSpace(*req.BrandName)
	}
	if req.ModelName != nil {
		p.ModelName = strings.TrimSpace(*req.ModelName)
	}
	if req.LotNumber != nil {
		p.LotNumber = *req.LotNumber
	}
	if req.PriceCents != nil {
		p.PriceCents = *req.PriceCents
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) SetStatus(ctx context.Context, id, actorID string, actorIsAdmin bool, status catalog.Status) (*Product, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	p, err := s.authorize(ctx, id, actorID, actorIsAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	p.Status = status
	return p, nil
}

func (s *service) Delete(ctx context.Context, id, actorID string, actorIsAdmin bool) error {
	p, err := s.authorize(ctx, id, actorID, actorIsAdmin)
	if err != nil {
		return err
	}

	for _, img := range p.Images {
		s.removeImageFiles(ctx, &img)
	}
	return s.repo.Delete(ctx, id)
}

// authorize loads the product from the base table and verifies the actor owns
// its store or is an admin.
func (s *service) authorize(ctx context.Context, id, actorID string, actorIsAdmin bool) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id, catalog.AudienceAdmin)
	if err != nil {
		return nil, err
	}
	if actorIsAdmin {
		return p, nil
	}

	st, err := s.stores.GetByID(ctx, p.StoreID)
	if err != nil {
		return nil, err
	}
	if st.OwnerID != actorID {
		return nil, ErrNotStoreOwner
	}
	return p, nil
}
