package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/parts-market-backend/internal/catalog"
	"github.com/nekogravitycat/parts-market-backend/internal/notify"
	"github.com/nekogravitycat/parts-market-backend/internal/product"
	"github.com/nekogravitycat/parts-market-backend/internal/store"
	"github.com/nekogravitycat/parts-market-backend/internal/user"
)

type CreateRequest struct {
	BuyerID   string
	ProductID string
	Quantity  int
}

// ListResult is one order page plus the advisory total.
type ListResult struct {
	Page  catalog.Page[*Order]
	Total int
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Order, error)
	GetByID(ctx context.Context, id, actorID string, actorIsAdmin bool) (*Order, error)
	List(ctx context.Context, f Filter, actorID string, actorIsAdmin bool) (*ListResult, error)
	UpdateStatus(ctx context.Context, id, actorID string, actorIsAdmin bool, to Status) (*Order, error)
}

type service struct {
	repo     Repository
	products product.Service
	stores   store.Service
	users    user.Service
	notifier notify.Sender
	log      zerolog.Logger
}

func NewService(repo Repository, products product.Service, stores store.Service, users user.Service, notifier notify.Sender, log zerolog.Logger) Service {
	return &service{
		repo:     repo,
		products: products,
		stores:   stores,
		users:    users,
		notifier: notifier,
		log:      log,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, req.ProductID, catalog.AudiencePublic)
	if err != nil {
		return nil, err
	}
	if p.Status != catalog.StatusActive {
		return nil, ErrProductNotForSale
	}

	profile, err := s.users.GetProfile(ctx, req.BuyerID)
	if err != nil {
		return nil, err
	}

	o := &Order{
		Number:       generateNumber(),
		ProductID:    p.ID,
		ProductTitle: p.Title,
		StoreID:      p.StoreID,
		StoreName:    p.StoreName,
		BuyerID:      req.BuyerID,
		BuyerName:    profile.FullName,
		Quantity:     req.Quantity,
		PriceCents:   p.PriceCents,
		TotalCents:   p.PriceCents * int64(req.Quantity),
		Status:       StatusNew,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	// Fire and forget: the order is placed whether or not the back office
	// hears about it.
	go s.notifyNewOrder(o)

	return o, nil
}

func (s *service) notifyNewOrder(o *Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text := fmt.Sprintf("New order %s\n%s x%d\nStore: %s\nBuyer: %s\nTotal: %d.%02d",
		o.Number, o.ProductTitle, o.Quantity, o.StoreName, o.BuyerName,
		o.TotalCents/100, o.TotalCents%100)

	if err := s.notifier.Send(ctx, text); err != nil {
		s.log.Warn().Err(err).Str("order_number", o.Number).Msg("order notification failed")
	}
}

func (s *service) GetByID(ctx context.Context, id, actorID string, actorIsAdmin bool) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, o, actorID, actorIsAdmin); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) List(ctx context.Context, f Filter, actorID string, actorIsAdmin bool) (*ListResult, error) {
	// A store-scoped listing is only for the store's owner or an admin.
	if f.StoreID != "" && !actorIsAdmin {
		seller, err := s.isStoreOwner(ctx, f.StoreID, actorID)
		if err != nil {
			return nil, err
		}
		if !seller {
			return nil, ErrPermissionDenied
		}
	}

	if f.Page < 0 {
		f.Page = 0
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}

	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx, f)
	if err != nil {
		s.log.Warn().Err(err).Msg("order count query failed, degrading total to 0")
		total = 0
	}

	return &ListResult{
		Page:  catalog.NewPage(items, f.Page, f.PageSize),
		Total: total,
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id, actorID string, actorIsAdmin bool, to Status) (*Order, error) {
	if !ValidStatus(to) {
		return nil, ErrInvalidTransition
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actorIsAdmin {
		seller, err := s.isStoreOwner(ctx, o.StoreID, actorID)
		if err != nil {
			return nil, err
		}
		buyer := o.BuyerID == actorID
		switch {
		case seller:
			// Sellers drive the forward path and may cancel before shipping.
		case buyer && to == StatusCancelled:
			// Buyers may only cancel their own order.
		default:
			return nil, ErrPermissionDenied
		}
	}

	if !CanTransition(o.Status, to) {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	o.Status = to
	return o, nil
}

func (s *service) checkAccess(ctx context.Context, o *Order, actorID string, actorIsAdmin bool) error {
	if actorIsAdmin || o.BuyerID == actorID {
		return nil
	}
	seller, err := s.isStoreOwner(ctx, o.StoreID, actorID)
	if err != nil {
		return err
	}
	if !seller {
		return ErrPermissionDenied
	}
	return nil
}

func (s *service) isStoreOwner(ctx context.Context, storeID, userID string) (bool, error) {
	st, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return false, err
	}
	return st.OwnerID == userID, nil
}

// generateNumber builds a short human-readable order number. Uniqueness is
// enforced by the database.
func generateNumber() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}
