package store

import (
	"context"
	"strings"
)

type CreateRequest struct {
	OwnerID     string
	Name        string
	Description string
	Phone       *string
}

type UpdateRequest struct {
	Name        *string
	Description *string
	Phone       *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Store, error)
	GetByID(ctx context.Context, id string) (*Store, error)
	List(ctx context.Context, filter Filter) ([]*Store, int, error)
	// Update applies changes on behalf of actorID; only the owner may modify
	// a store unless actorIsAdmin is set.
	Update(ctx context.Context, id, actorID string, actorIsAdmin bool, req UpdateRequest) (*Store, error)
	Deactivate(ctx context.Context, id, actorID string, actorIsAdmin bool) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Store, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	st := &Store{
		OwnerID:     req.OwnerID,
		Name:        name,
		Description: req.Description,
		Phone:       req.Phone,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Store, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Store, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id, actorID string, actorIsAdmin bool, req UpdateRequest) (*Store, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.OwnerID != actorID && !actorIsAdmin {
		return nil, ErrNotOwner
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		st.Name = name
	}
	if req.Description != nil {
		st.Description = *req.Description
	}
	if req.Phone != nil {
		st.Phone = req.Phone
	}

	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) Deactivate(ctx context.Context, id, actorID string, actorIsAdmin bool) error {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if st.OwnerID != actorID && !actorIsAdmin {
		return ErrNotOwner
	}
	return s.repo.Deactivate(ctx, id)
}
