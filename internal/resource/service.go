package resource

import (
	"context"
	"encoding/json"
	"strings"
)

type CreateRequest struct {
	Name           string
	Description    string
	Kind           string
	PricePerHour   float64
	Location       *string
	Capacity       *int
	Specifications json.RawMessage
}

type UpdateRequest struct {
	Name           *string
	Description    *string
	PricePerHour   *float64
	Location       *string
	Capacity       *int
	Specifications json.RawMessage
	IsActive       *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Resource, error)
	Deactivate(ctx context.Context, id string) error
	AttachImage(ctx context.Context, id, fileID string) error
	DetachImage(ctx context.Context, id, fileID string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Resource, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}
	if req.PricePerHour <= 0 {
		return nil, ErrInvalidPrice
	}

	kind := Kind(req.Kind)
	validKind := false
	for _, k := range ValidKinds {
		if kind == k {
			validKind = true
			break
		}
	}
	if !validKind {
		return nil, ErrInvalidType
	}

	res := &Resource{
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Kind:           kind,
		PricePerHour:   req.PricePerHour,
		Location:       req.Location,
		Capacity:       req.Capacity,
		Specifications: req.Specifications,
		IsActive:       true,
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrEmptyName
		}
		res.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		res.Description = *req.Description
	}
	if req.PricePerHour != nil {
		// Price changes apply to new bookings only; already created
		// bookings keep their frozen total.
		if *req.PricePerHour <= 0 {
			return nil, ErrInvalidPrice
		}
		res.PricePerHour = *req.PricePerHour
	}
	if req.Location != nil {
		res.Location = req.Location
	}
	if req.Capacity != nil {
		res.Capacity = req.Capacity
	}
	if req.Specifications != nil {
		res.Specifications = req.Specifications
	}
	if req.IsActive != nil {
		res.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Deactivate soft-deletes a resource. Rows are never removed because
// bookings keep referencing them; an inactive resource simply stops
// accepting new bookings and availability checks.
func (s *service) Deactivate(ctx context.Context, id string) error {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	res.IsActive = false
	return s.repo.Update(ctx, res)
}

func (s *service) AttachImage(ctx context.Context, id, fileID string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.AddImage(ctx, id, fileID)
}

func (s *service) DetachImage(ctx context.Context, id, fileID string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.RemoveImage(ctx, id, fileID)
}
