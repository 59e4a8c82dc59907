package http

import (
	"encoding/json"
	"time"

	"github.com/rentaspace/backend/internal/file"
	"github.com/rentaspace/backend/internal/pkg/request"
	"github.com/rentaspace/backend/internal/resource"
)

// ListResourcesRequest defines query parameters for listing resources.
type ListResourcesRequest struct {
	request.ListParams
	Kind            string `form:"kind" binding:"omitempty,oneof=space machine"`
	Keyword         string `form:"keyword"`
	IncludeInactive bool   `form:"include_inactive"`
}

type ResourceResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Kind           string          `json:"kind"`
	PricePerHour   float64         `json:"price_per_hour"`
	Location       *string         `json:"location"`
	Capacity       *int            `json:"capacity"`
	Specifications json.RawMessage `json:"specifications,omitempty"`
	IsActive       bool            `json:"is_active"`
	Images         []string        `json:"images"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ResourceTag is a brief representation of a resource embedded in other responses.
type ResourceTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewResourceResponse(r *resource.Resource) ResourceResponse {
	images := make([]string, 0, len(r.ImageIDs))
	for _, id := range r.ImageIDs {
		images = append(images, file.FileURL(id))
	}

	return ResourceResponse{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Kind:           string(r.Kind),
		PricePerHour:   r.PricePerHour,
		Location:       r.Location,
		Capacity:       r.Capacity,
		Specifications: r.Specifications,
		IsActive:       r.IsActive,
		Images:         images,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type CreateResourceRequest struct {
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	Kind           string          `json:"kind" binding:"required,oneof=space machine"`
	PricePerHour   float64         `json:"price_per_hour" binding:"required,gt=0"`
	Location       *string         `json:"location"`
	Capacity       *int            `json:"capacity" binding:"omitempty,gt=0"`
	Specifications json.RawMessage `json:"specifications"`
}

type UpdateResourceRequest struct {
	Name           *string         `json:"name"`
	Description    *string         `json:"description"`
	PricePerHour   *float64        `json:"price_per_hour" binding:"omitempty,gt=0"`
	Location       *string         `json:"location"`
	Capacity       *int            `json:"capacity" binding:"omitempty,gt=0"`
	Specifications json.RawMessage `json:"specifications"`
	IsActive       *bool           `json:"is_active"`
}

type AttachImageRequest struct {
	FileID string `json:"file_id" binding:"required,uuid"`
}
