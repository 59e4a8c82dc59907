package resource

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResourceRepo struct {
	items  map[string]*Resource
	images map[string][]string
	nextID int
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{
		items:  make(map[string]*Resource),
		images: make(map[string][]string),
	}
}

func (r *fakeResourceRepo) Create(_ context.Context, res *Resource) error {
	r.nextID++
	res.ID = fmt.Sprintf("resource-%d", r.nextID)
	r.items[res.ID] = res
	return nil
}

func (r *fakeResourceRepo) GetByID(_ context.Context, id string) (*Resource, error) {
	res, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *res
	clone.ImageIDs = r.images[id]
	return &clone, nil
}

func (r *fakeResourceRepo) List(_ context.Context, filter Filter) ([]*Resource, int, error) {
	var out []*Resource
	for _, res := range r.items {
		if !filter.IncludeInactive && !res.IsActive {
			continue
		}
		clone := *res
		out = append(out, &clone)
	}
	return out, len(out), nil
}

func (r *fakeResourceRepo) Update(_ context.Context, res *Resource) error {
	if _, ok := r.items[res.ID]; !ok {
		return ErrNotFound
	}
	r.items[res.ID] = res
	return nil
}

func (r *fakeResourceRepo) AddImage(_ context.Context, resourceID, fileID string) error {
	for _, existing := range r.images[resourceID] {
		if existing == fileID {
			return ErrImageExists
		}
	}
	r.images[resourceID] = append(r.images[resourceID], fileID)
	return nil
}

func (r *fakeResourceRepo) RemoveImage(_ context.Context, resourceID, fileID string) error {
	imgs := r.images[resourceID]
	for i, existing := range imgs {
		if existing == fileID {
			r.images[resourceID] = append(imgs[:i], imgs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func TestCreateResource(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{
			name: "valid space",
			req:  CreateRequest{Name: "Studio A", Kind: "space", PricePerHour: 50},
		},
		{
			name: "valid machine",
			req:  CreateRequest{Name: "CNC Mill", Kind: "machine", PricePerHour: 120},
		},
		{
			name:    "blank name",
			req:     CreateRequest{Name: "   ", Kind: "space", PricePerHour: 50},
			wantErr: ErrEmptyName,
		},
		{
			name:    "unknown kind",
			req:     CreateRequest{Name: "Studio A", Kind: "vehicle", PricePerHour: 50},
			wantErr: ErrInvalidType,
		},
		{
			name:    "zero price",
			req:     CreateRequest{Name: "Studio A", Kind: "space", PricePerHour: 0},
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "negative price",
			req:     CreateRequest{Name: "Studio A", Kind: "space", PricePerHour: -1},
			wantErr: ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newFakeResourceRepo())
			res, err := svc.Create(context.Background(), tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.IsActive)
			assert.NotEmpty(t, res.ID)
		})
	}
}

func TestUpdateResource(t *testing.T) {
	repo := newFakeResourceRepo()
	svc := NewService(repo)

	res, err := svc.Create(context.Background(), CreateRequest{
		Name: "Studio A", Kind: "space", PricePerHour: 50,
	})
	require.NoError(t, err)

	newPrice := 75.0
	got, err := svc.Update(context.Background(), res.ID, UpdateRequest{PricePerHour: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 75.0, got.PricePerHour)

	badPrice := -5.0
	_, err = svc.Update(context.Background(), res.ID, UpdateRequest{PricePerHour: &badPrice})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	blank := "  "
	_, err = svc.Update(context.Background(), res.ID, UpdateRequest{Name: &blank})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = svc.Update(context.Background(), "missing", UpdateRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivateResource(t *testing.T) {
	repo := newFakeResourceRepo()
	svc := NewService(repo)

	res, err := svc.Create(context.Background(), CreateRequest{
		Name: "Studio A", Kind: "space", PricePerHour: 50,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), res.ID))

	// Row still exists; it simply no longer lists publicly.
	got, err := svc.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	listed, _, err := svc.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	all, _, err := svc.List(context.Background(), Filter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestResourceImages(t *testing.T) {
	repo := newFakeResourceRepo()
	svc := NewService(repo)

	res, err := svc.Create(context.Background(), CreateRequest{
		Name: "Studio A", Kind: "space", PricePerHour: 50,
	})
	require.NoError(t, err)

	require.NoError(t, svc.AttachImage(context.Background(), res.ID, "file-1"))
	assert.ErrorIs(t, svc.AttachImage(context.Background(), res.ID, "file-1"), ErrImageExists)

	got, err := svc.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"file-1"}, got.ImageIDs)

	require.NoError(t, svc.DetachImage(context.Background(), res.ID, "file-1"))
	assert.ErrorIs(t, svc.AttachImage(context.Background(), "missing", "file-1"), ErrNotFound)
}
