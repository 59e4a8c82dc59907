package user

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	byEmail map[string]*User
	byID    map[string]*User
	nextID  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: make(map[string]*User),
		byID:    make(map[string]*User),
	}
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) Create(_ context.Context, u *User) error {
	if _, exists := r.byEmail[u.Email]; exists {
		return ErrEmailAlreadyUsed
	}
	r.nextID++
	u.ID = fmt.Sprintf("user-%d", r.nextID)
	u.CreatedAt = time.Now()
	r.byEmail[u.Email] = u
	r.byID[u.ID] = u
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &t
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, _ Filter) ([]*User, int, error) {
	var out []*User
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return ErrNotFound
	}
	r.byID[u.ID] = u
	return nil
}

// fakeHasher marks hashes with a prefix instead of doing real bcrypt work.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func TestRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := NewService(newFakeUserRepo(), fakeHasher{})

		u, err := svc.Register(context.Background(), "  Alice@Example.COM ", "supersecret", "Alice")
		require.NoError(t, err)

		assert.Equal(t, "alice@example.com", u.Email)
		assert.Equal(t, RoleClient, u.Role)
		assert.True(t, u.IsActive)
		require.NotNil(t, u.DisplayName)
		assert.Equal(t, "Alice", *u.DisplayName)
		assert.Equal(t, "hashed:supersecret", u.PasswordHash)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := NewService(newFakeUserRepo(), fakeHasher{})

		_, err := svc.Register(context.Background(), "a@b.com", "supersecret", "")
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), "A@B.com", "supersecret", "")
		assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
	})

	t.Run("short password", func(t *testing.T) {
		svc := NewService(newFakeUserRepo(), fakeHasher{})
		_, err := svc.Register(context.Background(), "a@b.com", "short", "")
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("empty email", func(t *testing.T) {
		svc := NewService(newFakeUserRepo(), fakeHasher{})
		_, err := svc.Register(context.Background(), "   ", "supersecret", "")
		assert.ErrorIs(t, err, ErrEmailRequired)
	})
}

func TestLogin(t *testing.T) {
	setup := func(t *testing.T) (Service, *fakeUserRepo, *User) {
		t.Helper()
		repo := newFakeUserRepo()
		svc := NewService(repo, fakeHasher{})
		u, err := svc.Register(context.Background(), "a@b.com", "supersecret", "")
		require.NoError(t, err)
		return svc, repo, u
	}

	t.Run("success updates last login", func(t *testing.T) {
		svc, repo, u := setup(t)

		got, err := svc.Login(context.Background(), "a@b.com", "supersecret")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.NotNil(t, repo.byID[u.ID].LastLoginAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.Login(context.Background(), "a@b.com", "wrongpass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email is indistinguishable from wrong password", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.Login(context.Background(), "nobody@b.com", "supersecret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		svc, repo, u := setup(t)
		repo.byID[u.ID].IsActive = false

		_, err := svc.Login(context.Background(), "a@b.com", "supersecret")
		assert.ErrorIs(t, err, ErrInactiveUser)
	})
}

func TestUpdateUser(t *testing.T) {
	setup := func(t *testing.T) (Service, *User) {
		t.Helper()
		svc := NewService(newFakeUserRepo(), fakeHasher{})
		u, err := svc.Register(context.Background(), "a@b.com", "supersecret", "Alice")
		require.NoError(t, err)
		return svc, u
	}

	t.Run("promote to admin", func(t *testing.T) {
		svc, u := setup(t)
		role := "admin"

		got, err := svc.Update(context.Background(), u.ID, UpdateRequest{Role: &role})
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, got.Role)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		svc, u := setup(t)
		role := "superuser"

		_, err := svc.Update(context.Background(), u.ID, UpdateRequest{Role: &role})
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("blank display name clears it", func(t *testing.T) {
		svc, u := setup(t)
		name := "   "

		got, err := svc.Update(context.Background(), u.ID, UpdateRequest{DisplayName: &name})
		require.NoError(t, err)
		assert.Nil(t, got.DisplayName)
	})
}
