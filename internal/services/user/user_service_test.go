package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	byEmail map[string]*User
}

func newFakeStore() *fakeStore {
	return &fakeStore{byEmail: map[string]*User{}}
}

func (f *fakeStore) Create(_ context.Context, name, email, passwordHash string) (*User, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, ErrEmailTaken
	}

	u := &User{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: passwordHash}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func TestRegisterNormalizesEmail(t *testing.T) {
	store := newFakeStore()
	svc := NewUserService(store)

	u, err := svc.Register(context.Background(), "  Alice ", " Alice@Example.COM ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewUserService(newFakeStore())

	_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Other", "ALICE@example.com", "different")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	svc := NewUserService(newFakeStore())

	registered, err := svc.Register(context.Background(), "Alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	u, err := svc.Authenticate(context.Background(), "Alice@Example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)

	// Wrong password and unknown email look identical to the caller
	_, err = svc.Authenticate(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetByEmailNormalizes(t *testing.T) {
	svc := NewUserService(newFakeStore())

	_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	u, err := svc.GetByEmail(context.Background(), " ALICE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
}
