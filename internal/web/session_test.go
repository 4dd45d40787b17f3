package web

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/myvibelytics/internal/db"
)

func TestSessionStore_Expiry(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore()
	store.now = func() time.Time { return now }

	session, err := store.Create(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, session.ID, 64)
	assert.Equal(t, now.Add(sessionTTL), session.ExpiresAt)

	require.NotNil(t, store.Get(context.Background(), session.ID))

	now = now.Add(sessionTTL)
	assert.Nil(t, store.Get(context.Background(), session.ID))
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore()
	session, err := store.Create(context.Background(), "u1")
	require.NoError(t, err)

	store.Delete(context.Background(), session.ID)

	assert.Nil(t, store.Get(context.Background(), session.ID))
}

type fakeSessionRepo struct {
	rows map[string]*db.Session
}

func (f *fakeSessionRepo) Create(_ context.Context, s *db.Session) error {
	f.rows[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) Get(_ context.Context, id string) (*db.Session, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

func TestDBSessionStore(t *testing.T) {
	repo := &fakeSessionRepo{rows: make(map[string]*db.Session)}
	store := NewDBSessionStore(repo)

	session, err := store.Create(context.Background(), "u1")
	require.NoError(t, err)
	require.Contains(t, repo.rows, session.ID)

	got := store.Get(context.Background(), session.ID)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)

	store.Delete(context.Background(), session.ID)
	assert.Nil(t, store.Get(context.Background(), session.ID))
}

func TestDecodeFlash(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"not base64", "%%%", true},
		{"no separator", "aW5mbw", true},
		{"valid", "aW5mbwpoZWxsbw", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flash, err := decodeFlash(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, &FlashMessage{Type: "info", Message: "hello"}, flash)
		})
	}
}
