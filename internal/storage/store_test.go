package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Canvas/internal/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "canvas.db")
	store, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "whatever")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.Append(ctx, "abc", "u1", `{"type":"line","values":[0,0,10,10]}`)
	require.NoError(t, err)
	second, err := store.Append(ctx, "abc", "u2", `{"type":"rect","values":[0,0,5,5]}`)
	require.NoError(t, err)

	assert.Greater(t, second, first)
}

func TestRecent(t *testing.T) {
	tests := []struct {
		name     string
		appended int
		limit    int
		want     int
	}{
		{name: "empty room", appended: 0, limit: 50, want: 0},
		{name: "fewer than limit", appended: 7, limit: 50, want: 7},
		{name: "exactly limit", appended: 50, limit: 50, want: 50},
		{name: "more than limit", appended: 73, limit: 50, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			ctx := context.Background()

			for i := 0; i < tt.appended; i++ {
				_, err := store.Append(ctx, "room", "u1", fmt.Sprintf("op-%d", i))
				require.NoError(t, err)
			}
			_, err := store.Append(ctx, "other-room", "u1", "noise")
			require.NoError(t, err)

			ops, err := store.Recent(ctx, "room", tt.limit)
			require.NoError(t, err)
			require.Len(t, ops, tt.want)

			// Most recent first, and exactly the newest tt.want operations.
			for i, op := range ops {
				assert.Equal(t, fmt.Sprintf("op-%d", tt.appended-1-i), op.Payload)
				assert.Equal(t, domain.RoomID("room"), op.RoomID)
				assert.Equal(t, domain.UserID("u1"), op.AuthorID)
				assert.False(t, op.CreatedAt.IsZero())
				if i > 0 {
					assert.Greater(t, ops[i-1].ID, op.ID)
				}
			}
		})
	}
}

func TestAppendConcurrent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Append(ctx, "busy", "u1", fmt.Sprintf("op-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	ops, err := store.Recent(ctx, "busy", 100)
	require.NoError(t, err)
	assert.Len(t, ops, 20)
}

func TestPayloadStoredVerbatim(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	payload := "{\"type\":\"circ\",\"values\":[1.5,2,3,0,3.1415]}\n\t<&>"
	_, err := store.Append(ctx, "abc", "u1", payload)
	require.NoError(t, err)

	ops, err := store.Recent(ctx, "abc", 1)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, payload, ops[0].Payload)
}

func TestClosedStoreFails(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "closed.db")
	store, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Append(context.Background(), "abc", "u1", "x")
	assert.Error(t, err)
	assert.Error(t, store.Ping(context.Background()))
}
