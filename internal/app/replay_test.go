package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Canvas/internal/domain"
)

type fakeStore struct {
	ops       []domain.Operation
	err       error
	lastLimit int
}

func (f *fakeStore) Append(_ context.Context, room domain.RoomID, author domain.UserID, payload string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	id := int64(len(f.ops) + 1)
	f.ops = append(f.ops, domain.Operation{ID: id, RoomID: room, AuthorID: author, Payload: payload})
	return id, nil
}

func (f *fakeStore) Recent(_ context.Context, room domain.RoomID, limit int) ([]domain.Operation, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Operation
	for i := len(f.ops) - 1; i >= 0 && len(out) < limit; i-- {
		if f.ops[i].RoomID == room {
			out = append(out, f.ops[i])
		}
	}
	return out, nil
}

func TestReplayLoader_Limits(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "default when zero", limit: 0, wantLimit: 50},
		{name: "default when negative", limit: -3, wantLimit: 50},
		{name: "explicit", limit: 10, wantLimit: 10},
		{name: "clamped", limit: 10_000, wantLimit: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			l := NewReplayLoader(store, 0, 0)

			_, err := l.RecentOperations(context.Background(), "abc", tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, store.lastLimit)
		})
	}
}

func TestNewReplayLoader_Bounds(t *testing.T) {
	tests := []struct {
		name             string
		def, max         int
		wantDef, wantMax int
	}{
		{name: "zero values", wantDef: DefaultReplayLimit, wantMax: MaxReplayLimit},
		{name: "explicit", def: 20, max: 100, wantDef: 20, wantMax: 100},
		{name: "max below default", def: 80, max: 10, wantDef: 80, wantMax: 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewReplayLoader(&fakeStore{}, tt.def, tt.max)
			assert.Equal(t, tt.wantDef, l.DefaultLimit)
			assert.Equal(t, tt.wantMax, l.MaxLimit)
		})
	}
}

func TestReplayLoader_MostRecentFirst(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 60; i++ {
		_, err := store.Append(context.Background(), "abc", "u1", fmt.Sprintf("op-%d", i))
		require.NoError(t, err)
	}
	l := NewReplayLoader(store, 50, 200)

	ops, err := l.RecentOperations(context.Background(), "abc", 0)
	require.NoError(t, err)
	require.Len(t, ops, 50)
	assert.Equal(t, "op-59", ops[0].Payload)
	assert.Equal(t, "op-10", ops[49].Payload)
}

func TestReplayLoader_StoreError(t *testing.T) {
	boom := errors.New("db down")
	l := NewReplayLoader(&fakeStore{err: boom}, 50, 200)

	_, err := l.RecentOperations(context.Background(), "abc", 5)
	assert.ErrorIs(t, err, boom)
}

func TestPolicyFor(t *testing.T) {
	assert.IsType(t, IgnorePolicy{}, PolicyFor("ignore"))
	assert.IsType(t, KickSlowPolicy{}, PolicyFor("kick"))
	assert.IsType(t, KickSlowPolicy{}, PolicyFor(""))
}
