package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()

	var got []sample
	ok, err := c.Get(ctx, GroupsKey(), &got)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []sample{{ID: "g1", Name: "Ballet"}}
	require.NoError(t, c.Set(ctx, GroupsKey(), want))
	ok, err = c.Get(ctx, GroupsKey(), &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, c.Set(ctx, AttendanceKey("g1", "2024-03-01"), want))
	require.NoError(t, c.Set(ctx, StudentsKey("g1", false), want))
	require.NoError(t, c.Set(ctx, StudentsKey("g2", false), want))
	require.NoError(t, InvalidateAttendance(ctx, c, "g1", "2024-03-01"))

	ok, _ = c.Get(ctx, AttendanceKey("g1", "2024-03-01"), &got)
	assert.False(t, ok, "attendance must be invalidated")
	ok, _ = c.Get(ctx, StudentsKey("g1", false), &got)
	assert.False(t, ok, "students of the group must be invalidated")
	ok, _ = c.Get(ctx, StudentsKey("g2", false), &got)
	assert.True(t, ok, "other groups are untouched")
	ok, _ = c.Get(ctx, GroupsKey(), &got)
	assert.True(t, ok)

	// a roster change reaches the attendance of every date, not only one
	require.NoError(t, c.Set(ctx, AttendanceKey("g1", "2024-03-01"), want))
	require.NoError(t, c.Set(ctx, AttendanceKey("g1", "2024-03-08"), want))
	require.NoError(t, c.Set(ctx, AttendanceKey("g10", "2024-03-01"), want))
	require.NoError(t, c.Set(ctx, StudentsKey("g1", true), want))
	require.NoError(t, InvalidateGroup(ctx, c, "g1"))

	for _, key := range []string{
		AttendanceKey("g1", "2024-03-01"),
		AttendanceKey("g1", "2024-03-08"),
		StudentsKey("g1", true),
	} {
		ok, err = c.Get(ctx, key, &got)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
	ok, _ = c.Get(ctx, AttendanceKey("g10", "2024-03-01"), &got)
	assert.True(t, ok, "a group sharing the id prefix is untouched")
}

func TestMemory(t *testing.T) {
	exerciseCache(t, NewMemory(0))
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", 1))
	var v int
	ok, _ := m.Get(ctx, "k", &v)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = m.Get(ctx, "k", &v)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseCache(t, NewRedis(client, time.Minute))
	assert.True(t, mr.TTL(GroupsKey()) > 0)
}

func TestInitializeRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := InitializeRedisClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	client.Close()

	mr.Close()
	_, err = InitializeRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set(context.Background(), "k", 1))
	var v int
	ok, err := c.Get(context.Background(), "k", &v)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.DeletePrefix(context.Background(), "k"))
}
