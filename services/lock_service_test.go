// File: /services/lock_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLockService(t *testing.T) (*LockService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLockService(client), mr
}

func TestLockService_Acquire(t *testing.T) {
	svc, _ := newLockService(t)
	ctx := context.Background()

	release, err := svc.Acquire(ctx, "user:1:create-trip", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, release)

	_, err = svc.Acquire(ctx, "user:1:create-trip", 5*time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)

	// Another user's lock is independent.
	otherRelease, err := svc.Acquire(ctx, "user:2:create-trip", 5*time.Second)
	require.NoError(t, err)
	otherRelease()

	release()
	release2, err := svc.Acquire(ctx, "user:1:create-trip", 5*time.Second)
	require.NoError(t, err)
	release2()
}

func TestLockService_Acquire_ExpiredLockCanBeRetaken(t *testing.T) {
	svc, mr := newLockService(t)
	ctx := context.Background()

	_, err := svc.Acquire(ctx, "user:1:create-trip", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	release, err := svc.Acquire(ctx, "user:1:create-trip", time.Second)
	require.NoError(t, err)
	release()
}

func TestLockService_Release_DoesNotTouchNewHoldersLock(t *testing.T) {
	svc, mr := newLockService(t)
	ctx := context.Background()

	staleRelease, err := svc.Acquire(ctx, "user:1:create-trip", time.Second)
	require.NoError(t, err)

	// Lock expires and somebody else takes it.
	mr.FastForward(2 * time.Second)
	_, err = svc.Acquire(ctx, "user:1:create-trip", time.Minute)
	require.NoError(t, err)

	// The stale holder's release must not free the new holder's lock.
	staleRelease()
	_, err = svc.Acquire(ctx, "user:1:create-trip", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)
}
