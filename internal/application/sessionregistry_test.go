package application_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/mealtracker/internal/application"
	"github.com/ericfisherdev/mealtracker/internal/domain/model"
)

func TestSessionRegistry_CreateGetDelete(t *testing.T) {
	reg := application.NewSessionRegistry()

	id, sess := reg.Create()
	require.NotEmpty(t, id)
	assert.False(t, sess.Authenticated())

	got, ok := reg.Get(id)
	require.True(t, ok)
	assert.Same(t, sess, got)

	reg.Delete(id)
	_, ok = reg.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())
}

func TestSessionRegistry_SessionsAreIndependent(t *testing.T) {
	reg := application.NewSessionRegistry()

	idA, a := reg.Create()
	idB, b := reg.Create()
	require.NotEqual(t, idA, idB)

	a.SignIn("alice")

	assert.True(t, a.Authenticated())
	assert.False(t, b.Authenticated())
}

func TestSessionRegistry_GetUnknown(t *testing.T) {
	reg := application.NewSessionRegistry()

	_, ok := reg.Get("does-not-exist")

	assert.False(t, ok)
}

func TestSessionRegistry_ConcurrentCreate(t *testing.T) {
	reg := application.NewSessionRegistry()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			id, _ := reg.Create()
			_, ok := reg.Get(id)
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, reg.Len())
}

func TestSessionFromContext(t *testing.T) {
	reg := application.NewSessionRegistry()
	_, sess := reg.Create()

	ctx := application.ContextWithSession(context.Background(), sess)
	assert.Same(t, sess, application.SessionFromContext(ctx))

	fallback := application.SessionFromContext(context.Background())
	require.NotNil(t, fallback)
	assert.False(t, fallback.Authenticated())
}

func TestSessionRegistry_Add(t *testing.T) {
	reg := application.NewSessionRegistry()
	sess := model.NewSession()
	sess.SignIn("alice")

	id := reg.Add(sess)

	got, ok := reg.Get(id)
	require.True(t, ok)
	assert.Equal(t, "alice", got.Username())
	assert.Equal(t, 1, reg.Len())
}
