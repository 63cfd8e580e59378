package application_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/mealtracker/internal/application"
)

func TestTableProvider_ConnectsOnce(t *testing.T) {
	table := newMockTableWithHeader()
	connector := &mockConnector{table: table}
	provider := application.NewTableProvider(connector)
	ctx := context.Background()

	require.False(t, provider.HasTable())

	first, err := provider.Get(ctx)
	require.NoError(t, err)
	second, err := provider.Get(ctx)
	require.NoError(t, err)

	assert.Same(t, table, first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, connector.connectCount())
	assert.True(t, provider.HasTable())
}

func TestTableProvider_FailureIsNotCached(t *testing.T) {
	table := newMockTableWithHeader()
	connector := &mockConnector{table: table, err: errUnreachable}
	provider := application.NewTableProvider(connector)
	ctx := context.Background()

	_, err := provider.Get(ctx)
	require.ErrorIs(t, err, errUnreachable)
	assert.False(t, provider.HasTable())

	connector.setErr(nil)
	got, err := provider.Get(ctx)

	require.NoError(t, err)
	assert.Same(t, table, got)
	assert.Equal(t, 2, connector.connectCount())
}

func TestTableProvider_ConcurrentGetConnectsOnce(t *testing.T) {
	connector := &mockConnector{table: newMockTableWithHeader()}
	provider := application.NewTableProvider(connector)

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			got, err := provider.Get(context.Background())
			assert.NoError(t, err)
			assert.NotNil(t, got)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, connector.connectCount())
}
