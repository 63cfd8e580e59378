package application

import (
	"context"
	"sync"

	"github.com/ericfisherdev/mealtracker/internal/domain/port/driven"
)

// TableProvider holds the connected meal table handle. The first successful
// Get connects through the TableConnector; later calls reuse that handle. A
// failed connect is not cached, so the next call tries again.
type TableProvider struct {
	connector driven.TableConnector

	mu    sync.RWMutex
	table driven.Table
}

// NewTableProvider creates a provider that connects lazily through connector.
func NewTableProvider(connector driven.TableConnector) *TableProvider {
	return &TableProvider{connector: connector}
}

// Get returns the connected table, connecting first if needed.
func (p *TableProvider) Get(ctx context.Context) (driven.Table, error) {
	p.mu.RLock()
	table := p.table
	p.mu.RUnlock()
	if table != nil {
		return table, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.table != nil {
		return p.table, nil
	}

	table, err := p.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	p.table = table
	return table, nil
}

// HasTable returns true once a connection has been established.
func (p *TableProvider) HasTable() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.table != nil
}
