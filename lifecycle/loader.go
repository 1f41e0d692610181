package lifecycle

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sorenmh/appsmith/models"
)

// FetchFunc loads the full detail of an application
type FetchFunc func(ctx context.Context, id string) (*models.Application, error)

// DetailLoader fetches application detail on demand and holds the last one
// fetched per id. Concurrent loads of the same id share one remote call.
type DetailLoader struct {
	fetch FetchFunc
	group singleflight.Group

	mu    sync.Mutex
	held  map[string]*models.Application
	epoch map[string]uint64
}

// NewDetailLoader creates a loader backed by fetch
func NewDetailLoader(fetch FetchFunc) *DetailLoader {
	return &DetailLoader{
		fetch: fetch,
		held:  make(map[string]*models.Application),
		epoch: make(map[string]uint64),
	}
}

// Load returns the held detail for id, fetching it first if none is held.
// A failed fetch holds nothing.
func (l *DetailLoader) Load(ctx context.Context, id string) (*models.Application, error) {
	if app, ok := l.Held(id); ok {
		return app, nil
	}

	l.mu.Lock()
	start := l.epoch[id]
	l.mu.Unlock()

	v, err, _ := l.group.Do(id, func() (interface{}, error) {
		app, err := l.fetch(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		// Forget or Put during the fetch wins over the fetched copy
		if l.epoch[id] == start {
			l.held[id] = clone(app)
		}
		l.mu.Unlock()
		return app, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.(*models.Application)), nil
}

// Held returns a copy of the detail held for id
func (l *DetailLoader) Held(id string) (*models.Application, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	app, ok := l.held[id]
	if !ok {
		return nil, false
	}
	return clone(app), true
}

// Put replaces the detail held for app.ID
func (l *DetailLoader) Put(app *models.Application) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.epoch[app.ID]++
	l.held[app.ID] = clone(app)
}

// Patch applies fn to the held detail of id, if any
func (l *DetailLoader) Patch(id string, fn func(app *models.Application)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	app, ok := l.held[id]
	if !ok {
		return false
	}
	l.epoch[id]++
	fn(app)
	return true
}

// Forget drops the detail held for id
func (l *DetailLoader) Forget(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.epoch[id]++
	delete(l.held, id)
}

func clone(app *models.Application) *models.Application {
	if app == nil {
		return nil
	}
	cp := *app
	return &cp
}
