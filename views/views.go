// Package views holds the state of views that show collections derived from
// applications. They refetch when the coordinator publishes a refresh event
// or when the durable refresh flag is set.
package views

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/sorenmh/appsmith/events"
	"github.com/sorenmh/appsmith/lifecycle"
	"github.com/sorenmh/appsmith/models"
)

// Lister fetches the application list
type Lister interface {
	ListApplications(ctx context.Context, limit, offset int) (*models.ListAppsResponse, error)
}

// FlagStore reads and clears a durable flag
type FlagStore interface {
	GetFlag(ctx context.Context, key string) (string, bool, error)
	TakeFlag(ctx context.Context, key string) (string, bool, error)
}

// UsageFetcher fetches the plan usage counters
type UsageFetcher interface {
	Usage(ctx context.Context) (*models.UsageResponse, error)
}

// PageSize is how many applications a list view fetches
const PageSize = 100

// AppList is a cached application list. The cache outlives Unmount, so a
// remounted list only refetches when it was told to.
type AppList struct {
	lister Lister
	flags  FlagStore
	bus    *events.Bus

	mu      sync.Mutex
	sub     *events.Subscription
	apps    []models.Application
	total   int
	loaded  bool
	stale   bool
	fetches int
}

// NewAppList creates an unmounted list view
func NewAppList(lister Lister, flags FlagStore, bus *events.Bus) *AppList {
	return &AppList{lister: lister, flags: flags, bus: bus}
}

// Mount subscribes to application events and fetches the list if it has
// never been loaded, a previous refresh failed, or the refresh flag was set
// while it was unmounted. The flag is only cleared once the list has been
// refetched.
func (l *AppList) Mount(ctx context.Context) error {
	l.mu.Lock()
	if l.sub == nil {
		l.sub = l.bus.Subscribe(events.TopicApps)
	}
	stale := !l.loaded || l.stale
	l.mu.Unlock()

	flagged := false
	if l.flags != nil {
		value, ok, err := l.flags.GetFlag(ctx, lifecycle.NeedRefreshAppListKey)
		if err != nil {
			log.Printf("Failed to read %s flag: %v", lifecycle.NeedRefreshAppListKey, err)
		}
		flagged = ok && value == "1"
	}

	if !stale && !flagged {
		return nil
	}
	if err := l.Refresh(ctx); err != nil {
		return err
	}

	if flagged {
		if _, _, err := l.flags.TakeFlag(ctx, lifecycle.NeedRefreshAppListKey); err != nil {
			log.Printf("Failed to clear %s flag: %v", lifecycle.NeedRefreshAppListKey, err)
		}
	}
	return nil
}

// Unmount stops listening for events. The cached list is kept.
func (l *AppList) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sub != nil {
		l.sub.Close()
		l.sub = nil
	}
}

// Sync refetches once if any events arrived since the last sync
func (l *AppList) Sync(ctx context.Context) (bool, error) {
	l.mu.Lock()
	sub := l.sub
	l.mu.Unlock()

	if sub == nil || len(sub.Drain()) == 0 {
		return false, nil
	}
	return true, l.Refresh(ctx)
}

// Refresh refetches the list
func (l *AppList) Refresh(ctx context.Context) error {
	resp, err := l.lister.ListApplications(ctx, PageSize, 0)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.stale = true
		return fmt.Errorf("failed to list applications: %w", err)
	}
	l.apps = append([]models.Application(nil), resp.Apps...)
	l.total = resp.Total
	l.loaded = true
	l.stale = false
	l.fetches++
	return nil
}

// Apps returns a snapshot of the cached list
func (l *AppList) Apps() []models.Application {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Application(nil), l.apps...)
}

// Total is the server-side application count from the last fetch
func (l *AppList) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Fetches counts completed list fetches
func (l *AppList) Fetches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetches
}

// PlanUsage holds the plan usage counters
type PlanUsage struct {
	fetcher UsageFetcher
	bus     *events.Bus

	mu    sync.Mutex
	sub   *events.Subscription
	usage models.UsageResponse
}

// NewPlanUsage creates an unmounted usage view
func NewPlanUsage(fetcher UsageFetcher, bus *events.Bus) *PlanUsage {
	return &PlanUsage{fetcher: fetcher, bus: bus}
}

// Mount subscribes to plan events and fetches the counters
func (p *PlanUsage) Mount(ctx context.Context) error {
	p.mu.Lock()
	if p.sub == nil {
		p.sub = p.bus.Subscribe(events.TopicPlan)
	}
	p.mu.Unlock()
	return p.Refresh(ctx)
}

// Unmount stops listening for plan events
func (p *PlanUsage) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sub != nil {
		p.sub.Close()
		p.sub = nil
	}
}

// Sync refetches once if the plan changed since the last sync
func (p *PlanUsage) Sync(ctx context.Context) (bool, error) {
	p.mu.Lock()
	sub := p.sub
	p.mu.Unlock()

	if sub == nil || len(sub.Drain()) == 0 {
		return false, nil
	}
	return true, p.Refresh(ctx)
}

// Refresh refetches the counters
func (p *PlanUsage) Refresh(ctx context.Context) error {
	usage, err := p.fetcher.Usage(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch usage: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.usage = *usage
	return nil
}

// Usage returns the last fetched counters
func (p *PlanUsage) Usage() models.UsageResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.usage
}
