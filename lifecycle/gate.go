package lifecycle

import "sync"

// gateState is either gateClosed or gatePending
type gateState interface {
	gate()
}

type gateClosed struct{}

type gatePending struct {
	id      string
	surface Surface
}

func (gateClosed) gate()  {}
func (gatePending) gate() {}

// Gate holds at most one destructive request awaiting confirmation. A new
// request while one is pending replaces it.
type Gate struct {
	mu    sync.Mutex
	state gateState
}

// NewGate creates a closed gate
func NewGate() *Gate {
	return &Gate{state: gateClosed{}}
}

// Request opens the gate for id. If another target was pending it is
// returned as replaced.
func (g *Gate) Request(id string, surface Surface) (replaced string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p, ok := g.state.(gatePending); ok && p.id != id {
		replaced = p.id
	}
	g.state = gatePending{id: id, surface: surface}
	return replaced
}

// Confirm closes the gate and hands back the pending target
func (g *Gate) Confirm() (id string, surface Surface, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.state.(gatePending)
	if !ok {
		return "", SurfaceList, false
	}
	g.state = gateClosed{}
	return p.id, p.surface, true
}

// Cancel closes the gate without running anything. It reports whether a
// request was pending.
func (g *Gate) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.state.(gatePending)
	g.state = gateClosed{}
	return ok
}

// Pending returns the target awaiting confirmation
func (g *Gate) Pending() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.state.(gatePending)
	return p.id, ok
}
