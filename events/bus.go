package events

import (
	"sync"
	"time"
)

// Topic tags the resource type or subsystem an event concerns
type Topic string

const (
	// TopicApps invalidates every cached collection of applications
	TopicApps Topic = "apps"
	// TopicPlan asks plan/usage counters to refresh
	TopicPlan Topic = "plan"
)

// Reason describes the mutation that produced an event
type Reason string

const (
	ReasonUpdated    Reason = "updated"
	ReasonSiteConfig Reason = "site_config"
	ReasonDuplicated Reason = "duplicated"
	ReasonDeleted    Reason = "deleted"
)

// Event is a fire-and-forget refresh signal
type Event struct {
	Topic     Topic
	Reason    Reason
	AppID     string
	Timestamp time.Time
}

// DefaultBuffer is the per-subscriber channel capacity
const DefaultBuffer = 16

// Bus fans events out to the subscribers of a topic. Publishing never blocks:
// when a subscriber's buffer is full the event is coalesced into the ones it
// has not yet drained.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic]map[*Subscription]struct{}
	buffer int
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[Topic]map[*Subscription]struct{}),
		buffer: DefaultBuffer,
	}
}

// Subscription receives the events of one topic until it is closed
type Subscription struct {
	bus      *Bus
	topic    Topic
	ch       chan Event
	coalesce int
	once     sync.Once
}

// C returns the event channel. It is closed by Close.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Coalesced reports how many events were folded into pending ones
func (s *Subscription) Coalesced() int {
	s.bus.mu.RLock()
	defer s.bus.mu.RUnlock()
	return s.coalesce
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		delete(s.bus.subs[s.topic], s)
		close(s.ch)
	})
}

// Drain returns the events waiting on the subscription without blocking
func (s *Subscription) Drain() []Event {
	var pending []Event
	for {
		select {
		case ev, ok := <-s.ch:
			if !ok {
				return pending
			}
			pending = append(pending, ev)
		default:
			return pending
		}
	}
}

// Subscribe registers a new subscriber for topic
func (b *Bus) Subscribe(topic Topic) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		bus:   b,
		topic: topic,
		ch:    make(chan Event, b.buffer),
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*Subscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}
	return sub
}

// Subscribers returns the number of subscribers currently mounted on topic
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Publish delivers ev to every current subscriber of its topic
func (b *Bus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	// Write lock: coalesce counters are mutated under it and Close
	// cannot race a send on a closed channel
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs[ev.Topic] {
		select {
		case sub.ch <- ev:
		default:
			sub.coalesce++
		}
	}
}
