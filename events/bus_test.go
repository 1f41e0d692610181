package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() {
		bus.Publish(Event{Topic: TopicApps, Reason: ReasonDeleted, AppID: "a"})
	})
	assert.Equal(t, 0, bus.Subscribers(TopicApps))
}

func TestPublishFansOutByTopic(t *testing.T) {
	bus := NewBus()
	list1 := bus.Subscribe(TopicApps)
	list2 := bus.Subscribe(TopicApps)
	plan := bus.Subscribe(TopicPlan)
	defer list1.Close()
	defer list2.Close()
	defer plan.Close()

	bus.Publish(Event{Topic: TopicApps, Reason: ReasonUpdated, AppID: "a"})

	for _, sub := range []*Subscription{list1, list2} {
		pending := sub.Drain()
		require.Len(t, pending, 1)
		assert.Equal(t, "a", pending[0].AppID)
		assert.Equal(t, ReasonUpdated, pending[0].Reason)
		assert.False(t, pending[0].Timestamp.IsZero())
	}
	assert.Empty(t, plan.Drain())
}

func TestPublishCoalescesWhenFull(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(TopicApps)
	defer sub.Close()

	for i := 0; i < DefaultBuffer+5; i++ {
		bus.Publish(Event{Topic: TopicApps, Reason: ReasonUpdated})
	}

	assert.Len(t, sub.Drain(), DefaultBuffer)
	assert.Equal(t, 5, sub.Coalesced())

	// Draining makes room again
	bus.Publish(Event{Topic: TopicApps, Reason: ReasonDeleted})
	pending := sub.Drain()
	require.Len(t, pending, 1)
	assert.Equal(t, ReasonDeleted, pending[0].Reason)
}

func TestCloseUnsubscribes(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(TopicPlan)
	assert.Equal(t, 1, bus.Subscribers(TopicPlan))

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, bus.Subscribers(TopicPlan))

	bus.Publish(Event{Topic: TopicPlan})
	_, ok := <-sub.C()
	assert.False(t, ok)
}
