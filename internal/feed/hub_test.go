package feed_test

import (
	"testing"
	"time"

	"civicbot/backend/internal/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsToRegisteredClients(t *testing.T) {
	hub := feed.NewHub()
	go hub.Run()

	a := &feed.Client{Hub: hub, Send: make(chan feed.Event, 16)}
	b := &feed.Client{Hub: hub, Send: make(chan feed.Event, 16)}
	hub.RegisterCh <- a
	hub.RegisterCh <- b

	hub.Publish(feed.Event{Type: feed.EventCreated, ComplaintID: "1", Status: "New"})

	for _, c := range []*feed.Client{a, b} {
		select {
		case e := <-c.Send:
			assert.Equal(t, feed.EventCreated, e.Type)
			assert.Equal(t, "1", e.ComplaintID)
			assert.False(t, e.At.IsZero(), "publish stamps the event time")
		case <-time.After(time.Second):
			t.Fatal("client did not receive the event")
		}
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := feed.NewHub()
	go hub.Run()

	c := &feed.Client{Hub: hub, Send: make(chan feed.Event, 16)}
	hub.RegisterCh <- c
	hub.UnregisterCh <- c

	// The hub closes the client's channel on unregister.
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

// A full broadcast buffer drops the event instead of blocking the caller.
func TestPublishNeverBlocks(t *testing.T) {
	hub := feed.NewHub()
	// Run loop deliberately not started.

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(feed.Event{Type: feed.EventTaken, ComplaintID: "1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
}
