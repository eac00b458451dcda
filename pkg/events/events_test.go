package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certkeep/certkeep/pkg/types"
)

func TestPublishReachesSubscriberInOrder(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()

	b.Emit(types.EventInstall)
	b.Emit(types.EventConfigChanged)

	first := receive(t, sub)
	second := receive(t, sub)

	assert.Equal(t, types.EventInstall, first.Type)
	assert.Equal(t, types.EventConfigChanged, second.Type)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.Timestamp.IsZero())
}

func TestPublishCarriesRequestPayload(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()

	b.Publish(&types.Event{
		Type:    types.EventCertificateRequested,
		Request: &types.CertificateRequest{FQDNs: []string{"x.example.com"}},
	})

	ev := receive(t, sub)
	require.NotNil(t, ev.Request)
	assert.Equal(t, []string{"x.example.com"}, ev.Request.FQDNs)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	_, open := <-sub
	assert.False(t, open)
}

func receive(t *testing.T, sub Subscriber) *types.Event {
	t.Helper()
	select {
	case ev := <-sub:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}
