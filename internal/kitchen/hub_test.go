package kitchen

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snackzinabi/internal/metrics"
	"snackzinabi/internal/models"
)

type fakeEndpoint struct {
	id       uuid.UUID
	mu       sync.Mutex
	received [][]byte
	sendErr  error
	closed   bool
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{id: uuid.New()}
}

func (f *fakeEndpoint) ID() uuid.UUID { return f.id }

func (f *fakeEndpoint) Send(message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.received = append(f.received, message)
	return nil
}

func (f *fakeEndpoint) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeEndpoint) frames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.received)
}

func newTestHub() *Hub {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewHub(log, metrics.NewCollector())
}

func TestRegisterDeregister(t *testing.T) {
	hub := newTestHub()
	e := newFakeEndpoint()

	hub.Register(e)
	assert.Equal(t, 1, hub.Count())

	hub.Deregister(e.ID())
	assert.Equal(t, 0, hub.Count())

	// Deregistering twice is harmless.
	hub.Deregister(e.ID())
	assert.Equal(t, 0, hub.Count())
}

func TestBroadcastDeliversToAll(t *testing.T) {
	hub := newTestHub()
	a, b := newFakeEndpoint(), newFakeEndpoint()
	hub.Register(a)
	hub.Register(b)

	deliveries := hub.NotifyNewCommande(&models.Commande{Plat: "tacos", Table: 5})

	require.Len(t, deliveries, 2)
	for _, d := range deliveries {
		assert.NoError(t, d.Err)
	}
	assert.Equal(t, 1, a.frames())
	assert.Equal(t, 1, b.frames())
	assert.Contains(t, string(a.received[0]), `"type":"new_commande"`)
	assert.Contains(t, string(a.received[0]), `"plat":"tacos"`)
	assert.Contains(t, string(a.received[0]), `"table":5`)
}

func TestBroadcastSurvivesFailingConnection(t *testing.T) {
	hub := newTestHub()
	ok1, bad, ok2 := newFakeEndpoint(), newFakeEndpoint(), newFakeEndpoint()
	bad.sendErr = errors.New("write: broken pipe")
	hub.Register(ok1)
	hub.Register(bad)
	hub.Register(ok2)

	deliveries := hub.NotifyNewCommande(&models.Commande{Plat: "sandwich", Table: 2})

	require.Len(t, deliveries, 3)
	var failures int
	for _, d := range deliveries {
		if d.Err != nil {
			failures++
			assert.Equal(t, bad.ID(), d.Endpoint)
		}
	}
	assert.Equal(t, 1, failures)

	// Healthy connections got the frame, the broken one was dropped and closed.
	assert.Equal(t, 1, ok1.frames())
	assert.Equal(t, 1, ok2.frames())
	assert.Equal(t, 0, bad.frames())
	assert.Equal(t, 2, hub.Count())
	assert.True(t, bad.closed)
}

func TestLateJoinerGetsNoReplay(t *testing.T) {
	hub := newTestHub()
	early := newFakeEndpoint()
	hub.Register(early)

	hub.NotifyNewCommande(&models.Commande{Plat: "tacos", Table: 1})

	late := newFakeEndpoint()
	hub.Register(late)

	assert.Equal(t, 1, early.frames())
	assert.Equal(t, 0, late.frames())
}

func TestConcurrentRegistrationAndBroadcast(t *testing.T) {
	hub := newTestHub()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			e := newFakeEndpoint()
			hub.Register(e)
			hub.Deregister(e.ID())
		}()
		go func() {
			defer wg.Done()
			hub.NotifyNewCommande(&models.Commande{Plat: "tacos", Table: 7})
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.Count())
}
