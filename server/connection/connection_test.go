package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager()
	go m.Start()
	return m
}

func register(t *testing.T, m *Manager, id, tableID string) *Client {
	t.Helper()
	c := NewClient(id, nil, tableID)
	before := m.ClientCount()
	m.Register <- c
	require.Eventually(t, func() bool {
		return m.ClientCount() > before
	}, time.Second, time.Millisecond)
	return c
}

func TestRegisterAndSend(t *testing.T) {
	m := startManager(t)
	c := register(t, m, "c1", "t1")

	require.True(t, m.SendToClient("c1", []byte("hello")))
	assert.Equal(t, []byte("hello"), <-c.Send)

	assert.False(t, m.SendToClient("nobody", []byte("hello")))
}

func TestUnregisterClosesSend(t *testing.T) {
	m := startManager(t)
	c := register(t, m, "c1", "t1")

	m.Unregister <- c
	_, open := <-c.Send
	assert.False(t, open, "send channel closed on unregister")
	assert.False(t, m.SendToClient("c1", []byte("x")))
}

func TestSendToTable(t *testing.T) {
	m := startManager(t)
	c1 := register(t, m, "c1", "t1")
	c2 := register(t, m, "c2", "t1")
	other := register(t, m, "c3", "t2")

	m.SendToTable("t1", []byte("deal"))

	assert.Equal(t, []byte("deal"), <-c1.Send)
	assert.Equal(t, []byte("deal"), <-c2.Send)
	assert.Empty(t, other.Send)
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	m := startManager(t)
	register(t, m, "c1", "t1")

	for i := 0; i < sendBuffer; i++ {
		require.True(t, m.SendToClient("c1", []byte("x")))
	}
	assert.False(t, m.SendToClient("c1", []byte("overflow")))
}
