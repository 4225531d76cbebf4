package socket

import (
	"os"
	"testing"

	"cardsync/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestRegistryJoinLeaveOccupancy(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, 0, r.Occupancy("card-1"), "unknown room is empty")

	connA := NewConnectionID()
	connB := NewConnectionID()
	connC := NewConnectionID()

	r.Join(connA, "card-1", "u1", "Alice")
	r.Join(connB, "card-1", "u2", "Bob")
	r.Join(connC, "card-1", "u3", "Cara")
	assert.Equal(t, 3, r.Occupancy("card-1"))

	_, ok := r.Leave(connB)
	assert.True(t, ok)
	assert.Equal(t, 2, r.Occupancy("card-1"))

	_, ok = r.Leave(connA)
	assert.True(t, ok)
	assert.Equal(t, 1, r.Occupancy("card-1"))
}

func TestRegistryRejoinReplacesRegistration(t *testing.T) {
	r := NewRegistry()
	conn := NewConnectionID()

	left := r.Join(conn, "card-1", "u1", "Alice")
	assert.Empty(t, left)
	assert.Equal(t, 1, r.Occupancy("card-1"))

	// Re-joining the same room changes nothing.
	left = r.Join(conn, "card-1", "u1", "Alice")
	assert.Empty(t, left)
	assert.Equal(t, 1, r.Occupancy("card-1"))

	// Moving to another room vacates the first and reports it.
	left = r.Join(conn, "card-2", "u1", "Alice")
	assert.Equal(t, "card-1", left)
	assert.Equal(t, 0, r.Occupancy("card-1"))
	assert.Equal(t, 1, r.Occupancy("card-2"))
}

func TestRegistryUnknownLeaveIsNoOp(t *testing.T) {
	r := NewRegistry()
	conn := NewConnectionID()
	r.Join(conn, "card-1", "u1", "Alice")

	cardID, ok := r.Leave(conn)
	assert.True(t, ok)
	assert.Equal(t, "card-1", cardID)

	// A duplicate disconnect signal must not blow up or miscount.
	_, ok = r.Leave(conn)
	assert.False(t, ok)
	_, ok = r.Leave("never-joined")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Occupancy("card-1"))
}

func TestRegistryMembersSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Join(NewConnectionID(), "card-1", "u1", "Alice")
	r.Join(NewConnectionID(), "card-1", "u2", "Bob")

	members := r.Members("card-1")
	assert.Len(t, members, 2)
	names := []string{members[0].DisplayName, members[1].DisplayName}
	assert.Contains(t, names, "Alice")
	assert.Contains(t, names, "Bob")

	assert.Empty(t, r.Members("card-2"))
}
