package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chiefnoah/cozo/datalog/magic"
)

func TestPoisonKillAndCanceled(t *testing.T) {
	p := NewPoison()
	require.False(t, p.Canceled())
	p.Kill()
	require.True(t, p.Canceled())
}

func TestPoisonSetTimeoutFiresEventually(t *testing.T) {
	p := NewPoison()
	p.SetTimeout(10 * time.Millisecond)
	require.Eventually(t, p.Canceled, time.Second, time.Millisecond)
}

func TestRegistryRegisterListKill(t *testing.T) {
	reg := NewRegistry()
	poison := NewPoison()
	h, cleanup := reg.Register(poison)
	defer cleanup.Close()

	list := reg.List()
	require.Len(t, list, 1)
	require.Equal(t, h.ID, list[0].ID)

	status := reg.Kill(h.ID)
	require.Equal(t, StatusKilling, status)
	require.True(t, poison.Canceled())
}

func TestRegistryKillUnknownID(t *testing.T) {
	reg := NewRegistry()
	require.Equal(t, StatusNotFound, reg.Kill(999))
}

func TestRegistryCleanupDeregistersAndPoisons(t *testing.T) {
	reg := NewRegistry()
	poison := NewPoison()
	h, cleanup := reg.Register(poison)
	cleanup.Close()

	require.Empty(t, reg.List())
	require.True(t, poison.Canceled())
	require.Equal(t, StatusNotFound, reg.Kill(h.ID))
}

func TestRegistryCleanupIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	_, cleanup := reg.Register(NewPoison())
	cleanup.Close()
	require.NotPanics(t, cleanup.Close)
}

func TestSessionCountersTracksLiveSessions(t *testing.T) {
	c := NewSessionCounters()
	require.Equal(t, int64(0), c.Count())

	s1 := c.NewSession()
	s2 := c.NewSession()
	require.Equal(t, int64(2), c.Count())
	require.NotEqual(t, s1.ID, s2.ID)

	s1.Close()
	require.Equal(t, int64(1), c.Count())
	s1.Close() // idempotent
	require.Equal(t, int64(1), c.Count())

	s2.Close()
	require.Equal(t, int64(0), c.Count())
}

func TestProgramCachePutGet(t *testing.T) {
	c, err := NewProgramCache(8)
	require.NoError(t, err)

	_, ok := c.Get("?[x] := x = 1")
	require.False(t, ok)

	prog := &magic.Program{}
	c.Put("?[x] := x = 1", prog)

	got, ok := c.Get("?[x] := x = 1")
	require.True(t, ok)
	require.Same(t, prog, got)
	require.Equal(t, 1, c.Len())
}
