package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careconnect.org/internal/auth"
	"careconnect.org/internal/localstore"
)

func demoUser() auth.User {
	return auth.User{ID: "1", Email: "user@careconnect.com", Name: "Demo User", Role: auth.RoleUser}
}

func TestEstablishPersistsAndCurrentReflects(t *testing.T) {
	local, err := localstore.Open(":memory:")
	require.NoError(t, err)
	defer local.Close()

	s := New(local)
	assert.True(t, s.Current().Anonymous())

	s.Establish("tok-1", demoUser())
	got := s.Current()
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, "1", got.User.ID)

	// A fresh store over the same local store loads the same session.
	s2 := New(local)
	assert.Equal(t, got, s2.Current())
}

func TestClearBroadcastsAnonymous(t *testing.T) {
	local, err := localstore.Open(":memory:")
	require.NoError(t, err)
	defer local.Close()

	s := New(local)
	s.Establish("tok-1", demoUser())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := s.Subscribe(ctx)

	s.Clear()
	select {
	case sess := <-sub:
		assert.True(t, sess.Anonymous())
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast after Clear")
	}
	assert.True(t, s.Current().Anonymous())
}

func TestWatchConvergesAcrossStores(t *testing.T) {
	local, err := localstore.Open(":memory:")
	require.NoError(t, err)
	defer local.Close()

	writer := New(local)
	reader := New(local)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reader.Watch(ctx)
	sub := reader.Subscribe(ctx)

	writer.Establish("tok-9", demoUser())
	waitFor(t, sub, func(sess Session) bool { return sess.Token == "tok-9" })
	assert.Equal(t, "tok-9", reader.Current().Token)

	writer.Clear()
	waitFor(t, sub, func(sess Session) bool { return sess.Anonymous() })
	assert.True(t, reader.Current().Anonymous())
}

func TestHalfWrittenSessionLoadsAnonymous(t *testing.T) {
	local, err := localstore.Open(":memory:")
	require.NoError(t, err)
	defer local.Close()

	local.SetToken("orphan")
	s := New(local)
	assert.True(t, s.Current().Anonymous())
}

func waitFor(t *testing.T, ch <-chan Session, ok func(Session) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case sess := <-ch:
			if ok(sess) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for session state")
		}
	}
}
