package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokens(t *testing.T) {
	cases := []struct {
		name  string
		token string
		want  Route
	}{
		{name: "empty is landing", token: "", want: Route{State: Landing}},
		{name: "games is lobby", token: "games", want: Route{State: Lobby}},
		{name: "named game", token: "games/foo", want: Route{State: InGame, Game: "foo"}},
		{name: "no match falls back", token: "bogus", want: Route{State: Landing}},
		{name: "too many segments falls back", token: "games/foo/bar", want: Route{State: Landing}},
		{name: "empty game name falls back", token: "games/", want: Route{State: Landing}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rt, res := New(tc.token, true)
			assert.Equal(t, tc.want, res.Route)
			assert.Equal(t, tc.want, rt.Route())
		})
	}
}

func TestGuardRecordsPendingRedirect(t *testing.T) {
	rt, res := New("games/foo", false)

	assert.Equal(t, Route{State: Landing}, res.Route)
	token, ok := rt.PendingRedirect()
	require.True(t, ok)
	assert.Equal(t, "games/foo", token)
}

func TestNickConfirmedConsumesRedirect(t *testing.T) {
	rt, _ := New("games/foo", false)

	res := rt.NickConfirmed(false)
	assert.Equal(t, Route{State: InGame, Game: "foo"}, res.Route)

	_, ok := rt.PendingRedirect()
	assert.False(t, ok, "redirect must be consumed exactly once")

	// A second confirmation with nothing pending stays put.
	res = rt.NickConfirmed(false)
	assert.Equal(t, Route{State: InGame, Game: "foo"}, res.Route)
}

func TestNickConfirmedExplicitLoginGoesToLobby(t *testing.T) {
	rt, _ := New("", false)

	res := rt.NickConfirmed(true)
	assert.Equal(t, Route{State: Lobby}, res.Route)
	assert.True(t, res.RequestGameList)
}

func TestEnteringLobbyRequestsGameList(t *testing.T) {
	rt, _ := New("", true)

	res := rt.Navigate("games", true)
	assert.True(t, res.RequestGameList)

	res = rt.Navigate("games/foo", true)
	assert.False(t, res.RequestGameList)
}

func TestGuardedNavigateOverwritesPending(t *testing.T) {
	rt, _ := New("games/foo", false)
	rt.Navigate("games/bar", false)

	res := rt.NickConfirmed(false)
	assert.Equal(t, Route{State: InGame, Game: "bar"}, res.Route)
}

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern string
		token   string
		bound   string
		ok      bool
	}{
		{"games", "games", "", true},
		{"games", "other", "", false},
		{"games/:name", "games/foo", "foo", true},
		{"games/:name", "games", "", false},
		{"games/:name", "lobby/foo", "", false},
	}

	for _, tc := range cases {
		bound, ok := match(tc.pattern, tc.token)
		assert.Equal(t, tc.ok, ok, "%s vs %s", tc.pattern, tc.token)
		assert.Equal(t, tc.bound, bound, "%s vs %s", tc.pattern, tc.token)
	}
}
