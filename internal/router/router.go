package router

import "strings"

// The router is a small finite state machine over three mutually exclusive
// view states, driven by location tokens ("", "games", "games/<name>"). It
// does not touch any navigation API itself; the embedding layer feeds it
// tokens as they arrive and reads back the resulting route.

type State string

const (
	Landing State = "landing"
	Lobby   State = "lobby"
	InGame  State = "in_game"
)

// Route is the current view plus the game name when the view is InGame.
type Route struct {
	State State  `json:"state"`
	Game  string `json:"game,omitempty"`
}

// Result is what one transition produced. RequestGameList is set when the
// transition entered the lobby, which obliges the caller to send one
// outbound game_list request.
type Result struct {
	Route           Route
	RequestGameList bool
}

// Router keeps the current route and at most one deferred navigation target,
// recorded when a guarded view was requested without a nickname.
type Router struct {
	route   Route
	pending string
	hasPend bool
}

// New computes the initial route once from the load-time token. The nickname
// is never set that early, so guarded tokens turn into a pending redirect
// immediately.
func New(token string, hasNick bool) (*Router, Result) {
	r := &Router{route: Route{State: Landing}}
	return r, r.Navigate(token, hasNick)
}

func (r *Router) Route() Route { return r.route }

// PendingRedirect returns the deferred token, if one is recorded.
func (r *Router) PendingRedirect() (string, bool) {
	return r.pending, r.hasPend
}

// Navigate transitions on a location token. Tokens that match no pattern
// fall back to Landing. Entering Lobby or InGame without a nickname records
// the token as the pending redirect and forces Landing instead.
func (r *Router) Navigate(token string, hasNick bool) Result {
	next := parse(token)

	if next.State != Landing && !hasNick {
		r.pending = token
		r.hasPend = true
		r.route = Route{State: Landing}
		return Result{Route: r.route}
	}

	r.route = next
	return Result{Route: r.route, RequestGameList: next.State == Lobby}
}

// NickConfirmed completes a deferred navigation now that a nickname exists.
// The pending redirect, if any, is consumed exactly once; with none pending,
// an explicit login submission lands in the lobby and anything else stays
// put.
func (r *Router) NickConfirmed(explicitLogin bool) Result {
	if r.hasPend {
		token := r.pending
		r.pending = ""
		r.hasPend = false
		return r.Navigate(token, true)
	}
	if explicitLogin {
		return r.Navigate("games", true)
	}
	return Result{Route: r.route}
}

func parse(token string) Route {
	if token == "" {
		return Route{State: Landing}
	}
	if _, ok := match("games", token); ok {
		return Route{State: Lobby}
	}
	if name, ok := match("games/:name", token); ok && name != "" {
		return Route{State: InGame, Game: name}
	}
	return Route{State: Landing}
}

// match compares a token against a slash-separated pattern supporting one
// named segment (":name"), returning the segment's binding.
func match(pattern, token string) (string, bool) {
	ps := strings.Split(pattern, "/")
	ts := strings.Split(token, "/")
	if len(ps) != len(ts) {
		return "", false
	}
	var bound string
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			bound = ts[i]
			continue
		}
		if ps[i] != ts[i] {
			return "", false
		}
	}
	return bound, true
}
