package dispatch

import (
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/cards-client/internal/cardcache"
	"github.com/DoyleJ11/cards-client/internal/router"
	"github.com/DoyleJ11/cards-client/internal/session"
	"github.com/DoyleJ11/cards-client/pkg/types"
)

// Dispatcher maps each inbound event to state updates against the session,
// router and card cache, plus the outbound messages those updates oblige.
// It holds no state of its own beyond the logger; callers must serialize
// Apply so one event fully completes before the next.
type Dispatcher struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{log: log.Named("dispatch")}
}

// Apply handles one inbound event and returns the outbound messages to send,
// in order. Unrecognized events are a deliberate no-op.
func (d *Dispatcher) Apply(s *session.Session, rt *router.Router, cache *cardcache.Cache, ev types.Event) []types.Command {
	switch ev := ev.(type) {
	case types.UserData:
		if ev.Nick == "" || s.Nick != "" {
			return nil
		}
		s.SetNick(ev.Nick)
		return d.afterNick(s, rt)

	case types.ConfirmNick:
		if !ev.Confirmed {
			s.ConsumeLoginPending()
			if ev.Err != "" {
				s.SurfaceError(ev.Err)
			} else {
				s.SurfaceError("nickname rejected")
			}
			return nil
		}
		s.SetNick(ev.Nick)
		return d.afterNick(s, rt)

	case types.GameList:
		s.ReplaceListings(ev.Games)
		return nil

	case types.ConfirmJoin:
		if !ev.Confirmed {
			if ev.Err != "" {
				s.SurfaceError(ev.Err)
			} else {
				s.SurfaceError("join rejected")
			}
			return nil
		}
		s.LastError = ""
		res := rt.Navigate("games/"+ev.Game, s.Nick != "")
		return d.applyRoute(s, res)

	case types.GameState:
		s.SetGameState(ev.Hand, ev.BlackCard)
		if req, ok := d.reconcile(s, cache); ok {
			return []types.Command{req}
		}
		return nil

	case types.CardData:
		for id, rec := range ev.White {
			cache.Resolve(cardcache.White, id, rec)
		}
		for id, rec := range ev.Black {
			cache.Resolve(cardcache.Black, id, rec)
		}
		// A late resolve may land after the hand already changed, so run
		// another pass; already-resolved ids never come back from it.
		if req, ok := d.reconcile(s, cache); ok {
			return []types.Command{req}
		}
		return nil

	case types.UserChat:
		s.AppendChat(ev.Time, ev.From+": "+ev.Msg)
		return nil

	case types.UserJoin:
		s.AppendChat(ev.Time, ev.From+" has joined")
		return nil

	case types.UserLeave:
		s.AppendChat(ev.Time, ev.From+" has left")
		return nil

	case types.UserDisconnect:
		s.AppendChat(ev.Time, ev.From+" has disconnected")
		return nil

	case types.Closed:
		s.Closed = true
		s.AppendChat(time.Now(), "Connection closed")
		return nil

	case types.Unknown:
		d.log.Debug("ignoring unrecognized action", zap.String("action", ev.Action))
		return nil

	default:
		return nil
	}
}

// Navigate handles a user-driven location change.
func (d *Dispatcher) Navigate(s *session.Session, rt *router.Router, token string) []types.Command {
	res := rt.Navigate(token, s.Nick != "")
	return d.applyRoute(s, res)
}

// afterNick runs the shared redirect-or-lobby logic for user_data and a
// successful confirm_nick.
func (d *Dispatcher) afterNick(s *session.Session, rt *router.Router) []types.Command {
	res := rt.NickConfirmed(s.ConsumeLoginPending())
	return d.applyRoute(s, res)
}

func (d *Dispatcher) applyRoute(s *session.Session, res router.Result) []types.Command {
	switch res.Route.State {
	case router.InGame:
		if s.Game != res.Route.Game {
			s.StartRequested = false
		}
		s.Game = res.Route.Game
	case router.Lobby:
		s.Game = ""
		s.StartRequested = false
	}
	if res.RequestGameList {
		return []types.Command{types.RequestGameList()}
	}
	return nil
}

// reconcile runs one cache pass over the current hand and prompt, refreshes
// the session's record references, and batches every newly missing id into a
// single fetch.
func (d *Dispatcher) reconcile(s *session.Session, cache *cardcache.Cache) (types.Command, bool) {
	white := cache.Reconcile(cardcache.White, s.HandIDs())
	black := cache.Reconcile(cardcache.Black, s.PromptIDs())
	s.AttachRecords(cache)
	if len(white) == 0 && len(black) == 0 {
		return types.Command{}, false
	}
	return types.RequestCards(white, black), true
}
