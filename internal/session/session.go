package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/DoyleJ11/cards-client/internal/cardcache"
	"github.com/DoyleJ11/cards-client/pkg/types"
)

// Session is the reconciled view model for one connection epoch. It mirrors
// whatever the server asserts; nothing here advances game state on its own.
// A reconnect discards the whole thing and starts a fresh epoch (the card
// cache is the one store that survives).

// HandEntry pairs a card id with its lazily attached record. Record stays nil
// until the cache resolves the id; it references the cache's copy rather than
// duplicating it.
type HandEntry struct {
	ID     types.CardID
	Record *types.CardRecord
}

// Prompt is the active black card, if any.
type Prompt struct {
	ID     types.CardID
	Record *types.CardRecord
}

// ChatEntry is append-only and insertion-ordered. Time is the server's
// timestamp for room notices, the local clock for synthetic entries.
type ChatEntry struct {
	Time    time.Time
	Message string
}

type Session struct {
	Epoch uuid.UUID

	Nick string
	Game string

	Hand   []HandEntry
	Prompt *Prompt

	Chat     []ChatEntry
	Listings []types.GameListing

	// LastError is the most recent recoverable rejection (nick or join),
	// surfaced for the UI. Cleared on the next successful confirmation.
	LastError string

	// StartRequested keeps the start command idempotent client-side once
	// it has been sent for the current game.
	StartRequested bool

	// LoginPending is set while an explicit set_nick submission is
	// unconfirmed; it decides whether a confirmation navigates to the
	// lobby when no redirect is pending.
	LoginPending bool

	// Closed is terminal: the channel is gone and no further outbound
	// message may be attempted.
	Closed bool
}

func New() *Session {
	return &Session{Epoch: uuid.New()}
}

// SetNick records the confirmed nickname. It is immutable once set for the
// rest of the epoch; a second confirmation is ignored.
func (s *Session) SetNick(nick string) {
	if s.Nick != "" || nick == "" {
		return
	}
	s.Nick = nick
	s.LastError = ""
}

// ConsumeLoginPending reports and clears the explicit-login flag.
func (s *Session) ConsumeLoginPending() bool {
	p := s.LoginPending
	s.LoginPending = false
	return p
}

func (s *Session) AppendChat(at time.Time, msg string) {
	s.Chat = append(s.Chat, ChatEntry{Time: at, Message: msg})
}

// ReplaceListings swaps the game list wholesale; there is no incremental
// merge.
func (s *Session) ReplaceListings(games []types.GameListing) {
	s.Listings = games
}

// SetGameState replaces the hand and active prompt with the server's
// snapshot. Records are not attached here; callers run a cache
// reconciliation pass and then AttachRecords.
func (s *Session) SetGameState(hand []types.CardID, black *types.CardID) {
	s.Hand = s.Hand[:0]
	for _, id := range hand {
		s.Hand = append(s.Hand, HandEntry{ID: id})
	}
	if black != nil {
		s.Prompt = &Prompt{ID: *black}
	} else {
		s.Prompt = nil
	}
}

// AttachRecords points hand and prompt entries at whatever the cache has
// resolved so far. Safe to call repeatedly; entries still pending keep a nil
// record.
func (s *Session) AttachRecords(cache *cardcache.Cache) {
	for i := range s.Hand {
		if e := cache.Lookup(cardcache.White, s.Hand[i].ID); e.State == cardcache.Resolved {
			s.Hand[i].Record = e.Record
		}
	}
	if s.Prompt != nil {
		if e := cache.Lookup(cardcache.Black, s.Prompt.ID); e.State == cardcache.Resolved {
			s.Prompt.Record = e.Record
		}
	}
}

// HandIDs returns the hand's ids in order, for reconciliation.
func (s *Session) HandIDs() []types.CardID {
	ids := make([]types.CardID, 0, len(s.Hand))
	for _, h := range s.Hand {
		ids = append(ids, h.ID)
	}
	return ids
}

// PromptIDs returns the active prompt id as a slice (empty when absent).
func (s *Session) PromptIDs() []types.CardID {
	if s.Prompt == nil {
		return nil
	}
	return []types.CardID{s.Prompt.ID}
}

func (s *Session) SurfaceError(msg string) {
	s.LastError = msg
}
