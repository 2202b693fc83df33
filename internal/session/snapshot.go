package session

import (
	"time"

	"github.com/DoyleJ11/cards-client/pkg/types"
)

// Snapshot is the immutable view handed to the UI layer. It owns its slices,
// so a later dispatch never mutates what a subscriber is holding.
type Snapshot struct {
	Epoch     string              `json:"epoch"`
	Nick      string              `json:"nick,omitempty"`
	Game      string              `json:"game,omitempty"`
	Hand      []CardView          `json:"hand"`
	Prompt    *CardView           `json:"prompt,omitempty"`
	Chat      []ChatLine          `json:"chat"`
	Games     []types.GameListing `json:"games"`
	LastError string              `json:"last_error,omitempty"`
	Closed    bool                `json:"closed"`
}

// CardView flattens a hand or prompt entry for rendering. Pending means the
// id is known but its text has not arrived yet.
type CardView struct {
	ID        types.CardID `json:"id"`
	Text      string       `json:"text,omitempty"`
	Watermark string       `json:"watermark,omitempty"`
	Draw      int          `json:"draw,omitempty"`
	Pick      int          `json:"pick,omitempty"`
	Pending   bool         `json:"pending,omitempty"`
}

// ChatLine carries both the raw timestamp and the bracketed clock stamp the
// chat log renders.
type ChatLine struct {
	Time    time.Time `json:"time"`
	Stamp   string    `json:"stamp"`
	Message string    `json:"message"`
}

func cardView(id types.CardID, rec *types.CardRecord) CardView {
	v := CardView{ID: id, Pending: rec == nil}
	if rec != nil {
		v.Text = rec.Text
		v.Watermark = rec.Watermark
		v.Draw = rec.Draw
		v.Pick = rec.Pick
	}
	return v
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Epoch:     s.Epoch.String(),
		Nick:      s.Nick,
		Game:      s.Game,
		Hand:      make([]CardView, 0, len(s.Hand)),
		Chat:      make([]ChatLine, 0, len(s.Chat)),
		Games:     make([]types.GameListing, len(s.Listings)),
		LastError: s.LastError,
		Closed:    s.Closed,
	}
	for _, h := range s.Hand {
		snap.Hand = append(snap.Hand, cardView(h.ID, h.Record))
	}
	if s.Prompt != nil {
		v := cardView(s.Prompt.ID, s.Prompt.Record)
		snap.Prompt = &v
	}
	for _, c := range s.Chat {
		snap.Chat = append(snap.Chat, ChatLine{
			Time:    c.Time,
			Stamp:   "[" + c.Time.Format("15:04:05") + "]",
			Message: c.Message,
		})
	}
	copy(snap.Games, s.Listings)
	return snap
}
