package types

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Server -> Client
//
// Inbound messages use the same one-object-per-message, "action"-tagged
// encoding. Decoding produces a closed union so the dispatcher can match
// exhaustively; anything with an unrecognized tag becomes Unknown rather
// than an error, so new server messages never break older clients.

type Event interface{ isEvent() }

// UserData carries session info pushed by the server, typically right after
// connect. Nick is empty when the user has not identified yet.
type UserData struct {
	Nick string
}

// ConfirmNick is the server's answer to a set_nick request.
type ConfirmNick struct {
	Confirmed bool
	Nick      string
	Err       string
}

// GameList replaces the lobby's game listings wholesale.
type GameList struct {
	Games []GameListing
}

// ConfirmJoin is the server's answer to a join_game request.
type ConfirmJoin struct {
	Confirmed bool
	Game      string
	Err       string
}

// GameState is the authoritative snapshot of the viewer's hand and the
// active black card. The client mirrors it; it never derives game state.
type GameState struct {
	Hand      []CardID
	BlackCard *CardID
}

// CardData delivers card text for previously requested (or unsolicited) ids,
// keyed by namespace.
type CardData struct {
	White map[CardID]CardRecord
	Black map[CardID]CardRecord
}

// UserChat, UserJoin, UserLeave and UserDisconnect are room notices. Time is
// the server's wall clock, not the client's.
type UserChat struct {
	From string
	Msg  string
	Time time.Time
}

type UserJoin struct {
	From string
	Time time.Time
}

type UserLeave struct {
	From string
	Time time.Time
}

type UserDisconnect struct {
	From string
	Time time.Time
}

// Closed is synthesized locally when the channel shuts down; the server never
// sends it.
type Closed struct{}

// Unknown is the catch-all for unrecognized action tags.
type Unknown struct {
	Action string
}

func (UserData) isEvent()       {}
func (ConfirmNick) isEvent()    {}
func (GameList) isEvent()       {}
func (ConfirmJoin) isEvent()    {}
func (GameState) isEvent()      {}
func (CardData) isEvent()       {}
func (UserChat) isEvent()       {}
func (UserJoin) isEvent()       {}
func (UserLeave) isEvent()      {}
func (UserDisconnect) isEvent() {}
func (Closed) isEvent()         {}
func (Unknown) isEvent()        {}

type envelope struct {
	Action string `json:"action"`
}

type userDataWire struct {
	Nick string `json:"nick"`
}

type confirmNickWire struct {
	Confirmed bool   `json:"confirmed"`
	Nick      string `json:"nick"`
	Error     string `json:"error"`
}

type gameListWire struct {
	Games []GameListing `json:"games"`
}

type confirmJoinWire struct {
	Confirmed bool   `json:"confirmed"`
	Game      string `json:"game"`
	Error     string `json:"error"`
}

type gameStateWire struct {
	State struct {
		Hand      []CardID `json:"hand"`
		BlackCard *CardID  `json:"black_card"`
	} `json:"state"`
}

type cardDataWire struct {
	Cards struct {
		White map[CardID]CardRecord `json:"white"`
		Black map[CardID]CardRecord `json:"black"`
	} `json:"cards"`
}

type noticeWire struct {
	From string  `json:"from"`
	Msg  string  `json:"msg"`
	Time float64 `json:"time"` // unix seconds
}

func (n noticeWire) at() time.Time {
	sec, frac := math.Modf(n.Time)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// DecodeEvent parses one inbound message. A malformed payload is an error; an
// unrecognized action is not.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Action {
	case "user_data":
		var w userDataWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode user_data: %w", err)
		}
		return UserData{Nick: w.Nick}, nil

	case "confirm_nick":
		var w confirmNickWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode confirm_nick: %w", err)
		}
		return ConfirmNick{Confirmed: w.Confirmed, Nick: w.Nick, Err: w.Error}, nil

	case "game_list":
		var w gameListWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode game_list: %w", err)
		}
		return GameList{Games: w.Games}, nil

	case "confirm_join":
		var w confirmJoinWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode confirm_join: %w", err)
		}
		return ConfirmJoin{Confirmed: w.Confirmed, Game: w.Game, Err: w.Error}, nil

	case "game_state":
		var w gameStateWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode game_state: %w", err)
		}
		return GameState{Hand: w.State.Hand, BlackCard: w.State.BlackCard}, nil

	case "card_data":
		var w cardDataWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode card_data: %w", err)
		}
		return CardData{White: w.Cards.White, Black: w.Cards.Black}, nil

	case "user_chat":
		var w noticeWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode user_chat: %w", err)
		}
		return UserChat{From: w.From, Msg: w.Msg, Time: w.at()}, nil

	case "user_join":
		var w noticeWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode user_join: %w", err)
		}
		return UserJoin{From: w.From, Time: w.at()}, nil

	case "user_leave":
		var w noticeWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode user_leave: %w", err)
		}
		return UserLeave{From: w.From, Time: w.at()}, nil

	case "user_disconnect":
		var w noticeWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode user_disconnect: %w", err)
		}
		return UserDisconnect{From: w.From, Time: w.at()}, nil

	default:
		return Unknown{Action: env.Action}, nil
	}
}
