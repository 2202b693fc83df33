package types

// Client -> Server
//
// Every outbound message is one JSON object tagged by its "action" field.
// Fields not used by an action are omitted.
//
//	heartbeat:   {}
//	chat:        msg, game (optional; omitted for lobby chat)
//	start_game:  game
//	create_game: game
//	join_game:   game
//	game_list:   {}
//	set_nick:    nick
//	card_data:   white: [id], black: [id]  (ids the client is missing)
//	leave:       {}  (best-effort on teardown)

const (
	ActionHeartbeat  = "heartbeat"
	ActionChat       = "chat"
	ActionStartGame  = "start_game"
	ActionCreateGame = "create_game"
	ActionJoinGame   = "join_game"
	ActionGameList   = "game_list"
	ActionSetNick    = "set_nick"
	ActionCardData   = "card_data"
	ActionLeave      = "leave"
)

type Command struct {
	Action string   `json:"action"`
	Msg    string   `json:"msg,omitempty"`
	Game   string   `json:"game,omitempty"`
	Nick   string   `json:"nick,omitempty"`
	White  []CardID `json:"white,omitempty"`
	Black  []CardID `json:"black,omitempty"`
}

func Heartbeat() Command { return Command{Action: ActionHeartbeat} }

func Chat(msg, game string) Command { return Command{Action: ActionChat, Msg: msg, Game: game} }

func StartGame(game string) Command { return Command{Action: ActionStartGame, Game: game} }

func CreateGame(game string) Command { return Command{Action: ActionCreateGame, Game: game} }

func JoinGame(game string) Command { return Command{Action: ActionJoinGame, Game: game} }

func RequestGameList() Command { return Command{Action: ActionGameList} }

func SetNick(nick string) Command { return Command{Action: ActionSetNick, Nick: nick} }

// RequestCards builds the single batched fetch for all ids a reconciliation
// pass found missing.
func RequestCards(white, black []CardID) Command {
	return Command{Action: ActionCardData, White: white, Black: black}
}

func Leave() Command { return Command{Action: ActionLeave} }
