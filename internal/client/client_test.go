package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/cards-client/internal/router"
	"github.com/DoyleJ11/cards-client/pkg/types"
)

const waitFor = 3 * time.Second

// fakeServer speaks just enough of the game protocol to drive the client:
// it accepts one websocket, records every decoded command, and lets tests
// push raw inbound messages.
type fakeServer struct {
	t    *testing.T
	srv  *httptest.Server
	cmds chan types.Command

	connCh chan *websocket.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	fs := &fakeServer{
		t:      t,
		cmds:   make(chan types.Command, 64),
		connCh: make(chan *websocket.Conn, 1),
	}

	r := chi.NewRouter()
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := websocket.Accept(w, req, nil)
		if err != nil {
			return
		}
		fs.connCh <- conn
		for {
			_, data, err := conn.Read(context.Background())
			if err != nil {
				return
			}
			var cmd types.Command
			if err := json.Unmarshal(data, &cmd); err != nil {
				continue
			}
			fs.cmds <- cmd
		}
	})

	fs.srv = httptest.NewServer(r)
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(fs.srv.URL, "http") + "/ws"
}

// conn blocks until the client has connected.
func (fs *fakeServer) conn() *websocket.Conn {
	fs.t.Helper()
	select {
	case c := <-fs.connCh:
		return c
	case <-time.After(waitFor):
		fs.t.Fatal("client never connected")
		return nil
	}
}

func (fs *fakeServer) push(conn *websocket.Conn, raw string) {
	fs.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(fs.t, conn.Write(ctx, websocket.MessageText, []byte(raw)))
}

// await returns the next received command with the given action, skipping
// heartbeats and anything else in between.
func (fs *fakeServer) await(action string) types.Command {
	fs.t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case cmd := <-fs.cmds:
			if cmd.Action == action {
				return cmd
			}
		case <-deadline:
			fs.t.Fatalf("timed out waiting for %q", action)
			return types.Command{}
		}
	}
}

// refute fails if a command with the given action arrives within the window.
func (fs *fakeServer) refute(action string, window time.Duration) {
	fs.t.Helper()
	deadline := time.After(window)
	for {
		select {
		case cmd := <-fs.cmds:
			if cmd.Action == action {
				fs.t.Fatalf("unexpected %q: %+v", action, cmd)
			}
		case <-deadline:
			return
		}
	}
}

func connect(t *testing.T, fs *fakeServer, opts Options) *Client {
	t.Helper()
	opts.URL = fs.url()
	if opts.Heartbeat == 0 {
		opts.Heartbeat = time.Hour // keep heartbeats out of the way unless the test wants them
	}
	c, err := Connect(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoginJoinAndCardReconciliation(t *testing.T) {
	fs := newFakeServer(t)
	c := connect(t, fs, Options{})
	conn := fs.conn()

	c.Post(SetNick{Nick: "alice"})
	nick := fs.await(types.ActionSetNick)
	assert.Equal(t, "alice", nick.Nick)

	fs.push(conn, `{"action":"confirm_nick","confirmed":true,"nick":"alice"}`)
	// Explicit login lands in the lobby, which requests the game list.
	fs.await(types.ActionGameList)

	fs.push(conn, `{"action":"game_list","games":[{"name":"foo","players":2,"joinable":true}]}`)

	c.Post(JoinGame{Game: "foo"})
	join := fs.await(types.ActionJoinGame)
	assert.Equal(t, "foo", join.Game)

	fs.push(conn, `{"action":"confirm_join","confirmed":true,"game":"foo"}`)
	fs.push(conn, `{"action":"game_state","state":{"hand":[1,2],"black_card":9}}`)

	fetch := fs.await(types.ActionCardData)
	assert.Equal(t, []types.CardID{"1", "2"}, fetch.White)
	assert.Equal(t, []types.CardID{"9"}, fetch.Black)

	fs.push(conn, `{"action":"card_data","cards":{
		"white":{"1":{"text":"one"},"2":{"text":"two"}},
		"black":{"9":{"text":"prompt","pick":1}}
	}}`)

	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		return snap.Route == (router.Route{State: router.InGame, Game: "foo"}) &&
			len(snap.Session.Hand) == 2 &&
			!snap.Session.Hand[0].Pending &&
			snap.Session.Prompt != nil &&
			snap.Session.Prompt.Text == "prompt"
	}, waitFor, 10*time.Millisecond)

	// The same snapshot again finds every id cached: no second fetch.
	fs.push(conn, `{"action":"game_state","state":{"hand":[1,2],"black_card":9}}`)
	fs.refute(types.ActionCardData, 300*time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, "one", snap.Session.Hand[0].Text)
	assert.Equal(t, "two", snap.Session.Hand[1].Text)
	require.Len(t, snap.Session.Games, 1)
	assert.Equal(t, "foo", snap.Session.Games[0].Name)
}

func TestHeartbeatsFlowOnATimer(t *testing.T) {
	fs := newFakeServer(t)
	connect(t, fs, Options{Heartbeat: 50 * time.Millisecond})
	fs.conn()

	fs.await(types.ActionHeartbeat)
	fs.await(types.ActionHeartbeat)
}

func TestChatAppendsAndRenders(t *testing.T) {
	fs := newFakeServer(t)
	c := connect(t, fs, Options{})
	conn := fs.conn()

	fs.push(conn, `{"action":"user_join","from":"Bob","time":1700000000}`)
	fs.push(conn, `{"action":"user_chat","from":"Bob","msg":"hi","time":1700000001}`)

	require.Eventually(t, func() bool {
		chat := c.Snapshot().Session.Chat
		return len(chat) == 2 &&
			chat[0].Message == "Bob has joined" &&
			chat[1].Message == "Bob: hi"
	}, waitFor, 10*time.Millisecond)
}

func TestPendingRedirectAcrossTheWire(t *testing.T) {
	fs := newFakeServer(t)
	c := connect(t, fs, Options{InitialToken: "games/foo"})
	conn := fs.conn()

	assert.Equal(t, router.Landing, c.Snapshot().Route.State)

	fs.push(conn, `{"action":"confirm_nick","confirmed":true,"nick":"alice"}`)

	require.Eventually(t, func() bool {
		return c.Snapshot().Route == (router.Route{State: router.InGame, Game: "foo"})
	}, waitFor, 10*time.Millisecond)
}

func TestServerCloseSurfacesNotice(t *testing.T) {
	fs := newFakeServer(t)
	c := connect(t, fs, Options{})
	conn := fs.conn()

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))

	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		n := len(snap.Session.Chat)
		return snap.Session.Closed && n > 0 &&
			snap.Session.Chat[n-1].Message == "Connection closed"
	}, waitFor, 10*time.Millisecond)
}

func TestCloseSendsLeave(t *testing.T) {
	fs := newFakeServer(t)
	c := connect(t, fs, Options{})
	fs.conn()

	require.NoError(t, c.Close())
	leave := fs.await(types.ActionLeave)
	assert.Equal(t, types.ActionLeave, leave.Action)
}

func TestSubscribeSeesUpdates(t *testing.T) {
	fs := newFakeServer(t)
	c := connect(t, fs, Options{})
	conn := fs.conn()

	sub := c.Subscribe()
	fs.push(conn, `{"action":"user_chat","from":"Bob","msg":"hi","time":1700000000}`)

	select {
	case snap, ok := <-sub:
		require.True(t, ok)
		require.NotEmpty(t, snap.Session.Chat)
		assert.Equal(t, "Bob: hi", snap.Session.Chat[len(snap.Session.Chat)-1].Message)
	case <-time.After(waitFor):
		t.Fatal("no snapshot delivered")
	}

	require.NoError(t, c.Close())
	_, ok := <-sub
	assert.False(t, ok, "subscription closes with the client")
}

func TestStartGameIsSentOnce(t *testing.T) {
	fs := newFakeServer(t)
	c := connect(t, fs, Options{})
	conn := fs.conn()

	fs.push(conn, `{"action":"confirm_nick","confirmed":true,"nick":"alice"}`)
	fs.push(conn, `{"action":"confirm_join","confirmed":true,"game":"foo"}`)

	require.Eventually(t, func() bool {
		return c.Snapshot().Session.Game == "foo"
	}, waitFor, 10*time.Millisecond)

	c.Post(StartGame{})
	start := fs.await(types.ActionStartGame)
	assert.Equal(t, "foo", start.Game)

	c.Post(StartGame{})
	fs.refute(types.ActionStartGame, 300*time.Millisecond)
}
