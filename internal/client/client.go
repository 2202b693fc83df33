package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/cards-client/internal/cardcache"
	"github.com/DoyleJ11/cards-client/internal/channel"
	"github.com/DoyleJ11/cards-client/internal/dispatch"
	"github.com/DoyleJ11/cards-client/internal/router"
	"github.com/DoyleJ11/cards-client/internal/session"
	"github.com/DoyleJ11/cards-client/pkg/types"
)

// Client owns one connection epoch: a fresh session and router wired to a
// dialed channel, with a single loop goroutine serializing the three event
// sources (inbound messages, the heartbeat ticker, user commands). One
// message is fully dispatched, outbound sends included, before the next is
// taken; nothing else touches the session or router.

const (
	DefaultHeartbeat = 10 * time.Second

	inboxSize     = 64
	subscribeSize = 8
)

// Snapshot is the full renderable view state at one instant.
type Snapshot struct {
	Route   router.Route     `json:"route"`
	Session session.Snapshot `json:"session"`
}

// Msg is a user command posted onto the loop. The closed set keeps command
// handling exhaustive, same as the inbound event union.
type Msg interface{ isClientMsg() }

type Navigate struct{ Token string }

type SetNick struct{ Nick string }

type SendChat struct{ Msg string }

type CreateGame struct{ Game string }

type JoinGame struct{ Game string }

type StartGame struct{}

type RequestGameList struct{}

type getSnapshot struct{ Reply chan Snapshot }

type subscribe struct{ Reply chan chan Snapshot }

type shutdown struct{}

func (Navigate) isClientMsg()        {}
func (SetNick) isClientMsg()         {}
func (SendChat) isClientMsg()        {}
func (CreateGame) isClientMsg()      {}
func (JoinGame) isClientMsg()        {}
func (StartGame) isClientMsg()       {}
func (RequestGameList) isClientMsg() {}
func (getSnapshot) isClientMsg()     {}
func (subscribe) isClientMsg()       {}
func (shutdown) isClientMsg()        {}

type Options struct {
	// URL is the server's websocket endpoint.
	URL string
	// InitialToken seeds the router, mirroring the location present at
	// load time.
	InitialToken string
	// Heartbeat overrides the outbound heartbeat period.
	Heartbeat time.Duration
	// Cache, when non-nil, is reused across connection epochs. Card text
	// is immutable, so a reconnecting caller should pass the old one.
	Cache  *cardcache.Cache
	Logger *zap.Logger
}

type Client struct {
	log   *zap.Logger
	ch    *channel.Channel
	cache *cardcache.Cache
	sess  *session.Session
	rt    *router.Router
	disp  *dispatch.Dispatcher

	heartbeat time.Duration
	inbox     chan Msg
	subs      map[int]chan Snapshot
	nextSub   int

	done      chan struct{}
	closeOnce sync.Once
}

// Connect dials the server and starts the event loop. The returned client is
// live immediately; commands posted before the first inbound message are
// processed in order with it.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("client: missing server url")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	hb := opts.Heartbeat
	if hb <= 0 {
		hb = DefaultHeartbeat
	}
	cache := opts.Cache
	if cache == nil {
		cache = cardcache.New()
	}

	ch, err := channel.Dial(ctx, opts.URL, log)
	if err != nil {
		return nil, err
	}

	sess := session.New()
	rt, _ := router.New(opts.InitialToken, false)

	c := &Client{
		log:       log.Named("client").With(zap.String("epoch", sess.Epoch.String())),
		ch:        ch,
		cache:     cache,
		sess:      sess,
		rt:        rt,
		disp:      dispatch.New(log),
		heartbeat: hb,
		inbox:     make(chan Msg, inboxSize),
		subs:      make(map[int]chan Snapshot),
		done:      make(chan struct{}),
	}
	c.log.Info("connected", zap.String("url", opts.URL), zap.String("token", opts.InitialToken))

	go c.loop()
	return c, nil
}

// Cache exposes the process-wide card cache so a reconnecting caller can
// carry it into the next epoch.
func (c *Client) Cache() *cardcache.Cache { return c.cache }

// Done is closed once the loop has stopped.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) loop() {
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	events := c.ch.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Terminal: surface the closed-channel notice and go
				// quiet. Snapshot reads keep working until Close.
				events = nil
				ticker.Stop()
				c.apply(types.Closed{})
				continue
			}
			c.apply(ev)

		case <-ticker.C:
			c.send(types.Heartbeat())

		case m := <-c.inbox:
			if c.handle(m) {
				return
			}
		}
	}
}

func (c *Client) apply(ev types.Event) {
	for _, cmd := range c.disp.Apply(c.sess, c.rt, c.cache, ev) {
		c.send(cmd)
	}
	c.broadcast()
}

func (c *Client) handle(m Msg) (stop bool) {
	switch m := m.(type) {
	case Navigate:
		for _, cmd := range c.disp.Navigate(c.sess, c.rt, m.Token) {
			c.send(cmd)
		}
		c.broadcast()

	case SetNick:
		c.sess.LoginPending = true
		c.send(types.SetNick(m.Nick))

	case SendChat:
		c.send(types.Chat(m.Msg, c.sess.Game))

	case CreateGame:
		c.send(types.CreateGame(m.Game))

	case JoinGame:
		c.send(types.JoinGame(m.Game))

	case StartGame:
		game := c.sess.Game
		if game == "" {
			game = c.rt.Route().Game
		}
		if game != "" && !c.sess.StartRequested {
			c.sess.StartRequested = true
			c.send(types.StartGame(game))
			c.broadcast()
		}

	case RequestGameList:
		c.send(types.RequestGameList())

	case getSnapshot:
		m.Reply <- c.snapshot()

	case subscribe:
		sub := make(chan Snapshot, subscribeSize)
		c.subs[c.nextSub] = sub
		c.nextSub++
		m.Reply <- sub

	case shutdown:
		_ = c.ch.Close()
		for id, sub := range c.subs {
			close(sub)
			delete(c.subs, id)
		}
		close(c.done)
		return true
	}
	return false
}

func (c *Client) send(cmd types.Command) {
	// Channel close is the one failure mode; after it nothing more goes out.
	if c.sess.Closed {
		return
	}
	if err := c.ch.Send(context.Background(), cmd); err != nil {
		c.log.Debug("send dropped", zap.String("action", cmd.Action), zap.Error(err))
	}
}

func (c *Client) snapshot() Snapshot {
	return Snapshot{Route: c.rt.Route(), Session: c.sess.Snapshot()}
}

func (c *Client) broadcast() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshot()
	for id, sub := range c.subs {
		select {
		case sub <- snap:
		default:
			// Subscriber stopped draining; drop it.
			close(sub)
			delete(c.subs, id)
		}
	}
}

func (c *Client) post(m Msg) {
	select {
	case c.inbox <- m:
	case <-c.done:
	}
}

// Post queues a user command onto the loop. After Close it is a no-op.
func (c *Client) Post(m Msg) { c.post(m) }

// Snapshot returns the current view state, serialized through the loop so it
// never observes a half-applied event.
func (c *Client) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	c.post(getSnapshot{Reply: reply})
	select {
	case snap := <-reply:
		return snap
	case <-c.done:
		return Snapshot{Route: router.Route{State: router.Landing}}
	}
}

// Subscribe registers a view-state listener. The channel is closed when the
// client shuts down or the subscriber falls too far behind.
func (c *Client) Subscribe() <-chan Snapshot {
	reply := make(chan chan Snapshot, 1)
	c.post(subscribe{Reply: reply})
	select {
	case sub := <-reply:
		return sub
	case <-c.done:
		closed := make(chan Snapshot)
		close(closed)
		return closed
	}
}

// Close tears the client down: best-effort leave, socket close, subscriber
// channels closed. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		select {
		case c.inbox <- shutdown{}:
			<-c.done
		case <-c.done:
		}
	})
	return nil
}
