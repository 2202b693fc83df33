package channel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/DoyleJ11/cards-client/pkg/types"
)

// Channel is the duplex message link to the game server: one reader
// goroutine decoding tagged JSON into Events, serialized writes, and an
// idempotent Close that tells the server we are leaving first. Once the
// events channel closes, the session is over; there is no reconnect layer.

var ErrClosed = errors.New("channel: closed")

const writeTimeout = 3 * time.Second

type Channel struct {
	log    *zap.Logger
	events chan types.Event

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	cancel context.CancelFunc
}

// Dial connects to the server's websocket endpoint and starts the read loop.
func Dial(ctx context.Context, url string, log *zap.Logger) (*Channel, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("channel")

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	readCtx, cancel := context.WithCancel(context.Background())
	ch := &Channel{
		log:    log,
		events: make(chan types.Event, 64),
		conn:   conn,
		cancel: cancel,
	}
	go ch.reader(readCtx, conn)
	return ch, nil
}

// Events delivers decoded inbound messages. It is closed when the connection
// is torn down, from either side.
func (ch *Channel) Events() <-chan types.Event { return ch.events }

func (ch *Channel) reader(ctx context.Context, conn *websocket.Conn) {
	defer close(ch.events)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				ch.log.Debug("read ended", zap.Error(err))
			}
			ch.mu.Lock()
			ch.closed = true
			ch.mu.Unlock()
			ch.cancel()
			return
		}
		ev, err := types.DecodeEvent(data)
		if err != nil {
			// Malformed frame; skip it rather than kill the session.
			ch.log.Warn("dropping undecodable message", zap.Error(err))
			continue
		}
		// Close must still reap the reader when nobody is draining and
		// the buffer is full.
		select {
		case ch.events <- ev:
		case <-ctx.Done():
			ch.mu.Lock()
			ch.closed = true
			ch.mu.Unlock()
			return
		}
	}
}

// Send writes one outbound message. Failure after close is silent by design;
// callers that care can check the error, nobody retries.
func (ch *Channel) Send(ctx context.Context, cmd types.Command) error {
	ch.mu.Lock()
	if ch.closed || ch.conn == nil {
		ch.mu.Unlock()
		return ErrClosed
	}
	conn := ch.conn
	ch.mu.Unlock()

	b, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := conn.Write(wctx, websocket.MessageText, b); err != nil {
		ch.log.Debug("write failed", zap.String("action", cmd.Action), zap.Error(err))
		return err
	}
	return nil
}

// Close is idempotent. It best-effort announces the departure with a leave
// message, then closes the socket and stops the reader.
func (ch *Channel) Close() error {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return nil
	}
	ch.closed = true
	conn := ch.conn
	ch.conn = nil
	ch.mu.Unlock()

	if conn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if b, err := json.Marshal(types.Leave()); err == nil {
			_ = conn.Write(ctx, websocket.MessageText, b)
		}
		cancel()
		err := conn.Close(websocket.StatusNormalClosure, "bye")
		ch.cancel()
		return err
	}
	ch.cancel()
	return nil
}
