// Package rpc is a minimal JSON-RPC client for Substrate nodes over
// websocket. It carries one request at a time and at most one subscription,
// which is all the head-following tooling needs.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/eigerco/polkadot-util/pkg/log"
)

const (
	// Message limit for receiving side.
	wsReadLimit = 10 * 1024 * 1024

	// Buffered notifications per subscription; further ones are dropped
	// until the consumer catches up.
	notificationBuffer = 16

	defaultDialTimeout    = 10 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

// Options for Dial. Zero values select defaults.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
}

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// message is anything the node sends: a response (ID set) or a
// subscription notification (Method set).
type message struct {
	ID     *uint64         `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

type notificationParams struct {
	Subscription string          `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

type pendingSubscription struct {
	requestID uint64
	sub       *Subscription
}

// Client is a websocket JSON-RPC client.
type Client struct {
	ws     *websocket.Conn
	opts   Options
	logger zerolog.Logger

	// callMu keeps a single request in flight.
	callMu  sync.Mutex
	writeMu sync.Mutex
	nextID  uint64

	responses chan *message

	subMu   sync.Mutex
	sub     *Subscription
	pending *pendingSubscription

	done      chan struct{}
	readErr   error
	closeOnce sync.Once
}

// Dial connects to a websocket endpoint such as ws://127.0.0.1:9944.
func Dial(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	ws, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	ws.SetReadLimit(wsReadLimit)

	c := &Client{
		ws:        ws,
		opts:      opts,
		logger:    log.RPC.With().Str("endpoint", endpoint).Logger(),
		responses: make(chan *message, 1),
		done:      make(chan struct{}),
	}
	go c.readLoop()

	c.logger.Debug().Msg("connected")
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		msg := new(message)
		if err := c.ws.ReadJSON(msg); err != nil {
			c.readErr = err
			c.closeSubscription()
			return
		}

		switch {
		case msg.ID != nil:
			c.registerPending(msg)
			select {
			case c.responses <- msg:
			default:
				c.logger.Warn().Uint64("id", *msg.ID).Msg("dropping unexpected response")
			}
		case msg.Method != "":
			c.dispatch(msg)
		default:
			c.logger.Warn().Msg("malformed message: neither response nor notification")
		}
	}
}

// registerPending binds the subscription ID carried by a subscribe response
// before any notification for it can be read.
func (c *Client) registerPending(msg *message) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.pending == nil || c.pending.requestID != *msg.ID || msg.Error != nil {
		return
	}
	sub := c.pending.sub
	c.pending = nil
	if err := json.Unmarshal(msg.Result, &sub.id); err != nil {
		return
	}
	c.sub = sub
}

func (c *Client) dispatch(msg *message) {
	var params notificationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		c.logger.Warn().Err(err).Str("method", msg.Method).Msg("malformed notification")
		return
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.sub == nil || c.sub.id != params.Subscription {
		c.logger.Debug().Str("subscription", params.Subscription).Msg("notification for unknown subscription")
		return
	}
	select {
	case c.sub.ch <- params.Result:
	default:
		c.logger.Warn().Str("subscription", params.Subscription).Msg("notification buffer full, dropping")
	}
}

// Call invokes method with params and decodes the result into result, which
// may be nil to discard it.
func (c *Client) Call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	return c.call(ctx, method, params, result, nil)
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}, sub *Subscription) error {
	c.callMu.Lock()
	defer c.callMu.Unlock()

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.nextID++
	id := c.nextID
	if params == nil {
		params = []interface{}{}
	}

	if sub != nil {
		c.subMu.Lock()
		c.pending = &pendingSubscription{requestID: id, sub: sub}
		c.subMu.Unlock()
		defer func() {
			c.subMu.Lock()
			c.pending = nil
			c.subMu.Unlock()
		}()
	}

	if err := c.write(request{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	c.logger.Debug().Uint64("id", id).Str("method", method).Msg("request sent")

	timer := time.NewTimer(c.opts.RequestTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("%s: %w", method, ErrTimeout)
		case <-c.done:
			// The response may have been read just before the connection dropped.
			select {
			case resp := <-c.responses:
				if *resp.ID == id {
					return decodeResult(method, resp, result)
				}
			default:
			}
			return ErrClosed
		case resp := <-c.responses:
			if *resp.ID != id {
				c.logger.Warn().Uint64("id", *resp.ID).Msg("stale response")
				continue
			}
			return decodeResult(method, resp, result)
		}
	}
}

func decodeResult(method string, resp *message, result interface{}) error {
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("%s: decoding result: %w", method, err)
	}
	return nil
}

func (c *Client) write(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(c.opts.RequestTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// Subscribe opens a subscription with subscribeMethod. Only one subscription
// may be active per client.
func (c *Client) Subscribe(ctx context.Context, subscribeMethod, unsubscribeMethod string, params ...interface{}) (*Subscription, error) {
	c.subMu.Lock()
	active := c.sub != nil
	c.subMu.Unlock()
	if active {
		return nil, ErrSubscriptionActive
	}

	sub := &Subscription{
		client:            c,
		unsubscribeMethod: unsubscribeMethod,
		ch:                make(chan json.RawMessage, notificationBuffer),
	}
	if err := c.call(ctx, subscribeMethod, params, nil, sub); err != nil {
		return nil, err
	}

	// The reader fills in the id before handing over the response.
	if sub.id == "" {
		return nil, fmt.Errorf("%s: %w", subscribeMethod, ErrBadSubscriptionID)
	}

	c.logger.Info().Str("method", subscribeMethod).Str("subscription", sub.id).Msg("subscribed")
	return sub, nil
}

func (c *Client) closeSubscription() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.sub != nil {
		close(c.sub.ch)
		c.sub = nil
	}
}

// Close terminates the connection. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.ws.Close()
		<-c.done
		c.logger.Debug().Msg("disconnected")
	})
	return err
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection, once Done is closed.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.readErr
	default:
		return nil
	}
}

// Subscription is an active server-side subscription.
type Subscription struct {
	id                string
	client            *Client
	unsubscribeMethod string
	ch                chan json.RawMessage
}

// ID returns the node-assigned subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Notifications yields the result payload of every notification. The channel
// is closed when the subscription ends or the connection drops.
func (s *Subscription) Notifications() <-chan json.RawMessage {
	return s.ch
}

// Unsubscribe ends the subscription on the node and closes Notifications.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	c := s.client

	c.subMu.Lock()
	active := c.sub == s
	c.subMu.Unlock()
	if !active {
		return ErrSubscriptionClosed
	}

	var ok bool
	err := c.call(ctx, s.unsubscribeMethod, []interface{}{s.id}, &ok, nil)

	c.subMu.Lock()
	if c.sub == s {
		close(s.ch)
		c.sub = nil
	}
	c.subMu.Unlock()

	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s: %w", s.unsubscribeMethod, s.id, ErrUnsubscribeRejected)
	}
	c.logger.Info().Str("subscription", s.id).Msg("unsubscribed")
	return nil
}
