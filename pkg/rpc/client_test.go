package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSubscriptionID = "sub-1"

// fakeNode answers the handful of chain_* methods the client uses.
type fakeNode struct {
	heads              []string
	dropAfterSubscribe bool
	unsubscribed       chan string
	upgrader           websocket.Upgrader
}

func newFakeNode(heads ...string) *fakeNode {
	return &fakeNode{heads: heads, unsubscribed: make(chan string, 1)}
}

type testRequest struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var req testRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		switch req.Method {
		case MethodSubscribeNewHeads:
			_ = conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": testSubscriptionID})
			if f.dropAfterSubscribe {
				return
			}
			for _, number := range f.heads {
				_ = conn.WriteJSON(map[string]any{
					"jsonrpc": "2.0",
					"method":  "chain_newHead",
					"params": map[string]any{
						"subscription": testSubscriptionID,
						"result":       testHeader(number),
					},
				})
			}
		case MethodUnsubscribeNewHeads:
			var id string
			_ = json.Unmarshal(req.Params[0], &id)
			f.unsubscribed <- id
			_ = conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": id == testSubscriptionID})
		case MethodGetHeader:
			_ = conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": testHeader("0x2a")})
		default:
			_ = conn.WriteJSON(map[string]any{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]any{"code": -32601, "message": "Method not found"},
			})
		}
	}
}

func testHeader(number string) map[string]any {
	return map[string]any{
		"parentHash":     "0x" + strings.Repeat("ab", 32),
		"number":         number,
		"stateRoot":      "0x" + strings.Repeat("cd", 32),
		"extrinsicsRoot": "0x" + strings.Repeat("ef", 32),
		"digest":         map[string]any{"logs": []string{"0x0642414245"}},
	}
}

func dialNode(t *testing.T, node *fakeNode) *Client {
	t.Helper()
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), Options{RequestTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func receive(t *testing.T, sub *Subscription) (json.RawMessage, bool) {
	t.Helper()
	select {
	case raw, ok := <-sub.Notifications():
		return raw, ok
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
		return nil, false
	}
}

func TestSubscribeNewHeads(t *testing.T) {
	node := newFakeNode("0x1", "0x02", "0x3e8")
	c := dialNode(t, node)
	ctx := testContext(t)

	sub, err := c.SubscribeNewHeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, testSubscriptionID, sub.ID())

	for _, expected := range []int64{1, 2, 1000} {
		raw, ok := receive(t, sub)
		require.True(t, ok)

		header, err := DecodeHeader(raw)
		require.NoError(t, err)
		number, err := header.BlockNumber()
		require.NoError(t, err)
		assert.Equal(t, expected, number.Int64())
		assert.Equal(t, []string{"0x0642414245"}, header.Digest.Logs)
	}

	require.NoError(t, sub.Unsubscribe(ctx))
	assert.Equal(t, testSubscriptionID, <-node.unsubscribed)

	_, ok := receive(t, sub)
	assert.False(t, ok, "notifications must be closed after unsubscribe")

	err = sub.Unsubscribe(ctx)
	require.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestSubscribeOnlyOnce(t *testing.T) {
	c := dialNode(t, newFakeNode())
	ctx := testContext(t)

	_, err := c.SubscribeNewHeads(ctx)
	require.NoError(t, err)

	_, err = c.SubscribeNewHeads(ctx)
	require.ErrorIs(t, err, ErrSubscriptionActive)
}

func TestCallError(t *testing.T) {
	c := dialNode(t, newFakeNode())

	err := c.Call(testContext(t), "system_unknown", nil)
	require.Error(t, err)

	var rpcErr *Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, int64(-32601), rpcErr.Code)
	assert.Equal(t, "rpc error -32601: Method not found", rpcErr.Error())
}

func TestGetHeader(t *testing.T) {
	c := dialNode(t, newFakeNode())

	header, err := c.GetHeader(testContext(t))
	require.NoError(t, err)

	number, err := header.BlockNumber()
	require.NoError(t, err)
	assert.Equal(t, int64(42), number.Int64())

	parent, err := header.ParentHashBytes()
	require.NoError(t, err)
	assert.Len(t, parent, 32)
	assert.Equal(t, byte(0xab), parent[0])
}

func TestClose(t *testing.T) {
	c := dialNode(t, newFakeNode())
	ctx := testContext(t)

	sub, err := c.SubscribeNewHeads(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, ok := receive(t, sub)
	assert.False(t, ok)

	err = c.Call(ctx, MethodGetHeader, nil)
	require.ErrorIs(t, err, ErrClosed)
}

func TestServerDisconnect(t *testing.T) {
	node := newFakeNode()
	node.dropAfterSubscribe = true
	c := dialNode(t, node)

	sub, err := c.SubscribeNewHeads(testContext(t))
	require.NoError(t, err)

	_, ok := receive(t, sub)
	assert.False(t, ok)

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("client did not notice the disconnect")
	}
	assert.Error(t, c.Err())
}

func TestDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Dial(testContext(t), "ws"+strings.TrimPrefix(srv.URL, "http"), Options{})
	require.Error(t, err)
}

func TestDecodeHeader(t *testing.T) {
	_, err := DecodeHeader(json.RawMessage(`{"number":"12"}`))
	require.Error(t, err)

	_, err = DecodeHeader(json.RawMessage(`[1,2]`))
	require.Error(t, err)

	h, err := DecodeHeader(json.RawMessage(`{"number":"0xff","parentHash":"0x1234"}`))
	require.NoError(t, err)
	_, err = h.ParentHashBytes()
	require.Error(t, err)
}
