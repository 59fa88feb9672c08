package rpc

import (
	"errors"
	"fmt"
)

var (
	ErrClosed = errors.New("rpc: connection closed")

	ErrTimeout = errors.New("rpc: request timed out")

	ErrSubscriptionActive = errors.New("rpc: a subscription is already active")

	ErrSubscriptionClosed = errors.New("rpc: subscription is not active")

	ErrBadSubscriptionID = errors.New("rpc: node returned no usable subscription id")

	ErrUnsubscribeRejected = errors.New("rpc: node rejected unsubscribe")
)

// Error is a JSON-RPC error object returned by the node.
type Error struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
