// Package transport holds what the controlpad transports share.
package transport

import "github.com/pkg/errors"

var (
	ErrUnknownClient  = errors.New("unknown controlpad client")
	ErrSendBufferFull = errors.New("controlpad send buffer is full")
	ErrClosed         = errors.New("transport is closed")
)
