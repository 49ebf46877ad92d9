// Package memory is an in-process controlpad transport.
package memory

import (
	"sync"

	"github.com/pkg/errors"
	"voyager.com/cardtable/transport"
)

// Transport keeps per-client inbox and outbox queues in memory.
// Clients are listed in connection order.
type Transport struct {
	lock    sync.Mutex
	handles []string
	inbox   map[string][]string
	outbox  map[string][]string
	listErr error
	pollErr map[string]error
	sendErr error
}

func NewTransport() *Transport {
	return &Transport{
		inbox:   make(map[string][]string),
		outbox:  make(map[string][]string),
		pollErr: make(map[string]error),
	}
}

func (t *Transport) Connect(handle string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if _, ok := t.inbox[handle]; ok {
		return
	}
	t.handles = append(t.handles, handle)
	t.inbox[handle] = nil
}

func (t *Transport) Disconnect(handle string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if _, ok := t.inbox[handle]; !ok {
		return
	}
	delete(t.inbox, handle)
	delete(t.pollErr, handle)
	for i, h := range t.handles {
		if h == handle {
			t.handles = append(t.handles[:i], t.handles[i+1:]...)
			break
		}
	}
}

// Deliver queues an inbound message as if handle had sent it.
func (t *Transport) Deliver(handle string, messages ...string) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if _, ok := t.inbox[handle]; !ok {
		return errors.Wrapf(transport.ErrUnknownClient, "deliver to %s", handle)
	}
	t.inbox[handle] = append(t.inbox[handle], messages...)
	return nil
}

func (t *Transport) ClientHandles() ([]string, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.listErr != nil {
		return nil, t.listErr
	}
	return append([]string(nil), t.handles...), nil
}

func (t *Transport) PollMessages(handle string) ([]string, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if err := t.pollErr[handle]; err != nil {
		return nil, err
	}
	messages, ok := t.inbox[handle]
	if !ok {
		return nil, errors.Wrapf(transport.ErrUnknownClient, "poll %s", handle)
	}
	t.inbox[handle] = nil
	return messages, nil
}

func (t *Transport) SendMessage(handle string, message string) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	if _, ok := t.inbox[handle]; !ok {
		return errors.Wrapf(transport.ErrUnknownClient, "send to %s", handle)
	}
	t.outbox[handle] = append(t.outbox[handle], message)
	return nil
}

// Sent returns the outbound messages for handle without clearing them.
func (t *Transport) Sent(handle string) []string {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([]string(nil), t.outbox[handle]...)
}

// TakeSent returns and clears the outbound messages for handle.
func (t *Transport) TakeSent(handle string) []string {
	t.lock.Lock()
	defer t.lock.Unlock()
	messages := t.outbox[handle]
	delete(t.outbox, handle)
	return messages
}

// FailList makes ClientHandles fail with err until called again with nil.
func (t *Transport) FailList(err error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.listErr = err
}

// FailPoll makes PollMessages for handle fail with err until called again with nil.
func (t *Transport) FailPoll(handle string, err error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if err == nil {
		delete(t.pollErr, handle)
		return
	}
	t.pollErr[handle] = err
}

// FailSend makes every SendMessage fail with err until called again with nil.
func (t *Transport) FailSend(err error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.sendErr = err
}
