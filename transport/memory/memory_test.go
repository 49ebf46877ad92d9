package memory

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"voyager.com/cardtable/transport"
)

func TestHandlesInConnectionOrder(t *testing.T) {
	tr := NewTransport()
	tr.Connect("b")
	tr.Connect("a")
	tr.Connect("b")
	tr.Connect("c")
	tr.Disconnect("a")

	handles, err := tr.ClientHandles()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, handles)
}

func TestPollClearsInbox(t *testing.T) {
	tr := NewTransport()
	tr.Connect("a")
	require.NoError(t, tr.Deliver("a", "join:Alice", "deal"))

	messages, err := tr.PollMessages("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"join:Alice", "deal"}, messages)

	messages, err = tr.PollMessages("a")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestUnknownClient(t *testing.T) {
	tr := NewTransport()
	err := tr.Deliver("ghost", "deal")
	assert.True(t, errors.Is(err, transport.ErrUnknownClient))
	_, err = tr.PollMessages("ghost")
	assert.True(t, errors.Is(err, transport.ErrUnknownClient))
	err = tr.SendMessage("ghost", "state:joining")
	assert.True(t, errors.Is(err, transport.ErrUnknownClient))
}

func TestSentAndTakeSent(t *testing.T) {
	tr := NewTransport()
	tr.Connect("a")
	require.NoError(t, tr.SendMessage("a", "state:joining"))
	require.NoError(t, tr.SendMessage("a", "state:playing:Alice::"))

	assert.Equal(t, []string{"state:joining", "state:playing:Alice::"}, tr.Sent("a"))
	assert.Equal(t, []string{"state:joining", "state:playing:Alice::"}, tr.TakeSent("a"))
	assert.Empty(t, tr.Sent("a"))
}

func TestInjectedFailures(t *testing.T) {
	tr := NewTransport()
	tr.Connect("a")
	boom := errors.New("boom")

	tr.FailList(boom)
	_, err := tr.ClientHandles()
	assert.Equal(t, boom, err)
	tr.FailList(nil)
	_, err = tr.ClientHandles()
	assert.NoError(t, err)

	require.NoError(t, tr.Deliver("a", "deal"))
	tr.FailPoll("a", boom)
	_, err = tr.PollMessages("a")
	assert.Equal(t, boom, err)
	tr.FailPoll("a", nil)
	messages, err := tr.PollMessages("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"deal"}, messages)

	tr.FailSend(boom)
	assert.Equal(t, boom, tr.SendMessage("a", "x"))
	assert.Empty(t, tr.Sent("a"))
}
