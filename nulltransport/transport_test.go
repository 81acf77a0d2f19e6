package nulltransport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkboard-relay-server/domain"
)

type recordingHandler struct {
	connects    []string
	disconnects []string
	rejectNext  error
}

func (h *recordingHandler) HandleConnect(conn domain.Connection) error {
	if h.rejectNext != nil {
		err := h.rejectNext
		h.rejectNext = nil
		return err
	}
	h.connects = append(h.connects, conn.ID())
	return nil
}

func (h *recordingHandler) HandleDisconnect(conn domain.Connection) {
	h.disconnects = append(h.disconnects, conn.ID())
}

func (h *recordingHandler) HandleMessage(string, domain.Message) {}

func TestTransport_ConnectDisconnect(t *testing.T) {
	h := &recordingHandler{}
	tr := New()
	tr.Bind(h)

	require.NoError(t, tr.Connect("c1"))
	require.NoError(t, tr.Connect("c2"))
	assert.Equal(t, []string{"c1", "c2"}, h.connects)

	require.NoError(t, tr.Disconnect("c1"))
	assert.Equal(t, []string{"c1"}, h.disconnects)

	_, ok := tr.ClientConn("c1")
	assert.False(t, ok)
	_, ok = tr.ClientConn("c2")
	assert.True(t, ok)
}

func TestTransport_ConnectTwiceFails(t *testing.T) {
	tr := New()
	tr.Bind(&recordingHandler{})

	require.NoError(t, tr.Connect("c1"))
	assert.ErrorIs(t, tr.Connect("c1"), ErrAlreadyConnected)
}

func TestTransport_ConnectPropagatesHandlerRejection(t *testing.T) {
	boom := errors.New("boom")
	h := &recordingHandler{rejectNext: boom}
	tr := New()
	tr.Bind(h)

	assert.ErrorIs(t, tr.Connect("c1"), boom)

	// A rejected connect leaves no trace.
	_, ok := tr.ClientConn("c1")
	assert.False(t, ok)
}

func TestTransport_DisconnectUnknownFails(t *testing.T) {
	h := &recordingHandler{}
	tr := New()
	tr.Bind(h)

	err := tr.Disconnect("ghost")
	assert.ErrorIs(t, err, ErrUnknownClient)
	assert.Empty(t, h.disconnects)
}

func TestTransport_RequiresHandler(t *testing.T) {
	tr := New()

	assert.Error(t, tr.Start())
	assert.Error(t, tr.Connect("c1"))
}

func TestTransport_StopDisconnectsAll(t *testing.T) {
	h := &recordingHandler{}
	tr := New()
	tr.Bind(h)

	require.NoError(t, tr.Start())
	require.NoError(t, tr.Connect("c1"))
	require.NoError(t, tr.Connect("c2"))

	require.NoError(t, tr.Stop(context.Background()))
	assert.Len(t, h.disconnects, 2)

	require.NoError(t, tr.Stop(context.Background()))
	assert.Len(t, h.disconnects, 2)
}

func TestConn_RecordsEmits(t *testing.T) {
	tr := New()
	tr.Bind(&recordingHandler{})
	require.NoError(t, tr.Connect("c1"))

	conn, ok := tr.ClientConn("c1")
	require.True(t, ok)

	require.NoError(t, conn.Emit("draw-stroke", map[string]int{"width": 3}))
	require.NoError(t, conn.Emit("clear-screen", nil))

	sent := conn.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "draw-stroke", sent[0].Name)
	assert.Equal(t, map[string]int{"width": 3}, sent[0].Payload)
	assert.Equal(t, "clear-screen", sent[1].Name)
}

func TestConn_EmitAfterCloseFails(t *testing.T) {
	tr := New()
	tr.Bind(&recordingHandler{})
	require.NoError(t, tr.Connect("c1"))

	conn, _ := tr.ClientConn("c1")
	require.NoError(t, conn.Close())

	assert.Error(t, conn.Emit("draw-stroke", nil))
}

func TestConn_IsMarkedNull(t *testing.T) {
	var conn any = &Conn{id: "c1"}

	_, ok := conn.(interface{ NullClient() })
	assert.True(t, ok)
}
