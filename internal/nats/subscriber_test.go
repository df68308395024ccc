package nats

import (
	"context"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tetrecsNats "sudooom.tetrecs/pkg/nats"
	"sudooom.tetrecs/pkg/proto"
)

type recordingHandler struct {
	mu       sync.Mutex
	upstream []*proto.UpstreamMessage
	chat     [][2]string
}

func (h *recordingHandler) HandleUpstream(ctx context.Context, msg *proto.UpstreamMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.upstream = append(h.upstream, msg)
}

func (h *recordingHandler) HandleChatLine(ctx context.Context, roomID, line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chat = append(h.chat, [2]string{roomID, line})
}

func TestMessageSubscriber_DispatchUpstream(t *testing.T) {
	h := &recordingHandler{}
	s := NewMessageSubscriber(nil, h, SubscriberConfig{})

	data := []byte(`{"ReqId":"r1","PlayerId":"p1","RoomId":"room","Payload":{"PlacePiece":{"X":2,"Y":3}}}`)
	s.handleMessage(context.Background(), &nats.Msg{Subject: tetrecsNats.SubjectGameUpstream, Data: data})

	require.Len(t, h.upstream, 1)
	msg := h.upstream[0]
	assert.Equal(t, "r1", msg.ReqId)
	require.NotNil(t, msg.Payload.PlacePiece)
	assert.Equal(t, 2, msg.Payload.PlacePiece.X)
	assert.Equal(t, 3, msg.Payload.PlacePiece.Y)
	assert.Nil(t, msg.Payload.StartGame)
}

func TestMessageSubscriber_DispatchChat(t *testing.T) {
	h := &recordingHandler{}
	s := NewMessageSubscriber(nil, h, SubscriberConfig{})

	s.handleMessage(context.Background(), &nats.Msg{
		Subject: tetrecsNats.BuildRoomChatSubject("lobby"),
		Data:    []byte("MSG alice:hi"),
	})

	require.Len(t, h.chat, 1)
	assert.Equal(t, [2]string{"lobby", "MSG alice:hi"}, h.chat[0])
}

func TestMessageSubscriber_IgnoresBadInput(t *testing.T) {
	h := &recordingHandler{}
	s := NewMessageSubscriber(nil, h, SubscriberConfig{})

	s.handleMessage(context.Background(), &nats.Msg{Subject: tetrecsNats.SubjectGameUpstream, Data: []byte("{broken")})
	s.handleMessage(context.Background(), &nats.Msg{Subject: "tetrecs.unknown", Data: []byte("x")})

	assert.Empty(t, h.upstream)
	assert.Empty(t, h.chat)
}

func TestMessageSubscriber_Defaults(t *testing.T) {
	s := NewMessageSubscriber(nil, &recordingHandler{}, SubscriberConfig{})
	assert.Equal(t, 32, s.config.WorkerCount)
	assert.Equal(t, 4096, s.config.BufferSize)

	current, capacity := s.GetBufferUsage()
	assert.Zero(t, current)
	assert.Zero(t, capacity)
}
