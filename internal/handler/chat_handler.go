package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sudooom.tetrecs/internal/chat"
	apperrors "sudooom.tetrecs/pkg/errors"
	"sudooom.tetrecs/pkg/proto"
)

// ChatPublisher 聊天转发
type ChatPublisher interface {
	PublishRoomEvent(roomID string, message *proto.DownstreamMessage) error
	PublishChatLine(roomID, line string) error
}

// ChatHandler 聊天处理器
type ChatHandler struct {
	publisher ChatPublisher
	logger    *slog.Logger
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(publisher ChatPublisher) *ChatHandler {
	return &ChatHandler{
		publisher: publisher,
		logger:    slog.Default().With("component", "ChatHandler"),
	}
}

// HandleLine 处理聊天服务推来的一行，解析后广播到房间
func (h *ChatHandler) HandleLine(ctx context.Context, roomID, line string) {
	err := chat.Route(line, h.roomDisplay(roomID))
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrNotChat):
		h.logger.Debug("Ignoring non-chat line", "roomId", roomID)
	default:
		h.logger.Warn("Failed to route chat line", "roomId", roomID, "error", err)
	}
}

// Send 玩家发送聊天，发往聊天服务由其补上发送者
func (h *ChatHandler) Send(ctx context.Context, msg *proto.UpstreamMessage) error {
	body := strings.TrimSpace(msg.Payload.SendChat.Body)
	if body == "" || msg.RoomId == "" {
		return apperrors.ErrInvalidParams
	}
	if err := h.publisher.PublishChatLine(msg.RoomId, chat.FormatLine(body)); err != nil {
		return apperrors.ErrServerError.Wrap(err)
	}
	return nil
}

// roomDisplay 房间广播形式的聊天显示
func (h *ChatHandler) roomDisplay(roomID string) chat.Display {
	return chat.DisplayFunc(func(m chat.Message) error {
		return h.publisher.PublishRoomEvent(roomID, &proto.DownstreamMessage{
			RoomId:    roomID,
			Timestamp: time.Now().UnixMilli(),
			Payload: proto.DownstreamPayload{
				ChatMessage: &proto.ChatMessage{Sender: m.Sender, Body: m.Body},
			},
		})
	})
}
