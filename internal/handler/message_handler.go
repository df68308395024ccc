package handler

import (
	"context"
	"log/slog"
	"time"

	"sudooom.tetrecs/pkg/proto"
)

// Replier 玩家应答
type Replier interface {
	PublishToPlayer(playerID string, message *proto.DownstreamMessage) error
}

// MessageHandler 消息处理器实现，分发到游戏与聊天
type MessageHandler struct {
	gameHandler *GameHandler
	chatHandler *ChatHandler
	replier     Replier
	logger      *slog.Logger
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(gameHandler *GameHandler, chatHandler *ChatHandler, replier Replier) *MessageHandler {
	return &MessageHandler{
		gameHandler: gameHandler,
		chatHandler: chatHandler,
		replier:     replier,
		logger:      slog.Default().With("component", "MessageHandler"),
	}
}

// HandleUpstream 处理玩家上行消息
func (h *MessageHandler) HandleUpstream(ctx context.Context, msg *proto.UpstreamMessage) {
	if msg.PlayerId == "" {
		h.logger.Warn("Dropping message without player", "reqId", msg.ReqId)
		return
	}

	gameID := msg.GameId
	var reply *proto.Reply

	if msg.Payload.SendChat != nil {
		reply = newReply(msg.ReqId, h.chatHandler.Send(ctx, msg))
	} else {
		gameID, reply = h.gameHandler.Handle(ctx, msg)
	}

	out := &proto.DownstreamMessage{
		GameId:    gameID,
		RoomId:    msg.RoomId,
		PlayerId:  msg.PlayerId,
		Timestamp: time.Now().UnixMilli(),
		Payload:   proto.DownstreamPayload{Reply: reply},
	}
	if err := h.replier.PublishToPlayer(msg.PlayerId, out); err != nil {
		h.logger.Error("Failed to send reply", "playerId", msg.PlayerId, "reqId", msg.ReqId, "error", err)
	}
}

// HandleChatLine 处理房间聊天行
func (h *MessageHandler) HandleChatLine(ctx context.Context, roomID, line string) {
	h.chatHandler.HandleLine(ctx, roomID, line)
}
