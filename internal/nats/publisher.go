package nats

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	tetrecsNats "sudooom.tetrecs/pkg/nats"
	"sudooom.tetrecs/pkg/proto"
)

// MessagePublisher 消息发布器
type MessagePublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewMessagePublisher 创建消息发布器
func NewMessagePublisher(nc *nats.Conn) *MessagePublisher {
	return &MessagePublisher{
		nc:     nc,
		logger: slog.Default().With("component", "MessagePublisher"),
	}
}

// PublishRoomEvent 推送游戏事件到房间
func (p *MessagePublisher) PublishRoomEvent(roomID string, message *proto.DownstreamMessage) error {
	return p.publishJSON(tetrecsNats.BuildRoomEventsSubject(roomID), message)
}

// PublishToPlayer 推送应答给单个玩家
func (p *MessagePublisher) PublishToPlayer(playerID string, message *proto.DownstreamMessage) error {
	return p.publishJSON(tetrecsNats.BuildPlayerReplySubject(playerID), message)
}

// PublishChatLine 发送一行聊天到聊天服务
func (p *MessagePublisher) PublishChatLine(roomID, line string) error {
	subject := tetrecsNats.BuildChatOutboundSubject(roomID)
	if err := p.nc.Publish(subject, []byte(line)); err != nil {
		p.logger.Error("Failed to publish chat line", "roomId", roomID, "error", err)
		return err
	}
	return nil
}

func (p *MessagePublisher) publishJSON(subject string, message *proto.DownstreamMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		p.logger.Error("Failed to marshal message", "error", err)
		return err
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish message", "subject", subject, "error", err)
		return err
	}

	p.logger.Debug("Published message", "subject", subject)
	return nil
}
