package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	tetrecsNats "sudooom.tetrecs/pkg/nats"
	"sudooom.tetrecs/pkg/proto"
)

// MessageHandler 消息处理器接口
type MessageHandler interface {
	HandleUpstream(ctx context.Context, msg *proto.UpstreamMessage)
	HandleChatLine(ctx context.Context, roomID, line string)
}

// SubscriberConfig Worker Pool 配置
type SubscriberConfig struct {
	WorkerCount int
	BufferSize  int
}

// MessageSubscriber 消息订阅器：玩家指令与房间聊天共用一个 worker pool
type MessageSubscriber struct {
	nc            *nats.Conn
	handler       MessageHandler
	logger        *slog.Logger
	subscriptions []*nats.Subscription
	config        SubscriberConfig
	msgChan       chan *nats.Msg
	wg            sync.WaitGroup
	cancelFunc    context.CancelFunc
}

// NewMessageSubscriber 创建消息订阅器
func NewMessageSubscriber(nc *nats.Conn, handler MessageHandler, config SubscriberConfig) *MessageSubscriber {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 32
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 4096
	}

	return &MessageSubscriber{
		nc:      nc,
		handler: handler,
		logger:  slog.Default().With("component", "MessageSubscriber"),
		config:  config,
	}
}

// Start 启动订阅
func (s *MessageSubscriber) Start(ctx context.Context) error {
	s.msgChan = make(chan *nats.Msg, s.config.BufferSize)

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(workerCtx)
	}

	// 队列组负载均衡，聊天也只由一个实例转发
	for _, subject := range []string{tetrecsNats.SubjectGameUpstream, tetrecsNats.SubjectRoomChatWildcard} {
		sub, err := s.nc.QueueSubscribe(subject, tetrecsNats.QueueGroupTetrecs, s.enqueue)
		if err != nil {
			s.Stop()
			return err
		}
		s.subscriptions = append(s.subscriptions, sub)
	}

	s.logger.Info("NATS subscriber started",
		"workerCount", s.config.WorkerCount,
		"bufferSize", s.config.BufferSize,
	)
	return nil
}

func (s *MessageSubscriber) enqueue(msg *nats.Msg) {
	select {
	case s.msgChan <- msg:
	default:
		s.logger.Warn("Message buffer full, dropping message",
			"subject", msg.Subject,
			"bufferSize", s.config.BufferSize)
	}
}

// worker 工作协程
func (s *MessageSubscriber) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.msgChan:
			if !ok {
				return
			}
			s.handleMessage(ctx, msg)
		}
	}
}

// handleMessage 按 Subject 分发
func (s *MessageSubscriber) handleMessage(ctx context.Context, msg *nats.Msg) {
	if msg.Subject == tetrecsNats.SubjectGameUpstream {
		var message proto.UpstreamMessage
		if err := json.Unmarshal(msg.Data, &message); err != nil {
			s.logger.Error("Failed to unmarshal message", "error", err)
			return
		}
		s.handler.HandleUpstream(ctx, &message)
		return
	}

	if roomID, ok := tetrecsNats.ParseRoomChatSubject(msg.Subject); ok {
		s.handler.HandleChatLine(ctx, roomID, string(msg.Data))
		return
	}

	s.logger.Warn("Unexpected subject", "subject", msg.Subject)
}

// Stop 停止订阅
func (s *MessageSubscriber) Stop() error {
	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	for _, sub := range s.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Error("Failed to unsubscribe", "subject", sub.Subject, "error", err)
		}
	}
	s.subscriptions = nil

	s.wg.Wait()

	s.logger.Info("NATS subscriber stopped")
	return nil
}

// GetBufferUsage 获取缓冲区使用情况
func (s *MessageSubscriber) GetBufferUsage() (current int, capacity int) {
	if s.msgChan == nil {
		return 0, 0
	}
	return len(s.msgChan), cap(s.msgChan)
}
