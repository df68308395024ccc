package nats

import "strings"

// NATS Subject 常量定义
const (
	// SubjectGameUpstream Gateway -> Tetrecs 玩家指令
	SubjectGameUpstream = "tetrecs.game.upstream"

	// SubjectRoomPrefix 房间相关 Subject 前缀
	// 事件: tetrecs.room.{roomId}.events
	// 聊天: tetrecs.room.{roomId}.chat
	SubjectRoomPrefix   = "tetrecs.room."
	SubjectEventsSuffix = ".events"
	SubjectChatSuffix   = ".chat"

	// SubjectRoomChatWildcard 订阅所有房间聊天
	SubjectRoomChatWildcard = "tetrecs.room.*.chat"

	// SubjectPlayerReplyPrefix 玩家应答: tetrecs.player.{playerId}.reply
	SubjectPlayerReplyPrefix = "tetrecs.player."
	SubjectPlayerReplySuffix = ".reply"

	// SubjectChatOutbound 发往聊天服务的行: tetrecs.chat.outbound.{roomId}
	SubjectChatOutbound = "tetrecs.chat.outbound."

	// QueueGroupTetrecs 服务队列组名称
	QueueGroupTetrecs = "tetrecs-group"
)

// BuildRoomEventsSubject 构建房间事件 Subject
func BuildRoomEventsSubject(roomID string) string {
	return SubjectRoomPrefix + roomID + SubjectEventsSuffix
}

// BuildRoomChatSubject 构建房间聊天 Subject
func BuildRoomChatSubject(roomID string) string {
	return SubjectRoomPrefix + roomID + SubjectChatSuffix
}

// BuildPlayerReplySubject 构建玩家应答 Subject
func BuildPlayerReplySubject(playerID string) string {
	return SubjectPlayerReplyPrefix + playerID + SubjectPlayerReplySuffix
}

// BuildChatOutboundSubject 构建聊天发送 Subject
func BuildChatOutboundSubject(roomID string) string {
	return SubjectChatOutbound + roomID
}

// ParseRoomChatSubject 从聊天 Subject 中取出 roomId
func ParseRoomChatSubject(subject string) (string, bool) {
	rest, ok := strings.CutPrefix(subject, SubjectRoomPrefix)
	if !ok {
		return "", false
	}
	roomID, ok := strings.CutSuffix(rest, SubjectChatSuffix)
	if !ok || roomID == "" || strings.Contains(roomID, ".") {
		return "", false
	}
	return roomID, true
}
