package handler

import (
	"context"
	"errors"
	"log/slog"

	"sudooom.tetrecs/internal/game"
	"sudooom.tetrecs/internal/game/core"
	apperrors "sudooom.tetrecs/pkg/errors"
	"sudooom.tetrecs/pkg/proto"
)

// GameCommands 游戏指令，由 game.GameService 实现
type GameCommands interface {
	StartGame(ctx context.Context, req game.StartRequest) (game.Snapshot, error)
	Place(ctx context.Context, gameID, playerID string, x, y int) (core.PlacementResult, error)
	Rotate(ctx context.Context, gameID, playerID string, turns int) error
	Swap(ctx context.Context, gameID, playerID string) error
	Tick(ctx context.Context, gameID, playerID string) error
	Quit(ctx context.Context, gameID, playerID string) error
}

// GameHandler 游戏指令处理器
type GameHandler struct {
	games  GameCommands
	logger *slog.Logger
}

// NewGameHandler 创建游戏指令处理器
func NewGameHandler(games GameCommands) *GameHandler {
	return &GameHandler{
		games:  games,
		logger: slog.Default().With("component", "GameHandler"),
	}
}

// Handle 处理游戏指令，返回应答所属的 gameId 和应答
func (h *GameHandler) Handle(ctx context.Context, msg *proto.UpstreamMessage) (string, *proto.Reply) {
	h.logger.Debug("Game command received",
		"reqId", msg.ReqId,
		"playerId", msg.PlayerId,
		"gameId", msg.GameId)

	payload := msg.Payload
	gameID := msg.GameId

	var (
		placement *proto.Placement
		err       error
	)

	switch {
	case payload.StartGame != nil:
		var snap game.Snapshot
		snap, err = h.games.StartGame(ctx, game.StartRequest{
			RoomID:     msg.RoomId,
			PlayerID:   msg.PlayerId,
			PlayerName: playerName(msg),
			Cols:       payload.StartGame.Cols,
			Rows:       payload.StartGame.Rows,
			Seed:       payload.StartGame.Seed,
		})
		if err == nil {
			gameID = snap.GameID
		}

	case gameID == "":
		err = apperrors.ErrInvalidParams.Wrap(game.ErrGameNotFound)

	case payload.PlacePiece != nil:
		var result core.PlacementResult
		result, err = h.games.Place(ctx, gameID, msg.PlayerId, payload.PlacePiece.X, payload.PlacePiece.Y)
		if err == nil {
			placement = &proto.Placement{
				Placed:     result.Placed,
				Lines:      result.Lines,
				Blocks:     result.Blocks,
				Points:     result.Points,
				Multiplier: result.Multiplier,
			}
		}

	case payload.RotatePiece != nil:
		turns := payload.RotatePiece.Turns
		if turns == 0 {
			turns = 1
		}
		err = h.games.Rotate(ctx, gameID, msg.PlayerId, turns)

	case payload.SwapPiece != nil:
		err = h.games.Swap(ctx, gameID, msg.PlayerId)

	case payload.ForceLoop != nil:
		err = h.games.Tick(ctx, gameID, msg.PlayerId)

	case payload.QuitGame != nil:
		err = h.games.Quit(ctx, gameID, msg.PlayerId)

	default:
		err = apperrors.ErrUnknownCommand
	}

	if err != nil {
		h.logger.Warn("Game command failed", "reqId", msg.ReqId, "gameId", gameID, "error", err)
	}
	reply := newReply(msg.ReqId, err)
	reply.Placement = placement
	return gameID, reply
}

// newReply 构造应答，已是 AppError 的错误保持原错误码
func newReply(reqID string, err error) *proto.Reply {
	if err == nil {
		return &proto.Reply{ReqId: reqID, Code: apperrors.CodeSuccess, Message: "ok"}
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = game.ToAppError(err)
	}
	return &proto.Reply{ReqId: reqID, Code: appErr.Code, Message: appErr.Message}
}

func playerName(msg *proto.UpstreamMessage) string {
	if msg.PlayerName != "" {
		return msg.PlayerName
	}
	return msg.PlayerId
}
