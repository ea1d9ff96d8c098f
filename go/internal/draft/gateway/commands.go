package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/mcdev12/boosterdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// DraftRouter routes player actions to live drafts
type DraftRouter interface {
	Join(draftID, userID uuid.UUID) error
	SendCardPick(draftID, userID, cardID uuid.UUID, hiddenCards []uuid.UUID) (*models.DraftPickView, error)
	SendCardMark(draftID, userID, cardID uuid.UUID) error
	Kill(draftID, userID uuid.UUID) error
}

// CommandRouter executes client commands against the draft router
type CommandRouter struct {
	drafts      DraftRouter
	connections *ConnectionManager
}

func NewCommandRouter(drafts DraftRouter, cm *ConnectionManager) *CommandRouter {
	return &CommandRouter{drafts: drafts, connections: cm}
}

// HandleCommand implements CommandHandler
func (r *CommandRouter) HandleCommand(ctx context.Context, conn *Connection, cmd ClientCommand) {
	userID := conn.UserID
	var err error

	switch cmd.Type {
	case CommandJoin:
		r.connections.SubscribeDraft(userID, cmd.DraftID)
		if err = r.drafts.Join(cmd.DraftID, userID); err != nil {
			r.connections.UnsubscribeDraft(userID, cmd.DraftID)
		}

	case CommandPick:
		var view *models.DraftPickView
		view, err = r.drafts.SendCardPick(cmd.DraftID, userID, cmd.CardID, cmd.HiddenCards)
		if err == nil {
			if ev, evErr := NewClientEvent(cmd.DraftID, EventTypePickResult, view); evErr == nil {
				conn.reply(ev)
			}
		}

	case CommandMark:
		err = r.drafts.SendCardMark(cmd.DraftID, userID, cmd.CardID)

	case CommandLeave:
		err = r.drafts.Kill(cmd.DraftID, userID)
		r.connections.UnsubscribeDraft(userID, cmd.DraftID)
	}

	if err != nil {
		log.Warn().
			Err(err).
			Str("draft_id", cmd.DraftID.String()).
			Str("user_id", userID.String()).
			Str("command", string(cmd.Type)).
			Msg("client command failed")
		if ev, evErr := NewClientEvent(cmd.DraftID, EventTypeError, ErrorPayload{Command: string(cmd.Type), Message: err.Error()}); evErr == nil {
			conn.reply(ev)
		}
	}
}
