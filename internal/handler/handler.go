// Package handler — бизнес-реакции на сообщения реле. Протокольный
// конверт разбирает relay; здесь решается, что делать с содержимым.
package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"example.com/inviter/internal/console"
	"example.com/inviter/internal/relay"
	"example.com/inviter/internal/steam"
)

// InviteHandler отвечает на команды сервера приглашениями Remote Play.
type InviteHandler struct {
	steam steam.Controller
	con   *console.Console
}

func New(s steam.Controller, con *console.Console) *InviteHandler {
	return &InviteHandler{steam: s, con: con}
}

// HandleMessage — relay.Handler. Ошибка роняет текущую попытку
// соединения; (true, nil) — сервер попросил завершить процесс.
func (h *InviteHandler) HandleMessage(ctx context.Context, msg *relay.ServerMessage, w *relay.Writer) (bool, error) {
	switch msg.Type {
	case "invite":
		return false, h.handleInvite(ctx, msg.Data, w)
	case "cancel":
		return false, h.handleCancel(ctx, msg.Data)
	case "message":
		// произвольное уведомление оператору от сервера
		var m struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			return false, fmt.Errorf("bad message payload: %w", err)
		}
		return false, h.con.Println("► %s", m.Text)
	case "exit":
		return true, nil
	default:
		log.Debug().Str("type", msg.Type).Msg("unknown server message, skipped")
		return false, nil
	}
}

func (h *InviteHandler) handleInvite(ctx context.Context, data json.RawMessage, w *relay.Writer) error {
	var req struct {
		Guest string `json:"guest"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("bad invite payload: %w", err)
	}

	url, err := h.steam.CreateInvite(ctx, req.Guest)
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}

	reply := relay.ServerMessage{Type: "invite"}
	reply.Data, _ = json.Marshal(map[string]string{"guest": req.Guest, "url": url})
	if err := w.SendJSON(&reply); err != nil {
		return err
	}
	return h.con.Println("✓ Invite issued for guest %s", req.Guest)
}

func (h *InviteHandler) handleCancel(ctx context.Context, data json.RawMessage) error {
	var req struct {
		Guest string `json:"guest"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("bad cancel payload: %w", err)
	}
	if err := h.steam.CancelInvite(ctx, req.Guest); err != nil {
		return fmt.Errorf("failed to cancel invite: %w", err)
	}
	return h.con.Println("✓ Invite for guest %s cancelled", req.Guest)
}
