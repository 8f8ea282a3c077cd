package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/campo-social/notification/internal/application"
	"github.com/campo-social/notification/internal/kafka/registry"
)

func init() {
	registry.RegisterDirect(TopicCommands, handleBroadcastCommand)
}

// handleBroadcastCommand accepts a bulk fan-out command from a backend
// service. The command carries the sender identity; the topic is internal
// and trusted, so no token check applies here.
func handleBroadcastCommand(ctx context.Context, svc *application.Service, data []byte) error {
	var cmd struct {
		CommandID      string         `json:"commandId"`
		FromUserID     string         `json:"fromUserId"`
		FromUserName   string         `json:"fromUserName"`
		UserIDs        []string       `json:"userIds"`
		Title          string         `json:"title"`
		Message        string         `json:"message"`
		Type           string         `json:"type"`
		AdditionalData map[string]any `json:"additionalData"`
	}
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("decode broadcast command: %w", err)
	}

	fromUserID := cmd.FromUserID
	if fromUserID == "" {
		fromUserID = "system"
	}
	fromUserName := cmd.FromUserName
	if fromUserName == "" {
		fromUserName = "System"
	}

	res, err := svc.CreateBulk(ctx, application.BulkRequest{
		UserIDs:        cmd.UserIDs,
		Title:          cmd.Title,
		Message:        cmd.Message,
		Type:           cmd.Type,
		AdditionalData: cmd.AdditionalData,
		FromUserID:     fromUserID,
		FromUserName:   fromUserName,
	})
	if err != nil {
		return fmt.Errorf("broadcast command %s: %w", cmd.CommandID, err)
	}

	log.Info().
		Str("command_id", cmd.CommandID).
		Int("count", res.Count).
		Msg("broadcast command fanned out")
	return nil
}
