// Package atomlib ships the built-in atoms: mock implementations of the
// permission, quota, transfer and file operations, together with their
// catalog definitions. Hosts register them at startup; real deployments
// replace the handlers with live integrations under the same atom IDs.
package atomlib

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/harun/flowmind/pkg/atoms"
	"github.com/harun/flowmind/pkg/capability"
)

// Definitions returns the catalog definitions of the built-in atoms.
func Definitions() []*atoms.Definition {
	return []*atoms.Definition{
		{
			ID:          "globalx.permission.query_permissions",
			Description: "Query whether a user may transfer files",
			Inputs: []atoms.Input{
				{Name: "user_id", Type: "string", Required: true},
			},
			Outputs: []atoms.Output{
				{Name: "has_permission", Type: "bool"},
			},
		},
		{
			ID:          "globalx.permission.grant_permission",
			Description: "Grant a user permission to transfer files",
			Inputs: []atoms.Input{
				{Name: "user_id", Type: "string", Required: true},
			},
		},
		{
			ID:          "globalx.space.query_quota",
			Description: "Query a user's remaining space quota",
			Inputs: []atoms.Input{
				{Name: "user_id", Type: "string", Required: true},
			},
			Outputs: []atoms.Output{
				{Name: "quota", Type: "int"},
			},
		},
		{
			ID:          "globalx.transfer.file_transfer",
			Description: "Transfer a file between two users",
			Inputs: []atoms.Input{
				{Name: "file_path", Type: "string", Required: true},
				{Name: "sender_id", Type: "string", Required: true},
				{Name: "receiver_id", Type: "string", Required: true},
			},
		},
		{
			ID:          "common.file.get_file_size",
			Description: "Look up the size of a file",
			Inputs: []atoms.Input{
				{Name: "file_path", Type: "string", Required: true},
			},
			Outputs: []atoms.Output{
				{Name: "size", Type: "int"},
			},
		},
	}
}

// Register binds the built-in mock handlers into a capability registry.
func Register(reg *capability.Registry, logger zerolog.Logger) error {
	log := logger.With().Str("component", "atomlib").Logger()

	handlers := map[string]capability.Handler{
		"globalx.permission.query_permissions": func(ctx context.Context, inputs map[string]any) (any, error) {
			userID, err := stringInput(inputs, "user_id")
			if err != nil {
				return nil, err
			}
			hasPermission := rand.Intn(2) == 1
			log.Info().Str("user_id", userID).Bool("has_permission", hasPermission).
				Msg("[mock] queried transfer permission")
			return hasPermission, nil
		},
		"globalx.permission.grant_permission": func(ctx context.Context, inputs map[string]any) (any, error) {
			userID, err := stringInput(inputs, "user_id")
			if err != nil {
				return nil, err
			}
			log.Info().Str("user_id", userID).Msg("[mock] granted transfer permission")
			return nil, nil
		},
		"globalx.space.query_quota": func(ctx context.Context, inputs map[string]any) (any, error) {
			userID, err := stringInput(inputs, "user_id")
			if err != nil {
				return nil, err
			}
			quota := 100 + rand.Intn(901)
			log.Info().Str("user_id", userID).Int("quota", quota).Msg("[mock] queried quota")
			return quota, nil
		},
		"globalx.transfer.file_transfer": func(ctx context.Context, inputs map[string]any) (any, error) {
			filePath, err := stringInput(inputs, "file_path")
			if err != nil {
				return nil, err
			}
			senderID, err := stringInput(inputs, "sender_id")
			if err != nil {
				return nil, err
			}
			receiverID, err := stringInput(inputs, "receiver_id")
			if err != nil {
				return nil, err
			}
			log.Info().Str("file_path", filePath).Str("sender_id", senderID).
				Str("receiver_id", receiverID).Msg("[mock] transferred file")
			return nil, nil
		},
		"common.file.get_file_size": func(ctx context.Context, inputs map[string]any) (any, error) {
			filePath, err := stringInput(inputs, "file_path")
			if err != nil {
				return nil, err
			}
			size := 100 + rand.Intn(901)
			log.Info().Str("file_path", filePath).Int("size", size).Msg("[mock] looked up file size")
			return size, nil
		},
	}

	for atomID, handler := range handlers {
		if err := reg.Register(atomID, handler); err != nil {
			return fmt.Errorf("failed to register atom %s: %w", atomID, err)
		}
	}
	return nil
}

// stringInput reads a required string parameter from resolved inputs.
func stringInput(inputs map[string]any, name string) (string, error) {
	value, ok := inputs[name].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("input %q must be a non-empty string", name)
	}
	return value, nil
}
