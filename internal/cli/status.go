package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeai-dev/ForgeAI/internal/creds"
	"github.com/forgeai-dev/ForgeAI/internal/safety"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pairing status and configuration paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := creds.NewStore()
		if err != nil {
			return fmt.Errorf("init credential store: %w", err)
		}

		info := map[string]any{
			"version":        version,
			"paired":         false,
			"safety_overlay": safety.DefaultOverlayPath(),
		}
		if c, ok := store.Load(); ok {
			info["paired"] = true
			info["gateway_url"] = c.GatewayURL
			info["companion_id"] = c.CompanionID
			if c.Role != "" {
				info["role"] = c.Role
			}
		}

		out, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}
