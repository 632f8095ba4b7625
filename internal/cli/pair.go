package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeai-dev/ForgeAI/internal/creds"
	"github.com/forgeai-dev/ForgeAI/internal/pairing"
)

var (
	pairGateway string
	pairCode    string
)

func init() {
	rootCmd.AddCommand(pairCmd)
	pairCmd.Flags().StringVar(&pairGateway, "gateway", "", "Gateway base URL, e.g. https://gateway.example.com (required)")
	pairCmd.Flags().StringVar(&pairCode, "code", "", "One-time pairing code from the Gateway (required)")
	pairCmd.MarkFlagRequired("gateway")
	pairCmd.MarkFlagRequired("code")
}

var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Pair this machine with a Gateway",
	Long: "Claims a one-time pairing code against the Gateway and stores the\n" +
		"resulting credentials in the OS keychain (with a file fallback).\n" +
		"Run serve afterwards to bring the control channel up.",
	RunE: runPair,
}

func runPair(cmd *cobra.Command, args []string) error {
	store, err := creds.NewStore()
	if err != nil {
		return fmt.Errorf("init credential store: %w", err)
	}

	c, err := pairing.Claim(context.Background(), pairGateway, pairCode)
	if err != nil {
		return err
	}
	if err := store.Save(c); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}

	fmt.Printf("Paired with %s\n", c.GatewayURL)
	fmt.Printf("  companion id: %s\n", c.CompanionID)
	if c.Role != "" {
		fmt.Printf("  role:         %s\n", c.Role)
	}
	return nil
}
