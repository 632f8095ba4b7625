package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeai-dev/ForgeAI/internal/creds"
)

func init() {
	rootCmd.AddCommand(unpairCmd)
}

var unpairCmd = &cobra.Command{
	Use:   "unpair",
	Short: "Forget the stored Gateway credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := creds.NewStore()
		if err != nil {
			return fmt.Errorf("init credential store: %w", err)
		}
		if _, ok := store.Load(); !ok {
			fmt.Println("Not paired.")
			return nil
		}
		if err := store.Delete(); err != nil {
			return err
		}
		fmt.Println("Credentials removed. A running daemon will drop to disconnected on its next dial.")
		return nil
	},
}
