package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"imggen/update"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check whether a newer imggen release is available",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Current version: %s\n", version)

		latest, available, err := update.Check(cmd.Context(), version)
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}
		if !available {
			fmt.Println("You are up to date.")
			return nil
		}

		fmt.Printf("A newer release is available: %s\n", latest)
		fmt.Println("Download it from https://github.com/ilkkanisula/imggen/releases")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
