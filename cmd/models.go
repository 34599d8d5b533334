package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"imggen/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available providers and models",
	Run: func(cmd *cobra.Command, args []string) {
		available := providers.AvailableModels()

		names := make([]string, 0, len(available))
		for name := range available {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			fmt.Printf("%s:\n", titleCase(name))
			for _, model := range available[name] {
				fmt.Printf("  %s\n", model)
			}
		}
		fmt.Println()
		fmt.Println("Use --model with a model name, or a bare provider name as an alias for its default model.")
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
