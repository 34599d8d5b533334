package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"imggen/batch"
	"imggen/config"
	"imggen/providers"
)

var parseOutput string

var parseCmd = &cobra.Command{
	Use:   "parse <request.txt>",
	Short: "Turn a natural-language request into a batch YAML file",
	Long:  "parse sends a free-form description of the images you want to Gemini and\nwrites the structured batch file it produces, ready for 'imggen batch'.",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "", "batch file to write (default: <input>.yaml)")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("Request file not found: %s", path)
		}
		return fmt.Errorf("failed to read request file: %w", err)
	}
	input := strings.TrimSpace(string(data))
	if input == "" {
		return fmt.Errorf("Request file is empty: %s", path)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Parsing always goes through Gemini, regardless of the default provider.
	if err := ensureAPIKey(cfg, providers.ProviderGoogle); err != nil {
		return err
	}

	fmt.Println("Parsing request with Gemini...")
	f, err := batch.ParseNatural(cmd.Context(), cfg.APIKeyFor(providers.ProviderGoogle), input)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if f.OutputFolder == "" {
		f.OutputFolder = batch.OutputFolderName(base)
	}

	outPath := parseOutput
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(path), base+".yaml")
	}
	if err := f.Save(outPath); err != nil {
		return fmt.Errorf("failed to write batch file: %w", err)
	}

	fmt.Printf("Parsed %d prompt(s) into %s (%d images total)\n", len(f.Images), outPath, f.TotalImages())
	fmt.Printf("Generate them with: imggen batch %s\n", outPath)
	return nil
}
