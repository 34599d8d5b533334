package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"imggen/batch"
	"imggen/config"
	"imggen/generator"
	"imggen/imgutil"
	"imggen/providers"
)

var (
	batchOutput   string
	batchModel    string
	batchProvider string
	batchQuality  string
	batchFidelity string
	batchDryRun   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file.yaml>",
	Short: "Generate every image described in a batch YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "output directory (default: the batch file's output_folder)")
	batchCmd.Flags().StringVarP(&batchModel, "model", "m", "", "model name or bare provider alias")
	batchCmd.Flags().StringVar(&batchProvider, "provider", "", "provider to use (openai, google)")
	batchCmd.Flags().StringVar(&batchQuality, "quality", "", "OpenAI quality tier applied to every image")
	batchCmd.Flags().StringVar(&batchFidelity, "fidelity", "", "reference image fidelity (high, low; OpenAI only)")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "show the cost estimate and exit without generating")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	path := args[0]

	if batchQuality != "" && !contains(providers.QualityTiers(), batchQuality) {
		return fmt.Errorf("Invalid quality level: %s (must be one of %s)", batchQuality, strings.Join(providers.QualityTiers(), ", "))
	}
	if batchFidelity != "" && batchFidelity != "high" && batchFidelity != "low" {
		return fmt.Errorf("Invalid fidelity: %s (must be high or low)", batchFidelity)
	}

	f, err := batch.Load(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	hint := batchProvider
	if batchModel == "" && hint == "" {
		hint = cfg.Provider()
	}
	providerName, model, err := providers.Resolve(batchModel, hint)
	if err != nil {
		return err
	}

	// Style references apply to every image in the batch.
	refs := make([][]byte, 0, len(f.GlobalStyleReferences))
	for _, refPath := range f.GlobalStyleReferences {
		data, err := imgutil.LoadReference(refPath)
		if err != nil {
			return err
		}
		refs = append(refs, data)
	}

	outputDir := batchOutput
	if outputDir == "" {
		outputDir = f.OutputFolder
	}
	if outputDir == "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		outputDir = filepath.Join(filepath.Dir(path), batch.OutputFolderName(base))
	}

	requests := make([]generator.Request, 0, len(f.Images))
	for _, img := range f.Images {
		requests = append(requests, generator.Request{
			Name:            img.Name,
			Prompt:          img.Prompt,
			ReferenceImages: refs,
			Variations:      img.Variations,
			Quality:         batchQuality,
			Resolution:      img.Resolution,
			AspectRatio:     img.AspectRatio,
			InputFidelity:   batchFidelity,
			Provider:        providerName,
			Model:           model,
		})
	}

	fmt.Printf("Batch: %d prompt(s), %d image(s) with %s (%s)\n", len(f.Images), f.TotalImages(), titleCase(providerName), model)
	fmt.Printf("Output directory: %s\n\n", outputDir)

	if batchDryRun {
		summary, err := generator.New(nil).RunBatch(cmd.Context(), requests, outputDir, true)
		if err != nil {
			return err
		}
		fmt.Printf("Estimated cost: $%s\n\n", summary.EstimatedCost.StringFixed(2))
		fmt.Println("Run without --dry-run to generate images.")
		return nil
	}

	if err := ensureAPIKey(cfg, providerName); err != nil {
		return err
	}

	gen := generator.New(providers.NewRegistry(providers.Credentials{
		Google: cfg.APIKeyFor(providers.ProviderGoogle),
		OpenAI: cfg.APIKeyFor(providers.ProviderOpenAI),
	}))
	gen.Progress = printProgress

	summary, err := gen.RunBatch(cmd.Context(), requests, outputDir, false)
	if err != nil {
		return err
	}

	printSummary(summary, outputDir)
	if summary.FailureCount > 0 {
		exitCode = exitPartialFailure
	}
	return nil
}
