// Package cmd wires the CLI surface: flag parsing, interactive setup
// and user-facing output. All generation logic lives below it.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"imggen/config"
	"imggen/generator"
	"imggen/imgutil"
	"imggen/pricing"
	"imggen/providers"
)

// version is stamped at build time via -ldflags.
var version = "0.4.0"

// Exit codes: 0 all jobs succeeded, 1 fatal (nothing attempted),
// 2 partial failure (summary and manifest still written).
const exitPartialFailure = 2

var (
	flagPrompt      string
	flagFile        string
	flagReferences  string
	flagOutput      string
	flagVariations  int
	flagQuality     string
	flagResolution  string
	flagAspectRatio string
	flagFidelity    string
	flagModel       string
	flagProvider    string
	flagDryRun      bool
)

var exitCode int

var rootCmd = &cobra.Command{
	Use:     "imggen [reference images...]",
	Short:   "Generate images with OpenAI or Google image models",
	Long:    "imggen dispatches prompts and optional reference images to OpenAI or Google image models,\nwith cost estimation, batching and a durable manifest of outcomes.",
	Version: version,
	Args:    cobra.ArbitraryArgs,
	RunE:    runGenerate,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&flagPrompt, "prompt", "p", "", "image generation prompt")
	rootCmd.Flags().StringVarP(&flagFile, "file", "f", "", "read the prompt from a file")
	rootCmd.Flags().StringVar(&flagReferences, "references", "", "file listing reference image paths, one per line")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", ".", "output directory")
	rootCmd.Flags().IntVarP(&flagVariations, "variations", "n", 1, "number of variations to generate (1-4)")
	rootCmd.Flags().StringVar(&flagQuality, "quality", "", "OpenAI quality tier (low, medium, high)")
	rootCmd.Flags().StringVar(&flagResolution, "resolution", "", "Google resolution tier (1K, 2K, 4K)")
	rootCmd.Flags().StringVar(&flagAspectRatio, "aspect-ratio", "", "aspect ratio (1:1, 16:9, 9:16, 4:3, 3:4)")
	rootCmd.Flags().StringVar(&flagFidelity, "fidelity", "", "reference image fidelity (high, low; OpenAI only)")
	rootCmd.Flags().StringVarP(&flagModel, "model", "m", "", "model name or bare provider alias")
	rootCmd.Flags().StringVar(&flagProvider, "provider", "", "provider to use (openai, google)")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "show the cost estimate and exit without generating")
}

// Execute runs the CLI and exits the process with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
	stop()
	os.Exit(exitCode)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := validateArguments(flagPrompt, flagFile, flagQuality, flagResolution, flagAspectRatio, flagFidelity, flagVariations); err != nil {
		return err
	}

	prompt, err := loadPrompt(flagPrompt, flagFile)
	if err != nil {
		return err
	}

	refPaths, err := loadReferences(args, flagReferences)
	if err != nil {
		return err
	}
	refs := make([][]byte, 0, len(refPaths))
	for _, path := range refPaths {
		data, err := imgutil.LoadReference(path)
		if err != nil {
			return err
		}
		refs = append(refs, data)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Only an explicit --provider acts as a hint; the configured
	// default provider applies when neither a model nor a hint is given.
	hint := flagProvider
	if flagModel == "" && hint == "" {
		hint = cfg.Provider()
	}
	providerName, model, err := providers.Resolve(flagModel, hint)
	if err != nil {
		return err
	}

	req := generator.Request{
		Name:            "imggen",
		Prompt:          prompt,
		ReferenceImages: refs,
		Variations:      flagVariations,
		Quality:         flagQuality,
		Resolution:      flagResolution,
		AspectRatio:     flagAspectRatio,
		InputFidelity:   flagFidelity,
		Provider:        providerName,
		Model:           model,
	}

	printRunHeader(&req, flagOutput)

	if flagDryRun {
		tier := pricing.TierFor(providerName, flagQuality, flagResolution)
		estimate, err := pricing.Estimate(providerName, tier, flagVariations)
		if err != nil {
			return err
		}
		fmt.Printf("Estimated cost: $%s\n\n", estimate.StringFixed(2))
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

	summary, err := gen.RunBatch(cmd.Context(), []generator.Request{req}, flagOutput, false)
	if err != nil {
		return err
	}

	printSummary(summary, flagOutput)
	if summary.FailureCount > 0 {
		exitCode = exitPartialFailure
	}
	return nil
}

func printRunHeader(req *generator.Request, outputDir string) {
	variations := req.Variations
	if variations > generator.MaxVariations {
		variations = generator.MaxVariations
	}
	plural := ""
	if variations > 1 {
		plural = "s"
	}
	fmt.Printf("Generating %d image%s with %s (%s)\n\n", variations, plural, titleCase(req.Provider), req.Model)
	fmt.Println("Configuration:")
	fmt.Printf("  Prompt: %q\n", req.Prompt)
	if req.Quality != "" {
		fmt.Printf("  Quality: %s\n", req.Quality)
	}
	if req.Resolution != "" {
		fmt.Printf("  Resolution: %s\n", req.Resolution)
	}
	if req.AspectRatio != "" {
		fmt.Printf("  Aspect ratio: %s\n", req.AspectRatio)
	}
	if req.InputFidelity != "" {
		fmt.Printf("  Input fidelity: %s\n", req.InputFidelity)
	}
	if len(req.ReferenceImages) > 0 {
		fmt.Printf("  Reference images: %d\n", len(req.ReferenceImages))
	}
	fmt.Printf("  Variations: %d\n", variations)
	fmt.Printf("  Output: %s/%s_001.png ... %s/%s_%03d.png\n\n", outputDir, req.Name, outputDir, req.Name, variations)
}

func printProgress(jobNum, total int, filename string, err error) {
	if err != nil {
		fmt.Printf("  [%d/%d] Generating %s... failed (%v)\n", jobNum, total, filename, err)
		return
	}
	fmt.Printf("  [%d/%d] Generating %s... done\n", jobNum, total, filename)
}

func printSummary(summary *generator.RunSummary, outputDir string) {
	total := summary.SuccessCount + summary.FailureCount
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("Generation complete!")
	fmt.Printf("  Successful: %d/%d\n", summary.SuccessCount, total)
	if summary.FailureCount > 0 {
		fmt.Printf("  Failed: %d/%d\n", summary.FailureCount, total)
	}
	if summary.RateLimited {
		fmt.Println()
		fmt.Println("Rate limit hit during this run; consider retrying the failed prompts later.")
	}
	fmt.Println()
	fmt.Printf("Output directory: %s\n", outputDir)
	if summary.ManifestPath != "" {
		fmt.Printf("Manifest: %s\n", summary.ManifestPath)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
