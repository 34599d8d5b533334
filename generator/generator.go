// Package generator drives one-or-many generation requests to
// completion: it estimates cost, reserves output filenames, executes
// variation jobs against a provider registry and records every outcome
// in a durable manifest.
package generator

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"imggen/pricing"
	"imggen/providers"
)

// MaxVariations caps the number of variations per request. Counts
// above the cap are silently reduced; the reduction is visible in both
// the cost estimate and the number of jobs run.
const MaxVariations = 4

// Request is one fully resolved user intent. Provider and model are
// always concrete by the time a Request reaches the generator; aliases
// never survive past the resolver.
type Request struct {
	Name            string   // output filename slug, e.g. "imggen"
	Prompt          string
	ReferenceImages [][]byte
	Variations      int
	Quality         string // OpenAI tier
	Resolution      string // Google tier
	AspectRatio     string
	InputFidelity   string
	Provider        string // resolved provider identifier
	Model           string // resolved model identifier
}

// VariationJob is one concrete unit of work: a request plus a 1-based
// sequence index and the output filename for that index.
type VariationJob struct {
	Request  *Request
	Index    int
	Filename string
}

// RunSummary is what RunBatch hands back to the caller.
type RunSummary struct {
	EstimatedCost decimal.Decimal
	SuccessCount  int
	FailureCount  int
	RateLimited   bool
	ManifestPath  string
}

// ProviderLookup resolves a provider identifier to a usable instance.
// Satisfied by *providers.Registry.
type ProviderLookup interface {
	Get(name string) (providers.ImageProvider, error)
}

// ProgressFunc observes each completed job. err is nil on success.
type ProgressFunc func(jobNum, total int, filename string, err error)

// Generator executes generation runs against a provider lookup.
type Generator struct {
	Providers ProviderLookup
	Progress  ProgressFunc
}

// New creates a Generator backed by the given provider lookup.
func New(lookup ProviderLookup) *Generator {
	return &Generator{Providers: lookup}
}

func clampVariations(v int) int {
	if v > MaxVariations {
		return MaxVariations
	}
	return v
}

func validateRequests(requests []Request) error {
	if len(requests) == 0 {
		return fmt.Errorf("no generation requests supplied")
	}
	for i := range requests {
		req := &requests[i]
		if req.Prompt == "" {
			return fmt.Errorf("request %d: prompt must not be empty", i+1)
		}
		if req.Variations < 1 {
			return fmt.Errorf("request %d: variations must be at least 1", i+1)
		}
		if req.AspectRatio != "" && !providers.ValidAspectRatio(req.AspectRatio) {
			return fmt.Errorf("request %d: invalid aspect ratio %q", i+1, req.AspectRatio)
		}
		if req.Provider == "" || req.Model == "" {
			return fmt.Errorf("request %d: provider and model must be resolved before generation", i+1)
		}
		if req.Name == "" {
			return fmt.Errorf("request %d: output name must not be empty", i+1)
		}
	}
	return nil
}

// expandJobs flattens the requests into ordered variation jobs,
// clamping each request's variation count at the cap. Jobs keep the
// original request order so the manifest order matches.
func expandJobs(requests []Request) []VariationJob {
	var jobs []VariationJob
	for i := range requests {
		req := &requests[i]
		variations := clampVariations(req.Variations)
		for n := 1; n <= variations; n++ {
			jobs = append(jobs, VariationJob{
				Request:  req,
				Index:    n,
				Filename: fmt.Sprintf("%s_%03d.png", req.Name, n),
			})
		}
	}
	return jobs
}

// estimateCost sums the per-request estimates over the clamped
// variation counts.
func estimateCost(requests []Request) (decimal.Decimal, error) {
	total := decimal.Zero
	for i := range requests {
		req := &requests[i]
		tier := pricing.TierFor(req.Provider, req.Quality, req.Resolution)
		cost, err := pricing.Estimate(req.Provider, tier, clampVariations(req.Variations))
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(cost)
	}
	return total, nil
}

// RunBatch validates the requests, estimates cost, checks the output
// directory for collisions and then executes every variation job in
// order. One job's failure never aborts the batch: the failing job is
// recorded in the manifest and the run moves on. When dryRun is set no
// provider is called and nothing is written.
func (g *Generator) RunBatch(ctx context.Context, requests []Request, outputDir string, dryRun bool) (*RunSummary, error) {
	if err := validateRequests(requests); err != nil {
		return nil, err
	}

	estimated, err := estimateCost(requests)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{EstimatedCost: estimated}
	if dryRun {
		return summary, nil
	}

	jobs := expandJobs(requests)

	// Reserve every output filename before the first paid call.
	var filenames []string
	for _, job := range jobs {
		filenames = append(filenames, job.Filename)
	}
	if collisions := CheckCollisions(outputDir, filenames); len(collisions) > 0 {
		return nil, &CollisionError{Dir: outputDir, Files: collisions}
	}

	// Resolve each distinct provider up front so a missing credential
	// surfaces before any of that provider's jobs run. In a
	// mixed-provider batch only the affected jobs fail.
	instances := make(map[string]providers.ImageProvider)
	lookupErrs := make(map[string]error)
	for i := range requests {
		name := requests[i].Provider
		if _, seen := instances[name]; seen {
			continue
		}
		if _, seen := lookupErrs[name]; seen {
			continue
		}
		p, err := g.Providers.Get(name)
		if err != nil {
			lookupErrs[name] = err
			continue
		}
		instances[name] = p
	}
	if len(instances) == 0 {
		// Nothing can run at all: fatal, no side effects.
		for _, err := range lookupErrs {
			return nil, err
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manifest := NewManifest()
	total := len(jobs)

	for i, job := range jobs {
		if ctx.Err() != nil {
			// Interrupted between jobs. Everything processed so far is
			// already flushed; stop without touching the remaining jobs.
			summary.ManifestPath = filepath.Join(outputDir, ManifestFilename)
			return summary, ctx.Err()
		}

		entry := ManifestEntry{
			ID:     uuid.NewString(),
			Prompt: job.Request.Prompt,
		}

		err := g.runJob(ctx, instances, lookupErrs, outputDir, job)
		if err != nil {
			entry.Status = StatusFailure
			entry.Error = err.Error()
			summary.FailureCount++
			if providers.IsRateLimited(err) {
				summary.RateLimited = true
			}
		} else {
			entry.Status = StatusSuccess
			entry.File = job.Filename
			summary.SuccessCount++
		}

		manifest.Append(entry)
		if flushErr := manifest.Flush(outputDir); flushErr != nil {
			log.Printf("Warning: failed to flush manifest: %v", flushErr)
		}

		if g.Progress != nil {
			g.Progress(i+1, total, job.Filename, err)
		}
	}

	if err := manifest.Flush(outputDir); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	summary.ManifestPath = filepath.Join(outputDir, ManifestFilename)
	return summary, nil
}

// runJob executes a single variation job and persists the image bytes
// on success. All provider failures come back as errors for the caller
// to convert into manifest entries.
func (g *Generator) runJob(ctx context.Context, instances map[string]providers.ImageProvider, lookupErrs map[string]error, outputDir string, job VariationJob) error {
	req := job.Request

	provider, ok := instances[req.Provider]
	if !ok {
		if err, found := lookupErrs[req.Provider]; found {
			return err
		}
		return providers.NewError(providers.ErrUnknownProvider, req.Provider, "unknown provider: "+req.Provider)
	}

	out, err := provider.Generate(ctx, providers.GenerationInput{
		Prompt:          req.Prompt,
		ReferenceImages: req.ReferenceImages,
		AspectRatio:     req.AspectRatio,
		Resolution:      req.Resolution,
		Quality:         req.Quality,
		InputFidelity:   req.InputFidelity,
		Model:           req.Model,
	})
	if err != nil {
		return err
	}

	path := filepath.Join(outputDir, job.Filename)
	if err := os.WriteFile(path, out.ImageBytes, 0o644); err != nil {
		return fmt.Errorf("failed to save image to %s: %w", path, err)
	}
	return nil
}
