package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"imggen/config"
	"imggen/providers"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure API keys and the default provider",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println("imggen setup")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("Default provider (openai, google) [%s]: ", cfg.Provider())
	choice, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	choice = strings.TrimSpace(strings.ToLower(choice))
	if choice != "" {
		if choice != providers.ProviderOpenAI && choice != providers.ProviderGoogle {
			return fmt.Errorf("unknown provider: %s", choice)
		}
		cfg.DefaultProvider = choice
	}

	for _, name := range []string{providers.ProviderOpenAI, providers.ProviderGoogle} {
		status := "not set"
		if cfg.APIKeyFor(name) != "" {
			status = "configured"
		}
		fmt.Printf("%s API key (%s, press Enter to keep): ", titleCase(name), status)
		key, err := readSecret()
		if err != nil {
			return err
		}
		if key != "" {
			cfg.SetAPIKey(name, key)
		}
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	path, _ := config.File()
	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", path)
	return nil
}

// ensureAPIKey makes sure a credential exists for the provider about to
// be used, prompting interactively when the terminal allows it.
func ensureAPIKey(cfg *config.Config, provider string) error {
	if cfg.APIKeyFor(provider) != "" {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return providers.NewError(providers.ErrMissingCredential, provider,
			fmt.Sprintf("no API key configured for %s; run 'imggen setup' or set %s_API_KEY", provider, strings.ToUpper(provider)))
	}

	fmt.Printf("No API key configured for %s.\n", titleCase(provider))
	fmt.Printf("Enter %s API key: ", titleCase(provider))
	key, err := readSecret()
	if err != nil {
		return err
	}
	if key == "" {
		return providers.NewError(providers.ErrMissingCredential, provider, "no API key entered")
	}

	cfg.SetAPIKey(provider, key)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	fmt.Println("API key saved.")
	fmt.Println()
	return nil
}

// readSecret reads a line without echo when stdin is a terminal, and
// falls back to a plain read otherwise (pipes, tests).
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
