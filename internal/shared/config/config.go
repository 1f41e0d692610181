package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// EnvPrefix is the prefix of environment variables read by appctl
const EnvPrefix = "APPSMITH"

var (
	cfgFile   string
	apiURL    string
	apiKey    string
	statePath string
	manager   bool
)

// InitConfig initializes the shared configuration system
func InitConfig() {
	cobra.OnInitialize(loadConfig)
}

// AddFlags adds common configuration flags to a cobra command
func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.appsmith/config.yaml)")
	cmd.PersistentFlags().StringVar(&apiURL, "url", "", "appsd API endpoint")
	cmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "appsd API key")
	cmd.PersistentFlags().StringVar(&statePath, "state", "", "session state database (default is ~/.appsmith/state.db)")
	cmd.PersistentFlags().BoolVar(&manager, "manager", false, "act as a workspace manager")

	viper.BindPFlag("url", cmd.PersistentFlags().Lookup("url"))
	viper.BindPFlag("apiKey", cmd.PersistentFlags().Lookup("api-key"))
	viper.BindPFlag("state", cmd.PersistentFlags().Lookup("state"))
	viper.BindPFlag("manager", cmd.PersistentFlags().Lookup("manager"))
}

// Dir returns the directory holding the config file and session state
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".appsmith"), nil
}

func loadConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	// A missing config file is fine, flags and env may cover everything
	_ = viper.ReadInConfig()
}

// GetURL returns the configured appsd URL
func GetURL() string {
	if apiURL != "" {
		return apiURL
	}
	return viper.GetString("url")
}

// GetAPIKey returns the configured appsd API key
func GetAPIKey() string {
	if apiKey != "" {
		return apiKey
	}
	return viper.GetString("apiKey")
}

// GetStatePath returns the session state database path
func GetStatePath() (string, error) {
	if statePath != "" {
		return statePath, nil
	}
	if p := viper.GetString("state"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}

// IsManager reports whether the session acts with the workspace manager role
func IsManager() bool {
	return manager || viper.GetBool("manager")
}

// ValidateConfig validates that required configuration is present
func ValidateConfig() error {
	if GetURL() == "" {
		return fmt.Errorf("appsd URL is required (set %s_URL env var, --url flag, or url in config file)", EnvPrefix)
	}
	if GetAPIKey() == "" {
		return fmt.Errorf("appsd API key is required (set %s_APIKEY env var, --api-key flag, or apiKey in config file)", EnvPrefix)
	}
	return nil
}

// ConfigureRequest represents configuration input
type ConfigureRequest struct {
	URL     string
	APIKey  string
	Manager bool
}

// ConfigureInteractive prompts for the URL and API key. The key is read
// without echo when in is a terminal.
func ConfigureInteractive(in io.Reader, out io.Writer, currentURL, currentAPIKey string) (*ConfigureRequest, error) {
	reader := bufio.NewReader(in)

	fmt.Fprint(out, "appsd URL")
	if currentURL != "" {
		fmt.Fprintf(out, " [%s]", currentURL)
	}
	fmt.Fprint(out, ": ")

	urlInput, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	urlInput = strings.TrimSpace(urlInput)
	if urlInput == "" {
		urlInput = currentURL
	}

	fmt.Fprint(out, "appsd API Key")
	if currentAPIKey != "" {
		fmt.Fprint(out, " [hidden]")
	}
	fmt.Fprint(out, ": ")

	var keyInput string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return nil, fmt.Errorf("failed to read API key: %w", err)
		}
		fmt.Fprintln(out)
		keyInput = string(bytePassword)
	} else {
		keyInput, err = reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read API key: %w", err)
		}
	}

	keyInput = strings.TrimSpace(keyInput)
	if keyInput == "" {
		keyInput = currentAPIKey
	}

	if urlInput == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if keyInput == "" {
		return nil, fmt.Errorf("API key is required")
	}

	return &ConfigureRequest{
		URL:    urlInput,
		APIKey: keyInput,
	}, nil
}

// SaveConfig writes req to the default config file and returns its path
func SaveConfig(req ConfigureRequest) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	configFile := filepath.Join(dir, "config.yaml")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set("url", req.URL)
	viper.Set("apiKey", req.APIKey)
	viper.Set("manager", req.Manager)

	if err := viper.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configFile, nil
}

// MaskKey hides all but the ends of an API key
func MaskKey(key string) string {
	if len(key) <= 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:8] + "..." + key[len(key)-4:]
}
