package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "form-responder"
)

type Config struct {
	URLsFile   string          `mapstructure:"urls-file"`
	DefaultURL string          `mapstructure:"default-url"`
	Profile    map[string]any  `mapstructure:"profile"`
	Settings   *Settings       `mapstructure:"settings"`
	Browser    *BrowserConfig  `mapstructure:"browser"`
	Steps      map[string]bool `mapstructure:"steps"`
	AI         *AIConfig       `mapstructure:"ai"`
}

type Settings struct {
	Headless                 bool          `mapstructure:"headless"`
	ImplicitWait             time.Duration `mapstructure:"implicit-wait"`
	ReviewPause              time.Duration `mapstructure:"review-pause"`
	UnknownFieldPause        time.Duration `mapstructure:"unknown-field-pause"`
	PauseBetweenApplications time.Duration `mapstructure:"pause-between-applications"`
	ScreenshotOnError        bool          `mapstructure:"screenshot-on-error"`
	ScreenshotDir            string        `mapstructure:"screenshot-dir"`
	MaxSteps                 int           `mapstructure:"max-steps"`
}

type BrowserConfig struct {
	RemoteURL string `mapstructure:"remote-url"`
	UserAgent string `mapstructure:"user-agent"`
	Stealth   bool   `mapstructure:"stealth"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "form-responder fills and submits job application forms in a browser",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("urls-file", "FORM_RESPONDER_URLS_FILE"); err != nil {
		log.Fatalf("binding FORM_RESPONDER_URLS_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetDefault("urls-file", "job_urls.txt")
	viper.SetDefault("settings.review-pause", 3*time.Second)
	viper.SetDefault("settings.unknown-field-pause", 30*time.Second)
	viper.SetDefault("settings.pause-between-applications", 3*time.Second)
	viper.SetDefault("settings.implicit-wait", 10*time.Second)
	viper.SetDefault("settings.screenshot-on-error", true)
	viper.SetDefault("settings.screenshot-dir", ".")
	viper.SetDefault("settings.max-steps", 10)
	viper.SetDefault("browser.stealth", true)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is form-responder.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
