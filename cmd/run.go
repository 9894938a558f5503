package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/ai"
	"github.com/spigell/form-responder/internal/ai/gemini"
	"github.com/spigell/form-responder/internal/application"
	"github.com/spigell/form-responder/internal/browser"
	"github.com/spigell/form-responder/internal/form"
	"github.com/spigell/form-responder/internal/logger"
	"github.com/spigell/form-responder/internal/profile"
	"github.com/spigell/form-responder/internal/secrets"
	"github.com/spigell/form-responder/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fill and submit the application form of every job URL",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation, wait the configured pauses instead")
	runCmd.Flags().Bool("headless", false, "run chrome without a window")
	runCmd.Flags().StringP("urls-file", "u", "", "file with one job application URL per line")
	runCmd.Flags().Bool("dump-summary", false, "write the run summary to a temporary JSON file")

	viper.BindPFlag("urls-file", runCmd.Flags().Lookup("urls-file"))
	viper.BindPFlag("settings.headless", runCmd.Flags().Lookup("headless"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the form-responder", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	applicant, err := profile.Decode(config.Profile)
	if err != nil {
		logger.Fatal("loading the applicant profile", zap.Error(err), zap.String("hint", "fill the 'profile' section of the config"))
	}

	urls, err := application.LoadURLs(config.URLsFile, config.DefaultURL, logger)
	if err != nil {
		logger.Fatal("loading job URLs", zap.Error(err), zap.String("path", config.URLsFile))
	}
	logger.Info("loaded job URLs", zap.Int("count", len(urls)))

	settings := config.Settings
	if settings == nil {
		settings = &Settings{}
	}
	autoApprove := cmd.Flag("auto-approve").Value.String() == "true"

	operator := &consoleOperator{
		headless:          settings.Headless,
		autoApprove:       autoApprove,
		reviewPause:       settings.ReviewPause,
		unknownFieldPause: settings.UnknownFieldPause,
		logger:            logger,
	}
	if settings.Headless {
		logger.Info("headless mode, manual actions are declined")
	}

	answerer := form.NewProfileAnswerer(applicant)
	if config.AI != nil && config.AI.Enabled {
		advisor, err := newAIAdvisor(ctx, config.AI, applicant, logger)
		if err != nil {
			logger.Warn("answering questions without ai", zap.Error(err))
		} else {
			answerer = answerer.WithGuesser(advisor)
		}
	}

	engine := form.New(form.Deps{
		Profile:  applicant,
		Operator: operator,
		Answerer: answerer,
		Logger:   logger,
	}, form.DefaultDelays())

	session, err := browser.Launch(ctx, newBrowserConfig(config.Browser, settings), logger)
	if err != nil {
		logger.Fatal("starting the browser", zap.Error(err))
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("closing the browser", zap.Error(err))
		}
	}()

	applier, err := application.New(application.Deps{
		Tab:      session,
		Engine:   engine,
		Operator: operator,
		Logger:   logger,
	}, newApplierSettings(config, settings))
	if err != nil {
		logger.Fatal("preparing the applier", zap.Error(err))
	}

	summary := applier.Run(ctx, urls)
	summary.Log(logger)

	if cmd.Flag("dump-summary").Value.String() == "true" {
		path, err := summary.DumpToTmpFile()
		if err != nil {
			logger.Warn("dumping the summary", zap.Error(err))
		} else {
			logger.Info("summary dumped", zap.String("path", path))
		}
	}
}

func newBrowserConfig(cfg *BrowserConfig, settings *Settings) browser.Config {
	out := browser.Config{
		Headless: settings.Headless,
		Timeout:  settings.ImplicitWait,
	}
	if cfg != nil {
		out.RemoteURL = cfg.RemoteURL
		out.UserAgent = cfg.UserAgent
		out.Stealth = cfg.Stealth
	}
	return out
}

func newApplierSettings(config *Config, settings *Settings) application.Settings {
	out := application.DefaultSettings()
	out.PauseBetween = settings.PauseBetweenApplications
	out.ScreenshotOnError = settings.ScreenshotOnError
	if settings.ScreenshotDir != "" {
		out.ScreenshotDir = settings.ScreenshotDir
	}
	if settings.MaxSteps > 0 {
		out.MaxSteps = settings.MaxSteps
	}

	out.DisabledSteps = map[string]string{}
	statuses := append(workflow.Describe(workflow.FirstPage()), workflow.Describe(workflow.NextPage())...)
	for _, status := range statuses {
		if enabled, ok := config.Steps[status.Name]; ok && !enabled {
			out.DisabledSteps[status.Name] = "disabled in config"
		}
	}
	return out
}

func newAIAdvisor(ctx context.Context, cfg *AIConfig, applicant *profile.Profile, log *zap.Logger) (ai.Answerer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Source {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	aiLogger := logger.WithFields(log, logger.AIFields(gemini.Source, cfg.Gemini.Model)...)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries,
		aiLogger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries)))
	if err != nil {
		return nil, err
	}

	return gemini.NewAdvisor(generator, applicant.Answers(), aiLogger, cfg.Gemini.MaxLogLength), nil
}
