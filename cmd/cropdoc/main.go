package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cropdoc/internal/config"
	"cropdoc/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	storePath  string
	timeout    time.Duration

	// Resolved at startup
	cfg    *config.Config
	logger *zap.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cropdoc",
		Short: "Diagnose crop problems from a photo or note and turn them into tasks",
		Long: `cropdoc sends a photo or a written observation to a multimodal
classifier, extracts a structured diagnosis (weed, pest, disease or soil),
matches it against your crop plans and lets you file the suggested action
as a task.

Configuration is read from ~/.cropdoc/config.yaml; GEMINI_API_KEY and a
.env file in the working directory are honoured.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.cropdoc/config.yaml)")
	root.PersistentFlags().StringVar(&storePath, "store", "", "Store path override")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 3*time.Minute, "Overall operation timeout")

	root.AddCommand(newDiagnoseCmd())
	root.AddCommand(newSoilReportCmd())
	root.AddCommand(newOwnerCmd("plans", "plan"))
	root.AddCommand(newOwnerCmd("lists", "list"))
	root.AddCommand(newTasksCmd())
	root.AddCommand(newRecentCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newUsageCmd())
	return root
}

// setup loads .env, the config file and the logger.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")

	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if storePath != "" {
		loaded.Store.Path = storePath
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	lc := logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		Categories: cfg.Logging.Categories,
	}
	if verbose {
		lc.Level = "debug"
	}
	if err := logging.Initialize(lc); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logging.Root()
	logging.Boot("cropdoc %s: config=%s store=%s (%s) backend=%s timeout=%v",
		cfg.Version, path, cfg.Store.Path, cfg.Store.Backend, cfg.LLM.Backend, cfg.GetLLMTimeout())
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
