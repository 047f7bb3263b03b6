package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sentinelfetch/pkg/auth"
	"sentinelfetch/pkg/config"
	"sentinelfetch/pkg/ingest"
	"sentinelfetch/pkg/logger"
	"sentinelfetch/pkg/metrics"
	"sentinelfetch/pkg/ratelimit"
	"sentinelfetch/pkg/retry"
	"sentinelfetch/pkg/rows"
	"sentinelfetch/pkg/sentinelhub"
	"sentinelfetch/pkg/storage"
	"sentinelfetch/pkg/ui"
)

var (
	// Fetch command flags
	inputPath     string
	outputDir     string
	delay         time.Duration
	clientID      string
	clientSecret  string
	accountName   string
	httpTimeout   time.Duration
	maxRetries    int
	metricsAddr   string
	notifications bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download one image per CSV row",
	Long: `Download one Sentinel-2 true-color PNG per row of the input CSV.

The CSV must have the columns id, lat and long. Each image is written to
<output>/<id>.png. Rows whose file already exists are skipped without a
request. After every request the command pauses (500ms by default).`,
	Example: `  # Use train.csv and data/images with stored credentials
  sentinelfetch fetch

  # Custom input and output
  sentinelfetch fetch --input houses.csv --output ./chips

  # Slower pacing and two retries on 429/5xx
  sentinelfetch fetch --delay 2s --max-retries 2

  # Expose Prometheus metrics while running
  sentinelfetch fetch --metrics-addr 127.0.0.1:9464`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	for _, cmd := range []*cobra.Command{fetchCmd, rootCmd} {
		flags := cmd.Flags()
		flags.StringVarP(&inputPath, "input", "i", "", "input CSV with id, lat, long columns (default train.csv)")
		flags.StringVarP(&outputDir, "output", "o", "", "image output directory (default data/images)")
		flags.DurationVar(&delay, "delay", 500*time.Millisecond, "pause after each request")
		flags.StringVar(&clientID, "client-id", "", "Sentinel Hub OAuth client ID")
		flags.StringVar(&clientSecret, "client-secret", "", "Sentinel Hub OAuth client secret")
		flags.StringVarP(&accountName, "account", "a", "", "use specific stored credentials")
		flags.DurationVar(&httpTimeout, "timeout", 0, "HTTP timeout per request (0 means none)")
		flags.IntVar(&maxRetries, "max-retries", 0, "retries on network errors, 429 and 5xx")
		flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
		flags.BoolVar(&notifications, "notifications", false, "send a desktop notification when done")
	}
}

// changedFlags maps explicitly set flags to the keys config.Load expects
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("input") {
		flags["input"] = inputPath
	}
	if changed("output") {
		flags["output"] = outputDir
	}
	if changed("delay") {
		flags["delay"] = delay
	}
	if changed("client-id") {
		flags["client-id"] = clientID
	}
	if changed("client-secret") {
		flags["client-secret"] = clientSecret
	}
	if changed("account") {
		flags["account"] = accountName
	}
	if changed("timeout") {
		flags["timeout"] = httpTimeout
	}
	if changed("max-retries") {
		flags["max-retries"] = maxRetries
	}
	if changed("metrics-addr") {
		flags["metrics-addr"] = metricsAddr
	}
	if changed("notifications") {
		flags["notifications"] = notifications
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func runFetch(cmd *cobra.Command, args []string) error {
	console := newConsole()
	console.PrintLogo()

	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("sentinelfetch starting")

	var resolver credentialResolver
	if manager, err := auth.NewManager(); err != nil {
		log.WithError(err).Warn("Credential store unavailable")
	} else {
		resolver = manager
	}

	creds, source, err := resolveCredentials(cfg, resolver)
	if err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			console.PrintError("No Sentinel Hub credentials found")
			console.PrintDim("Run 'sentinelfetch auth login', or set SENTINELFETCH_CLIENT_ID and SENTINELFETCH_CLIENT_SECRET")
		}
		return err
	}
	log.WithField("source", source).Info("Using credentials")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.ListenAddr, log); err != nil {
				log.WithError(err).Error("Metrics endpoint stopped")
			}
		}()
	}

	sum, err := runPipeline(ctx, cfg, creds, console, log)
	if err != nil {
		if cfg.Notifications.Enabled {
			if nerr := ui.NewNotifier(console).SendError("sentinelfetch", err.Error()); nerr != nil {
				log.WithError(nerr).Debug("Notification not delivered")
			}
		}
		return err
	}

	if cfg.Notifications.Enabled {
		msg := ui.FinishedMessage(sum.Downloaded, sum.Skipped, sum.Failed)
		if err := ui.NewNotifier(console).SendSuccess("sentinelfetch", msg); err != nil {
			log.WithError(err).Debug("Notification not delivered")
		}
	}
	return nil
}

// runPipeline authenticates, loads rows and runs the ingestion loop
func runPipeline(ctx context.Context, cfg *config.Config, creds *auth.Credentials, console *ui.Console, log logger.Logger) (ingest.Summary, error) {
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	tokens := sentinelhub.NewTokenProvider(cfg.SentinelHub.TokenURL, creds.ClientID, creds.ClientSecret, httpClient, log)
	token, err := tokens.Token(ctx)
	if err != nil {
		return ingest.Summary{}, err
	}
	console.PrintSuccess("Access token generated ✅")

	list, err := rows.Load(cfg.Input.CSVPath)
	if err != nil {
		return ingest.Summary{}, err
	}
	console.PrintSuccess("Training data loaded ✅")
	console.PrintInfo("Rows", fmt.Sprintf("%d", len(list)))

	store, err := storage.NewManager(cfg.Output.ImageDir, storage.WithAtomicWrites(cfg.Output.AtomicWrites))
	if err != nil {
		return ingest.Summary{}, err
	}

	limiter, err := ratelimit.New(cfg.RateLimit)
	if err != nil {
		return ingest.Summary{}, err
	}

	logger.LogComponentStart(log, "ingest", map[string]interface{}{
		"input":      cfg.Input.CSVPath,
		"output":     cfg.Output.ImageDir,
		"rows":       len(list),
		"strategy":   cfg.RateLimit.Strategy,
		"delay":      cfg.RateLimit.Delay,
		"max_tries":  cfg.Retry.MaxAttempts,
		"timeout":    cfg.HTTP.Timeout,
		"collection": cfg.Request.Collection,
	})

	client := sentinelhub.NewClient(cfg.SentinelHub.ProcessURL, httpClient, retry.FromConfig(cfg.Retry, log), log)
	fetcher := ingest.NewImageFetcher(client, store, cfg.Request, log)
	reporter := ui.NewConsoleReporter(console, len(list))
	runner := ingest.NewRunner(fetcher, store, limiter, reporter, log)

	sum, err := runner.Run(ctx, token.Value, list)
	if err != nil {
		console.PrintSummary("Downloaded", sum.Downloaded)
		console.PrintSummary("Skipped", sum.Skipped)
		return sum, err
	}

	reporter.PrintFinished(sum.Downloaded, sum.Skipped)
	return sum, nil
}

// credentialResolver looks up stored credentials; *auth.Manager satisfies it
type credentialResolver interface {
	Resolve(name string) (*auth.Credentials, error)
}

// resolveCredentials picks the OAuth client for this run. Explicit values
// from flags, env or the config file win over the credential store.
func resolveCredentials(cfg *config.Config, resolver credentialResolver) (*auth.Credentials, string, error) {
	if cfg.HasCredentials() {
		return &auth.Credentials{
			Name:         "configuration",
			ClientID:     cfg.SentinelHub.ClientID,
			ClientSecret: cfg.SentinelHub.ClientSecret,
		}, "configuration", nil
	}

	if resolver == nil {
		return nil, "", auth.ErrCredentialsNotFound
	}

	creds, err := resolver.Resolve(cfg.SentinelHub.Account)
	if err != nil {
		if cfg.SentinelHub.Account != "" {
			return nil, "", fmt.Errorf("stored credentials %q: %w", cfg.SentinelHub.Account, err)
		}
		return nil, "", err
	}
	return creds, "store:" + creds.Name, nil
}
