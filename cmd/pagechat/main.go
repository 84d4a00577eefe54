// Package main provides pagechat, a terminal assistant that answers questions
// about the web page open in your browser using Google's Gemini models.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/entrhq/pagechat/pkg/bridge"
	"github.com/entrhq/pagechat/pkg/browser"
	appconfig "github.com/entrhq/pagechat/pkg/config"
	"github.com/entrhq/pagechat/pkg/executor/headless"
	"github.com/entrhq/pagechat/pkg/executor/tui"
	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/popup"
	"github.com/entrhq/pagechat/pkg/prompt"
	"github.com/entrhq/pagechat/pkg/render"
	"github.com/entrhq/pagechat/pkg/responder"
	"github.com/entrhq/pagechat/pkg/types"
)

const version = "0.1.0"

// Config holds the command line configuration
type Config struct {
	APIKey      string
	Model       string
	CDPEndpoint string
	URL         string
	IncludeAll  bool
	Ask         string
	BatchFile   string
	DumpMarkup  bool
	Backend     string
	BaseURL     string
	ConfigPath  string
	ShowVersion bool

	// set records which flags were given explicitly
	set map[string]bool
}

func main() {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("pagechat v%s\n", version)
		return
	}

	if err := config.validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if runErr := run(ctx, config); runErr != nil {
		cancel()
		log.Fatalf("Application error: %v", runErr)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *Config {
	config := &Config{set: make(map[string]bool)}

	flag.StringVar(&config.APIKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env var)")
	flag.StringVar(&config.Model, "model", "", "Model to use: gemini-2.5-flash or gemini-2.5-pro")
	flag.StringVar(&config.CDPEndpoint, "cdp", "", "DevTools endpoint of a running Chromium, e.g. http://localhost:9222")
	flag.StringVar(&config.URL, "url", "", "Open this URL before asking (launches a private browser unless -cdp is set)")
	flag.BoolVar(&config.IncludeAll, "all", false, "Send the whole document instead of the body")
	flag.StringVar(&config.Ask, "ask", "", "Ask one question, print the answer and exit")
	flag.StringVar(&config.BatchFile, "batch", "", "Path to a YAML batch file of questions")
	flag.BoolVar(&config.DumpMarkup, "dump-markup", false, "Print the markup that would be sent and exit")
	flag.StringVar(&config.Backend, "backend", "", "LLM backend: genai or openai (default from config, else genai)")
	flag.StringVar(&config.BaseURL, "base-url", "", "Base URL for the openai backend")
	flag.StringVar(&config.ConfigPath, "config", "", "Path to the config file (default ~/.pagechat/config.json)")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pagechat - ask Gemini about the page in your browser\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pagechat [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY     Gemini API key\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Attach to your browser (start it with --remote-debugging-port=9222)\n")
		fmt.Fprintf(os.Stderr, "  pagechat -cdp http://localhost:9222\n")
		fmt.Fprintf(os.Stderr, "\n  # One-shot and batch\n")
		fmt.Fprintf(os.Stderr, "  pagechat -url https://go.dev -ask \"What is this page about?\"\n")
		fmt.Fprintf(os.Stderr, "  pagechat -batch questions.yaml\n")
	}

	flag.Parse()
	flag.Visit(func(f *flag.Flag) { config.set[f.Name] = true })
	return config
}

// validate checks that the configuration is valid
func (c *Config) validate() error {
	if c.Model != "" {
		if _, err := types.ParseModel(c.Model); err != nil {
			return err
		}
	}
	if c.Ask != "" && c.BatchFile != "" {
		return fmt.Errorf("-ask and -batch cannot be combined")
	}
	if c.DumpMarkup && (c.Ask != "" || c.BatchFile != "") {
		return fmt.Errorf("-dump-markup cannot be combined with -ask or -batch")
	}
	return nil
}

func (c *Config) headless() bool {
	return c.Ask != "" || c.BatchFile != ""
}

// run executes the main application logic
func run(ctx context.Context, config *Config) error {
	if err := appconfig.Initialize(config.ConfigPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	logger, err := logging.NewLogger("pagechat")
	if err != nil {
		log.Printf("Warning: %v; logging to stderr", err)
	}
	defer logger.Close()
	logger.Infof("pagechat v%s starting (run %s)", version, logger.RunID())

	// The batch file is read before the browser starts so mistakes fail fast.
	var job *headless.Job
	switch {
	case config.BatchFile != "":
		if job, err = headless.LoadJob(config.BatchFile); err != nil {
			return err
		}
	case config.Ask != "":
		job = &headless.Job{Questions: []string{config.Ask}}
	}
	pages, err := startBrowser(ctx, config, config.URL, logger.With("browser"))
	if err != nil {
		return err
	}
	defer func() {
		if err := pages.Shutdown(); err != nil {
			logger.Warnf("Browser shutdown failed: %v", err)
		}
	}()

	if config.DumpMarkup {
		return dumpMarkup(ctx, pages, config)
	}

	factory, err := appconfig.BuildFactory(config.Backend, config.BaseURL)
	if err != nil {
		return err
	}

	// The responder runs behind the runtime like a background page.
	rt := bridge.NewRuntime(logger.With("bridge"))
	responder.New(pages, factory, logger.With("responder")).Register(rt)
	if _, err := rt.Start(ctx); err != nil {
		return fmt.Errorf("failed to start runtime: %w", err)
	}
	defer rt.Close()

	client := bridge.NewClient(rt)
	apiKey := appconfig.ResolveAPIKey(config.APIKey)

	if job != nil {
		return runHeadless(ctx, config, job, pages, client, apiKey, logger)
	}
	return runTUI(ctx, config, pages, client, apiKey, logger)
}

// startBrowser attaches to the configured browser, or launches one.
func startBrowser(ctx context.Context, config *Config, url string, logger *logging.Logger) (*browser.SessionManager, error) {
	section := appconfig.GetBrowser()
	clean, maxLength := section.GetCleanMarkup()

	manager, err := browser.NewSessionManager(browser.Options{
		IgnoreURLs:  section.GetIgnoreURLs(),
		Timeout:     section.GetTimeoutMS(),
		CleanMarkup: clean,
		MaxLength:   maxLength,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := manager.Initialize(); err != nil {
		return nil, err
	}

	endpoint := config.CDPEndpoint
	if endpoint == "" {
		endpoint = section.GetCDPEndpoint()
	}

	if endpoint != "" {
		err = manager.Connect(endpoint)
	} else {
		// A visible window gives the TUI user a page to look at.
		err = manager.Launch(browser.LaunchOptions{Headless: config.headless() || config.DumpMarkup})
	}
	if err != nil {
		_ = manager.Shutdown()
		return nil, err
	}

	if url != "" {
		if err := manager.Navigate(ctx, url); err != nil {
			_ = manager.Shutdown()
			return nil, err
		}
	}
	return manager, nil
}

func dumpMarkup(ctx context.Context, pages *browser.SessionManager, config *Config) error {
	includeAll := config.IncludeAll
	if !config.set["all"] {
		includeAll = appconfig.GetSettings().Get().IncludeAll
	}

	markup, err := pages.FetchPageMarkup(ctx, includeAll)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%d characters, ~%d tokens\n", len(markup), prompt.EstimateTokens(markup))
	if info, err := os.Stdout.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
		if highlighted, err := render.HighlightMarkup(markup); err == nil {
			markup = highlighted
		}
	}
	fmt.Println(markup)
	return nil
}

func runHeadless(ctx context.Context, config *Config, job *headless.Job, pages *browser.SessionManager, client *bridge.Client, apiKey string, logger *logging.Logger) error {
	settings := appconfig.GetSettings().Get()
	settings.APIKey = apiKey
	if config.Model != "" {
		settings.Model = types.Model(config.Model)
	}
	if config.set["all"] {
		settings.IncludeAll = config.IncludeAll
	}

	// A job url is opened after -url, in the same tab.
	executor := headless.NewExecutor(client, settings, logger.With("headless"),
		headless.WithNavigator(pages),
	)
	summary, err := executor.Run(ctx, job)
	if err != nil {
		return err
	}
	logger.Infof("Headless run finished: %d asked, %d errors", summary.Asked, summary.Errors)
	return nil
}

func runTUI(ctx context.Context, config *Config, pages *browser.SessionManager, client *bridge.Client, apiKey string, logger *logging.Logger) error {
	persist, err := popup.NewConfigPersistence(appconfig.Global())
	if err != nil {
		return err
	}
	controller := popup.NewController(persist, client, logger.With("popup"))

	// Flags are explicit choices and are saved like popup edits. A key from
	// the environment only fills an empty key field.
	setup := func(c *popup.Controller) error {
		state := c.Snapshot()
		if config.APIKey != "" || (state.APIKey == "" && apiKey != "") {
			if err := c.SetAPIKey(apiKey); err != nil {
				return err
			}
		}
		if config.Model != "" {
			if err := c.SetModel(types.Model(config.Model)); err != nil {
				return err
			}
		}
		if config.set["all"] {
			return c.SetIncludeAll(config.IncludeAll)
		}
		return nil
	}

	pageTitle := func(ctx context.Context) string {
		tab, err := pages.ActiveTab(ctx)
		if err != nil {
			return ""
		}
		if tab.Title != "" {
			return tab.Title
		}
		return tab.URL
	}

	// The background is queried before the program owns the terminal.
	style := "light"
	if lipgloss.HasDarkBackground() {
		style = "dark"
	}

	executor := tui.NewExecutor(controller, render.NewRenderer(style), logger.With("tui"),
		tui.WithSetup(setup),
		tui.WithPageTitle(pageTitle),
	)
	return executor.Run(ctx)
}
