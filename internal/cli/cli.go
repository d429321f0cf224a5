package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/astrolabe/pkg/buildinfo"
	"github.com/matzehuels/astrolabe/pkg/cache"
	"github.com/matzehuels/astrolabe/pkg/config"
	"github.com/matzehuels/astrolabe/pkg/errors"
	pkgio "github.com/matzehuels/astrolabe/pkg/io"
	"github.com/matzehuels/astrolabe/pkg/observability"
	"github.com/matzehuels/astrolabe/pkg/observability/prom"
	"github.com/matzehuels/astrolabe/pkg/pipeline"
	"github.com/matzehuels/astrolabe/pkg/project"
	"github.com/matzehuels/astrolabe/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out printer

	// Global flags.
	projectPath string
	configPath  string
	metricsFile string
	verbose     bool

	// Set up before each command.
	cfg      config.Config
	metrics  *prometheus.Registry
	registry *project.Registry
}

// New creates a new CLI instance logging to w. Command output goes to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    printer{w: os.Stdout},
		cfg:    config.Default(),
	}
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = printer{w: w}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Astrolabe maps the declarations of a Lean project",
		Long: `Astrolabe loads the dependency graph of a Lean 4 project from its build
artifacts, computes per-declaration statistics, and keeps user edits (canvas,
styling, custom nodes and edges) in a per-project overlay under .astrolabe/.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVarP(&c.projectPath, "project", "p", ".", "project directory")
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/astrolabe/config.toml)")
	flags.StringVar(&c.metricsFile, "metrics-file", "", "write a Prometheus textfile snapshot here on exit")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.loadCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.depsCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.canvasCommand())
	root.AddCommand(c.metaCommand())
	root.AddCommand(c.userCommand())
	root.AddCommand(c.resetCommand())
	root.AddCommand(c.recentCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and applies it. Flags override the file.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := cfg.Level()
	if c.verbose {
		level = log.DebugLevel
	}
	c.SetLogLevel(level)

	if c.metricsFile == "" {
		c.metricsFile = cfg.MetricsFile
	}
	if c.metricsFile != "" && c.metrics == nil {
		c.metrics = prometheus.NewRegistry()
		prom.Register(c.metrics)
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// Close writes the metrics snapshot, if enabled, and restores the no-op
// hooks. It runs after every command, including failed ones.
func (c *CLI) Close() error {
	if c.metrics == nil {
		return nil
	}
	defer observability.Reset()
	if err := prometheus.WriteToTextfile(c.metricsFile, c.metrics); err != nil {
		return errors.Wrap(errors.ErrCodeIOFailure, err, "write metrics to %s", c.metricsFile)
	}
	c.Logger.Debug("wrote metrics", "path", c.metricsFile)
	return nil
}

// ReportError prints err for the user: its message without the error code,
// then the underlying cause on a detail line. --verbose appends the code.
func (c *CLI) ReportError(w io.Writer, err error) {
	p := printer{w: w}
	msg := errors.UserMessage(err)
	if code := errors.GetCode(err); c.verbose && code != "" {
		msg += " [" + string(code) + "]"
	}
	p.failure("%s", msg)
	if cause := errors.Cause(err); cause != nil {
		p.detail("%v", cause)
	}
}

// =============================================================================
// Project Access
// =============================================================================

// loadFlags are the options of commands that load a project.
type loadFlags struct {
	refresh bool
	dump    string
}

// root returns the cleaned project directory.
func (c *CLI) root() (string, error) {
	return project.Clean(c.projectPath)
}

// projects returns the registry, creating it on first use. The first caller's
// flags configure every load of this process.
func (c *CLI) projects(lf loadFlags) *project.Registry {
	if c.registry != nil {
		return c.registry
	}
	opts := c.cfg.LoadOptions()
	if lf.dump != "" {
		opts.Extractor = pkgio.FileExtractor{Path: lf.dump}
	}

	var sessions session.Store
	if fs, err := session.NewFileStore(c.cfg.SessionsDir); err != nil {
		c.Logger.Warn("sessions disabled", "err", err)
	} else {
		sessions = fs
	}

	c.registry = project.NewRegistry(pipeline.NewRunner(c.Logger), project.Options{
		Load:     opts,
		Sessions: sessions,
		Logger:   c.Logger,
	})
	return c.registry
}

// open loads the selected project.
func (c *CLI) open(ctx context.Context) (*project.Handle, error) {
	return c.openWith(ctx, loadFlags{})
}

func (c *CLI) openWith(ctx context.Context, lf loadFlags) (*project.Handle, error) {
	h, err := c.projects(lf).Open(ctx, c.projectPath)
	if errors.Is(err, errors.ErrCodeNotFound) && !project.DetectStatus(c.projectPath, c.cfg.DataDir).HasIleanFiles {
		c.out.nextStep("Build the project first", "lake build")
	}
	return h, err
}

// graphCache returns the snapshot cache of the selected project without
// loading it.
func (c *CLI) graphCache() (*cache.GraphCache, error) {
	root, err := c.root()
	if err != nil {
		return nil, err
	}
	return cache.New(root, cache.Options{
		DataDir:           c.cfg.DataDir,
		ExcludedLibraries: c.cfg.ExcludedLibraries,
		Logger:            c.Logger,
	}), nil
}

// sessions opens the session store named by the configuration.
func (c *CLI) sessions() (*session.FileStore, error) {
	return session.NewFileStore(c.cfg.SessionsDir)
}
