package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	initialized bool
	rootCmd     *cobra.Command
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:     "maxent",
		Short:   "Train and apply discrete-feature maximum entropy models",
		Version: c.version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging")

	defaultHelp := c.rootCmd.HelpFunc()
	c.rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		c.initApp()
		defaultHelp(cmd, args)
	})

	c.rootCmd.AddCommand(c.newTrainCommand())
	c.rootCmd.AddCommand(c.newRunCommand())
	c.rootCmd.AddCommand(c.newEvaluateCommand())
	c.rootCmd.AddCommand(c.newConvertCommand())
	c.rootCmd.AddCommand(c.newInspectCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	return c.rootCmd.Execute()
}

// runArgs executes the CLI with explicit arguments and streams.
func (c *CLI) runArgs(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	c.stdin, c.stdout, c.stderr = stdin, stdout, stderr
	c.rootCmd.SetArgs(args)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)
	return c.rootCmd.Execute()
}

// initApp initializes logging.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
