// Package cli implements the tracevec command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tracevec/tracevec/pkg/buildinfo"
	"github.com/tracevec/tracevec/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "tracevec"

	// configFileName is the name of the optional TOML config file.
	configFileName = "config.toml"
)

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
	Config Config
}

// New creates a new CLI instance with a default logger and the config file
// defaults, if a config file exists.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
	if path, err := configPath(); err == nil {
		if cfg, err := LoadConfig(path); err == nil {
			c.Config = cfg
		}
	}
	observability.SetPipelineHooks(&logHooks{logger: c.Logger})
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "tracevec",
		Short:        "Tracevec converts raster images into vector line drawings",
		Long:         `Tracevec decodes PNG, baseline JPEG, and PNM images with built-in decoders and traces them into line segments via thresholding or edge detection, connected-component labeling, contour tracing, and Douglas-Peucker simplification.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.vectorizeCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Paths
// =============================================================================

// configPath returns the config file location using the XDG standard
// (~/.config/tracevec/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, configFileName), nil
}
