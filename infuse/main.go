// =============================================================================
// main.go - InfuseDB Shell Entry Point
// =============================================================================
//
// infuse is an interactive shell for an InfuseDB server. It connects over
// TCP, prints the version the server announces, then forwards every line
// typed at the prompt and prints the reply.
//
// Usage:
//
//	infuse                          Connect to localhost:1234
//	infuse --host db --port 4000    Connect to db:4000
//	infuse --config ./infuse.yaml   Use a specific config file
//	echo "get name" | infuse        Run non-interactively
//	infuse --version                Show version
//
// =============================================================================

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/infusedb/infuse-cli/infuseprotocol"
	"github.com/infusedb/infuse-cli/internal/logger"
)

const (
	// version is the current version of the shell.
	version = "0.1.0"

	// appName is the application name.
	appName = "infuse"
)

// GO CONCEPT: Command Trees with cobra
// ------------------------------------
// github.com/spf13/cobra models a CLI as a tree of *cobra.Command values.
// Each command declares its flags and a RunE function; cobra parses
// os.Args, generates --help and --version, and reports flag errors.
// Building the command in a function (rather than a package-level
// variable) gives every test a fresh command with fresh flag state.

// newRootCommand builds the infuse command.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     appName,
		Short:   "Interactive shell for an InfuseDB server",
		Version: version,
		Args:    cobra.NoArgs,

		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("config", "c", defaultConfigPath(), "config file")
	flags.StringP("host", "H", infuseprotocol.DefaultHost, "server host")
	flags.IntP("port", "p", infuseprotocol.DefaultPort, "server port")
	flags.DurationP("timeout", "t", defaultConnectTimeout, "connect and handshake timeout (0 for none)")

	return cmd
}

// resolveConfig layers flags over environment over config file over
// defaults. Only flags the user actually set take part.
func resolveConfig(cmd *cobra.Command) (config, error) {
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return config{}, err
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return cfg, err
	}

	cfg, err = cfg.applyEnv()
	if err != nil {
		return cfg, err
	}

	if flags.Changed("host") {
		if cfg.Host, err = flags.GetString("host"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("port") {
		if cfg.Port, err = flags.GetInt("port"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.ConnectTimeout, err = flags.GetDuration("timeout"); err != nil {
			return cfg, err
		}
	}

	return cfg, cfg.validate()
}

// run connects, runs the REPL and cleans up.
func run(cmd *cobra.Command, cfg config) error {
	if err := logger.Initialize(cfg.Logging); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer logger.Close()

	dialer := infuseprotocol.Dialer{
		Timeout: cfg.ConnectTimeout,
		Logger:  logger.Get(),
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	client, err := dialer.DialContext(ctx, cfg.Host, cfg.Port)
	cancel()
	if err != nil {
		logger.Error("connect failed", "host", cfg.Host, "port", cfg.Port, "error", err)
		return err
	}
	logger.Info("connected", "host", cfg.Host, "port", cfg.Port, "version", client.Version())

	editor := NewLineEditor(cfg.HistoryFile, cfg.HistorySize)

	cleanup := func() {
		editor.Close()
		client.Close()
	}
	stopSignals := setupSignalHandler(cleanup)
	defer stopSignals()

	fmt.Fprintln(cmd.OutOrStdout(), client.Version())

	err = runREPL(client, editor, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cleanup()
	return err
}

// setupSignalHandler closes the session on SIGINT or SIGTERM so the server
// sees a clean disconnect. The returned function stops listening.
//
// GO CONCEPT: Goroutines and Channels for Signals
// -----------------------------------------------
// signal.Notify delivers OS signals on a channel instead of killing the
// process. A goroutine blocks on that channel; the done channel lets the
// caller shut the goroutine down when the session ends normally.
func setupSignalHandler(cleanup func()) func() {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})

	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			fmt.Println()
			cleanup()
			os.Exit(0)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
