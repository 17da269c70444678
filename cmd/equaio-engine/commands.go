package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ray-pH/equaio/internal/appdirs"
	"github.com/ray-pH/equaio/internal/engine"
	"github.com/ray-pH/equaio/internal/envfile"
	"github.com/ray-pH/equaio/internal/envutil"
	"github.com/ray-pH/equaio/internal/errinfo"
	"github.com/ray-pH/equaio/internal/logging"
	"github.com/ray-pH/equaio/internal/rpc"
	"github.com/ray-pH/equaio/internal/rule"
)

const debugEnv = "EQUAIO_DEBUG"

func newRootCmd() *cobra.Command {
	var debug bool
	root := &cobra.Command{
		Use:           "equaio-engine",
		Short:         "Step-by-step equation rewriting engine speaking JSON-RPC over stdio",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, debug)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "write a JSON debug log under the data directory (also "+debugEnv+")")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve JSON-RPC requests on stdin/stdout",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd, debug)
			},
		},
		&cobra.Command{
			Use:   "problems",
			Short: "List the problems in the active catalog",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runProblems(cmd, debug)
			},
		},
		&cobra.Command{
			Use:   "check-rules <file>",
			Short: "Validate a rule-set description",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCheckRules(cmd.OutOrStdout(), args[0])
			},
		},
	)
	return root
}

type runtime struct {
	logger *slog.Logger
	engine *engine.Engine
	close  func() error
}

// bootstrap loads the environment, sets up logging and builds the engine.
func bootstrap(stderr io.Writer, debugFlag bool) (*runtime, error) {
	envResult := envfile.Load()
	debug := debugFlag || envutil.Bool(debugEnv)
	dataDir, err := appdirs.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	logSetup, logErr := logging.New(dataDir, debug, stderr)
	logger := logSetup.Logger.With("component", "engine")
	if logSetup.Path != "" {
		logger.Info("engine.logging_enabled", "path", logSetup.Path)
	}
	if envResult.Loaded {
		logger.Debug("engine.env_loaded", "path", envResult.Path, "keys", envResult.Keys)
	}
	if envResult.Err != nil {
		logger.Warn("engine.env_load_failed", "path", envResult.Path, "error", envResult.Err.Error())
	}
	if logErr != nil {
		logger.Warn("engine.log_setup_failed", "error", logErr.Error())
	}
	eng, err := engine.New(engine.WithLogger(logger))
	if err != nil {
		logger.Error("engine.init_failed", "error", err.Error())
		logSetup.Close()
		return nil, fmt.Errorf("engine init: %w", err)
	}
	return &runtime{logger: logger, engine: eng, close: logSetup.Close}, nil
}

func runServe(cmd *cobra.Command, debug bool) error {
	rt, err := bootstrap(cmd.ErrOrStderr(), debug)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := rpc.NewServer(engine.APIVersion, cmd.InOrStdin(), cmd.OutOrStdout(), rt.logger)
	rt.engine.SetNotifier(server.Notify)
	registerHandlers(server, rt.engine)

	if err := server.Serve(ctx); err != nil && ctx.Err() == nil {
		rt.logger.Error("rpc.server_error", "error", err.Error())
		return fmt.Errorf("rpc server: %w", err)
	}
	return nil
}

func registerHandlers(server *rpc.Server, eng *engine.Engine) {
	register := func(method string, fn func(context.Context, json.RawMessage) (any, *errinfo.ErrorInfo)) {
		server.Register(method, func(ctx context.Context, params json.RawMessage) (any, *rpc.Error) {
			result, errInfo := fn(ctx, params)
			if errInfo != nil {
				return nil, &rpc.Error{Message: errInfo.Message(), Data: errInfo}
			}
			return result, nil
		})
	}

	register("EngineGetInfo", eng.EngineGetInfo)
	register("CatalogGetMenu", eng.CatalogGetMenu)

	register("SessionOpen", eng.SessionOpen)
	register("SessionClose", eng.SessionClose)
	register("SessionGetState", eng.SessionGetState)

	register("SelectionToggle", eng.SelectionToggle)
	register("SelectionClear", eng.SelectionClear)
	register("ActionsList", eng.ActionsList)
	register("ActionApply", eng.ActionApply)

	register("HistoryReset", eng.HistoryReset)
	register("HistoryDiff", eng.HistoryDiff)

	register("SettingsGet", eng.SettingsGet)
	register("SettingsUpdate", eng.SettingsUpdate)
}

func runProblems(cmd *cobra.Command, debug bool) error {
	rt, err := bootstrap(cmd.ErrOrStderr(), debug)
	if err != nil {
		return err
	}
	defer rt.close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, section := range rt.engine.Catalog().Entries() {
		fmt.Fprintf(w, "%s\n", section.Name)
		for _, entry := range section.Entries {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", entry.ID, entry.Rule, entry.Label, entry.Sublabel)
		}
	}
	return w.Flush()
}

func runCheckRules(out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rules: %w", err)
	}
	rs, err := rule.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	auto := 0
	for _, r := range rs.Rules {
		if r.Auto {
			auto++
		}
	}
	fmt.Fprintf(out, "%s: ruleset %q ok, %d rules (%d automatic)\n", path, rs.Name, len(rs.Rules), auto)
	return nil
}
