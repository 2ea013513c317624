package cmd

import (
	"context"
	"os"
	"os/signal"
	"strconv"

	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/longstack/boundary"
	"github.com/sarchlab/longstack/hop"
	"github.com/sarchlab/longstack/idgen"
	"github.com/sarchlab/longstack/internal/scenario"
	"github.com/sarchlab/longstack/monitoring"
	"github.com/sarchlab/longstack/recording"
)

const (
	envRecord      = "LONGSTACK_RECORD"
	envCSV         = "LONGSTACK_CSV"
	envMonitorPort = "LONGSTACK_MONITOR_PORT"
	envClickHouse  = "LONGSTACK_CLICKHOUSE"

	envClickHouseDatabase = "LONGSTACK_CLICKHOUSE_DATABASE"
	envClickHouseUser     = "LONGSTACK_CLICKHOUSE_USER"
	envClickHousePassword = "LONGSTACK_CLICKHOUSE_PASSWORD"
)

var demoCmd = &cobra.Command{
	Use:   "demo [scenario...]",
	Short: "Run demonstration scenarios and print their long stacks.",
	Long: "`demo` runs the named scenarios, or all of them, and prints every " +
		"trace captured inside a callback. `longstack list` shows the names.",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readDemoOptions(cmd)
		if err != nil {
			return err
		}

		return runDemo(cmd.Context(), cmd, opts, args)
	},
}

type demoOptions struct {
	record      string
	csv         string
	clickhouse  string
	monitor     bool
	monitorPort int
	open        bool
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().String("record", "",
		"Record hops into the SQLite database <record>.sqlite3 (env "+envRecord+")")
	demoCmd.Flags().String("csv", "",
		"Record hops into a CSV file (env "+envCSV+")")
	demoCmd.Flags().String("clickhouse", "",
		"Record hops into the ClickHouse server at host:port (env "+envClickHouse+")")
	demoCmd.Flags().Bool("monitor", false,
		"Serve the monitoring API and wait for an interrupt after the demo")
	demoCmd.Flags().Int("monitor-port", 0,
		"Port of the monitoring API, random if 0 (env "+envMonitorPort+")")
	demoCmd.Flags().Bool("open", false,
		"Open the monitoring API in a browser")
}

func stringFlagOrEnv(cmd *cobra.Command, name, env string) string {
	v, _ := cmd.Flags().GetString(name)
	if !cmd.Flags().Changed(name) {
		if e, ok := os.LookupEnv(env); ok {
			v = e
		}
	}

	return v
}

func envOr(env, fallback string) string {
	if v, ok := os.LookupEnv(env); ok {
		return v
	}

	return fallback
}

func readDemoOptions(cmd *cobra.Command) (demoOptions, error) {
	opts := demoOptions{
		record: stringFlagOrEnv(cmd, "record", envRecord),
		csv:    stringFlagOrEnv(cmd, "csv", envCSV),

		clickhouse: stringFlagOrEnv(cmd, "clickhouse", envClickHouse),
	}

	opts.monitor, _ = cmd.Flags().GetBool("monitor")
	opts.open, _ = cmd.Flags().GetBool("open")
	opts.monitorPort, _ = cmd.Flags().GetInt("monitor-port")

	if !cmd.Flags().Changed("monitor-port") {
		if e, ok := os.LookupEnv(envMonitorPort); ok {
			port, err := strconv.Atoi(e)
			if err != nil {
				return opts, errors.Wrapf(err, "invalid %s", envMonitorPort)
			}

			opts.monitorPort = port
		}
	}

	if opts.open {
		opts.monitor = true
	}

	return opts, nil
}

func newWriter(opts demoOptions) recording.Writer {
	var writers []recording.Writer

	if opts.record != "" {
		writers = append(writers, recording.NewSQLiteWriter(opts.record))
	}

	if opts.csv != "" {
		writers = append(writers, recording.NewCSVWriter(opts.csv))
	}

	if opts.clickhouse != "" {
		writers = append(writers, recording.NewClickHouseWriter(
			opts.clickhouse,
			envOr(envClickHouseDatabase, "default"),
			envOr(envClickHouseUser, "default"),
			os.Getenv(envClickHousePassword),
		))
	}

	switch len(writers) {
	case 0:
		return nil
	case 1:
		return writers[0]
	default:
		return recording.MultiWriter(writers...)
	}
}

func runDemo(
	ctx context.Context,
	cmd *cobra.Command,
	opts demoOptions,
	names []string,
) error {
	scenarios, err := scenario.Lookup(names...)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "longstack-demo-")
	if err != nil {
		return errors.Wrap(err, "cannot create demo directory")
	}
	defer os.RemoveAll(dir)

	registry := boundary.NewRegistry(
		boundary.WithStack(hop.NewStack()),
		boundary.WithLogger(logger),
		boundary.WithIDGenerator(idgen.NewXIDGenerator()),
	)

	env, err := scenario.NewEnv(registry, cmd.OutOrStdout(), dir)
	if err != nil {
		return err
	}
	defer env.Restore()

	writer := newWriter(opts)
	if writer != nil {
		writer.Init()
	}

	recorder := recording.NewRecorder(writer,
		recording.WithClock(env.Loop.Now))
	registry.Stack().AcceptHook(recorder)
	defer recorder.Flush()

	var monitor *monitoring.Monitor
	if opts.monitor {
		monitor = monitoring.NewMonitor().
			WithRegistry(registry).
			WithPortNumber(opts.monitorPort)
		monitor.RegisterRecorder(recorder)
		monitor.RegisterClock(env.Loop)

		url := monitor.StartServer()
		if opts.open {
			if err := browser.OpenURL(url + "/api/installed"); err != nil {
				logger.Warn().Err(err).Msg("cannot open browser")
			}
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if err := runScenarios(ctx, env, monitor, scenarios); err != nil {
		return err
	}

	if monitor == nil {
		return nil
	}

	logger.Info().Msg("demo finished, press Ctrl+C to stop monitoring")

	waitCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	<-waitCtx.Done()

	return nil
}

func runScenarios(
	ctx context.Context,
	env *scenario.Env,
	monitor *monitoring.Monitor,
	scenarios []scenario.Scenario,
) error {
	var progress *monitoring.Progress
	if monitor != nil {
		progress = monitor.CreateProgress("scenarios", uint64(len(scenarios)))
		defer monitor.CompleteProgress(progress)
	}

	for _, s := range scenarios {
		logger.Debug().Str("scenario", s.Name).Msg("running scenario")

		if err := env.Run(ctx, s); err != nil {
			return err
		}

		if progress != nil {
			progress.Advance(1)
		}
	}

	return nil
}
