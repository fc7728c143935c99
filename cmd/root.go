package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/hecrp/trainmon/internal/logger"
	"github.com/hecrp/trainmon/internal/monitor"
	"github.com/hecrp/trainmon/internal/render"
)

// errUsage marks argument and flag problems so Execute can exit with a
// code distinct from runtime failures.
var errUsage = errors.New("usage error")

var (
	flagLogFile     string
	flagMetricRegex string
	flagNoColor     bool
	flagOnce        bool
	flagDebug       bool
)

var rootCmd = &cobra.Command{
	Use:   "trainmon <process_name> <update_interval_seconds>",
	Short: "Resource monitor for LLM training processes",
	Long: `trainmon samples system CPU and memory, NVIDIA GPU utilization and the
named process's resource usage on a fixed interval, printing one report
per tick until interrupted. It runs fine on hosts without a GPU and
while the process has not started yet.`,
	Args:          validateArgs,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "training log to scan for metrics each tick")
	rootCmd.Flags().StringVar(&flagMetricRegex, "metric-regex", "", "regex whose first capture group is the metric to extract")
	rootCmd.Flags().BoolVar(&flagNoColor, "no-color", false, "disable styled output")
	rootCmd.Flags().BoolVar(&flagOnce, "once", false, "sample a single tick and exit")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "verbose diagnostic logging")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})
}

func validateArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: expected <process_name> <update_interval_seconds>, got %d argument(s)", errUsage, len(args))
	}
	if args[0] == "" {
		return fmt.Errorf("%w: process name must not be empty", errUsage)
	}
	if _, err := parseInterval(args[1]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// parseInterval parses the update interval as positive decimal seconds.
func parseInterval(s string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("update interval %q is not a number", s)
	}
	if secs <= 0 {
		return 0, fmt.Errorf("update interval must be positive, got %s", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func run(cmd *cobra.Command, args []string) error {
	processName := args[0]
	interval, err := parseInterval(args[1])
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if (flagLogFile == "") != (flagMetricRegex == "") {
		return fmt.Errorf("%w: --log-file and --metric-regex must be given together", errUsage)
	}

	log, err := logger.New(flagDebug)
	if err != nil {
		// The monitor is still useful without its diagnostic log.
		fmt.Fprintf(os.Stderr, "diagnostic logging disabled: %v\n", err)
		log = zap.NewNop()
	}
	defer func() { _ = log.Sync() }()

	var training monitor.TrainSampler
	if flagLogFile != "" {
		tl, err := monitor.NewTrainLog(flagLogFile, flagMetricRegex, log)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		training = tl
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	renderer := render.NewConsole(os.Stdout, processName, render.Options{
		Color:        isTTY && !flagNoColor,
		InPlace:      isTTY && !flagOnce,
		ShowTraining: training != nil,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sampler := &monitor.Sampler{
		ProcessName: processName,
		Interval:    interval,
		Table:       monitor.SystemTable,
		System:      monitor.NewSystemSource(log),
		GPU:         monitor.NewGpuSource(monitor.NVML{}, log),
		Process:     monitor.NewProcessSource(log),
		Training:    training,
		Renderer:    renderer,
		Log:         log,
	}
	if flagOnce {
		sampler.MaxTicks = 1
	}

	return sampler.Run(ctx)
}

// Execute runs the CLI. Exit codes: 0 on clean termination, 2 on a
// usage error, 1 on an unrecoverable setup failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr)
			fmt.Fprint(os.Stderr, rootCmd.UsageString())
			os.Exit(2)
		}
		os.Exit(1)
	}
}
