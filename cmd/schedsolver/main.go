package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/AntoineSebert/scheduling-solver/internal/analyzer"
	"github.com/AntoineSebert/scheduling-solver/internal/batch"
	"github.com/AntoineSebert/scheduling-solver/internal/config"
	"github.com/AntoineSebert/scheduling-solver/internal/engine"
	"github.com/AntoineSebert/scheduling-solver/internal/loader"
	"github.com/AntoineSebert/scheduling-solver/internal/render"
	"github.com/AntoineSebert/scheduling-solver/internal/schedule"
	"github.com/AntoineSebert/scheduling-solver/internal/solver"
	"github.com/AntoineSebert/scheduling-solver/internal/ui"
)

var (
	flagTask      string
	flagConf      string
	flagConfig    string
	flagFormat    string
	flagOutput    string
	flagTimeLimit time.Duration
	flagNodeLimit int
	flagPolicy    string
	flagWorkers   int
	flagVerbose   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "schedsolver",
		Short: "Compute feasible schedules for periodic real-time task sets",
		Long: `Schedsolver builds a scheduling problem from an architecture (.cfg) and
an application (.tsk) descriptor, runs a fixed-priority feasibility
pre-check, then searches for per-job start times honoring deadlines,
jitter bounds and chain latency budgets.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().DurationVar(&flagTimeLimit, "time-limit", 0, "Wall-clock budget per solve (0 = config default)")
	rootCmd.PersistentFlags().IntVar(&flagNodeLimit, "node-limit", -1, "Search node budget per solve (-1 = config default)")
	rootCmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "Objective policy: first-feasible, maximin-slack, weighted-slack")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Debug logging")

	rootCmd.AddCommand(solveCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(batchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() hclog.Logger {
	level := hclog.Info
	if flagVerbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "schedsolver",
		Level:  level,
		Output: os.Stderr,
	})
}

// loadConfig merges the config file (or defaults) with flag overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return cfg, err
		}
	}
	if flagTimeLimit > 0 {
		cfg.TimeLimit = flagTimeLimit
	}
	if flagNodeLimit >= 0 {
		cfg.NodeLimit = flagNodeLimit
	}
	if flagPolicy != "" {
		cfg.Policy = flagPolicy
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func solverOptions(cfg config.Config) solver.Options {
	policy, _ := engine.ParsePolicy(cfg.Policy)
	return solver.Options{
		TimeLimit: cfg.TimeLimit,
		NodeLimit: cfg.NodeLimit,
		Policy:    policy,
	}
}

func solveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve one case and print the schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			format, err := render.ParseFormat(flagFormat)
			if err != nil {
				return err
			}
			log := newLogger()

			problem, err := loader.Build(flagTask, flagConf)
			if err != nil {
				return err
			}

			s := solver.New(log.Named("solver"), nil, solverOptions(cfg))
			sol, err := s.Solve(context.Background(), problem)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flagOutput != "" {
				f, err := os.Create(flagOutput)
				if err != nil {
					return fmt.Errorf("create %s: %w", flagOutput, err)
				}
				defer f.Close()
				out = f
			}
			return render.Render(out, sol, format)
		},
	}
	cmd.Flags().StringVar(&flagTask, "task", "", "Application descriptor (.tsk or .json)")
	cmd.Flags().StringVar(&flagConf, "conf", "", "Architecture descriptor (.cfg or .json)")
	cmd.Flags().StringVar(&flagFormat, "format", "raw", "Output format: raw, json, xml")
	cmd.Flags().StringVar(&flagOutput, "output", "", "Write output to file instead of stdout")
	cmd.MarkFlagRequired("task")
	cmd.MarkFlagRequired("conf")
	return cmd
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the feasibility pre-check without the full search",
		RunE: func(cmd *cobra.Command, args []string) error {
			problem, err := loader.Build(flagTask, flagConf)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, cpu := range problem.Architecture() {
				for _, core := range cpu.Cores {
					tasks := problem.TasksByCore(cpu.ID, core.ID)
					if len(cpu.Cores) == 1 {
						tasks = problem.TasksOnCpu(cpu.ID)
					}
					if len(tasks) == 0 {
						continue
					}
					u := analyzer.Utilization(tasks)
					fmt.Fprintf(w, "%s utilization %s, bound %.4f\n",
						ui.BoldCyan(fmt.Sprintf("cpu %d / core %d:", cpu.ID, core.ID)),
						u.RatString(), analyzer.SufficientBound(len(tasks)))
					for _, r := range analyzer.ResponseTimes(tasks) {
						switch r.Verdict {
						case analyzer.ResponseOK:
							fmt.Fprintf(w, "  task %-4d response bound %d\n", r.TaskID, r.Bound)
						case analyzer.ResponseExceedsDeadline:
							fmt.Fprintf(w, "  task %-4d response bound %d %s\n", r.TaskID, r.Bound, ui.Red("misses deadline"))
						default:
							fmt.Fprintf(w, "  task %-4d response bound %s\n", r.TaskID, ui.Yellow("diverged"))
						}
					}
				}
			}

			report := analyzer.Precheck(problem)
			fmt.Fprintf(w, "%s %s (%s)\n", ui.Bold("pre-check:"), coloredVerdict(report.Verdict), report.Reason)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagTask, "task", "", "Application descriptor (.tsk or .json)")
	cmd.Flags().StringVar(&flagConf, "conf", "", "Architecture descriptor (.cfg or .json)")
	cmd.MarkFlagRequired("task")
	cmd.MarkFlagRequired("conf")
	return cmd
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <task-file>...",
		Short: "Solve many cases concurrently",
		Long: `Batch solves every given application descriptor, pairing each with the
configuration file of the same name (.cfg, or .json architecture next to
a .json application).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger()

			cases := make([]batch.Case, 0, len(args))
			for _, taskFile := range args {
				cases = append(cases, batch.Case{
					Name:     strings.TrimSuffix(filepath.Base(taskFile), filepath.Ext(taskFile)),
					TaskFile: taskFile,
					ConfFile: confFileFor(taskFile),
				})
			}

			runner := &batch.Runner{
				Workers: cfg.Workers,
				Opts:    solverOptions(cfg),
				Log:     log.Named("batch"),
			}
			results := runner.Run(context.Background(), cases)

			w := cmd.OutOrStdout()
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(w, "%-24s %s %v\n", r.Case.Name, ui.BoldRed("error"), r.Err)
					continue
				}
				fmt.Fprintf(w, "%-24s %s (%s)\n", r.Case.Name, coloredStatus(r.Status), r.Elapsed.Truncate(time.Millisecond))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d cases failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "Concurrent solves (0 = config default)")
	return cmd
}

// confFileFor pairs a task descriptor with its sibling configuration file.
func confFileFor(taskFile string) string {
	ext := ".cfg"
	if strings.EqualFold(filepath.Ext(taskFile), ".json") {
		ext = ".arch.json"
	}
	return strings.TrimSuffix(taskFile, filepath.Ext(taskFile)) + ext
}

func coloredVerdict(v analyzer.Verdict) string {
	switch v {
	case analyzer.Accept:
		return ui.BoldGreen(v.String())
	case analyzer.Reject:
		return ui.BoldRed(v.String())
	}
	return ui.BoldYellow(v.String())
}

func coloredStatus(s schedule.Status) string {
	switch s {
	case schedule.Feasible:
		return ui.BoldGreen(s.String())
	case schedule.Infeasible:
		return ui.BoldRed(s.String())
	}
	return ui.BoldYellow(s.String())
}
