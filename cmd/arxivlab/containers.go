// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-lab/internal/container"
	"github.com/pdiddy/arxiv-lab/internal/deploy"
	"github.com/pdiddy/arxiv-lab/internal/smoke"
)

// newLauncher resolves the container runtime and returns a launcher
// writing to the command's output.
func newLauncher(cmd *cobra.Command) (*deploy.Launcher, error) {
	rt, err := container.NewRuntime(cmd.Context(), cfg.Container.Runtime)
	if err != nil {
		return nil, err
	}
	l := deploy.NewLauncher(rt, cfg)
	l.Out = cmd.OutOrStdout()
	return l, nil
}

// --- build ---

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the arxiv-server and arxiv-embeddings images",
	Args:  usageArgs(0, 0),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLauncher(cmd)
		if err != nil {
			return err
		}
		if err := l.Build(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Built %s and %s\n", l.Images.Server, l.Images.Embeddings)
		return nil
	},
}

// --- up ---

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the API server in a container",
	Long: `Up starts one detached server container with a unique name, publishing
the server on the given host port (1024-65535). With --smoke the smoke
checks run against it and the container is stopped afterwards.`,
	Args: usageArgs(0, 0),
	RunE: runUp,
}

func runUp(cmd *cobra.Command, args []string) error {
	portStr, _ := cmd.Flags().GetString("port")
	if portStr == "" {
		portStr = strconv.Itoa(cfg.Container.HostPort)
	}
	port, err := deploy.ParsePort(portStr)
	if err != nil {
		return err
	}
	dataDir, _ := cmd.Flags().GetString("data-dir")
	runSmoke, _ := cmd.Flags().GetBool("smoke")
	strict, _ := cmd.Flags().GetBool("strict")

	l, err := newLauncher(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	h, err := l.StartServer(ctx, deploy.ServerOptions{Port: port, DataDir: dataDir})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Started %s on %s\n", h.Name, h.URL())
	if !runSmoke {
		fmt.Fprintf(out, "Stop it with: arxivlab down %s\n", h.Name)
		return nil
	}

	defer func() {
		if err := l.StopServer(context.WithoutCancel(ctx), h.Name); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "stopping %s: %v\n", h.Name, err)
			return
		}
		fmt.Fprintf(out, "Stopped %s\n", h.Name)
	}()

	ok, err := smokeTest(ctx, h.URL(), out)
	if err != nil {
		fmt.Fprintln(out, "Container logs:")
		_ = l.Runtime.Logs(ctx, h.Name, out)
	}
	return strictResult(strict, ok, err)
}

// --- down ---

var downCmd = &cobra.Command{
	Use:   "down <container_name>",
	Short: "Stop and remove a server container",
	Args:  usageArgs(1, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLauncher(cmd)
		if err != nil {
			return err
		}
		if err := l.StopServer(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s\n", args[0])
		return nil
	},
}

// --- smoke ---

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Run the smoke checks against a running server",
	Long: `Smoke waits for GET /papers to succeed (20 attempts, 1s apart by default),
then runs the check plan and prints [PASS] or [FAIL] per check. Failures are
reported but only change the exit status with --strict.`,
	Args: usageArgs(0, 0),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")
		if url == "" {
			url = "http://localhost:" + strconv.Itoa(cfg.Container.HostPort)
		}
		strict, _ := cmd.Flags().GetBool("strict")

		ok, err := smokeTest(cmd.Context(), url, cmd.OutOrStdout())
		return strictResult(strict, ok, err)
	},
}

// smokeTest waits for the server at url and runs the configured plan. A
// readiness failure is printed and returned; check failures only set ok.
func smokeTest(ctx context.Context, url string, out io.Writer) (bool, error) {
	plan, err := smoke.LoadPlan(cfg.Smoke.PlanFile)
	if err != nil {
		return false, err
	}

	r := smoke.NewRunner(url, cfg.Smoke, out)
	fmt.Fprintf(out, "Waiting for %s ...\n", url)
	attempts, err := r.WaitReady(ctx)
	if err != nil {
		fmt.Fprintf(out, "[FAIL] server ready: %v\n", err)
		return false, err
	}
	fmt.Fprintf(out, "Server ready after %d attempt(s)\n", attempts)

	report := r.Run(ctx, plan)
	fmt.Fprintf(out, "%d/%d checks passed\n", len(report.Results)-report.Failed(), len(report.Results))
	return report.OK(), nil
}

func strictResult(strict, ok bool, err error) error {
	if !strict {
		return nil
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("smoke checks failed")
	}
	return nil
}

// --- launch ---

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Run the processor or trainer as a one-shot container",
}

var launchProcessCmd = &cobra.Command{
	Use:   "process <query> <count> <output_dir>",
	Short: "Run the corpus processor in the server image",
	Args:  usageArgs(3, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := parseCount(args[1])
		if err != nil {
			return err
		}
		l, err := newLauncher(cmd)
		if err != nil {
			return err
		}
		return l.LaunchProcessor(cmd.Context(), deploy.ProcessJob{
			Query:     args[0],
			Count:     count,
			OutputDir: args[2],
		})
	},
}

var launchTrainCmd = &cobra.Command{
	Use:   "train <input_papers.json> <output_dir> [epochs] [batch_size]",
	Short: "Run the embeddings trainer in the embeddings image",
	Long: `Train mounts the input file read-only and the output directory into the
arxiv-embeddings image and runs the trainer. The input file must exist; the
output directory is created. Epochs default to 50 and the batch size to 32.`,
	Args: usageArgs(2, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		epochs, batchSize, err := parseTrainArgs(args, 50, 32)
		if err != nil {
			return err
		}
		job := deploy.TrainingJob{
			Input:     args[0],
			OutputDir: args[1],
			Epochs:    epochs,
			BatchSize: batchSize,
		}
		if err := deploy.CheckInput(job.Input); err != nil {
			return err
		}
		l, err := newLauncher(cmd)
		if err != nil {
			return err
		}
		if err := l.LaunchTraining(cmd.Context(), job); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Training complete, results in %s\n", args[1])
		return nil
	},
}

func init() {
	upCmd.Flags().String("port", "", "host port for the server (default 8080)")
	upCmd.Flags().String("data-dir", "", "host directory with papers.json to mount into the server")
	upCmd.Flags().Bool("smoke", false, "run the smoke checks, then stop the container")
	upCmd.Flags().Bool("strict", false, "with --smoke, exit non-zero when a check fails")

	smokeCmd.Flags().String("url", "", "server base URL (default http://localhost:<container.host_port>)")
	smokeCmd.Flags().String("plan", "", "YAML check plan (default: built-in plan)")
	smokeCmd.Flags().Bool("strict", false, "exit non-zero when a check fails")
	bindFlag(smokeCmd, "smoke.plan_file", "plan")

	launchCmd.AddCommand(launchProcessCmd)
	launchCmd.AddCommand(launchTrainCmd)

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(smokeCmd)
	rootCmd.AddCommand(launchCmd)
}
