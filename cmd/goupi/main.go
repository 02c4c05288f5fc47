package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"goupi/internal/app"
	"goupi/internal/config"
	"goupi/internal/goupi"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the tool config, falling back to defaults when no file exists.
func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.Load(defaults["config_path"], defaults["base_dir"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates a GoupiApp. The caller must defer app.Close().
func newApp() (*app.GoupiApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewGoupiApp(cfg, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// sourceAndOutput applies the ./source and ./output defaults.
func sourceAndOutput(args []string) (string, string) {
	source, output := "./source", "./output"
	if len(args) > 0 {
		source = args[0]
	}
	if len(args) > 1 {
		output = args[1]
	}
	return source, output
}

func runBuild(cmd *cobra.Command, args []string, force bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	source, output := sourceAndOutput(args)
	report, err := a.Build(cmd.Context(), source, output, force)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Printf("Site built at %s: %d built, %d up to date, %d failed\n",
		report.OutputDir,
		report.Count(goupi.PostBuilt),
		report.Count(goupi.PostUpToDate),
		report.Count(goupi.PostFailed),
	)
	return nil
}

var rootCmd = &cobra.Command{
	Use:          "goupi [SOURCE [OUTPUT]]",
	Short:        "Static site generator",
	Args:         cobra.MaximumNArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, args, false)
	},
}

// build command
var buildCmd = &cobra.Command{
	Use:   "build [SOURCE [OUTPUT]]",
	Short: "Build the site",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return runBuild(cmd, args, force)
	},
}

// publish command
var publishCmd = &cobra.Command{
	Use:   "publish [OUTPUT]",
	Short: "Upload a built site",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("target")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		output := "./output"
		if len(args) > 0 {
			output = args[0]
		}

		count, err := a.Publish(cmd.Context(), output, target)
		if err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}

		fmt.Printf("Published %d file(s)\n", count)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View build history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No builds recorded.")
			return nil
		}

		for _, run := range runs {
			duration := ""
			if run.FinishedAt != nil {
				duration = run.FinishedAt.Sub(run.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %s  %s  %-8s  %3d built  %3d up to date  %3d failed  %s\n",
				run.ID,
				run.RunID,
				run.StartedAt.Local().Format("2006-01-02 15:04:05"),
				run.Status,
				run.Built,
				run.UpToDate,
				run.Failed,
				duration,
			)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show RUN",
	Short: "View the posts of one build",
	Long:  "View the posts of one build. RUN is the #N shown by 'goupi history' or the build's run id.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		run, results, err := a.GetRun(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run:     %s\n", run.RunID)
		fmt.Printf("Source:  %s\n", run.SourceDir)
		fmt.Printf("Output:  %s\n", run.OutputDir)
		fmt.Printf("Status:  %s\n", run.Status)
		if run.Error != "" {
			fmt.Printf("Error:   %s\n", run.Error)
		}
		fmt.Println()

		for _, r := range results {
			line := fmt.Sprintf("%-10s  %s", r.Status, r.Post)
			if r.Error != "" {
				line += "  " + r.Error
			}
			fmt.Println(line)
		}
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Log Level: %s\n", cfg.LogLevel)
		fmt.Printf("Workers:   %d\n", cfg.Build.Workers)
		fmt.Printf("History:   %s\n", cfg.History.Type)
		for _, p := range cfg.Publishers {
			fmt.Printf("Publisher: %s (%s)\n", p.Name, p.Type)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// history subcommands
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of builds to show")

	buildCmd.Flags().BoolP("force", "f", false, "Rebuild every post regardless of timestamps")
	publishCmd.Flags().StringP("target", "t", "", "Publisher name (default: first configured)")

	// root commands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}
