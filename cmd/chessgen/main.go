package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	chessgen "github.com/chessgen"
)

var (
	verbose bool
	logger  *zap.Logger

	// generate flags
	genConf    chessgen.Config
	configPath string

	// inspect flags
	loadConf chessgen.LoadConfig
	dotPath  string
)

var rootCmd = &cobra.Command{
	Use:   "chessgen",
	Short: "chessgen - bounded-memory chess episode dataset generator",
	Long: `chessgen generates sequential-decision training data: episodes of
(context window, action, target frame) samples from random chess play.
Each episode is persisted as an independent shard, so peak memory never
scales with the number of episodes generated.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate episodes into a shard store",
	Long: `Plays out random chess episodes and writes each one as its own shard.
Flags override values from --config when both are given.`,
	RunE: runGenerate,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List a shard store and load a bounded number of episodes",
	RunE:  runInspect,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	defaults := chessgen.DefaultConfig("shards")
	gf := generateCmd.Flags()
	gf.IntVar(&genConf.Episodes, "episodes", 10, "number of episodes to generate")
	gf.IntVar(&genConf.WindowLength, "window", defaults.WindowLength, "context window length K")
	gf.IntVar(&genConf.FrameSize, "frame-size", defaults.FrameSize, "rendered frame side length in pixels")
	gf.IntVar(&genConf.MaxTransitions, "max-transitions", defaults.MaxTransitions, "per-episode transition cap, 0 to disable")
	gf.IntVar(&genConf.Workers, "workers", defaults.Workers, "episodes resident at once")
	gf.Int64Var(&genConf.Seed, "seed", 0, "base random seed")
	gf.StringVar(&genConf.StoreDir, "out", defaults.StoreDir, "shard store directory")
	gf.StringVar(&configPath, "config", "", "YAML config file (flags override)")

	inf := inspectCmd.Flags()
	inf.StringVar(&loadConf.StoreDir, "store", "shards", "shard store directory")
	inf.IntVar(&loadConf.MaxEpisodes, "max", 0, "max episodes to load, 0 for all")
	inf.StringVar(&dotPath, "dot", "", "write the first loaded episode as Graphviz DOT to this path, - for stdout")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(inspectCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		if err := overlayConfig(cmd, configPath, &genConf); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := chessgen.Generate(ctx, genConf, logger)
	if report != nil {
		for _, ep := range report.Episodes {
			mark := ""
			if ep.Truncated {
				mark = " (truncated)"
			}
			fmt.Printf("episode %d: %d samples%s\n", ep.Index, ep.Samples, mark)
		}
		fmt.Printf("episodes: %d persisted, %d failed\n", len(report.Episodes), report.Failed)
		fmt.Printf("samples: %d total, mean %.1f per episode (stddev %.1f)\n",
			report.TotalSamples, report.MeanLength, report.StdLength)
	}
	return err
}

// overlayConfig loads the YAML file into conf, then re-applies any flags
// the user set explicitly so the command line wins.
func overlayConfig(cmd *cobra.Command, path string, conf *chessgen.Config) error {
	flagged := *conf
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	fs := cmd.Flags()
	if fs.Changed("episodes") {
		conf.Episodes = flagged.Episodes
	}
	if fs.Changed("window") {
		conf.WindowLength = flagged.WindowLength
	}
	if fs.Changed("frame-size") {
		conf.FrameSize = flagged.FrameSize
	}
	if fs.Changed("max-transitions") {
		conf.MaxTransitions = flagged.MaxTransitions
	}
	if fs.Changed("workers") {
		conf.Workers = flagged.Workers
	}
	if fs.Changed("seed") {
		conf.Seed = flagged.Seed
	}
	if fs.Changed("out") {
		conf.StoreDir = flagged.StoreDir
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	episodes, total, err := chessgen.Load(loadConf, logger)
	fmt.Printf("store %s: %d shards discoverable, %d loaded\n", loadConf.StoreDir, total, len(episodes))
	for _, ep := range episodes {
		fmt.Printf("episode %d: %d samples\n", ep.Index, len(ep.Samples))
	}

	if dotPath != "" && len(episodes) > 0 {
		out := os.Stdout
		if dotPath != "-" {
			f, ferr := os.Create(dotPath)
			if ferr != nil {
				return ferr
			}
			defer f.Close()
			out = f
		}
		if derr := chessgen.WriteDOT(episodes[0], out); derr != nil {
			return derr
		}
	}
	return err
}

func main() {
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
