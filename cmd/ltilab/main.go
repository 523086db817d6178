package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/ltilab/internal/cache"
	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/service"
	"github.com/san-kum/ltilab/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	redisAddr  string
	redisTTL   time.Duration
	verbose    bool

	plantType  string
	controller string
	integrator string
	inputType  string

	// numeric model flags share their names with config fields
	numeric = map[string]*float64{}
)

var numericFlags = []struct {
	name  string
	usage string
}{
	{"k", "plant gain K"},
	{"t", "plant time constant T"},
	{"zeta", "damping ratio"},
	{"wn", "natural frequency (rad/s)"},
	{"a", "arbitrary plant numerator s coefficient"},
	{"b", "arbitrary plant numerator constant"},
	{"c", "arbitrary plant denominator s^2 coefficient"},
	{"d", "arbitrary plant denominator s coefficient"},
	{"e", "arbitrary plant denominator constant"},
	{"kp", "proportional gain"},
	{"kd", "derivative gain"},
	{"ki", "integral gain"},
	{"start", "simulation start time (s)"},
	{"end", "simulation end time (s)"},
	{"resolution_ms", "simulation step (ms)"},
	{"frequency", "sine input frequency (rad/s)"},
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "ltilab",
		Short:        "linear control system lab",
		SilenceUsage: true,
		RunE:         runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ltilab", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a preset configuration")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "redis address for the report cache")
	rootCmd.PersistentFlags().DurationVar(&redisTTL, "redis-ttl", time.Hour, "report cache lifetime in redis")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.PersistentFlags().StringVar(&plantType, "plant", "", "plant type: first_order, first_order_integrator, second_order, arbitrary")
	rootCmd.PersistentFlags().StringVar(&controller, "controller", "", "controller type: p, pd, pid or none")
	rootCmd.PersistentFlags().StringVar(&integrator, "integrator", "", "integrator")
	rootCmd.PersistentFlags().StringVar(&inputType, "input", "", "input signal: step or sine")
	for _, f := range numericFlags {
		v := new(float64)
		numeric[f.name] = v
		rootCmd.PersistentFlags().Float64Var(v, f.name, 0, f.usage)
	}

	rootCmd.AddCommand(evalCommands()...)
	rootCmd.AddCommand(runCommands()...)
	rootCmd.AddCommand(toolCommands()...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig layers the defaults, a preset, a config file and finally the
// flags the user actually set.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := *config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return cfg, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = *p
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("plant") {
		cfg.Plant.Type = plantType
	}
	if flags.Changed("controller") {
		if controller == "none" {
			cfg.Controller.Enabled = false
		} else {
			cfg.Controller.Enabled = true
			cfg.Controller.Type = controller
		}
	}
	if flags.Changed("integrator") {
		cfg.Simulation.Integrator = integrator
	}
	if flags.Changed("input") {
		cfg.Input.Type = inputType
	}
	for _, f := range numericFlags {
		if !flags.Changed(f.name) {
			continue
		}
		var err error
		if cfg, err = cfg.Set(f.name, *numeric[f.name]); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "ltilab"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// newService wires the evaluation service to redis when --redis is given,
// falling back to an in-process cache if the server cannot be reached.
func newService(ctx context.Context, logger *log.Logger) (*service.Service, func()) {
	if redisAddr == "" {
		return service.New(cache.NewMemory(0), logger), func() {}
	}

	rc := cache.NewRedisCache(redisAddr, redisTTL)
	if err := rc.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, using memory cache", "addr", redisAddr, "err", err)
		rc.Close()
		return service.New(cache.NewMemory(0), logger), func() {}
	}
	logger.Debug("using redis cache", "addr", redisAddr)
	return service.New(rc, logger), func() { rc.Close() }
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	logger := newLogger()
	if !verbose {
		logger.SetLevel(log.ErrorLevel)
	}
	svc, closeCache := newService(ctx, logger)
	defer closeCache()
	return tui.RunExplorer(ctx, svc, cfg)
}
