package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/aouyang1/go-conformal/residuals"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// flagKeys maps flag names onto their config keys when they differ from the flag name with
// dashes replaced by underscores
var flagKeys = map[string]string{
	"forecaster":    "forecaster.kind",
	"sp":            "forecaster.sp",
	"window-length": "forecaster.window_length",
}

// app carries the state shared by every subcommand for a single invocation
type app struct {
	v       *viper.Viper
	cfgFile string

	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *residuals.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "conformal",
		Short: "Conformal prediction intervals for point forecasts",
		Long: `Fits a point forecaster on a csv series and calibrates prediction intervals from the
residuals of the forecaster refit at every anchor of the series.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "yaml config file")
	flags.StringP("input", "i", "", "csv file with time,value[,exogenous...] rows")
	flags.String("method", "empirical", "one of empirical, empirical_residual, conformal, conformal_bonferroni")
	flags.String("initial-window", "", "observations before the first anchor as a count or a fraction of the series")
	flags.Float64("sample-frac", 0, "fraction of anchors to refit, 0 refits every anchor")
	flags.Uint64("seed", 0, "seed of the anchor sampler")
	flags.Int("n-jobs", 1, "concurrent refits, -1 uses every cpu")
	flags.BoolP("verbose", "v", false, "debug logging and warnings for anchors with too little history")
	flags.String("variable", "y", "name of the forecast variable")
	flags.String("forecaster", forecasterNaive, "one of naive, seasonal, mean, drift, trend")
	flags.Int("sp", 1, "seasonal period of the seasonal forecaster")
	flags.Int("window-length", 0, "trailing observations used by the mean, drift and trend forecasters, 0 uses all")
	flags.IntP("horizon", "n", 10, "number of steps to forecast")
	flags.StringP("format", "f", formatTable, "output format, one of table, json, yaml")
	flags.StringP("output", "o", "-", "output file, - writes to stdout")

	root.AddCommand(
		newPredictCmd(a),
		newQuantilesCmd(a),
		newEvaluateCmd(a),
		newResidualsCmd(a),
		newConfigCmd(a),
	)
	return root
}

var rootCmd = newRootCmd()

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) init(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "help" || bindErr != nil {
			return
		}
		key, exists := flagKeys[f.Name]
		if !exists {
			key = strings.ReplaceAll(f.Name, "-", "_")
		}
		bindErr = a.v.BindPFlag(key, f)
	})
	if bindErr != nil {
		return fmt.Errorf("unable to bind flags, %w", bindErr)
	}

	a.v.SetEnvPrefix("CONFORMAL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config %s, %w", a.cfgFile, err)
		}
	}

	logger, err := newLogger(a.v.GetBool("verbose"))
	if err != nil {
		return fmt.Errorf("unable to build logger, %w", err)
	}
	a.logger = logger

	a.registry = prometheus.NewRegistry()
	a.metrics, err = residuals.NewMetrics(a.registry)
	if err != nil {
		return err
	}
	return nil
}

func (a *app) close() {
	if a.logger == nil {
		return
	}
	a.logMetrics()
	_ = a.logger.Sync()
}

// logMetrics reports the residual builder counters at debug level
func (a *app) logMetrics() {
	families, err := a.registry.Gather()
	if err != nil {
		a.logger.Warn("unable to gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{zap.String("metric", mf.GetName())}
			for _, l := range m.GetLabel() {
				fields = append(fields, zap.String(l.GetName(), l.GetValue()))
			}
			switch {
			case m.GetCounter() != nil:
				fields = append(fields, zap.Float64("value", m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				fields = append(fields,
					zap.Uint64("count", m.GetHistogram().GetSampleCount()),
					zap.Float64("sum", m.GetHistogram().GetSampleSum()),
				)
			}
			a.logger.Debug("residual builder", fields...)
		}
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = true
	return cfg.Build()
}
