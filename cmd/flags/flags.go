package flags

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/fincrypt/api"
	"github.com/ruteri/fincrypt/common"
	"github.com/ruteri/fincrypt/config"
	"github.com/ruteri/fincrypt/fincrypt"
	"github.com/ruteri/fincrypt/keyring"
	"github.com/ruteri/fincrypt/metrics"
	"github.com/ruteri/fincrypt/storage"
	"github.com/urfave/cli/v2"
)

// LoadConfig reads the config file named by --config (if any), applies
// FINCRYPT_* overrides and then any flags set explicitly on the command line.
func LoadConfig(cCtx *cli.Context) (config.Config, error) {
	cfg, err := config.LoadFromPath(cCtx.String(ConfigFlag.Name))
	if err != nil {
		return cfg, err
	}

	if cCtx.IsSet(KeyStoreFlag.Name) {
		cfg.KeyStores = cCtx.StringSlice(KeyStoreFlag.Name)
	}
	if cCtx.IsSet(ArmorWidthFlag.Name) {
		cfg.ArmorWidth = cCtx.Int(ArmorWidthFlag.Name)
	}
	if cCtx.IsSet(NoCompressFlag.Name) {
		cfg.Compress = !cCtx.Bool(NoCompressFlag.Name)
	}
	if cCtx.IsSet(MaxPlaintextFlag.Name) {
		cfg.MaxPlaintextBytes = cCtx.Int64(MaxPlaintextFlag.Name)
	}
	if cCtx.IsSet(LogJsonFlag.Name) {
		cfg.Log.JSON = cCtx.Bool(LogJsonFlag.Name)
	}
	if cCtx.IsSet(LogDebugFlag.Name) {
		cfg.Log.Debug = cCtx.Bool(LogDebugFlag.Name)
	}
	if cCtx.IsSet(LogServiceFlag.Name) {
		cfg.Log.Service = cCtx.String(LogServiceFlag.Name)
	}
	if cCtx.IsSet(ListenAddrFlag.Name) {
		cfg.Server.ListenAddr = cCtx.String(ListenAddrFlag.Name)
	}
	if cCtx.IsSet(MetricsAddrFlag.Name) {
		cfg.Server.MetricsAddr = cCtx.String(MetricsAddrFlag.Name)
	}
	return cfg, cfg.Validate()
}

func SetupLogger(cCtx *cli.Context, cfg config.Config) (log *slog.Logger) {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cfg.Log.Debug,
		JSON:    cfg.Log.JSON,
		Service: cfg.Log.Service,
		Version: common.Version,
	})

	if cCtx.Bool(LogUidFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// NewService wires the configured key stores into a FinCrypt service.
func NewService(cfg config.Config, m *metrics.Metrics, logger *slog.Logger) (*fincrypt.Service, error) {
	factory := storage.NewKeyStoreFactory(logger)
	store, err := factory.CreateMultiBackendFromURIs(cfg.KeyStores)
	if err != nil {
		return nil, fmt.Errorf("failed to set up key stores: %w", err)
	}
	logger.Debug("Key store configured", "location", store.LocationURI())

	opts := fincrypt.Options{
		ArmorWidth:        cfg.ArmorWidth,
		Compress:          cfg.Compress,
		MaxPlaintextBytes: cfg.MaxPlaintextBytes,
	}
	return fincrypt.New(keyring.New(store, logger), nil, m, opts, logger), nil
}

func ConfigureServer(cCtx *cli.Context, cfg config.Config, logger *slog.Logger) *api.HTTPServerConfig {
	return &api.HTTPServerConfig{
		ListenAddr:               cfg.Server.ListenAddr,
		MetricsAddr:              cfg.Server.MetricsAddr,
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		MaxBodyBytes:             cfg.Server.MaxBodyBytes,
		RateLimitRPS:             cfg.Server.RateLimit.RPS,
		RateLimitBurst:           cfg.Server.RateLimit.Burst,
		RateLimitIdleTTL:         cfg.Server.RateLimit.IdleTTL,
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	EnvVars: []string{"FINCRYPT_CONFIG"},
	Usage:   "path to a YAML config file",
}

var KeyStoreFlag = &cli.StringSliceFlag{
	Name:    "keystore",
	Aliases: []string{"k"},
	Usage:   "key store URI (file://, s3://, vault://, ipfs://, dns://); repeat to fall back in order",
}

var ArmorWidthFlag = &cli.IntFlag{
	Name:  "armor-width",
	Usage: "wrap output at this many columns, 0 for a single line",
}

var NoCompressFlag = &cli.BoolFlag{
	Name:  "no-compress",
	Usage: "do not zlib-compress plaintext before sealing (and do not inflate after opening)",
}

var MaxPlaintextFlag = &cli.Int64Flag{
	Name:  "max-plaintext-bytes",
	Usage: "reject received messages that inflate beyond this many bytes",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: "fincrypt",
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var LogFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}

var KeyFlags = []cli.Flag{
	ConfigFlag,
	KeyStoreFlag,
	ArmorWidthFlag,
	NoCompressFlag,
	MaxPlaintextFlag,
}

var ServerFlags = []cli.Flag{
	ListenAddrFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
