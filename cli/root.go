// Package cli provides the utapi-server command-line interface: the
// ListMetrics HTTP server and a replay maintenance command, both built on
// the same layered configuration (flags over environment over config file).
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scality/utapi/config"
	"github.com/scality/utapi/dispatch"
	"github.com/scality/utapi/httpapi"
	"github.com/scality/utapi/httpapi/auth"
	"github.com/scality/utapi/internal/logging"
	"github.com/scality/utapi/metrics"
	"github.com/scality/utapi/store"
	"github.com/scality/utapi/store/memstore"
	"github.com/scality/utapi/store/redisstore"
)

var cfgFile string

// RootCmd is the utapi-server entry point. Running it with no subcommand
// starts the ListMetrics HTTP server.
var RootCmd = &cobra.Command{
	Use:   "utapi-server",
	Short: "Utilization-tracking service for an object-storage system",
	Long: `utapi-server ingests per-operation storage events (PUT, GET, DELETE,
multipart lifecycle, ACL/metadata operations), maintains per-resource
counters at bucket/account/service granularity, and exposes a signed HTTP
query endpoint returning operation counts, byte traffic, and absolute
storage/object levels over arbitrary time ranges.

Configuration is layered flags > environment variables > config file, with
"component" the one mandatory option (it seeds service-granularity keys even
when no backing store is configured).`,
	RunE: runServer,
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.utapi-server.yaml)")
	RootCmd.PersistentFlags().String("component", "", "component name recorded at service granularity (required)")
	RootCmd.PersistentFlags().StringSlice("metrics", nil, "granularities to record: bucket,account,service (default: every granularity present in the event)")
	RootCmd.PersistentFlags().String("redis-host", "", "Redis host")
	RootCmd.PersistentFlags().Int("redis-port", 0, "Redis port")
	RootCmd.PersistentFlags().Int("workers", 0, "read-path bounded concurrency (default 5)")
	RootCmd.PersistentFlags().String("log-level", "", "log level (default info)")
	RootCmd.PersistentFlags().Bool("log-dump-level", false, "log parsed request bodies at debug")
	RootCmd.PersistentFlags().Int("port", 0, "HTTP listen port (default 8100)")

	for _, name := range []string{"component", "metrics", "redis-host", "redis-port", "workers", "log-level", "log-dump-level", "port"} {
		if err := viper.BindPFlag(bindKey(name), RootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	RootCmd.AddCommand(replayCmd)
}

// bindKey maps a flag's dashed CLI name to the dotted viper key config.Load
// reads, e.g. "redis-host" -> "redis.host".
func bindKey(flag string) string {
	switch flag {
	case "redis-host":
		return "redis.host"
	case "redis-port":
		return "redis.port"
	case "log-level":
		return "log.level"
	case "log-dump-level":
		return "log.dumpLevel"
	default:
		return flag
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".utapi-server")
	}

	viper.SetEnvPrefix("UTAPI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig reads and validates the layered configuration; the server and
// replay commands share it so both fail at startup on a missing component.
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

// newStore constructs the backing store from cfg. A Redis host of "" means
// no backing store is configured: the client falls back to an in-memory
// store, which keeps the process live but any state it accumulates does not
// survive a restart.
func newStore(cfg config.Config, log *logrus.Logger) (store.Store, func() error, error) {
	if cfg.Redis.Host == "" {
		log.Warn("no redis host configured; running with an in-memory store; state is lost on restart")
		return memstore.New(), func() error { return nil }, nil
	}

	s, err := redisstore.New(redisstore.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	return s, s.Close, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, DumpLevel: cfg.Log.DumpLevel})

	backingStore, closeStore, err := newStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	d := dispatch.NewDispatcher(dispatch.Config{
		Store:       backingStore,
		Component:   cfg.Component,
		Concurrency: cfg.Workers,
	})

	creds := auth.StaticCredentials{}
	for _, c := range cfg.Credentials {
		creds[c.AccessKey] = auth.Credential{SecretKey: c.SecretKey, AccountID: c.AccountID}
	}
	if len(creds) == 0 {
		log.Warn("no credentials configured; every signed request will be rejected")
	}

	handlers := &httpapi.Handlers{
		Dispatcher: d,
		Auth:       auth.NewSigV4Authenticator(creds),
		Log:        log,
		DumpBody:   logging.ShouldDumpBody(logging.Config{Level: cfg.Log.Level, DumpLevel: cfg.Log.DumpLevel}, log),
	}

	serverCfg := httpapi.DefaultServerConfig()
	serverCfg.Port = cfg.Port

	e := httpapi.NewEchoServer(serverCfg)
	httpapi.RegisterRoutes(e, handlers, cfg.Component)

	errCh := make(chan error, 1)
	go func() {
		if err := httpapi.StartServer(e, serverCfg); err != nil {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
		log.Info("shutting down")
	}

	return httpapi.GracefulShutdown(e, serverCfg.ShutdownTimeout)
}

// replayEvent is one line of the JSON Lines event log the replay command
// consumes: a flattened EventKind name plus the same optional params the
// live write path accepts.
type replayEvent struct {
	EventKind       string `json:"eventKind"`
	RequestID       string `json:"requestId"`
	Bucket          string `json:"bucket"`
	AccountID       string `json:"accountId"`
	ByteLength      *int64 `json:"byteLength"`
	NewByteLength   *int64 `json:"newByteLength"`
	OldByteLength   *int64 `json:"oldByteLength"`
	NumberOfObjects *int64 `json:"numberOfObjects"`
}

var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Re-ingest a JSON Lines event log through the same write path live traffic uses",
	Long: `replay reads a newline-delimited JSON file of event records and calls
PushMetric for each one, reusing the live path's precondition validation and
disabled-mode guard. Each line's timestamp is not honored: every event is
recorded at the interval containing wall-clock now at the moment it is
replayed, matching the engine's write-path normalization rule. This command
is for re-ingesting a missed or corrupted event stream, not for historical
backfill.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, DumpLevel: cfg.Log.DumpLevel})

	backingStore, closeStore, err := newStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := metrics.NewClient(metrics.Config{
		Store:     backingStore,
		Component: cfg.Component,
		Levels:    cfg.Metrics,
		Log:       log,
	})
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var applied, failed int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev replayEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			log.WithError(err).Warn("skipping malformed replay line")
			failed++
			continue
		}

		kind, ok := metrics.ParseEventKind(ev.EventKind)
		if !ok {
			log.WithField("eventKind", ev.EventKind).Warn("skipping unrecognized eventKind")
			failed++
			continue
		}

		requestID := ev.RequestID
		if requestID == "" {
			// The CLI path bypasses Echo's per-request id middleware, so
			// replayed events still get one for log correlation.
			requestID = uuid.NewString()
		}

		err := client.PushMetric(ctx, kind, requestID, metrics.Params{
			Bucket:          ev.Bucket,
			AccountID:       ev.AccountID,
			ByteLength:      ev.ByteLength,
			NewByteLength:   ev.NewByteLength,
			OldByteLength:   ev.OldByteLength,
			NumberOfObjects: ev.NumberOfObjects,
		})
		if err != nil {
			log.WithError(err).WithField("eventKind", ev.EventKind).Error("replay push failed")
			failed++
			continue
		}
		applied++
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "replay complete: %d applied, %d failed\n", applied, failed)
	if failed > 0 {
		return fmt.Errorf("replay: %d events failed", failed)
	}
	return nil
}
