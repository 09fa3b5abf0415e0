// ftpstore is a command-line front end for the FTP storage backend. It moves
// files and directory trees between the local filesystem and FTP or FTPS
// servers addressed by query strings.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ftpstore/ftpstore/internal/config"
	"github.com/ftpstore/ftpstore/internal/metrics"
	"github.com/ftpstore/ftpstore/pkg/retry"
	"github.com/ftpstore/ftpstore/pkg/storage"
	"github.com/ftpstore/ftpstore/pkg/storage/ftp"
)

const version = "0.1.0"

var (
	configFile  string
	logLevel    string
	logFormat   string
	username    string
	password    string
	timeout     time.Duration
	metricsAddr string

	destDir   string
	transfers int
)

var rootCmd = &cobra.Command{
	Use:   "ftpstore",
	Short: "Transfer files to and from FTP/FTPS servers",
	Long: `ftpstore moves files and directory trees between the local filesystem
and FTP or FTPS servers. Remote locations are addressed by query:

    ftp://host[:port]/path
    ftps://host[:port]/path

The port defaults to 21. Connections are pooled per server and reused
across operations; transient failures are retried with exponential
backoff.`,
	Example: `  ftpstore stat ftp://ftpserver.com/data/results.csv
  ftpstore get --dest /tmp/stage ftp://ftpserver.com/data/results.csv
  ftpstore put results.csv ftps://ftpserver.com/incoming/results.csv
  ftpstore glob "ftp://ftpserver.com/data/{sample}/reads.fq"
  ftpstore rm ftp://ftpserver.com/data/old`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var statCmd = &cobra.Command{
	Use:   "stat <query>",
	Short: "Show size and modification time of a remote object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProvider(func(ctx context.Context, provider *ftp.Provider, log *logrus.Logger) error {
			obj, err := provider.Object(args[0])
			if err != nil {
				return err
			}
			exists, err := obj.Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return errors.Errorf("%s: object does not exist", args[0])
			}
			size, err := obj.Size(ctx)
			if err != nil {
				return err
			}
			mtime, err := obj.ModTime(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("query:    %s\n", obj.Query())
			fmt.Printf("size:     %d\n", size)
			fmt.Printf("modified: %s\n", mtime.Format(time.RFC3339))
			fmt.Printf("suffix:   %s\n", obj.LocalSuffix())
			return nil
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get <query> [<query>...]",
	Short: "Download remote objects into a local staging directory",
	Long: `Download one or more remote objects. Each object lands under the
destination directory at its local suffix (host:port/path), so downloads
from different servers never collide. Directories download recursively.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProvider(func(ctx context.Context, provider *ftp.Provider, log *logrus.Logger) error {
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(transfers)
			for _, query := range args {
				obj, err := provider.Object(query)
				if err != nil {
					return err
				}
				local := filepath.Join(destDir, filepath.FromSlash(obj.LocalSuffix()))
				g.Go(func() error {
					start := time.Now()
					if err := obj.Retrieve(gctx, local); err != nil {
						return err
					}
					log.WithFields(logrus.Fields{
						"query":    obj.Query(),
						"dest":     local,
						"duration": time.Since(start).Round(time.Millisecond),
					}).Info("downloaded")
					return nil
				})
			}
			return g.Wait()
		})
	},
}

var putCmd = &cobra.Command{
	Use:   "put <local-path> <query>",
	Short: "Upload a local file or directory to a remote path",
	Long: `Upload a local file or directory tree to the remote path named by the
query. Missing remote parent directories are created first.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProvider(func(ctx context.Context, provider *ftp.Provider, log *logrus.Logger) error {
			obj, err := provider.Object(args[1])
			if err != nil {
				return err
			}
			start := time.Now()
			if err := obj.Store(ctx, args[0]); err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"source":   args[0],
				"query":    obj.Query(),
				"duration": time.Since(start).Round(time.Millisecond),
			}).Info("uploaded")
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <query> [<query>...]",
	Short: "Remove remote objects, directories recursively",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProvider(func(ctx context.Context, provider *ftp.Provider, log *logrus.Logger) error {
			for _, query := range args {
				obj, err := provider.Object(query)
				if err != nil {
					return err
				}
				if err := obj.Remove(ctx); err != nil {
					return err
				}
				log.WithField("query", query).Info("removed")
			}
			return nil
		})
	},
}

var globCmd = &cobra.Command{
	Use:   "glob <query>",
	Short: "List remote paths a wildcard query could match",
	Long: `List the remote paths a wildcard query could match, one per line.
Wildcards are written as {name} segments in the query path; candidates
are the files and empty directories found under the longest
wildcard-free prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProvider(func(ctx context.Context, provider *ftp.Provider, log *logrus.Logger) error {
			obj, err := provider.Object(args[0])
			if err != nil {
				return err
			}
			globber, ok := obj.(storage.Globber)
			if !ok {
				return errors.Errorf("%s: backend does not enumerate candidates", args[0])
			}
			candidates, err := globber.Candidates(ctx)
			if err != nil {
				return err
			}
			for _, candidate := range candidates {
				fmt.Println(candidate)
			}
			return nil
		})
	},
}

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Show example queries this backend accepts",
	Run: func(cmd *cobra.Command, args []string) {
		for _, ex := range ftp.ExampleQueries() {
			fmt.Printf("%-42s %s\n", ex.Query, ex.Description)
		}
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config <path>",
	Short: "Write a configuration file with default settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.NewDefault()
		if err := cfg.SaveToFile(args[0]); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "FTP username (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "FTP password (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "overall command timeout, 0 means none")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")

	getCmd.Flags().StringVarP(&destDir, "dest", "d", ".", "local directory downloads are staged under")
	getCmd.Flags().IntVar(&transfers, "transfers", 4, "number of concurrent downloads")

	rootCmd.AddCommand(statCmd, getCmd, putCmd, rmCmd, globCmd, examplesCmd, initConfigCmd)
}

// loadConfig builds the effective configuration: defaults, then the file,
// then the environment, then command-line flags.
func loadConfig() (*config.Configuration, error) {
	cfg := config.NewDefault()
	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if username != "" {
		cfg.Storage.Username = username
	}
	if password != "" {
		cfg.Storage.Password = password
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger configures logrus from the logging settings. The returned
// cleanup closes the log file, if one was opened.
func newLogger(cfg config.LoggingConfig) (*logrus.Logger, func(), error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse log level")
	}
	log.SetLevel(level)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	cleanup := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open log file")
		}
		log.SetOutput(f)
		cleanup = func() { _ = f.Close() }
	}
	return log, cleanup, nil
}

// withProvider loads configuration, sets up logging and optional metrics,
// connects the provider, and runs fn under a signal-aware context.
func withProvider(fn func(ctx context.Context, provider *ftp.Provider, log *logrus.Logger) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opts := []ftp.Option{
		ftp.WithLogger(log),
		ftp.WithRetry(retry.Config{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
			Jitter:       true,
		}),
	}

	if cfg.Metrics.Enabled {
		collector, err := metrics.NewCollector(&cfg.Metrics)
		if err != nil {
			return errors.Wrap(err, "create metrics collector")
		}
		if err := collector.Start(ctx); err != nil {
			return errors.Wrap(err, "start metrics server")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = collector.Stop(shutdownCtx)
		}()
		opts = append(opts, ftp.WithMetrics(collector))
	}

	provider, err := ftp.NewProvider(cfg.Storage, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Close(); err != nil {
			log.WithError(err).Warn("close provider")
		}
	}()

	return fn(ctx, provider, log)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
