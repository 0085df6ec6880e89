// Package cmd 命令行入口
package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"churnapi/churn"
	"churnapi/config"
	"churnapi/dashboard"
	qhttp "churnapi/http"
	"churnapi/logger"
	"churnapi/monitoring"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "churnapi",
	Short: "HTTP API serving a pre-trained customer churn classifier",
	Long: `churnapi loads a trained churn classifier and its feature scaler once at startup and
serves a health check, the offline evaluation statistics and single-customer predictions.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, cfg)
	},
}

// Execute 由main.main调用
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error(err)
		logger.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the yaml config file, defaults are used when it does not exist")
	rootCmd.AddCommand(reportCmd)
}

// loadConfig 读取配置并初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(loggerOptions(cfg.Log)); err != nil {
		return nil, errors.Wrap(err, "init logger")
	}
	return cfg, nil
}

func loggerOptions(cfg config.LogConfig) logger.Options {
	return logger.Options{
		Level:      cfg.Level,
		Console:    cfg.Console,
		Dir:        cfg.Dir,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	defer logger.Sync()

	// 1. 加载模型和标准化器，失败时服务仍然启动
	artifacts := churn.Load(cfg.Artifacts.ModelPath, cfg.Artifacts.ScalerPath)
	service, err := churn.NewService(artifacts, churn.WithCache(cfg.Cache.Size))
	if err != nil {
		return err
	}
	if !service.Ready() {
		logger.Warnf("serving without artifacts, predictions will fail until restart")
	}

	// 2. 仪表盘统计只在启动时读取一次
	provider := dashboard.NewProvider(dashboard.LoadOrDefault(ctx, cfg.Dashboard))

	// 3. 启动服务
	server := qhttp.NewServer(qhttp.ServerConfigFrom(cfg.Http), service, provider)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		return server.Stop()
	})

	if cfg.Metrics.Enable {
		metricsServer := monitoring.NewMetricsServer(cfg.Metrics.Addr)
		g.Go(func() error {
			logger.Infof("serving metrics on %s", cfg.Metrics.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return errors.Wrap(err, "metrics server failed")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return metricsServer.Close()
		})
	}

	if cfg.Artifacts.Watch {
		watcher, err := monitoring.NewArtifactWatcher(map[string]string{
			churn.ArtifactModel:  cfg.Artifacts.ModelPath,
			churn.ArtifactScaler: cfg.Artifacts.ScalerPath,
		})
		if err != nil {
			logger.Warnf("artifact watch disabled: %v", err)
		} else {
			g.Go(func() error {
				return watcher.Run(ctx)
			})
		}
	}

	err = g.Wait()
	logger.Info("exiting")
	return err
}
