package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DamirAkzhigitov/offer-parser/pkg/channel"
	"github.com/DamirAkzhigitov/offer-parser/pkg/channel/telegram"
	"github.com/DamirAkzhigitov/offer-parser/pkg/compose"
	"github.com/DamirAkzhigitov/offer-parser/pkg/config"
	"github.com/DamirAkzhigitov/offer-parser/pkg/dispatch"
	"github.com/DamirAkzhigitov/offer-parser/pkg/extract"
	"github.com/DamirAkzhigitov/offer-parser/pkg/logger"
	"github.com/DamirAkzhigitov/offer-parser/pkg/oracle/openai"
	"github.com/DamirAkzhigitov/offer-parser/pkg/watcher"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the chat watcher",
	Long:  "Loads configuration, connects to Telegram and the language-model oracle, and watches the configured chats for matching sale offers.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.watch")

		oracleClient, err := openai.New(cfg.Oracle)
		if err != nil {
			log.Error("Failed to initialize oracle client", "error", err)
			return
		}

		adapter, err := telegram.NewAdapter(cfg.Telegram, log)
		if err != nil {
			log.Error("Failed to configure telegram channel", "error", err)
			return
		}

		criteria, err := cfg.Criteria.Criteria()
		if err != nil {
			log.Error("Criteria configuration invalid", "error", err)
			return
		}

		coordinator := dispatch.NewCoordinator(
			dispatch.Config{
				Criteria:     criteria,
				WatchChats:   cfg.Telegram.WatchChats,
				IgnoreSender: cfg.Telegram.IgnoreSender,
			},
			extract.New(oracleClient, cfg.Oracle.ExtractModel, log),
			compose.New(oracleClient, cfg.Oracle.ComposeModel, log),
			adapter,
			log,
		)

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := watcher.NewService(cfg, oracleClient, coordinator, []channel.Adapter{adapter}, log)
		if err != nil {
			log.Error("Failed to initialize watcher service", "error", err)
			return
		}

		log.Info("Watcher started",
			"watch_chats", len(cfg.Telegram.WatchChats),
			"extract_model", cfg.Oracle.ExtractModel,
			"compose_model", cfg.Oracle.ComposeModel,
		)
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Watcher runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
