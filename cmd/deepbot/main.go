package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/ziamudasar52-stack/deep-Bot/internal/config"
	"github.com/ziamudasar52-stack/deep-Bot/internal/logger"
	"github.com/ziamudasar52-stack/deep-Bot/internal/marketclock"
	"github.com/ziamudasar52-stack/deep-Bot/internal/mboum"
	"github.com/ziamudasar52-stack/deep-Bot/internal/monitor"
	"github.com/ziamudasar52-stack/deep-Bot/internal/scheduler"
	"github.com/ziamudasar52-stack/deep-Bot/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s (api key: %s)", *configPath, cfg.MaskedAPIKey())

	clock, err := marketclock.New(cfg.Market.Timezone, cfg.Market.OpenHour, cfg.Market.CloseHour)
	if err != nil {
		logger.Fatal("Failed to initialize market clock: %v", err)
	}

	source := mboum.NewClient(
		cfg.Mboum.BaseURL,
		cfg.Mboum.APIKey,
		cfg.Mboum.Timeout,
		cfg.Mboum.MaxRetries,
		cfg.Mboum.RetryDelayBase,
	)

	var tgClient *telegram.Client
	var notifier monitor.Notifier
	if cfg.Telegram.Enabled {
		tgClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		notifier = tgClient
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	monitorConfig := monitor.Config{
		Thresholds: monitor.Thresholds{
			MinPercentMove:    cfg.Rules.MinPercentMove,
			ExactBidPrice:     decimal.NewFromFloat(cfg.Rules.ExactBidPrice),
			ExactBidSize:      cfg.Rules.ExactBidSize,
			HighValueBidPrice: decimal.NewFromFloat(cfg.Rules.HighValueBidPrice),
			HighValueBidSize:  cfg.Rules.HighValueBidSize,
			InsiderShareFloor: cfg.Rules.InsiderShareFloor,
			OptionRatioFloor:  cfg.Rules.OptionRatioFloor,
			OptionVolumeFloor: cfg.Rules.OptionVolumeFloor,
		},
		Cooldown:           cfg.Rules.Cooldown,
		TopMoversLimit:     cfg.Mboum.TopMoversLimit,
		SummaryTopK:        cfg.Rules.SummaryTopK,
		BaselineWindow:     cfg.Rules.BaselineWindow,
		BaselineMinSamples: cfg.Rules.BaselineMinSamples,
		StateTTL:           cfg.Scheduler.StateTTL,
	}
	mon := monitor.New(source, notifier, clock, monitorConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		if tgClient != nil {
			if err := tgClient.SendStatus("Bot stopped"); err != nil {
				logger.Warn("Failed to send shutdown notice: %v", err)
			}
		}
		cancel()
	}()

	// Best-effort crash notice before the process dies
	defer func() {
		if r := recover(); r != nil {
			if tgClient != nil {
				_ = tgClient.SendStatus(fmt.Sprintf("Bot crashed: %v", r))
			}
			panic(r)
		}
	}()

	if tgClient != nil {
		tgClient.ListenForCommands(ctx)
		if err := tgClient.SendStatus("Bot started"); err != nil {
			logger.Warn("Failed to send startup notice: %v", err)
		}
	}

	sched := scheduler.New(cfg.Scheduler.Tick, mon.MarketOpen)
	if tgClient != nil {
		sched.NotifyFailures(
			func(name string, taskErr error) {
				if err := tgClient.SendError(name, taskErr); err != nil {
					logger.Warn("Failed to send error notification: %v", err)
				}
			},
			func(name string, failures int) {
				if err := tgClient.SendRecovery(name, failures); err != nil {
					logger.Warn("Failed to send recovery notification: %v", err)
				}
			},
		)
	}

	// The recheck registers first so gated tasks see fresh market state on
	// the initial pass.
	sched.Add(scheduler.Task{Name: "market-recheck", Interval: cfg.Scheduler.ClockInterval, Run: mon.RecheckMarket})
	sched.Add(scheduler.Task{Name: "primary-scan", Interval: cfg.Scheduler.PrimaryInterval, Gated: true, Run: mon.PrimaryScan})
	sched.Add(scheduler.Task{Name: "options-scan", Interval: cfg.Scheduler.OptionsInterval, Gated: true, Run: mon.OptionsScan})
	sched.Add(scheduler.Task{Name: "watchlist-sweep", Interval: cfg.Scheduler.WatchlistInterval, Gated: true, Run: mon.WatchlistSweep})
	sched.Add(scheduler.Task{Name: "summary", Interval: cfg.Scheduler.SummaryInterval, Gated: true, Run: mon.Summary})
	sched.Add(scheduler.Task{Name: "heartbeat", Interval: cfg.Scheduler.HeartbeatInterval, Run: mon.Heartbeat})

	logger.Info("Starting scheduler (primary: %v, options: %v, summary: %v, cooldown: %v)",
		cfg.Scheduler.PrimaryInterval,
		cfg.Scheduler.OptionsInterval,
		cfg.Scheduler.SummaryInterval,
		cfg.Rules.Cooldown,
	)

	sched.Run(ctx)
	logger.Info("Service stopped")
}
