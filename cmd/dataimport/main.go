package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SP500Returns/internal/cache"
	"SP500Returns/internal/collector"
	"SP500Returns/internal/config"
	"SP500Returns/internal/model"
	"SP500Returns/internal/notifier"
	"SP500Returns/internal/pipeline"
	"SP500Returns/internal/recorder"
	"SP500Returns/internal/scheduler"
	"SP500Returns/internal/tickers"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to config file")
	stage := flag.String("stage", "all", "stage to run: all|tickers|prices|returns|index")
	reload := flag.Bool("reload", false, "re-scrape the S&P 500 ticker list before fetching prices")
	daemon := flag.Bool("daemon", false, "keep running and re-run the pipeline on schedule.cron")
	history := flag.Int("history", 0, "print the last N recorded stage runs and exit")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	var sqliteRec *recorder.SQLiteRecorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			rec = sr
			sqliteRec = sr
			defer sr.Close()
		}
	}

	console := notifier.NewConsole()
	if *history > 0 {
		if sqliteRec == nil {
			log.Fatalf("[FATAL] -history needs database.sqlite_path")
		}
		runs, err := sqliteRec.LastRuns(*history)
		if err != nil {
			log.Fatalf("[FATAL] read run history: %v", err)
		}
		console.PrintHistory(runs)
		return
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.Provider.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	store, err := cache.NewFileStore(cfg.Storage.CacheDir)
	if err != nil {
		log.Fatalf("[FATAL] init cache: %v", err)
	}

	joined := cfg.Storage.JoinedFile
	p := &pipeline.Pipeline{
		Lister:   tickers.NewLister(cfg.Source.TickersURL, cfg.Proxy),
		List:     tickers.NewFileListStore(cfg.Storage.TickersFile),
		Fetcher:  fetcher,
		Cache:    store,
		Recorder: rec,
		Printer:  console,
		Window: func() model.DateRange {
			return cfg.Range(time.Now())
		},
		IndexSymbol: cfg.Source.IndexSymbol,
		JoinedOutput: func() (io.WriteCloser, error) {
			return os.Create(joined)
		},
	}
	log.Printf("[INFO] history window: %s", cfg.Range(time.Now()))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		sender = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	if *daemon {
		runDaemon(ctx, cfg, p, sender, console, *reload)
		return
	}

	if err := runStage(ctx, p, *stage, *reload, console, sender); err != nil {
		log.Printf("[ERROR] %s: %v", *stage, err)
		os.Exit(1)
	}
}

func runStage(ctx context.Context, p *pipeline.Pipeline, stage string, reload bool, console *notifier.Console, sender scheduler.Sender) error {
	switch stage {
	case "all":
		reports, err := p.RunAll(ctx, reload)
		console.PrintReports(reports)
		if sender != nil {
			if serr := sender.SendWithRetry(ctx, notifier.FormatRunSummary(reports, err), 3); serr != nil {
				log.Printf("[ERROR] send notification: %v", serr)
			}
		}
		return err
	case "tickers":
		_, err := p.SaveTickers(ctx)
		return err
	case "prices":
		rep, err := p.FetchPrices(ctx, reload)
		console.PrintReports([]pipeline.Report{rep})
		return err
	case "returns":
		_, err := p.CompileReturns(ctx)
		return err
	case "index":
		_, err := p.LabelIndex(ctx)
		return err
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func runDaemon(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, sender scheduler.Sender, console *notifier.Console, reload bool) {
	if cfg.Schedule.Cron == "" {
		log.Fatalf("[FATAL] -daemon needs schedule.cron")
	}
	sched := scheduler.NewScheduler(ctx, p, sender, console, reload || cfg.Schedule.ReloadTickers)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing pipeline now")
		go sched.RunNow()
	}

	log.Printf("[INFO] dataimport is running on %q. Press Ctrl+C to stop.", cfg.Schedule.Cron)
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
}
