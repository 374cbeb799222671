package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-jobpilot-automation/internal/ai"
	"go-jobpilot-automation/internal/applier"
	"go-jobpilot-automation/internal/auth"
	"go-jobpilot-automation/internal/browser"
	"go-jobpilot-automation/internal/config"
	"go-jobpilot-automation/internal/database"
	"go-jobpilot-automation/internal/models"
	"go-jobpilot-automation/internal/pipeline"
	"go-jobpilot-automation/internal/reporter"
	"go-jobpilot-automation/internal/scheduler"
	"go-jobpilot-automation/internal/scraper"
	"go-jobpilot-automation/internal/session"

	"github.com/playwright-community/playwright-go"
)

const usage = `Usage: jobpilot <command> [flags]

Commands:
  search     scrape configured searches into the database
  apply      apply to unapplied easy-apply jobs, oldest first
  full       search then apply in one run
  schedule   run "full" periodically inside the configured hour window
  stats      print job and application counts
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	flags := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := flags.String("config", "configs/config.yaml", "path to the YAML config file")
	flags.Parse(os.Args[2:])

	cfg := config.LoadFile(*configPath)
	log.Printf("🔧 Config loaded. Keywords: %v", cfg.Keywords)

	//runs stop cleanly at the next job boundary on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer repo.Close()
	log.Println("💾 Database connected.")

	if command == "stats" {
		printStats(ctx, repo)
		return
	}

	tg, err := reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Fatalf("❌ Failed to init Telegram reporter: %v", err)
	}
	if tg != nil {
		log.Println("🤖 Telegram reporter initialized.")
	}

	pwManager, err := browser.NewManager(browser.Options{
		Headless: cfg.Headless,
		SlowMoMs: cfg.SlowMoMs,
	})
	if err != nil {
		log.Fatalf("❌ Failed to init Playwright: %v", err)
	}
	defer pwManager.Close()

	store := newSessionStore(ctx, cfg)

	authn := auth.New(pwManager, store, cfg.Email, cfg.Password,
		time.Duration(cfg.SessionMaxAgeHours)*time.Hour)
	defer authn.Close()

	var letters ai.Client
	if cfg.GroqAPIKey != "" {
		letters = ai.NewGroqClient(cfg.GroqAPIKey, time.Duration(cfg.CoverLetterTimeoutSecs)*time.Second)
	} else {
		log.Println("⚠️ GROQ_API_KEY not set, cover letters fall back to the template.")
	}

	driver := applier.NewDriver(repo, letters,
		time.Duration(cfg.CoverLetterTimeoutSecs)*time.Second,
		cfg.CandidateSummary, cfg.ResumesDir)

	orch := pipeline.New(
		authn,
		scraper.New(cfg.MinPageDelayMs, cfg.MaxPageDelayMs),
		repo,
		driver,
		func(page playwright.Page) applier.Flow { return applier.NewEasyApplyFlow(page) },
		pipeline.Options{
			Keywords:         cfg.Keywords,
			Location:         cfg.Location,
			ExperienceLevels: scraper.ParseExperienceLevels(cfg.ExperienceLevels),
			DatePosted:       scraper.ParseDatePosted(cfg.DatePosted),
			EasyApplyOnly:    cfg.EasyApplyOnly,
			MaxPages:         cfg.MaxPages,
			Profiles:         cfg.ResumeProfiles,
			MaxApplications:  cfg.MaxApplicationsPerRun,
			MaxAttempts:      cfg.MaxAttempts,
			JobDelay:         time.Duration(cfg.JobDelaySecs) * time.Second,
		},
	)

	runOnce := func(ctx context.Context, run func(context.Context) (*pipeline.Report, error)) error {
		report, err := run(ctx)
		log.Println(report.Summary())
		tg.SendRunReport(report)
		return err
	}

	//with auto-apply disabled, full runs degrade to search-only
	fullRun := orch.RunFull
	if !cfg.AutoApplyEnabled {
		fullRun = orch.RunSearch
		log.Println("ℹ️ auto_apply_enabled is false: runs will scrape but not apply.")
	}

	switch command {
	case "search":
		err = runOnce(ctx, orch.RunSearch)
	case "apply":
		if !cfg.AutoApplyEnabled {
			log.Fatal("❌ auto_apply_enabled is false in the config; refusing to apply.")
		}
		err = runOnce(ctx, orch.RunApply)
	case "full":
		err = runOnce(ctx, fullRun)
	case "schedule":
		sched := scheduler.New(func(ctx context.Context) error {
			return runOnce(ctx, fullRun)
		}, cfg.ScheduleStartHour, cfg.ScheduleEndHour, cfg.ScheduleIntervalMins)
		err = sched.Start(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil && ctx.Err() == nil {
		tg.SendError(err)
		log.Fatalf("❌ %s run failed: %v", command, err)
	}
	log.Println("👋 Done.")
}

func newSessionStore(ctx context.Context, cfg *config.Config) session.Store {
	switch cfg.SessionBackend {
	case "redis":
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		log.Println("📦 Session backend: redis")
		return session.NewRedisStore(client, cfg.Account)
	default:
		store, err := session.NewFileStore(cfg.SessionPath, cfg.Account)
		if err != nil {
			log.Fatalf("❌ Failed to init session store: %v", err)
		}
		log.Printf("📦 Session backend: file (%s)", cfg.SessionPath)
		return store
	}
}

func printStats(ctx context.Context, repo *database.Repository) {
	stats, err := repo.Stats(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to load stats: %v", err)
	}
	fmt.Printf("Jobs scraped:        %d\n", stats["total_jobs"])
	fmt.Printf("Applications total:  %d\n", stats["total_applications"])
	fmt.Printf("  applied:           %d\n", stats[string(models.StatusApplied)])
	fmt.Printf("  pending:           %d\n", stats[string(models.StatusPending)])
	fmt.Printf("  skipped:           %d\n", stats[string(models.StatusSkipped)])
	fmt.Printf("  failed:            %d\n", stats[string(models.StatusFailed)])
}
