package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"trainingload/internal/activity"
	"trainingload/internal/analysis"
	"trainingload/internal/config"
	"trainingload/internal/export"
	"trainingload/internal/files"
	"trainingload/internal/queue"
	"trainingload/internal/report"
	"trainingload/internal/store"
	"trainingload/internal/worker"
)

func cmdInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	created, err := config.CreateExample()
	if err != nil {
		return fmt.Errorf("creating example config: %w", err)
	}
	path, _ := config.ConfigPath()
	if created {
		fmt.Printf("Wrote example config to %s\n", path)
	} else {
		fmt.Printf("Using existing config at %s\n", path)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	id, err := st.SeedDefaultUser(ctx, cfg.Athlete.Email, cfg.Athlete.MaxHR, cfg.Athlete.FTP)
	if err != nil {
		return fmt.Errorf("seeding athlete: %w", err)
	}

	if _, err := openFiles(ctx, cfg, true); err != nil {
		return fmt.Errorf("preparing file storage: %w", err)
	}

	fmt.Printf("Athlete %s ready (id %d), database at %s\n", cfg.Athlete.Email, id, cfg.Database.Path)
	return nil
}

func cmdWorker(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	concurrency := fs.Int("concurrency", 0, "number of workers (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if *concurrency > 0 {
		cfg.Worker.Concurrency = *concurrency
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	client, err := queue.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer client.Close()
	q := queue.New(client, cfg.Redis.Queue)

	src, err := openFiles(ctx, cfg, false)
	if err != nil {
		return fmt.Errorf("opening file storage: %w", err)
	}

	trends := &worker.TrendRefresher{Store: st, Schedule: cfg.Worker.TrendSchedule}
	if err := trends.Start(ctx); err != nil {
		return err
	}
	defer trends.Stop()

	pool := &worker.Pool{
		Queue: q,
		Processor: &worker.Processor{
			Store:       st,
			Files:       src,
			Queue:       q,
			Window:      time.Duration(cfg.Worker.WindowMinutes) * time.Minute,
			MaxFileSize: cfg.Storage.MaxFileSize,
			ExportDir:   cfg.Storage.ExportDir,
		},
		Concurrency: cfg.Worker.Concurrency,
		PollTimeout: time.Duration(cfg.Worker.PollTimeoutSeconds) * time.Second,
	}

	log.Printf("worker: %d workers on queue %q", cfg.Worker.Concurrency, cfg.Redis.Queue)
	if err := pool.Run(ctx); err != nil {
		return err
	}
	log.Println("worker: shutting down")
	return nil
}

func cmdEnqueue(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("enqueue", flag.ExitOnError)
	modeFlag := fs.String("mode", string(analysis.ModeZones), "analysis mode: rolling or zones")
	email := fs.String("email", "", "athlete email (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: trainingload enqueue [-mode rolling|zones] FILE")
	}

	mode, err := analysis.ParseMode(*modeFlag)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := fs.Arg(0)
	data, err := readLocal(ctx, path, cfg.Storage.MaxFileSize)
	if err != nil {
		return err
	}
	if activity.DetectFormat(data) == activity.FormatUnknown {
		return fmt.Errorf("%s: %w", path, activity.ErrUnknownFormat)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	userID, err := lookupUser(ctx, st, cfg, *email)
	if err != nil {
		return err
	}

	client, err := queue.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer client.Close()
	q := queue.New(client, cfg.Redis.Queue)

	sink, err := openFiles(ctx, cfg, false)
	if err != nil {
		return fmt.Errorf("opening file storage: %w", err)
	}

	jobID := uuid.NewString()
	name := jobID + strings.ToLower(filepath.Ext(path))
	if err := sink.Put(ctx, name, data); err != nil {
		return fmt.Errorf("storing %s: %w", path, err)
	}

	if _, err := st.CreateWorkout(ctx, userID, jobID, name, mode); err != nil {
		return fmt.Errorf("recording workout: %w", err)
	}
	if _, err := q.Enqueue(ctx, queue.Job{ID: jobID, UserID: userID, FileName: name, Mode: mode}); err != nil {
		return err
	}

	fmt.Printf("Queued %s (%s) for %s analysis\n", filepath.Base(path), humanize.Bytes(uint64(len(data))), mode)
	fmt.Printf("Job: %s\n", jobID)
	return nil
}

// readOnlyZones serves stored zones but discards replacements
type readOnlyZones struct {
	worker.ZoneRepository
}

func (readOnlyZones) ReplaceZones(context.Context, int64, analysis.Sport, analysis.Metric, []analysis.ZoneBoundary) error {
	return nil
}

func cmdAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	modeFlag := fs.String("mode", string(analysis.ModeRolling), "analysis mode: rolling or zones")
	window := fs.Duration("window", 0, "rolling window (default from config)")
	email := fs.String("email", "", "athlete email (default from config)")
	parquetPath := fs.String("parquet", "", "write normalized samples to this Parquet file")
	dryRun := fs.Bool("dry-run", false, "do not replace stored zones in rolling mode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: trainingload analyze [-mode rolling|zones] [-parquet OUT] FILE")
	}

	mode, err := analysis.ParseMode(*modeFlag)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if *window <= 0 {
		*window = time.Duration(cfg.Worker.WindowMinutes) * time.Minute
	}

	data, err := readLocal(ctx, fs.Arg(0), cfg.Storage.MaxFileSize)
	if err != nil {
		return err
	}
	doc, err := activity.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", fs.Arg(0), err)
	}
	n := analysis.Normalize(doc)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	userID, err := lookupUser(ctx, st, cfg, *email)
	if err != nil {
		return err
	}

	var zones worker.ZoneRepository = st
	if *dryRun {
		zones = readOnlyZones{st}
	}

	result, err := worker.Analyze(ctx, zones, userID, mode, n, *window)
	if err != nil {
		return err
	}

	report.Summary(os.Stdout, report.NewUnits(cfg.Display), result)

	if *parquetPath != "" {
		if err := export.WriteSamplesParquet(*parquetPath, n.Samples, analysis.Boundaries(result)); err != nil {
			return fmt.Errorf("exporting samples: %w", err)
		}
		fmt.Printf("\nWrote %s samples to %s\n", humanize.Comma(int64(len(n.Samples))), *parquetPath)
	}
	return nil
}

func cmdStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: trainingload status JOB_ID")
	}
	jobID := fs.Arg(0)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := queue.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer client.Close()

	status, err := queue.New(client, cfg.Redis.Queue).Status(ctx, jobID)
	if errors.Is(err, queue.ErrJobNotFound) {
		return fmt.Errorf("job %s not found", jobID)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Job:     %s\n", status.Job.ID)
	fmt.Printf("File:    %s\n", status.Job.FileName)
	fmt.Printf("Mode:    %s\n", status.Job.Mode)
	fmt.Printf("State:   %s (%s)\n", status.State, humanize.Time(status.UpdatedAt))
	if status.Result != "" {
		fmt.Printf("Result:  %s\n", status.Result)
	}
	return nil
}

func cmdList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of workouts to show")
	email := fs.String("email", "", "athlete email (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	userID, err := lookupUser(ctx, st, cfg, *email)
	if err != nil {
		return err
	}

	workouts, err := st.ListWorkouts(ctx, userID, *limit)
	if err != nil {
		return fmt.Errorf("listing workouts: %w", err)
	}
	report.Workouts(os.Stdout, report.NewUnits(cfg.Display), workouts)
	return nil
}

func cmdTrend(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trend", flag.ExitOnError)
	days := fs.Int("days", 90, "days of history to plot")
	refresh := fs.Bool("refresh", true, "recompute the trend before plotting")
	email := fs.String("email", "", "athlete email (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	userID, err := lookupUser(ctx, st, cfg, *email)
	if err != nil {
		return err
	}

	if *refresh {
		r := &worker.TrendRefresher{Store: st}
		if _, err := r.RefreshUser(ctx, userID); err != nil {
			return fmt.Errorf("refreshing trend: %w", err)
		}
	}

	trend, err := st.FitnessTrend(ctx, userID, time.Now().AddDate(0, 0, -*days))
	if err != nil {
		return fmt.Errorf("loading trend: %w", err)
	}
	report.Trend(os.Stdout, trend)
	return nil
}

// readLocal reads a file from disk with the configured size limit
func readLocal(ctx context.Context, path string, limit int64) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dir := &files.LocalDir{Root: filepath.Dir(abs)}
	return files.ReadAll(ctx, dir, filepath.Base(abs), limit)
}
