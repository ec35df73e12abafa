package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"trainingload/internal/config"
	"trainingload/internal/files"
	"trainingload/internal/store"
)

const usage = `Usage: trainingload <command> [flags]

Commands:
  init      write an example config and seed the default athlete
  worker    process queued workouts and refresh fitness trends
  enqueue   store an activity file and queue it for analysis
  analyze   analyze a local activity file and print the result
  status    show the state of a queued job
  list      list recent workouts
  trend     plot fitness, fatigue and form
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("no command given")
	}

	ctx := context.Background()
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "init":
		return cmdInit(ctx, rest)
	case "worker":
		return cmdWorker(ctx, rest)
	case "enqueue":
		return cmdEnqueue(ctx, rest)
	case "analyze":
		return cmdAnalyze(ctx, rest)
	case "status":
		return cmdStatus(ctx, rest)
	case "list":
		return cmdList(ctx, rest)
	case "trend":
		return cmdTrend(ctx, rest)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// loadConfig reads the config file, falling back to defaults and the
// environment when there is none
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		path, _ := config.ConfigPath()
		return nil, fmt.Errorf("config validation failed (edit %s): %w", path, err)
	}
	return cfg, nil
}

// fileStore is where uploaded activity files live
type fileStore interface {
	files.Source
	files.Sink
}

// openFiles returns the configured bucket, or the upload directory
func openFiles(ctx context.Context, cfg *config.Config, create bool) (fileStore, error) {
	if !cfg.Storage.S3.Enabled() {
		dir, err := files.NewLocalDir(cfg.Storage.UploadDir)
		if err != nil {
			return nil, err
		}
		return dir, nil
	}

	s3 := cfg.Storage.S3
	bucket, err := files.NewBucket(s3.Endpoint, s3.AccessKey, s3.SecretKey, s3.Bucket, s3.Secure)
	if err != nil {
		return nil, err
	}
	if create {
		if err := bucket.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

// lookupUser resolves an athlete email, defaulting to the configured one
func lookupUser(ctx context.Context, st *store.Store, cfg *config.Config, email string) (int64, error) {
	if email == "" {
		email = cfg.Athlete.Email
	}
	user, err := st.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		return 0, fmt.Errorf("no athlete %s, run `trainingload init` first", email)
	}
	if err != nil {
		return 0, fmt.Errorf("looking up athlete: %w", err)
	}
	return user.ID, nil
}
