package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/studio1767/s3sync/internal/config"
	"github.com/studio1767/s3sync/internal/engine"
	"github.com/studio1767/s3sync/internal/s3store"
	"github.com/studio1767/s3sync/internal/scheduler"
)

func main() {
	// process the command line
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-v] [-c config-file]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	verbose := flag.Bool("v", false, "verbose reporting")
	cfgfile := flag.String("c", defaultConfigPath(), "yaml settings file")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	settings, err := config.Load(*cfgfile)
	if err != nil {
		log.Fatal(err)
	}
	if settings.SyncIntervalMinutes == 0 {
		log.Fatal("sync_interval_minutes is 0: nothing to schedule, use s3sync for manual syncs")
	}

	f, err := settings.BuildFilter()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := s3store.New(ctx, settings.Profile, settings.Region,
		settings.Encryption.RecipientsFile, settings.Encryption.IdentitiesFile)
	if err != nil {
		log.Fatal(err)
	}

	eng := engine.New(store, afero.NewOsFs(), f)
	eng.SetRetries(uint64(settings.TransferRetries), settings.RetryWait())

	folders := settings.ToFolders()

	sched := scheduler.New(settings.SyncInterval())
	sched.UpdateFolders(folders)

	tasks := make(chan scheduler.Task)
	sched.Start(ctx, tasks)
	defer sched.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return

		case task := <-tasks:
			folder := &folders[task.FolderIndex]
			if !folder.Enabled {
				continue
			}

			result, err := eng.Sync(ctx, folder, settings.DeleteEnabled, nil)
			if err != nil {
				log.WithField("folder", folder.Path).WithError(err).Error("sync failed")
				continue
			}
			for _, msg := range result.Errors {
				log.WithField("folder", folder.Path).Error(msg)
			}
		}
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "settings.yml"
	}
	return filepath.Join(dir, "s3sync", "settings.yml")
}
