package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/studio1767/s3sync/internal/config"
	"github.com/studio1767/s3sync/internal/engine"
	"github.com/studio1767/s3sync/internal/s3store"
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

	if flag.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "Error: incorrect arguments provided\n")
		flag.Usage()
		os.Exit(1)
	}

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	settings, err := config.Load(*cfgfile)
	if err != nil {
		log.Fatal(err)
	}

	f, err := settings.BuildFilter()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	store, err := s3store.New(ctx, settings.Profile, settings.Region,
		settings.Encryption.RecipientsFile, settings.Encryption.IdentitiesFile)
	if err != nil {
		log.Fatal(err)
	}

	eng := engine.New(store, afero.NewOsFs(), f)
	eng.SetRetries(uint64(settings.TransferRetries), settings.RetryWait())

	folders := settings.ToFolders()

	failed := false
	for i := range folders {
		folder := &folders[i]

		fmt.Printf("--------------------------------------------------------------\n")
		if !folder.Enabled {
			fmt.Printf("Skipping %s (disabled)\n", folder.Path)
			continue
		}
		fmt.Printf("Syncing %s -> s3://%s/%s\n", folder.Path, folder.Bucket, folder.Prefix)

		var progress engine.ProgressFunc
		if *verbose {
			progress = func(p engine.Progress) {
				fmt.Printf("\r- %s: %5.1f%% (%s)", p.FileName, p.Percentage,
					humanize.Bytes(uint64(p.BytesTransferred)))
				if p.Percentage >= 100.0 {
					fmt.Println()
				}
			}
		}

		result, err := eng.Sync(ctx, folder, settings.DeleteEnabled, progress)
		if err != nil {
			fmt.Printf("Error: %s\n", err)
			failed = true
			continue
		}

		printSummary(result)
		if len(result.Errors) > 0 {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

func printSummary(result *engine.Result) {
	fmt.Println()
	fmt.Printf("Sync Summary\n")
	fmt.Printf("     uploaded: %d\n", result.Uploaded)
	fmt.Printf("   downloaded: %d\n", result.Downloaded)
	fmt.Printf("      deleted: %d\n", result.Deleted)
	fmt.Printf("  transferred: %s\n", humanize.Bytes(uint64(result.BytesTransferred)))
	fmt.Printf("       errors: %d\n", len(result.Errors))
	for _, msg := range result.Errors {
		fmt.Printf("- %s\n", msg)
	}
	fmt.Println()
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "settings.yml"
	}
	return filepath.Join(dir, "s3sync", "settings.yml")
}
