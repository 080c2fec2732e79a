package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andresuchdata/stockpilot/internal/app"
	"github.com/andresuchdata/stockpilot/internal/config"
	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/andresuchdata/stockpilot/internal/drive"
	"github.com/andresuchdata/stockpilot/internal/pipeline"
	"github.com/andresuchdata/stockpilot/internal/storage"
	"github.com/andresuchdata/stockpilot/pkg/logger"
	"github.com/urfave/cli/v2"
)

type appKey struct{}

// newApp builds the CLI. Configuration comes from the environment (and
// .env) exactly as for the server; flags override single values.
func newApp() *cli.App {
	return &cli.App{
		Name:  "stockctl",
		Usage: "Import marketplace sheets and inspect inventory risk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "Record store backend (memory, redis, postgres)",
				EnvVars: []string{"STORE_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: initApp,
		After:  closeApp,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Ingest one file into a dataset (sales, master, inbound or auto)",
				ArgsUsage: "<kind> <file>",
				Action:    runImport,
			},
			{
				Name:      "import-dir",
				Usage:     "Ingest every sheet in a directory, classified by file name",
				ArgsUsage: "<dir>",
				Action:    runImportDir,
			},
			{
				Name:  "sync-bucket",
				Usage: "Ingest every sheet under a prefix of the S3 bucket",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "prefix",
						Usage:   "Object key prefix to import",
						EnvVars: []string{"S3_IMPORT_PREFIX"},
					},
				},
				Action: runSyncBucket,
			},
			{
				Name:  "sync-drive",
				Usage: "Ingest every sheet in a Google Drive folder",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "folder",
						Usage:   "Drive folder id",
						EnvVars: []string{"DRIVE_FOLDER_ID"},
					},
					&cli.StringFlag{
						Name:  "path",
						Usage: "Drive folder path from root, instead of --folder",
					},
				},
				Action: runSyncDrive,
			},
			{
				Name:  "risks",
				Usage: "Print the inventory risk list as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "Only Danger, Warning or Safe"},
				},
				Action: runRisks,
			},
			{
				Name:   "dashboard",
				Usage:  "Print dashboard stats as JSON",
				Action: runDashboard,
			},
			{
				Name:   "clear",
				Usage:  "Delete every persisted record set",
				Action: runClear,
			},
		},
	}
}

func initApp(c *cli.Context) error {
	logger.SetLevel(c.String("log-level"))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if b := c.String("backend"); b != "" {
		cfg.Store.Backend = b
	}

	a, err := app.New(c.Context, cfg)
	if err != nil {
		return err
	}
	c.Context = context.WithValue(c.Context, appKey{}, a)
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.Context.Value(appKey{}).(*app.App); ok && a != nil {
		a.Close()
	}
	return nil
}

func appFrom(c *cli.Context) *app.App {
	return c.Context.Value(appKey{}).(*app.App)
}

func runImport(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: stockctl import <kind> <file>", 2)
	}
	label, path := c.Args().Get(0), c.Args().Get(1)

	kind := domain.DetectKind(path)
	if label != "auto" {
		var err error
		if kind, err = domain.ParseDatasetKind(label); err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	result, err := appFrom(c).Uploads.Upload(c.Context, kind, filepath.Base(path), data)
	if err != nil {
		return err
	}
	if err := printJSON(c.App.Writer, result); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return cli.Exit("upload rejected", 1)
	}
	return nil
}

func runImportDir(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: stockctl import-dir <dir>", 2)
	}
	sources, err := pipeline.LocalDir(c.Args().First())
	if err != nil {
		return err
	}
	return importSources(c, sources)
}

func runSyncBucket(c *cli.Context) error {
	a := appFrom(c)
	if a.Storage == nil {
		return cli.Exit("S3_ENDPOINT and S3_BUCKET must be set", 2)
	}
	sources, err := storage.BucketSources(c.Context, a.Storage, c.String("prefix"))
	if err != nil {
		return err
	}
	return importSources(c, sources)
}

func runSyncDrive(c *cli.Context) error {
	a := appFrom(c)
	if a.Drive == nil {
		return cli.Exit("DRIVE_CREDENTIALS_JSON must be set", 2)
	}

	folderID := c.String("folder")
	if p := c.String("path"); p != "" {
		id, err := a.Drive.FindFolderByPath(c.Context, p)
		if err != nil {
			return err
		}
		folderID = id
	}

	sources, err := a.Drive.FolderSources(c.Context, folderID)
	if err != nil {
		return err
	}
	return importSources(c, drive.SelectSources(sources, c.Args().Slice()))
}

func importSources(c *cli.Context, sources []pipeline.Source) error {
	if len(sources) == 0 {
		fmt.Fprintln(c.App.ErrWriter, "no importable files found")
		return nil
	}

	results, err := appFrom(c).Importer.Import(c.Context, sources)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, results)
}

func runRisks(c *cli.Context) error {
	risks, err := appFrom(c).Analytics.Risks(c.Context)
	if err != nil {
		return err
	}
	if status := c.String("status"); status != "" {
		filtered := risks[:0]
		for _, r := range risks {
			if string(r.Status) == status {
				filtered = append(filtered, r)
			}
		}
		risks = filtered
	}
	return printJSON(c.App.Writer, risks)
}

func runDashboard(c *cli.Context) error {
	stats, err := appFrom(c).Analytics.Dashboard(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, stats)
}

func runClear(c *cli.Context) error {
	if err := appFrom(c).Uploads.Clear(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "cleared")
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
