package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "nasarchive",
		Usage: "Inventory archive units below a root and keep them synced to cold storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "configfile",
				Aliases:  []string{"c"},
				Usage:    "Configuration File Path",
				Required: true,
				EnvVars:  []string{"NASARCHIVE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "scan",
				Usage:  "Scan archive units and refresh the record store",
				Action: withHandler(false, scanCommand),
			},
			{
				Name:   "upload",
				Usage:  "Upload and verify units approved for upload",
				Flags:  []cli.Flag{progressFlag},
				Action: withHandler(true, uploadCommand),
			},
			{
				Name:   "run",
				Usage:  "Scan, then upload and verify approved units",
				Flags:  []cli.Flag{progressFlag},
				Action: withHandler(true, runCommand),
			},
			{
				Name:      "approve",
				Usage:     "Approve units for upload",
				ArgsUsage: "<unit path>...",
				Action:    withHandler(false, approveCommand),
			},
			{
				Name:  "status",
				Usage: "Show the record store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "only show units in this status",
					},
				},
				Action: withHandler(false, statusCommand),
			},
			{
				Name:   "daemon",
				Usage:  "Run scan and upload on the configured schedule",
				Action: withHandler(true, daemonCommand),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var progressFlag = &cli.BoolFlag{
	Name:  "progress",
	Usage: "render a progress bar per unit",
}

type handlerAction func(ctx context.Context, c *cli.Context, h *ArchiveHandler) error

// withHandler loads the configuration and builds the handler for a command.
func withHandler(needsClient bool, action handlerAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		appConfig, err := LoadConfig(c.String("configfile"))
		if err != nil {
			return err
		}
		logFile, err := setupLogging(appConfig.Log)
		if err != nil {
			return err
		}
		if logFile != nil {
			defer logFile.Close()
		}
		for _, line := range appConfig.ConfigStringArray() {
			log.Debug(line)
		}

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		fs := afero.NewOsFs()
		persister, err := appConfig.PersisterFromConfig(fs)
		if err != nil {
			return err
		}

		var client BucketClient
		if needsClient {
			if client, err = appConfig.ClientFromConfig(ctx); err != nil {
				return err
			}
		}

		var notifier Notifier
		if appConfig.Notify.ID != "" {
			if notifier, err = NewSNSNotifier(ctx, appConfig.Notify); err != nil {
				return fmt.Errorf("creating notifier: %w", err)
			}
		}

		handler, err := NewArchiveHandler(appConfig, fs, client, persister, clockwork.NewRealClock(), notifier)
		if err != nil {
			return err
		}
		defer handler.Close()
		if c.Bool("progress") {
			handler.WithProgress(newBarObserver(os.Stdout))
		}

		return action(ctx, c, handler)
	}
}

func scanCommand(ctx context.Context, c *cli.Context, h *ArchiveHandler) error {
	_, err := h.Scan(ctx)
	return err
}

func uploadCommand(ctx context.Context, c *cli.Context, h *ArchiveHandler) error {
	results, err := h.Upload(ctx)
	if err != nil {
		return err
	}
	return printResults(c.App.Writer, results)
}

func runCommand(ctx context.Context, c *cli.Context, h *ArchiveHandler) error {
	_, results, err := h.Run(ctx)
	if err != nil {
		return err
	}
	return printResults(c.App.Writer, results)
}

func approveCommand(ctx context.Context, c *cli.Context, h *ArchiveHandler) error {
	if c.NArg() == 0 {
		return fmt.Errorf("approve needs at least one unit path")
	}
	for _, path := range c.Args().Slice() {
		if err := h.Approve(path); err != nil {
			return err
		}
	}
	return nil
}

func statusCommand(ctx context.Context, c *cli.Context, h *ArchiveHandler) error {
	var filter Status
	if s := c.String("status"); s != "" {
		var err error
		if filter, err = ParseStatus(s); err != nil {
			return err
		}
	}
	return printStatus(c.App.Writer, h.Store().Records(), filter)
}

func daemonCommand(ctx context.Context, c *cli.Context, h *ArchiveHandler) error {
	return runSchedule(ctx, h, h.appConfig.Schedule)
}
