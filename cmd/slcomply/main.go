package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"SLComply/internal/app"
	"SLComply/internal/config"
	"SLComply/internal/logging"
	"SLComply/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "slcomply",
		Usage: "review detected document changes against the SL library",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "refresh on the configured interval until interrupted",
				Action: RunAction,
			},
			{
				Name:   "refresh",
				Usage:  "rebuild the snapshot once and report its size",
				Action: RefreshAction,
			},
			{
				Name:   "options",
				Usage:  "list the accepted option values",
				Action: OptionsAction,
			},
			{
				Name:  "docs",
				Usage: "list documents of a type",
				Flags: []cli.Flag{
					docTypeFlag(),
					&cli.BoolFlag{Name: "related", Usage: "list the related documents linked from the type instead"},
				},
				Action: DocsAction,
			},
			{
				Name:   "sections",
				Usage:  "list the section titles of a document",
				Flags:  []cli.Flag{docTypeFlag(), documentFlag(), recencyFlag()},
				Action: SectionsAction,
			},
			{
				Name:  "detail",
				Usage: "print the change table for a document",
				Flags: []cli.Flag{
					docTypeFlag(), documentFlag(), recencyFlag(),
					&cli.StringFlag{Name: "section", Aliases: []string{"s"}, Value: "All", Usage: "section title or All"},
					&cli.StringFlag{Name: "relevance", Value: "all", Usage: "relevance class"},
				},
				Action: DetailAction,
			},
			{
				Name:      "save",
				Usage:     "save statuses given as ID=status pairs",
				ArgsUsage: "ID=status [ID=status ...]",
				Action:    SaveAction,
			},
			{
				Name:  "stats",
				Usage: "print backlog and recent-document statistics",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "since", Usage: "backlog start date (YYYY-MM-DD)"},
					&cli.IntFlag{Name: "top", Value: 3, Usage: "number of recent documents"},
				},
				Action: StatsAction,
			},
			{
				Name:   "tree",
				Usage:  "print the hierarchy view of a document",
				Flags:  []cli.Flag{docTypeFlag(), documentFlag(), linkFlag(), recencyFlag()},
				Action: TreeAction,
			},
			{
				Name:   "flow",
				Usage:  "print the flow view of a document type",
				Flags:  []cli.Flag{docTypeFlag(), linkFlag(), recencyFlag()},
				Action: FlowAction,
			},
		},
	}
}

func docTypeFlag() cli.Flag {
	return &cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "Legislation", Usage: "document type (Legislation or Guidance)"}
}

func documentFlag() cli.Flag {
	return &cli.StringFlag{Name: "doc", Aliases: []string{"d"}, Required: true, Usage: "document name"}
}

func recencyFlag() cli.Flag {
	return &cli.StringFlag{Name: "recency", Aliases: []string{"r"}, Value: "Historical", Usage: "recency period"}
}

func linkFlag() cli.Flag {
	return &cli.StringFlag{Name: "link", Aliases: []string{"l"}, Value: "Strong", Usage: "link relevance (Strong or Soft)"}
}

// open loads the configuration and wires the application.
func open(c *cli.Context) (*app.Application, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(c.Context, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	return application, nil
}

// openRefreshed is open followed by one refresh, for the one-shot commands.
func openRefreshed(c *cli.Context) (*app.Application, error) {
	application, err := open(c)
	if err != nil {
		return nil, err
	}
	if err := application.Refresh(c.Context); err != nil {
		_ = application.Close()
		return nil, fmt.Errorf("failed to load changes: %w", err)
	}
	return application, nil
}

func RunAction(c *cli.Context) error {
	application, err := open(c)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Run(c.Context)
}

func OptionsAction(c *cli.Context) error {
	return printJSON(c, map[string][]string{
		"doc_types":       pipeline.DocTypes,
		"recency_periods": pipeline.RecencyPeriods,
		"relevance":       pipeline.RelevanceClasses,
		"link_rel_types":  pipeline.LinkRelevanceTypes,
		"status":          pipeline.StatusLabels,
	})
}
