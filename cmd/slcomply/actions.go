package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"SLComply/internal/domain"
	"SLComply/internal/pipeline"
)

func RefreshAction(c *cli.Context) error {
	application, err := openRefreshed(c)
	if err != nil {
		return err
	}
	defer application.Close()

	snap := application.Service().Snapshot()
	fmt.Fprintf(c.App.Writer, "snapshot %s: %s changes, %s relations, %d rejected columns\n",
		snap.Version,
		humanize.Comma(int64(len(snap.Changes))),
		humanize.Comma(int64(len(snap.Relations))),
		len(snap.Registry.Rejected()))
	return nil
}

func DocsAction(c *cli.Context) error {
	application, err := openRefreshed(c)
	if err != nil {
		return err
	}
	defer application.Close()

	if c.Bool("related") {
		related, err := application.Service().RelatedDocuments(c.String("type"))
		if err != nil {
			return err
		}
		return printJSON(c, map[string][]string{"related": related})
	}

	docs, err := application.Service().Documents(c.String("type"))
	if err != nil {
		return err
	}
	return printJSON(c, map[string][]string{"docs": docs})
}

func SectionsAction(c *cli.Context) error {
	application, err := openRefreshed(c)
	if err != nil {
		return err
	}
	defer application.Close()

	sections, err := application.Service().Sections(c.String("type"), c.String("doc"), c.String("recency"))
	if err != nil {
		return err
	}
	return printJSON(c, sections)
}

func DetailAction(c *cli.Context) error {
	application, err := openRefreshed(c)
	if err != nil {
		return err
	}
	defer application.Close()

	detail, err := application.Service().Detail(c.Context, pipeline.DetailQuery{
		DocType:   c.String("type"),
		Document:  c.String("doc"),
		Recency:   c.String("recency"),
		Section:   c.String("section"),
		Relevance: c.String("relevance"),
	})
	if err != nil {
		return err
	}
	return printJSON(c, detail)
}

func SaveAction(c *cli.Context) error {
	batch, err := parseEdits(c.Args().Slice())
	if err != nil {
		return err
	}

	application, err := openRefreshed(c)
	if err != nil {
		return err
	}
	defer application.Close()

	result, err := application.Service().SaveStatuses(c.Context, batch)
	if result.Message != "" {
		fmt.Fprintln(c.App.Writer, result.Message)
	}
	return err
}

// parseEdits reads ID=status arguments.
func parseEdits(args []string) ([]domain.StatusEdit, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no edits given, expected ID=status")
	}

	batch := make([]domain.StatusEdit, 0, len(args))
	for _, arg := range args {
		rawID, status, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("edit %q: expected ID=status", arg)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("edit %q: %w", arg, err)
		}
		batch = append(batch, domain.StatusEdit{ID: id, Value: status})
	}
	return batch, nil
}

func StatsAction(c *cli.Context) error {
	var since time.Time
	if raw := c.String("since"); raw != "" {
		t, err := time.Parse(pipeline.DateLayout, raw)
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
		since = t
	}

	application, err := openRefreshed(c)
	if err != nil {
		return err
	}
	defer application.Close()

	svc := application.Service()
	backlog := svc.BacklogStats(since)
	w := c.App.Writer

	fmt.Fprintf(w, "Backlog: %d not started, %d reviewed, %d addressed\n\n",
		backlog.NotStarted, backlog.Reviewed, backlog.Addressed)

	fmt.Fprintf(w, "%-40s %-8s %-12s %-16s %-9s %-9s %-9s\n",
		"Document", "Type", "Revised", "Age", "Relevant", "Maybe", "Not")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, doc := range svc.TopRecentStats(c.Int("top")) {
		fmt.Fprintf(w, "%-40s %-8s %-12s %-16s %-9d %-9d %-9d\n",
			doc.Document,
			doc.Category,
			doc.FormattedDate,
			humanize.Time(doc.RevisionDate),
			doc.Relevant,
			doc.MaybeRelevant,
			doc.NotRelevant,
		)
	}
	return nil
}

func TreeAction(c *cli.Context) error {
	application, err := openRefreshed(c)
	if err != nil {
		return err
	}
	defer application.Close()

	view, err := application.Service().HierarchyView(c.Context,
		c.String("type"), c.String("doc"), c.String("link"), c.String("recency"))
	if err != nil {
		return err
	}
	return printJSON(c, view)
}

func FlowAction(c *cli.Context) error {
	application, err := openRefreshed(c)
	if err != nil {
		return err
	}
	defer application.Close()

	view, err := application.Service().FlowView(c.Context, c.String("type"), c.String("link"), c.String("recency"))
	if err != nil {
		return err
	}
	return printJSON(c, view)
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
