package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/araddon/dateparse"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"SLComply/internal/domain"
	"SLComply/internal/ports"
)

const (
	// DriverPostgres and DriverSQLite are the supported database/sql driver names.
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// DefaultTable is the change table written by the detection job.
	DefaultTable = "dependency_mapper_output"

	linkPrefix        = "sl"
	lastSubmitLayout  = "01/02/2006 15:04:05"
	revisionRawLayout = "2006-01-02"
)

// Column names of the change table.
const (
	colID                   = "id"
	colDocumentName         = "documentname"
	colDocumentType         = "documenttype"
	colSectionTitle         = "sectiontitle"
	colPageNumber           = "pagenumber"
	colCurrentRevision      = "currentrevision"
	colPreviousRevision     = "previousrevision"
	colRevisionNumber       = "revisionnumber"
	colPrevRevisionNumber   = "prevrevisionnumber"
	colChangeText           = "changetext"
	colPreviousParagraph    = "previousparagraph"
	colNextParagraph        = "nextparagraph"
	colRelevance            = "rel_model_pred"
	colReviewed             = "reviewed"
	colAddressed            = "addressed"
	colValidatedNotRelevant = "validatednotrelevant"
	colLastSubmit           = "lastsubmit"
)

var (
	tableExpr = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

	levelHalf = decimal.NewFromFloat(0.5)
	levelOne  = decimal.NewFromInt(1)
)

// SQLRepository reads the change table and writes review flags back to it.
type SQLRepository struct {
	db      *sqlx.DB
	table   string
	builder sq.StatementBuilderType
}

var (
	_ ports.ChangeSource = (*SQLRepository)(nil)
	_ ports.ChangeWriter = (*SQLRepository)(nil)
)

// Open connects to the database and verifies it is reachable.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// NewSQLRepository wires a repository over an open connection pool.
func NewSQLRepository(db *sqlx.DB, table string) (*SQLRepository, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableExpr.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	var placeholder sq.PlaceholderFormat = sq.Question
	if db.DriverName() == DriverPostgres {
		placeholder = sq.Dollar
	}

	return &SQLRepository{
		db:      db,
		table:   table,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}, nil
}

// LoadChanges reads every row of the change table. Columns prefixed with "SL"
// become related-document links; the set of those columns may vary between
// deployments.
func (r *SQLRepository) LoadChanges(ctx context.Context) ([]domain.Change, error) {
	query, args, err := r.builder.Select("*").From(r.table).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}

	var changes []domain.Change
	for rows.Next() {
		record := map[string]any{}
		if err := rows.MapScan(record); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan change: %w", err)
		}

		change, err := decodeChange(record, len(changes))
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("decode row %d: %w", len(changes), err)
		}
		changes = append(changes, change)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return changes, nil
}

// ApplyUpdates writes all persisted fields in a single transaction. The
// derived status field is not stored.
func (r *SQLRepository) ApplyUpdates(ctx context.Context, updates []domain.Update) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	for _, u := range updates {
		if !u.Field.Persisted() {
			continue
		}

		value, vErr := encodeValue(u.Value)
		if vErr != nil {
			return fmt.Errorf("update %d %s: %w", u.ID, u.Field, vErr)
		}

		query, args, bErr := r.builder.Update(r.table).
			Set(string(u.Field), value).
			Where(sq.Eq{"ID": u.ID}).
			ToSql()
		if bErr != nil {
			return fmt.Errorf("build update: %w", bErr)
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update %d %s: %w", u.ID, u.Field, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func encodeValue(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case time.Time:
		return v.Format(lastSubmitLayout), nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported value %T", value)
	}
}

func decodeChange(record map[string]any, row int) (domain.Change, error) {
	cols := make(map[string]any, len(record))
	var linkCols []string
	for name, value := range record {
		key := strings.ToLower(name)
		if strings.HasPrefix(key, linkPrefix) {
			linkCols = append(linkCols, name)
			continue
		}
		cols[key] = value
	}

	id, err := asInt(cols[colID])
	if err != nil {
		return domain.Change{}, fmt.Errorf("ID: %w", err)
	}
	page, err := asInt(cols[colPageNumber])
	if err != nil {
		return domain.Change{}, fmt.Errorf("pageNumber: %w", err)
	}
	relevance, _, err := asLevel(cols[colRelevance])
	if err != nil {
		return domain.Change{}, fmt.Errorf("rel_model_pred: %w", err)
	}

	change := domain.Change{
		ID:                   id,
		Row:                  row,
		DocumentName:         asString(cols[colDocumentName]),
		DocumentType:         asString(cols[colDocumentType]),
		SectionTitle:         asString(cols[colSectionTitle]),
		PageNumber:           int(page),
		CurrentRevisionRaw:   asString(cols[colCurrentRevision]),
		PreviousRevisionRaw:  asString(cols[colPreviousRevision]),
		RevisionNumber:       asString(cols[colRevisionNumber]),
		PrevRevisionNumber:   asString(cols[colPrevRevisionNumber]),
		ChangeText:           asString(cols[colChangeText]),
		PreviousParagraph:    asString(cols[colPreviousParagraph]),
		NextParagraph:        asString(cols[colNextParagraph]),
		Relevance:            relevance,
		Reviewed:             asBool(cols[colReviewed]),
		Addressed:            asBool(cols[colAddressed]),
		ValidatedNotRelevant: asBool(cols[colValidatedNotRelevant]),
	}

	if change.CurrentRevision, err = asTime(cols[colCurrentRevision]); err != nil {
		return domain.Change{}, fmt.Errorf("currentRevision: %w", err)
	}
	if change.PreviousRevision, err = asTime(cols[colPreviousRevision]); err != nil {
		return domain.Change{}, fmt.Errorf("previousRevision: %w", err)
	}
	if change.LastSubmit, err = asSubmitTime(cols[colLastSubmit]); err != nil {
		return domain.Change{}, fmt.Errorf("lastSubmit: %w", err)
	}

	sort.Strings(linkCols)
	for _, name := range linkCols {
		level, ok, err := asLevel(record[name])
		if err != nil {
			return domain.Change{}, fmt.Errorf("%s: %w", name, err)
		}
		if !ok {
			continue
		}
		if change.Links == nil {
			change.Links = make(map[string]domain.Level, len(linkCols))
		}
		change.Links[name] = level
	}

	return change, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(revisionRawLayout)
	default:
		return fmt.Sprint(t)
	}
}

func asDecimal(v any) (decimal.Decimal, bool, error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case int64:
		return decimal.NewFromInt(t), true, nil
	case float64:
		return decimal.NewFromFloat(t), true, nil
	case bool:
		if t {
			return levelOne, true, nil
		}
		return decimal.Zero, true, nil
	}

	s := strings.TrimSpace(asString(v))
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse number %q: %w", s, err)
	}
	return d, true, nil
}

func asInt(v any) (int64, error) {
	d, ok, err := asDecimal(v)
	if err != nil || !ok {
		return 0, err
	}
	return d.IntPart(), nil
}

// asLevel maps a numeric cell onto a relevance level; absent cells report ok=false.
func asLevel(v any) (domain.Level, bool, error) {
	d, ok, err := asDecimal(v)
	if err != nil || !ok {
		return domain.LevelNone, false, err
	}
	switch {
	case d.IsZero():
		return domain.LevelNone, true, nil
	case d.Equal(levelHalf):
		return domain.LevelSoft, true, nil
	case d.Equal(levelOne):
		return domain.LevelStrong, true, nil
	default:
		return domain.LevelNone, false, fmt.Errorf("relevance %s outside {0, 0.5, 1}", d)
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	b, err := strconv.ParseBool(strings.TrimSpace(asString(v)))
	return err == nil && b
}

// asTime parses stored revision dates. Ambiguous numeric dates are read day
// first.
func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	}

	s := strings.TrimSpace(asString(v))
	if s == "" || strings.EqualFold(s, "nat") {
		return time.Time{}, nil
	}
	for _, layout := range []string{revisionRawLayout, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// asSubmitTime parses the lastSubmit stamp, which ApplyUpdates writes month
// first. Other values fall back to asTime.
func asSubmitTime(v any) (time.Time, error) {
	switch v.(type) {
	case string, []byte:
		s := strings.TrimSpace(asString(v))
		if t, err := time.ParseInLocation(lastSubmitLayout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return asTime(v)
}
