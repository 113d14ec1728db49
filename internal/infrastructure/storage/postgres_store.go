// Package storage implements the record store on Postgres for installations
// that keep the editorial table in their own database instead of Airtable.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

var recordColumns = []string{
	"id", "title", "brief", "pipeline_status", "article",
	"tags", "excerpt", "seo_keyword", "social_short", "social_thread",
	"video_script", "image_prompt", "categories",
	"release_approved", "publication_date", "featured_image_url", "published_url",
	"angle", "subject", "batch_id", "target_word_count", "priority_order",
	"headline_queue_id", "created_at",
}

// PostgresStore persists pipeline records in a single table.
type PostgresStore struct {
	db    *sql.DB
	table string
}

var _ ports.RecordStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	if table == "" {
		table = "records"
	}
	return &PostgresStore{db: db, table: table}
}

// Open connects to Postgres using the lib/pq driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// SelectWhere lists records matching the predicate.
func (s *PostgresStore) SelectWhere(ctx context.Context, q ports.Query) ([]domain.Record, error) {
	query, args, err := buildSelect(s.table, q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

// UpdateFields patches the named fields of one record.
func (s *PostgresStore) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	update := sq.Update(s.table).
		SetMap(toColumnValues(fields)).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar)

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update record %s: not found", id)
	}
	return nil
}

// FindByID fetches a single record.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (domain.Record, error) {
	query, args, err := sq.Select(recordColumns...).
		From(s.table).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return domain.Record{}, fmt.Errorf("build select: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	rec, err := scanRecord(row)
	if err != nil {
		return domain.Record{}, fmt.Errorf("find record %s: %w", id, err)
	}
	return rec, nil
}

// buildSelect translates the predicate model into a squirrel builder.
func buildSelect(table string, q ports.Query) sq.SelectBuilder {
	builder := sq.Select(recordColumns...).
		From(table).
		PlaceholderFormat(sq.Dollar)

	for _, clause := range q.Where {
		builder = builder.Where(clauseExpr(clause))
	}

	if q.OrderBy != "" {
		direction := " DESC"
		if q.Ascending {
			direction = " ASC"
		}
		builder = builder.OrderBy(q.OrderBy + direction)
	}
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}
	return builder
}

func clauseExpr(clause ports.Clause) sq.Sqlizer {
	switch clause.Op {
	case ports.OpEq:
		return sq.Eq{clause.Field: clause.Value}
	case ports.OpEmpty:
		return sq.Or{sq.Eq{clause.Field: nil}, sq.Eq{clause.Field: ""}}
	case ports.OpNotEmpty:
		return sq.And{sq.NotEq{clause.Field: nil}, sq.NotEq{clause.Field: ""}}
	case ports.OpIsTrue:
		return sq.Eq{clause.Field: true}
	case ports.OpOnOrBefore:
		return sq.LtOrEq{clause.Field: clause.Value}
	default:
		return sq.Expr("TRUE")
	}
}

func toColumnValues(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for name, value := range fields {
		if list, ok := value.([]string); ok {
			out[name] = pq.Array(list)
			continue
		}
		out[name] = value
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.Record, error) {
	var (
		rec             domain.Record
		tags            pq.StringArray
		categories      pq.StringArray
		approved        sql.NullBool
		publicationDate sql.NullTime
		createdAt       sql.NullTime
		nullable        = make([]sql.NullString, 16)
		wordCount       sql.NullInt64
		priority        sql.NullInt64
	)

	err := row.Scan(
		&rec.ID, &nullable[0], &nullable[1], &nullable[2], &nullable[3],
		&tags, &nullable[4], &nullable[5], &nullable[6], &nullable[7],
		&nullable[8], &nullable[9], &categories,
		&approved, &publicationDate, &nullable[10], &nullable[11],
		&nullable[12], &nullable[13], &nullable[14], &wordCount, &priority,
		&nullable[15], &createdAt,
	)
	if err != nil {
		return domain.Record{}, err
	}
	rec.ReleaseApproved = approved.Bool

	rec.Title = nullable[0].String
	rec.Brief = nullable[1].String
	rec.PipelineStatus = domain.PipelineStatus(nullable[2].String)
	rec.Article = nullable[3].String
	rec.Metadata = domain.DerivedMetadata{
		Tags:         tags,
		Excerpt:      nullable[4].String,
		SEOKeyword:   nullable[5].String,
		SocialShort:  nullable[6].String,
		SocialThread: nullable[7].String,
		VideoScript:  nullable[8].String,
		ImagePrompt:  nullable[9].String,
		Categories:   categories,
	}
	rec.SEOKeyword = nullable[5].String
	rec.FeaturedImage = nullable[10].String
	rec.PublishedURL = nullable[11].String
	rec.Angle = nullable[12].String
	rec.Subject = nullable[13].String
	rec.BatchID = nullable[14].String
	rec.HeadlineQueueID = nullable[15].String
	rec.TargetWordCount = int(wordCount.Int64)
	rec.PriorityOrder = int(priority.Int64)
	if publicationDate.Valid {
		date := publicationDate.Time
		rec.PublicationDate = &date
	}
	if createdAt.Valid {
		rec.CreatedAt = createdAt.Time
	}
	return rec, nil
}
