// Package sqlstore implements recordstore.API on top of a SQL database, for
// deployments that keep Functions and Secrets in their own PostgreSQL or MySQL
// instance instead of the hosted record store.
//
// All collections share one table:
//
//	CREATE TABLE records (
//	    id          BIGSERIAL PRIMARY KEY,      -- BIGINT AUTO_INCREMENT on MySQL
//	    collection  VARCHAR(128) NOT NULL,
//	    data        TEXT NOT NULL,              -- JSON object of record fields
//	    created_on  TIMESTAMP NOT NULL,
//	    modified_on TIMESTAMP NOT NULL
//	);
//
// Batch writes are applied entry by entry so that one invalid record does not
// reject its siblings, matching the hosted store's partial-success contract.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	// Import supported SQL drivers
	"github.com/go-sql-driver/mysql" // MySQL
	_ "github.com/lib/pq"            // PostgreSQL

	"github.com/systmms/fnconsole/pkg/recordstore"
)

// Store-maintained field names.
const (
	FieldID         = "Id"
	FieldName       = "Name"
	FieldCreatedOn  = "CreatedOn"
	FieldModifiedOn = "ModifiedOn"
)

type dialect struct {
	driver    string
	returning bool
	bind      func(n int) string
}

var dialects = map[string]dialect{
	"postgres": {
		driver:    "postgres",
		returning: true,
		bind:      func(n int) string { return fmt.Sprintf("$%d", n) },
	},
	"mysql": {
		driver: "mysql",
		bind:   func(int) string { return "?" },
	},
}

var driverAliases = map[string]string{
	"postgresql": "postgres",
	"postgres":   "postgres",
	"mysql":      "mysql",
	"mariadb":    "mysql",
}

// Store is a SQL-backed recordstore.API.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Open connects to the database named by driver and dsn
func Open(driver, dsn string) (*Store, error) {
	name, ok := driverAliases[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	dsn, err := normalizeDSN(name, dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	return New(db, name)
}

// normalizeDSN makes MySQL return DATETIME columns as UTC time.Time values,
// which the row scanner requires.
func normalizeDSN(driver, dsn string) (string, error) {
	if driver != "mysql" {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// New wraps an existing *sql.DB. driver selects the SQL dialect.
func New(db *sql.DB, driver string) (*Store, error) {
	name, ok := driverAliases[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return &Store{
		db:      db,
		dialect: dialects[name],
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the timestamp source. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var sortColumns = map[string]string{
	FieldID:         "id",
	FieldCreatedOn:  "created_on",
	FieldModifiedOn: "modified_on",
}

// FetchRecords lists records of a collection
func (s *Store) FetchRecords(ctx context.Context, table string, q recordstore.Query) (*recordstore.Response, error) {
	b := s.dialect.bind
	query := fmt.Sprintf("SELECT id, data, created_on, modified_on FROM records WHERE collection = %s", b(1))
	args := []any{table}

	if len(q.OrderBy) > 0 {
		var clauses []string
		for _, o := range q.OrderBy {
			col, ok := sortColumns[o.FieldName]
			if !ok {
				return &recordstore.Response{Success: false, Message: fmt.Sprintf("Cannot sort by field %s", o.FieldName)}, nil
			}
			dir := "ASC"
			if strings.EqualFold(o.SortType, recordstore.SortDesc) {
				dir = "DESC"
			}
			clauses = append(clauses, col+" "+dir)
		}
		query += " ORDER BY " + strings.Join(clauses, ", ")
	}

	if q.PagingInfo != nil && q.PagingInfo.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %s OFFSET %s", b(2), b(3))
		args = append(args, q.PagingInfo.Limit, q.PagingInfo.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	fields := q.FieldNames()
	records := []recordstore.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, project(rec, fields))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return &recordstore.Response{Success: true, Data: data}, nil
}

// GetRecordByID fetches one record
func (s *Store) GetRecordByID(ctx context.Context, table string, id int64, q recordstore.Query) (*recordstore.Response, error) {
	rec, err := s.load(ctx, table, id)
	if errors.Is(err, sql.ErrNoRows) {
		return &recordstore.Response{Success: false, Message: recordstore.MessageRecordNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(project(rec, q.FieldNames()))
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return &recordstore.Response{Success: true, Data: data}, nil
}

// CreateRecord inserts each record of the batch
func (s *Store) CreateRecord(ctx context.Context, table string, req recordstore.RecordsRequest) (*recordstore.Response, error) {
	resp := &recordstore.Response{Success: true}
	for _, in := range req.Records {
		res, err := s.createOne(ctx, table, in)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, res)
	}
	return resp, nil
}

func (s *Store) createOne(ctx context.Context, table string, in recordstore.Record) (recordstore.BatchResult, error) {
	if name, _ := in[FieldName].(string); strings.TrimSpace(name) == "" {
		return recordstore.BatchResult{
			Errors: []recordstore.FieldError{{FieldLabel: FieldName, Message: "Name is required"}},
		}, nil
	}

	fields := stripManaged(in)
	data, err := json.Marshal(fields)
	if err != nil {
		return recordstore.BatchResult{Message: fmt.Sprintf("Invalid record: %v", err)}, nil
	}

	now := s.now()
	b := s.dialect.bind
	query := fmt.Sprintf("INSERT INTO records (collection, data, created_on, modified_on) VALUES (%s, %s, %s, %s)", b(1), b(2), b(3), b(4))

	var id int64
	if s.dialect.returning {
		err = s.db.QueryRowContext(ctx, query+" RETURNING id", table, string(data), now, now).Scan(&id)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, query, table, string(data), now, now)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}
	if err != nil {
		return recordstore.BatchResult{}, fmt.Errorf("failed to insert record: %w", err)
	}

	return okResult(withManaged(fields, id, now, now))
}

// UpdateRecord merges each record of the batch into its stored version
func (s *Store) UpdateRecord(ctx context.Context, table string, req recordstore.RecordsRequest) (*recordstore.Response, error) {
	resp := &recordstore.Response{Success: true}
	for _, in := range req.Records {
		res, err := s.updateOne(ctx, table, in)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, res)
	}
	return resp, nil
}

func (s *Store) updateOne(ctx context.Context, table string, in recordstore.Record) (recordstore.BatchResult, error) {
	id, ok := toID(in[FieldID])
	if !ok {
		return recordstore.BatchResult{
			Errors: []recordstore.FieldError{{FieldLabel: FieldID, Message: "Id is required"}},
		}, nil
	}
	if name, present := in[FieldName]; present {
		if n, _ := name.(string); strings.TrimSpace(n) == "" {
			return recordstore.BatchResult{
				Errors: []recordstore.FieldError{{FieldLabel: FieldName, Message: "Name cannot be empty"}},
			}, nil
		}
	}

	existing, err := s.load(ctx, table, id)
	if errors.Is(err, sql.ErrNoRows) {
		return recordstore.BatchResult{Message: fmt.Sprintf("Record %d not found", id)}, nil
	}
	if err != nil {
		return recordstore.BatchResult{}, err
	}

	created, _ := existing[FieldCreatedOn].(time.Time)
	merged := stripManaged(existing)
	for k, v := range stripManaged(in) {
		merged[k] = v
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return recordstore.BatchResult{Message: fmt.Sprintf("Invalid record: %v", err)}, nil
	}

	now := s.now()
	b := s.dialect.bind
	query := fmt.Sprintf("UPDATE records SET data = %s, modified_on = %s WHERE collection = %s AND id = %s", b(1), b(2), b(3), b(4))
	if _, err := s.db.ExecContext(ctx, query, string(data), now, table, id); err != nil {
		return recordstore.BatchResult{}, fmt.Errorf("failed to update record: %w", err)
	}

	return okResult(withManaged(merged, id, created, now))
}

// DeleteRecord removes each listed id
func (s *Store) DeleteRecord(ctx context.Context, table string, req recordstore.DeleteRequest) (*recordstore.Response, error) {
	b := s.dialect.bind
	query := fmt.Sprintf("DELETE FROM records WHERE collection = %s AND id = %s", b(1), b(2))

	resp := &recordstore.Response{Success: true}
	for _, id := range req.RecordIds {
		res, err := s.db.ExecContext(ctx, query, table, id)
		if err != nil {
			return nil, fmt.Errorf("failed to delete record: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to delete record: %w", err)
		}
		if n == 0 {
			resp.Results = append(resp.Results, recordstore.BatchResult{Message: fmt.Sprintf("Record %d not found", id)})
			continue
		}
		resp.Results = append(resp.Results, recordstore.BatchResult{Success: true})
	}
	return resp, nil
}

func (s *Store) load(ctx context.Context, table string, id int64) (recordstore.Record, error) {
	b := s.dialect.bind
	query := fmt.Sprintf("SELECT id, data, created_on, modified_on FROM records WHERE collection = %s AND id = %s", b(1), b(2))
	rows, err := s.db.QueryContext(ctx, query, table, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		return nil, sql.ErrNoRows
	}
	return scanRecord(rows)
}

func scanRecord(rows *sql.Rows) (recordstore.Record, error) {
	var (
		id                int64
		data              string
		created, modified time.Time
	)
	if err := rows.Scan(&id, &data, &created, &modified); err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	fields := recordstore.Record{}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("record %d has invalid data: %w", id, err)
	}
	return withManaged(fields, id, created, modified), nil
}

// project keeps the declared fields plus Id. An empty declaration keeps all.
func project(rec recordstore.Record, fields []string) recordstore.Record {
	if len(fields) == 0 {
		return rec
	}
	out := recordstore.Record{FieldID: rec[FieldID]}
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}

func stripManaged(in recordstore.Record) recordstore.Record {
	out := make(recordstore.Record, len(in))
	for k, v := range in {
		switch k {
		case FieldID, FieldCreatedOn, FieldModifiedOn:
			continue
		}
		out[k] = v
	}
	return out
}

func withManaged(fields recordstore.Record, id int64, created, modified time.Time) recordstore.Record {
	out := make(recordstore.Record, len(fields)+3)
	for k, v := range fields {
		out[k] = v
	}
	out[FieldID] = id
	out[FieldCreatedOn] = created
	out[FieldModifiedOn] = modified
	return out
}

func okResult(rec recordstore.Record) (recordstore.BatchResult, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return recordstore.BatchResult{}, fmt.Errorf("failed to encode record: %w", err)
	}
	return recordstore.BatchResult{Success: true, Data: data}, nil
}

func toID(v any) (int64, bool) {
	switch id := v.(type) {
	case int64:
		return id, id > 0
	case int:
		return int64(id), id > 0
	case float64:
		return int64(id), id > 0
	case json.Number:
		n, err := id.Int64()
		return n, err == nil && n > 0
	}
	return 0, false
}

// Ensure Store implements recordstore.API
var _ recordstore.API = (*Store)(nil)
