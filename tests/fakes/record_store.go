package fakes

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/systmms/fnconsole/pkg/recordstore"
)

// Operation names accepted by WithError, WithResponse and WithHook.
const (
	OpFetch  = "fetch"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Call records one invocation of the fake.
type Call struct {
	Op        string
	Table     string
	ID        int64
	Query     recordstore.Query
	Records   []recordstore.Record
	RecordIDs []int64
}

type storedRecord struct {
	rec recordstore.Record
	seq int
}

// FakeRecordStore is an in-memory recordstore.API.
//
// It behaves like the hosted store closely enough for client and controller
// tests: ids are assigned on create, ModifiedOn is stamped on every write,
// fetches honour the declared fields, ordering and paging, and batch writes
// answer with one result per entry. Canned responses, transport errors and
// hooks can be injected per operation.
//
//	store := fakes.NewFakeRecordStore().
//	    WithRecord("secret", recordstore.Record{"Name": "API_KEY", "value": "abc"}).
//	    WithError(fakes.OpFetch, errors.New("connection refused"))
type FakeRecordStore struct {
	mu sync.Mutex

	tables map[string]map[int64]*storedRecord
	nextID int64
	seq    int
	now    time.Time

	errs      map[string]error
	responses map[string]*recordstore.Response
	hooks     map[string]func(ctx context.Context)
	calls     []Call
}

var _ recordstore.API = (*FakeRecordStore)(nil)

// NewFakeRecordStore creates an empty store whose clock starts at a fixed
// instant and advances one second per write.
func NewFakeRecordStore() *FakeRecordStore {
	return &FakeRecordStore{
		tables:    make(map[string]map[int64]*storedRecord),
		nextID:    1,
		now:       time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		errs:      make(map[string]error),
		responses: make(map[string]*recordstore.Response),
		hooks:     make(map[string]func(ctx context.Context)),
	}
}

// WithRecord seeds table with rec. An Id is assigned when rec has none.
func (f *FakeRecordStore) WithRecord(table string, rec recordstore.Record) *FakeRecordStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec = copyRecord(rec)
	id := recordID(rec["Id"])
	if id == 0 {
		id = f.nextID
	}
	if id >= f.nextID {
		f.nextID = id + 1
	}
	rec["Id"] = id
	f.stamp(rec, true)
	f.table(table)[id] = &storedRecord{rec: rec, seq: f.seq}
	return f
}

// WithError makes op fail with err as a transport error until cleared with nil.
func (f *FakeRecordStore) WithError(op string, err error) *FakeRecordStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
	} else {
		f.errs[op] = err
	}
	return f
}

// WithResponse makes op answer with resp, bypassing the in-memory tables,
// until cleared with nil.
func (f *FakeRecordStore) WithResponse(op string, resp *recordstore.Response) *FakeRecordStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	if resp == nil {
		delete(f.responses, op)
	} else {
		f.responses[op] = resp
	}
	return f
}

// WithHook runs fn at the start of every op call, outside the fake's lock.
func (f *FakeRecordStore) WithHook(op string, fn func(ctx context.Context)) *FakeRecordStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fn == nil {
		delete(f.hooks, op)
	} else {
		f.hooks[op] = fn
	}
	return f
}

// Calls returns every recorded invocation in order.
func (f *FakeRecordStore) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times op was invoked.
func (f *FakeRecordStore) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// LastCall returns the most recent invocation of op.
func (f *FakeRecordStore) LastCall(op string) (Call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Op == op {
			return f.calls[i], true
		}
	}
	return Call{}, false
}

// Record returns a copy of the stored record.
func (f *FakeRecordStore) Record(table string, id int64) (recordstore.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sr, ok := f.tables[table][id]
	if !ok {
		return nil, false
	}
	return copyRecord(sr.rec), true
}

// Len returns the number of records in table.
func (f *FakeRecordStore) Len(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

// FetchRecords implements recordstore.API.
func (f *FakeRecordStore) FetchRecords(ctx context.Context, table string, q recordstore.Query) (*recordstore.Response, error) {
	if resp, err, done := f.begin(ctx, Call{Op: OpFetch, Table: table, Query: q}); done {
		return resp, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entries := make([]*storedRecord, 0, len(f.tables[table]))
	for _, sr := range f.tables[table] {
		entries = append(entries, sr)
	}

	desc := true
	if len(q.OrderBy) > 0 && strings.EqualFold(q.OrderBy[0].SortType, recordstore.SortAsc) {
		desc = false
	}
	sort.Slice(entries, func(i, j int) bool {
		if desc {
			return entries[i].seq > entries[j].seq
		}
		return entries[i].seq < entries[j].seq
	})

	if p := q.PagingInfo; p != nil {
		if p.Offset >= len(entries) {
			entries = nil
		} else {
			entries = entries[p.Offset:]
		}
		if p.Limit > 0 && len(entries) > p.Limit {
			entries = entries[:p.Limit]
		}
	}

	out := make([]recordstore.Record, len(entries))
	for i, sr := range entries {
		out[i] = project(sr.rec, q.FieldNames())
	}
	return dataResponse(out)
}

// GetRecordByID implements recordstore.API.
func (f *FakeRecordStore) GetRecordByID(ctx context.Context, table string, id int64, q recordstore.Query) (*recordstore.Response, error) {
	if resp, err, done := f.begin(ctx, Call{Op: OpGet, Table: table, ID: id, Query: q}); done {
		return resp, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	sr, ok := f.tables[table][id]
	if !ok {
		return &recordstore.Response{Success: false, Message: recordstore.MessageRecordNotFound}, nil
	}
	return dataResponse(project(sr.rec, q.FieldNames()))
}

// CreateRecord implements recordstore.API.
func (f *FakeRecordStore) CreateRecord(ctx context.Context, table string, req recordstore.RecordsRequest) (*recordstore.Response, error) {
	if resp, err, done := f.begin(ctx, Call{Op: OpCreate, Table: table, Records: copyRecords(req.Records)}); done {
		return resp, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	resp := &recordstore.Response{Success: true}
	for _, in := range req.Records {
		name, _ := in["Name"].(string)
		if strings.TrimSpace(name) == "" {
			resp.Results = append(resp.Results, recordstore.BatchResult{
				Errors: []recordstore.FieldError{{FieldLabel: "Name", Message: "Name is required"}},
			})
			continue
		}

		rec := copyRecord(in)
		id := f.nextID
		f.nextID++
		rec["Id"] = id
		f.stamp(rec, true)
		f.table(table)[id] = &storedRecord{rec: rec, seq: f.seq}
		resp.Results = append(resp.Results, entryResult(rec))
	}
	return resp, nil
}

// UpdateRecord implements recordstore.API.
func (f *FakeRecordStore) UpdateRecord(ctx context.Context, table string, req recordstore.RecordsRequest) (*recordstore.Response, error) {
	if resp, err, done := f.begin(ctx, Call{Op: OpUpdate, Table: table, Records: copyRecords(req.Records)}); done {
		return resp, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	resp := &recordstore.Response{Success: true}
	for _, in := range req.Records {
		id := recordID(in["Id"])
		sr, ok := f.tables[table][id]
		if !ok {
			resp.Results = append(resp.Results, recordstore.BatchResult{
				Message: fmt.Sprintf("Record %d not found", id),
			})
			continue
		}
		if name, has := in["Name"]; has {
			if s, _ := name.(string); strings.TrimSpace(s) == "" {
				resp.Results = append(resp.Results, recordstore.BatchResult{
					Errors: []recordstore.FieldError{{FieldLabel: "Name", Message: "Name cannot be empty"}},
				})
				continue
			}
		}

		for k, v := range in {
			if k == "Id" {
				continue
			}
			sr.rec[k] = v
		}
		f.stamp(sr.rec, false)
		sr.seq = f.seq
		resp.Results = append(resp.Results, entryResult(sr.rec))
	}
	return resp, nil
}

// DeleteRecord implements recordstore.API.
func (f *FakeRecordStore) DeleteRecord(ctx context.Context, table string, req recordstore.DeleteRequest) (*recordstore.Response, error) {
	ids := append([]int64(nil), req.RecordIds...)
	if resp, err, done := f.begin(ctx, Call{Op: OpDelete, Table: table, RecordIDs: ids}); done {
		return resp, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	resp := &recordstore.Response{Success: true}
	for _, id := range ids {
		if _, ok := f.tables[table][id]; !ok {
			resp.Results = append(resp.Results, recordstore.BatchResult{
				Message: fmt.Sprintf("Record %d not found", id),
			})
			continue
		}
		delete(f.tables[table], id)
		data, _ := json.Marshal(recordstore.Record{"Id": id})
		resp.Results = append(resp.Results, recordstore.BatchResult{Success: true, Data: data})
	}
	return resp, nil
}

// begin records the call, runs the hook and resolves injected behaviour.
// done is true when the caller must return resp, err as is.
func (f *FakeRecordStore) begin(ctx context.Context, c Call) (resp *recordstore.Response, err error, done bool) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	hook := f.hooks[c.Op]
	f.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, &recordstore.TransportError{Err: err}, true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[c.Op]; err != nil {
		return nil, err, true
	}
	if canned := f.responses[c.Op]; canned != nil {
		cp := *canned
		return &cp, nil, true
	}
	return nil, nil, false
}

func (f *FakeRecordStore) table(name string) map[int64]*storedRecord {
	t, ok := f.tables[name]
	if !ok {
		t = make(map[int64]*storedRecord)
		f.tables[name] = t
	}
	return t
}

// stamp advances the clock and sets store-maintained timestamps.
func (f *FakeRecordStore) stamp(rec recordstore.Record, created bool) {
	f.seq++
	f.now = f.now.Add(time.Second)
	ts := f.now.Format(time.RFC3339)
	if created {
		if _, ok := rec["CreatedOn"]; !ok {
			rec["CreatedOn"] = ts
		}
	}
	rec["ModifiedOn"] = ts
}

func entryResult(rec recordstore.Record) recordstore.BatchResult {
	data, _ := json.Marshal(rec)
	return recordstore.BatchResult{Success: true, Data: data}
}

func dataResponse(v any) (*recordstore.Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &recordstore.TransportError{Err: err}
	}
	return &recordstore.Response{Success: true, Data: data}, nil
}

func project(rec recordstore.Record, fields []string) recordstore.Record {
	if len(fields) == 0 {
		return copyRecord(rec)
	}
	out := recordstore.Record{"Id": rec["Id"]}
	for _, name := range fields {
		if v, ok := rec[name]; ok {
			out[name] = v
		}
	}
	return out
}

func recordID(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		id, _ := n.Int64()
		return id
	}
	return 0
}

func copyRecord(rec recordstore.Record) recordstore.Record {
	out := make(recordstore.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func copyRecords(recs []recordstore.Record) []recordstore.Record {
	out := make([]recordstore.Record, len(recs))
	for i, r := range recs {
		out[i] = copyRecord(r)
	}
	return out
}
