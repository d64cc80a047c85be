// Package resources implements the per-resource clients for Functions and
// Secrets on top of a recordstore.API.
//
// A Client never panics and never returns a bare error: every operation
// answers with a Result whose Err holds a typed failure from internal/errors.
// Read operations degrade to an empty or absent value; write operations leave
// nothing half-applied on the caller's side.
package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	dserrors "github.com/systmms/fnconsole/internal/errors"
	"github.com/systmms/fnconsole/internal/logging"
	"github.com/systmms/fnconsole/internal/metrics"
	"github.com/systmms/fnconsole/pkg/recordstore"
)

// ListLimit is the page size of List.
const ListLimit = 50

// Options carries the optional collaborators of a Client.
type Options struct {
	Logger  *logging.Logger
	Metrics *metrics.Recorder
	Now     func() time.Time
}

// Client performs CRUD for one resource kind.
type Client[T any, F any] struct {
	api     recordstore.API
	kind    Kind[T, F]
	logger  *logging.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// NewClient creates a client for kind backed by api.
func NewClient[T any, F any](api recordstore.API, kind Kind[T, F], opts Options) *Client[T, F] {
	c := &Client[T, F]{
		api:     api,
		kind:    kind,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// FunctionClient manages functions.
type FunctionClient = Client[Function, FunctionForm]

// SecretClient manages secrets.
type SecretClient = Client[Secret, SecretForm]

// NewFunctionClient creates a function client for collection.
func NewFunctionClient(api recordstore.API, collection string, opts Options) *FunctionClient {
	return NewClient(api, FunctionKind(collection), opts)
}

// NewSecretClient creates a secret client for collection.
func NewSecretClient(api recordstore.API, collection string, opts Options) *SecretClient {
	return NewClient(api, SecretKind(collection), opts)
}

// Kind returns the kind this client serves.
func (c *Client[T, F]) Kind() Kind[T, F] {
	return c.kind
}

// List returns up to ListLimit records, most recently modified first.
func (c *Client[T, F]) List(ctx context.Context) Result[[]T] {
	const op = "fetch"
	start := time.Now()

	resp, err := c.api.FetchRecords(ctx, c.kind.Collection, recordstore.Query{
		Fields:     recordstore.Fields(c.kind.Fields...),
		OrderBy:    []recordstore.OrderBy{{FieldName: "ModifiedOn", SortType: recordstore.SortDesc}},
		PagingInfo: &recordstore.PagingInfo{Limit: ListLimit, Offset: 0},
	})
	if err != nil {
		return Result[[]T]{Value: []T{}, Err: c.failRead(op, start, c.transport(op, "Failed to load "+c.kind.Plural, err),
			"Error fetching %s: %v", c.kind.Plural, err)}
	}
	if !resp.Success {
		return Result[[]T]{Value: []T{}, Err: c.failRead(op, start, &dserrors.BackendFailure{Op: op, Message: resp.Message},
			"%s", resp.Message)}
	}

	var raw []json.RawMessage
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &raw); err != nil {
			return Result[[]T]{Value: []T{}, Err: c.failRead(op, start, c.transport(op, "Failed to load "+c.kind.Plural, err),
				"Error decoding %s: %v", c.kind.Plural, err)}
		}
	}

	// One malformed record must not hide the rest of the page.
	items := make([]T, 0, len(raw))
	for _, data := range raw {
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			c.logger.Warn("Dropping undecodable %s from %s: %v", c.kind.Singular, c.kind.Collection, err)
			continue
		}
		if c.kind.ID(item) == 0 {
			c.logger.Warn("Dropping %s without Id from %s", c.kind.Singular, c.kind.Collection)
			continue
		}
		items = append(items, item)
	}

	c.metrics.RecordOperation(c.kind.Collection, op, metrics.OutcomeSuccess, time.Since(start))
	c.logger.Debug("Loaded %d %s from %s", len(items), c.kind.Plural, c.kind.Collection)
	return Result[[]T]{Value: items, Present: true}
}

// Get returns one record, absent on any failure.
func (c *Client[T, F]) Get(ctx context.Context, id int64) Result[T] {
	const op = "get"
	start := time.Now()

	resp, err := c.api.GetRecordByID(ctx, c.kind.Collection, id, recordstore.Query{
		Fields: recordstore.Fields(c.kind.Fields...),
	})
	if err != nil {
		return Result[T]{Err: c.failRead(op, start, c.transport(op, "Failed to load "+c.kind.Singular, err),
			"Error fetching %s with ID %d: %v", c.kind.Singular, id, err)}
	}
	if !resp.Success {
		if resp.Message == recordstore.MessageRecordNotFound {
			return Result[T]{Err: c.failRead(op, start,
				&dserrors.NotFound{Kind: c.kind.Title(), ID: strconv.FormatInt(id, 10), Message: resp.Message},
				"%s %d not found in %s", c.kind.Title(), id, c.kind.Collection)}
		}
		return Result[T]{Err: c.failRead(op, start, &dserrors.BackendFailure{Op: op, Message: resp.Message},
			"%s", resp.Message)}
	}

	item, err := c.decode(resp.Data)
	if err != nil {
		return Result[T]{Err: c.failRead(op, start, c.transport(op, "Failed to load "+c.kind.Singular, err),
			"Error decoding %s with ID %d: %v", c.kind.Singular, id, err)}
	}

	c.metrics.RecordOperation(c.kind.Collection, op, metrics.OutcomeSuccess, time.Since(start))
	return Result[T]{Value: item, Present: true}
}

// Create submits form as a batch of one.
func (c *Client[T, F]) Create(ctx context.Context, form F) Result[T] {
	const op = "create"
	start := time.Now()
	fallback := "Failed to create " + c.kind.Singular

	if err := c.kind.ValidateCreate(form); err != nil {
		return c.failWrite(op, start, metrics.OutcomeValidation, err, "Invalid %s: %v", c.kind.Singular, err)
	}

	payload, err := c.kind.CreatePayload(form, c.now())
	if err != nil {
		return c.failWrite(op, start, metrics.OutcomeTransportFailure, c.transport(op, fallback, err),
			"Error creating %s: %v", c.kind.Singular, err)
	}

	resp, err := c.api.CreateRecord(ctx, c.kind.Collection, recordstore.RecordsRequest{
		Records: []recordstore.Record{payload},
	})
	if err != nil {
		return c.failWrite(op, start, metrics.OutcomeTransportFailure, c.transport(op, fallback, err),
			"Error creating %s: %v", c.kind.Singular, err)
	}
	return c.settleWrite(op, "created", fallback, start, resp, c.kind.sensitive(form))
}

// Update submits form for record id as a batch of one.
func (c *Client[T, F]) Update(ctx context.Context, id int64, form F) Result[T] {
	const op = "update"
	start := time.Now()
	fallback := "Failed to update " + c.kind.Singular

	if err := c.kind.ValidateUpdate(form); err != nil {
		return c.failWrite(op, start, metrics.OutcomeValidation, err, "Invalid %s: %v", c.kind.Singular, err)
	}

	payload, err := c.kind.UpdatePayload(id, form, c.now())
	if err != nil {
		return c.failWrite(op, start, metrics.OutcomeTransportFailure, c.transport(op, fallback, err),
			"Error updating %s: %v", c.kind.Singular, err)
	}

	resp, err := c.api.UpdateRecord(ctx, c.kind.Collection, recordstore.RecordsRequest{
		Records: []recordstore.Record{payload},
	})
	if err != nil {
		return c.failWrite(op, start, metrics.OutcomeTransportFailure, c.transport(op, fallback, err),
			"Error updating %s: %v", c.kind.Singular, err)
	}
	return c.settleWrite(op, "updated", fallback, start, resp, c.kind.sensitive(form))
}

// Delete removes record id. Value is true only if the store confirmed it.
func (c *Client[T, F]) Delete(ctx context.Context, id int64) Result[bool] {
	const op = "delete"
	start := time.Now()
	fallback := "Failed to delete " + c.kind.Singular

	resp, err := c.api.DeleteRecord(ctx, c.kind.Collection, recordstore.DeleteRequest{RecordIds: []int64{id}})
	if err != nil {
		c.logger.Error("Error deleting %s: %v", c.kind.Singular, err)
		c.metrics.RecordOperation(c.kind.Collection, op, metrics.OutcomeTransportFailure, time.Since(start))
		return Result[bool]{Err: c.transport(op, fallback, err)}
	}
	if !resp.Success {
		c.logger.Error("%s", resp.Message)
		c.metrics.RecordOperation(c.kind.Collection, op, metrics.OutcomeBackendFailure, time.Since(start))
		return Result[bool]{Err: &dserrors.BackendFailure{Op: op, Message: resp.Message}}
	}

	succeeded, failed := resp.Succeeded(), resp.Failed()
	c.metrics.RecordBatch(c.kind.Collection, op, len(succeeded), len(failed))

	var errs []error
	if len(failed) > 0 {
		c.logger.Error("Failed to delete %d %s: %s", len(failed), c.kind.Plural, describeFailures(failed))
		for _, f := range failed {
			// Field errors are not surfaced for deletes, only the entry message.
			if f.Message != "" {
				errs = append(errs, &dserrors.ValidationFailure{Message: f.Message})
			}
		}
	}

	if len(succeeded) == 0 {
		if len(errs) == 0 {
			errs = append(errs, &dserrors.BackendFailure{Op: op, Message: fallback})
		}
		c.metrics.RecordOperation(c.kind.Collection, op, metrics.OutcomeValidation, time.Since(start))
		return Result[bool]{Err: errors.Join(errs...)}
	}

	c.metrics.RecordOperation(c.kind.Collection, op, outcomeFor(errs), time.Since(start))
	return Result[bool]{
		Value:   true,
		Present: true,
		Notice:  fmt.Sprintf("%s deleted successfully", c.kind.Title()),
		Err:     errors.Join(errs...),
	}
}

func (c *Client[T, F]) settleWrite(op, verb, fallback string, start time.Time, resp *recordstore.Response, sensitive []string) Result[T] {
	if !resp.Success {
		return c.failWrite(op, start, metrics.OutcomeBackendFailure,
			&dserrors.BackendFailure{Op: op, Message: resp.Message}, "%s", logging.Redact(resp.Message, sensitive))
	}

	succeeded, failed := resp.Succeeded(), resp.Failed()
	c.metrics.RecordBatch(c.kind.Collection, op, len(succeeded), len(failed))

	var errs []error
	if len(failed) > 0 {
		c.logger.Error("Failed to %s %d %s: %s", op, len(failed), c.kind.Plural,
			logging.Redact(describeFailures(failed), sensitive))
		for _, f := range failed {
			errs = append(errs, validationFailure(f))
		}
	}

	if len(succeeded) == 0 {
		if len(errs) == 0 {
			errs = append(errs, &dserrors.BackendFailure{Op: op, Message: fallback})
		}
		return c.failWrite(op, start, metrics.OutcomeValidation, errors.Join(errs...),
			"No %s %s", c.kind.Singular, verb)
	}

	item, err := c.decode(succeeded[0].Data)
	if err != nil {
		errs = append(errs, c.transport(op, fallback, err))
		return c.failWrite(op, start, metrics.OutcomeTransportFailure, errors.Join(errs...),
			"Error decoding %s %s: %v", verb, c.kind.Singular, err)
	}

	c.metrics.RecordOperation(c.kind.Collection, op, outcomeFor(errs), time.Since(start))
	c.logger.Debug("%s %s %d", strings.ToUpper(verb[:1])+verb[1:], c.kind.Singular, c.kind.ID(item))
	return Result[T]{
		Value:   item,
		Present: true,
		Notice:  fmt.Sprintf("%s %s successfully", c.kind.Title(), verb),
		Err:     errors.Join(errs...),
	}
}

func (c *Client[T, F]) decode(data json.RawMessage) (T, error) {
	var item T
	if len(data) == 0 || string(data) == "null" {
		return item, fmt.Errorf("store returned no %s data", c.kind.Singular)
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return item, err
	}
	if c.kind.ID(item) == 0 {
		return item, fmt.Errorf("store returned %s without Id", c.kind.Singular)
	}
	return item, nil
}

// transport converts a transport-level error into a TransportFailure whose
// message is the store's own text when it sent one.
func (c *Client[T, F]) transport(op, fallback string, err error) error {
	msg := fallback
	var te *recordstore.TransportError
	if errors.As(err, &te) && te.Message != "" {
		msg = te.Message
	}
	return &dserrors.TransportFailure{Op: op, Message: msg, Err: err}
}

func (c *Client[T, F]) failRead(op string, start time.Time, err error, format string, args ...any) error {
	c.logger.Error(format, args...)
	outcome := metrics.OutcomeTransportFailure
	var bf *dserrors.BackendFailure
	switch {
	case errors.As(err, &bf):
		outcome = metrics.OutcomeBackendFailure
	case dserrors.IsNotFound(err):
		outcome = metrics.OutcomeNotFound
	}
	c.metrics.RecordOperation(c.kind.Collection, op, outcome, time.Since(start))
	return err
}

func (c *Client[T, F]) failWrite(op string, start time.Time, outcome string, err error, format string, args ...any) Result[T] {
	c.logger.Error(format, args...)
	c.metrics.RecordOperation(c.kind.Collection, op, outcome, time.Since(start))
	return Result[T]{Err: err}
}

func validationFailure(f recordstore.BatchResult) error {
	vf := &dserrors.ValidationFailure{Message: f.Message}
	for _, fe := range f.Errors {
		vf.Fields = append(vf.Fields, dserrors.FieldError{FieldLabel: fe.FieldLabel, Message: fe.Message})
	}
	return vf
}

// describeFailures renders failed entries for the log without their data,
// which may echo submitted secret values. Messages can still quote them, so
// callers pass the result through logging.Redact.
func describeFailures(failed []recordstore.BatchResult) string {
	type entry struct {
		Errors  []recordstore.FieldError `json:"errors,omitempty"`
		Message string                   `json:"message,omitempty"`
	}
	entries := make([]entry, len(failed))
	for i, f := range failed {
		entries[i] = entry{Errors: f.Errors, Message: f.Message}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Sprintf("%d failed entries", len(failed))
	}
	return string(b)
}

func outcomeFor(errs []error) string {
	if len(errs) > 0 {
		return metrics.OutcomePartial
	}
	return metrics.OutcomeSuccess
}
