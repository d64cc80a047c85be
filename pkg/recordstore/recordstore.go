// Package recordstore defines the client side of the remote record-store API
// that backs the Functions and Secrets views.
//
// Every call addresses a table (collection) by name. Reads take a Query that
// declares the fields to return; writes are always batch-shaped, even when a
// single record is submitted, and answer with one BatchResult per entry.
//
// Two implementations ship with this package: HTTPClient talks to the hosted
// record store over JSON/HTTP, and sqlstore.Store keeps the same contract on
// top of PostgreSQL or MySQL for self-hosted setups.
package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// API is the record-store capability consumed by resource clients.
type API interface {
	FetchRecords(ctx context.Context, table string, q Query) (*Response, error)
	GetRecordByID(ctx context.Context, table string, id int64, q Query) (*Response, error)
	CreateRecord(ctx context.Context, table string, req RecordsRequest) (*Response, error)
	UpdateRecord(ctx context.Context, table string, req RecordsRequest) (*Response, error)
	DeleteRecord(ctx context.Context, table string, req DeleteRequest) (*Response, error)
}

// Sort directions understood by the store.
const (
	SortDesc = "DESC"
	SortAsc  = "ASC"
)

// FieldRef names one declared field in a Query.
type FieldRef struct {
	Field FieldName `json:"field"`
}

// FieldName wraps the field name the way the store expects it on the wire.
type FieldName struct {
	Name string `json:"Name"`
}

// Fields builds the declared-field list for a Query.
func Fields(names ...string) []FieldRef {
	refs := make([]FieldRef, len(names))
	for i, n := range names {
		refs[i] = FieldRef{Field: FieldName{Name: n}}
	}
	return refs
}

// FieldNames returns the plain names of the declared fields.
func (q Query) FieldNames() []string {
	names := make([]string, len(q.Fields))
	for i, f := range q.Fields {
		names[i] = f.Field.Name
	}
	return names
}

// OrderBy sorts a fetch by one field.
type OrderBy struct {
	FieldName string `json:"fieldName"`
	SortType  string `json:"sorttype"`
}

// PagingInfo limits a fetch.
type PagingInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Query describes a read.
type Query struct {
	Fields     []FieldRef  `json:"fields"`
	OrderBy    []OrderBy   `json:"orderBy,omitempty"`
	PagingInfo *PagingInfo `json:"pagingInfo,omitempty"`
}

// Record is one record payload keyed by field name.
type Record map[string]any

// RecordsRequest is the body of create and update calls.
type RecordsRequest struct {
	Records []Record `json:"records"`
}

// DeleteRequest is the body of delete calls.
type DeleteRequest struct {
	RecordIds []int64 `json:"RecordIds"`
}

// FieldError is a per-field validation error on a batch entry.
type FieldError struct {
	FieldLabel string `json:"fieldLabel"`
	Message    string `json:"message"`
}

// BatchResult is the outcome of one entry of a batch write.
type BatchResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Errors  []FieldError    `json:"errors,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Response is the envelope every call returns.
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Results []BatchResult   `json:"results,omitempty"`
}

// Succeeded returns the entries that reported success, in order.
func (r *Response) Succeeded() []BatchResult {
	var out []BatchResult
	for _, res := range r.Results {
		if res.Success {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the entries that reported failure, in order.
func (r *Response) Failed() []BatchResult {
	var out []BatchResult
	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}

// MessageRecordNotFound is the message of a get that matched no record.
const MessageRecordNotFound = "Record not found"

// TransportError is returned when a call does not produce a Response at all:
// the request failed, or the store answered with a non-2xx status. Message
// carries the store's own error text when the body had one.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Message != "" && e.StatusCode != 0:
		return fmt.Sprintf("record store returned %d: %s", e.StatusCode, e.Message)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return fmt.Sprintf("record store returned %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
