// Package form holds the pending create/edit state of a resource view and
// reconciles the view's list with the results of resource operations.
//
// A Controller moves between Viewing, Creating and Editing. While a call to
// the record store is in flight it reports Submitting and rejects every other
// action with ErrBusy, so two responses can never be applied out of order.
package form

import (
	"context"
	"errors"
	"sync"

	"github.com/systmms/fnconsole/internal/logging"
	"github.com/systmms/fnconsole/internal/notify"
	"github.com/systmms/fnconsole/internal/resources"
)

// State of a Controller.
type State int

const (
	Viewing State = iota
	Creating
	Editing
	Submitting
)

func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	}
	return "unknown"
}

var (
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current state.
	ErrInvalidTransition = errors.New("action not allowed in current form state")
	// ErrBusy is returned while another operation is in flight.
	ErrBusy = errors.New("another operation is in progress")
)

// Backend is the resource client a Controller drives.
type Backend[T any, F any] interface {
	List(ctx context.Context) resources.Result[[]T]
	Create(ctx context.Context, form F) resources.Result[T]
	Update(ctx context.Context, id int64, form F) resources.Result[T]
	Delete(ctx context.Context, id int64) resources.Result[bool]
}

// Adapter tells a Controller how to build and tear down forms for T.
type Adapter[T any, F any] struct {
	// Blank returns the create form with its defaults.
	Blank func() F
	// FromRecord pre-populates an edit form. Sensitive fields stay blank.
	FromRecord func(T) F
	// ID returns the store id of a record.
	ID func(T) int64
	// Wipe releases sensitive form contents. Optional.
	Wipe func(*F)
}

// Options carries the optional collaborators of a Controller.
type Options struct {
	Sink   notify.Sink
	Logger *logging.Logger
}

// Controller manages one resource list and its open form.
type Controller[T any, F any] struct {
	mu      sync.Mutex
	backend Backend[T, F]
	adapter Adapter[T, F]
	sink    notify.Sink
	logger  *logging.Logger

	items   []T
	state   State
	busy    bool
	form    F
	editing T
}

// New creates a controller in the Viewing state with an empty list.
func New[T any, F any](backend Backend[T, F], adapter Adapter[T, F], opts Options) *Controller[T, F] {
	c := &Controller[T, F]{
		backend: backend,
		adapter: adapter,
		sink:    opts.Sink,
		logger:  opts.Logger,
		items:   []T{},
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	return c
}

// FunctionAdapter returns the adapter for function forms.
func FunctionAdapter() Adapter[resources.Function, resources.FunctionForm] {
	return Adapter[resources.Function, resources.FunctionForm]{
		Blank:      resources.NewFunctionForm,
		FromRecord: resources.FunctionFormFrom,
		ID:         func(f resources.Function) int64 { return f.ID },
	}
}

// SecretAdapter returns the adapter for secret forms. Edit forms never carry
// the stored value, and the form value is wiped when the form closes.
func SecretAdapter() Adapter[resources.Secret, resources.SecretForm] {
	return Adapter[resources.Secret, resources.SecretForm]{
		Blank:      resources.NewSecretForm,
		FromRecord: resources.SecretFormFrom,
		ID:         func(s resources.Secret) int64 { return s.ID },
		Wipe:       func(f *resources.SecretForm) { f.Value.Clear() },
	}
}

// NewFunctions creates a controller for functions.
func NewFunctions(client *resources.FunctionClient, opts Options) *Controller[resources.Function, resources.FunctionForm] {
	return New[resources.Function, resources.FunctionForm](client, FunctionAdapter(), opts)
}

// NewSecrets creates a controller for secrets.
func NewSecrets(client *resources.SecretClient, opts Options) *Controller[resources.Secret, resources.SecretForm] {
	return New[resources.Secret, resources.SecretForm](client, SecretAdapter(), opts)
}

// State returns the current state.
func (c *Controller[T, F]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return Submitting
	}
	return c.state
}

// Items returns a copy of the current list.
func (c *Controller[T, F]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Editing returns the record being edited, if any.
func (c *Controller[T, F]) Editing() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Editing {
		var zero T
		return zero, false
	}
	return c.editing, true
}

// Form returns the open form, or nil in Viewing. The pointer must not be used
// concurrently with Submit; use Edit for that.
func (c *Controller[T, F]) Form() *F {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Viewing {
		return nil
	}
	return &c.form
}

// Edit applies fn to the open form.
func (c *Controller[T, F]) Edit(fn func(*F)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	if c.state == Viewing {
		return ErrInvalidTransition
	}
	fn(&c.form)
	return nil
}

// Load replaces the list with the store's current records. On failure the
// list is emptied and the failure is returned.
func (c *Controller[T, F]) Load(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}

	res := c.backend.List(ctx)

	c.mu.Lock()
	c.busy = false
	c.items = append([]T{}, res.Value...)
	c.mu.Unlock()

	notify.Render(c.sink, res.Notice, res.Err)
	if !res.OK() {
		return res.Err
	}
	return nil
}

// OpenCreate opens a blank create form. Allowed from Viewing and Editing.
func (c *Controller[T, F]) OpenCreate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	if c.state != Viewing && c.state != Editing {
		return ErrInvalidTransition
	}
	c.closeForm()
	c.form = c.adapter.Blank()
	c.state = Creating
	c.logger.Debug("Form opened for create")
	return nil
}

// OpenEdit opens an edit form for rec. Allowed from Viewing and Creating.
func (c *Controller[T, F]) OpenEdit(rec T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	if c.state != Viewing && c.state != Creating {
		return ErrInvalidTransition
	}
	c.closeForm()
	c.form = c.adapter.FromRecord(rec)
	c.editing = rec
	c.state = Editing
	c.logger.Debug("Form opened for record %d", c.adapter.ID(rec))
	return nil
}

// Cancel discards the open form.
func (c *Controller[T, F]) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	if c.state == Viewing {
		return ErrInvalidTransition
	}
	c.closeForm()
	return nil
}

// Submit sends the open form. A create prepends the new record; an update
// replaces the entry with the same id. On success the form closes; on failure
// the state and the form are kept so the caller can retry. The returned error
// is non-nil only when no record was saved.
func (c *Controller[T, F]) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	state := c.state
	if state != Creating && state != Editing {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.busy = true
	form := c.form
	id := int64(0)
	if state == Editing {
		id = c.adapter.ID(c.editing)
	}
	c.mu.Unlock()

	var res resources.Result[T]
	if state == Creating {
		res = c.backend.Create(ctx, form)
	} else {
		res = c.backend.Update(ctx, id, form)
	}

	c.mu.Lock()
	c.busy = false
	if res.OK() {
		if state == Creating {
			c.items = append([]T{res.Value}, c.items...)
		} else {
			c.replace(id, res.Value)
		}
		c.closeForm()
	}
	c.mu.Unlock()

	notify.Render(c.sink, res.Notice, res.Err)
	if !res.OK() {
		return res.Err
	}
	return nil
}

// RequestDelete deletes rec once confirm approves it. A nil confirm or a
// declined confirmation does nothing. On success exactly the entry with
// rec's id is removed; an edit form open on that record is closed.
func (c *Controller[T, F]) RequestDelete(ctx context.Context, rec T, confirm func(T) bool) error {
	if confirm == nil || !confirm(rec) {
		return nil
	}
	if err := c.acquire(); err != nil {
		return err
	}

	id := c.adapter.ID(rec)
	res := c.backend.Delete(ctx, id)

	c.mu.Lock()
	c.busy = false
	if res.OK() && res.Value {
		c.remove(id)
		if c.state == Editing && c.adapter.ID(c.editing) == id {
			c.closeForm()
		}
	}
	c.mu.Unlock()

	notify.Render(c.sink, res.Notice, res.Err)
	if !res.OK() {
		return res.Err
	}
	return nil
}

func (c *Controller[T, F]) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	return nil
}

// closeForm wipes the form and returns to Viewing. Caller holds mu.
func (c *Controller[T, F]) closeForm() {
	if c.adapter.Wipe != nil {
		c.adapter.Wipe(&c.form)
	}
	var zeroF F
	var zeroT T
	c.form = zeroF
	c.editing = zeroT
	c.state = Viewing
}

func (c *Controller[T, F]) replace(id int64, rec T) {
	for i := range c.items {
		if c.adapter.ID(c.items[i]) == id {
			c.items[i] = rec
			return
		}
	}
}

func (c *Controller[T, F]) remove(id int64) {
	for i := range c.items {
		if c.adapter.ID(c.items[i]) == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return
		}
	}
}
