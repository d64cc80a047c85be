package form_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/fnconsole/internal/form"
	"github.com/systmms/fnconsole/internal/notify"
	"github.com/systmms/fnconsole/internal/resources"
	"github.com/systmms/fnconsole/pkg/recordstore"
	"github.com/systmms/fnconsole/tests/fakes"
)

func yes[T any](T) bool { return true }
func no[T any](T) bool  { return false }

func newSecrets(t *testing.T, store *fakes.FakeRecordStore) (*form.Controller[resources.Secret, resources.SecretForm], *notify.Recorder) {
	t.Helper()
	sink := &notify.Recorder{}
	client := resources.NewSecretClient(store, "", resources.Options{})
	return form.NewSecrets(client, form.Options{Sink: sink}), sink
}

func newFunctions(t *testing.T, store *fakes.FakeRecordStore) (*form.Controller[resources.Function, resources.FunctionForm], *notify.Recorder) {
	t.Helper()
	sink := &notify.Recorder{}
	client := resources.NewFunctionClient(store, "", resources.Options{})
	return form.NewFunctions(client, form.Options{Sink: sink}), sink
}

func seededFunctions() *fakes.FakeRecordStore {
	return fakes.NewFakeRecordStore().
		WithRecord("apper_function", recordstore.Record{"Id": int64(1), "Name": "alpha"}).
		WithRecord("apper_function", recordstore.Record{"Id": int64(2), "Name": "beta"}).
		WithRecord("apper_function", recordstore.Record{"Id": int64(3), "Name": "gamma"})
}

func names(fns []resources.Function) []string {
	out := make([]string, len(fns))
	for i, f := range fns {
		out[i] = f.Name
	}
	return out
}

func TestLoad(t *testing.T) {
	t.Parallel()

	store := seededFunctions()
	ctrl, sink := newFunctions(t, store)

	require.NoError(t, ctrl.Load(context.Background()))
	assert.Equal(t, []string{"gamma", "beta", "alpha"}, names(ctrl.Items()))
	assert.Empty(t, sink.Entries())

	store.WithResponse(fakes.OpFetch, &recordstore.Response{Success: false, Message: "Table not found"})
	err := ctrl.Load(context.Background())
	require.Error(t, err)
	assert.Empty(t, ctrl.Items())
	assert.Equal(t, []string{"Table not found"}, sink.Errors())
	assert.Equal(t, form.Viewing, ctrl.State())
}

func TestCreateFlow(t *testing.T) {
	t.Parallel()

	store := seededFunctions()
	ctrl, sink := newFunctions(t, store)
	require.NoError(t, ctrl.Load(context.Background()))

	require.NoError(t, ctrl.OpenCreate())
	assert.Equal(t, form.Creating, ctrl.State())
	f := ctrl.Form()
	require.NotNil(t, f)
	assert.True(t, f.IsActive)
	f.Name = "delta"

	require.NoError(t, ctrl.Submit(context.Background()))
	assert.Equal(t, form.Viewing, ctrl.State())
	assert.Nil(t, ctrl.Form())
	assert.Equal(t, []string{"delta", "gamma", "beta", "alpha"}, names(ctrl.Items()))
	assert.Equal(t, []string{"Function created successfully"}, sink.Successes())
}

func TestSubmitFailureKeepsForm(t *testing.T) {
	t.Parallel()

	store := seededFunctions().
		WithResponse(fakes.OpCreate, &recordstore.Response{
			Success: true,
			Results: []recordstore.BatchResult{{
				Errors: []recordstore.FieldError{{FieldLabel: "Name", Message: "Already exists"}},
			}},
		})
	ctrl, sink := newFunctions(t, store)
	require.NoError(t, ctrl.Load(context.Background()))

	require.NoError(t, ctrl.OpenCreate())
	require.NoError(t, ctrl.Edit(func(f *resources.FunctionForm) { f.Name = "alpha" }))

	err := ctrl.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, form.Creating, ctrl.State())
	assert.Equal(t, "alpha", ctrl.Form().Name)
	assert.Len(t, ctrl.Items(), 3)
	assert.Equal(t, []string{"Name: Already exists"}, sink.Errors())

	// Retry from the same form once the store accepts it.
	store.WithResponse(fakes.OpCreate, nil)
	require.NoError(t, ctrl.Edit(func(f *resources.FunctionForm) { f.Name = "alpha-2" }))
	require.NoError(t, ctrl.Submit(context.Background()))
	assert.Equal(t, "alpha-2", ctrl.Items()[0].Name)
}

func TestLocalValidationFailureStaysOpen(t *testing.T) {
	t.Parallel()

	store := fakes.NewFakeRecordStore()
	ctrl, sink := newSecrets(t, store)

	require.NoError(t, ctrl.OpenCreate())
	require.Error(t, ctrl.Submit(context.Background()))
	assert.Equal(t, form.Creating, ctrl.State())
	assert.Zero(t, store.CallCount(fakes.OpCreate))
	assert.Equal(t, []string{"Name: Name is required", "Value: Value is required"}, sink.Errors())
}

func TestEditSecretNeverPrefillsValue(t *testing.T) {
	t.Parallel()

	store := fakes.NewFakeRecordStore().
		WithRecord("secret", recordstore.Record{"Id": int64(1), "Name": "OTHER", "value": "x"}).
		WithRecord("secret", recordstore.Record{"Id": int64(2), "Name": "API_KEY", "value": "sk_live_original", "Tags": "payments"})
	ctrl, sink := newSecrets(t, store)
	require.NoError(t, ctrl.Load(context.Background()))

	target := ctrl.Items()[0]
	require.Equal(t, "API_KEY", target.Name)

	require.NoError(t, ctrl.OpenEdit(target))
	assert.Equal(t, form.Editing, ctrl.State())
	editing, ok := ctrl.Editing()
	require.True(t, ok)
	assert.Equal(t, int64(2), editing.ID)

	f := ctrl.Form()
	assert.True(t, f.Value.IsEmpty())
	assert.Equal(t, "payments", f.Tags)
	f.Tags = "payments,prod"

	require.NoError(t, ctrl.Submit(context.Background()))
	assert.Equal(t, form.Viewing, ctrl.State())

	items := ctrl.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
	assert.Equal(t, "payments,prod", items[0].Tags)
	assert.Equal(t, int64(1), items[1].ID)

	call, _ := store.LastCall(fakes.OpUpdate)
	assert.NotContains(t, call.Records[0], "value")
	stored, _ := store.Record("secret", 2)
	assert.Equal(t, "sk_live_original", stored["value"])
	assert.Equal(t, []string{"Secret updated successfully"}, sink.Successes())
}

func TestCancelWipesSecretValue(t *testing.T) {
	t.Parallel()

	ctrl, _ := newSecrets(t, fakes.NewFakeRecordStore())

	require.NoError(t, ctrl.OpenCreate())
	f := ctrl.Form()
	f.Name = "TOKEN"
	f.Value.Set("plaintext")

	require.NoError(t, ctrl.Cancel())
	assert.Equal(t, form.Viewing, ctrl.State())
	assert.True(t, f.Value.IsEmpty())

	require.NoError(t, ctrl.OpenCreate())
	assert.Empty(t, ctrl.Form().Name)
}

func TestInvalidTransitions(t *testing.T) {
	t.Parallel()

	rec := resources.Function{ID: 1, Name: "alpha"}
	ctx := context.Background()

	tests := []struct {
		name   string
		setup  func(c *form.Controller[resources.Function, resources.FunctionForm]) error
		action func(c *form.Controller[resources.Function, resources.FunctionForm]) error
	}{
		{
			name:   "submit_while_viewing",
			setup:  func(*form.Controller[resources.Function, resources.FunctionForm]) error { return nil },
			action: func(c *form.Controller[resources.Function, resources.FunctionForm]) error { return c.Submit(ctx) },
		},
		{
			name:   "cancel_while_viewing",
			setup:  func(*form.Controller[resources.Function, resources.FunctionForm]) error { return nil },
			action: func(c *form.Controller[resources.Function, resources.FunctionForm]) error { return c.Cancel() },
		},
		{
			name:   "create_while_creating",
			setup:  func(c *form.Controller[resources.Function, resources.FunctionForm]) error { return c.OpenCreate() },
			action: func(c *form.Controller[resources.Function, resources.FunctionForm]) error { return c.OpenCreate() },
		},
		{
			name:   "edit_while_editing",
			setup:  func(c *form.Controller[resources.Function, resources.FunctionForm]) error { return c.OpenEdit(rec) },
			action: func(c *form.Controller[resources.Function, resources.FunctionForm]) error { return c.OpenEdit(rec) },
		},
		{
			name:  "edit_form_while_viewing",
			setup: func(*form.Controller[resources.Function, resources.FunctionForm]) error { return nil },
			action: func(c *form.Controller[resources.Function, resources.FunctionForm]) error {
				return c.Edit(func(*resources.FunctionForm) {})
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl, _ := newFunctions(t, fakes.NewFakeRecordStore())
			require.NoError(t, tt.setup(ctrl))
			before := ctrl.State()
			assert.ErrorIs(t, tt.action(ctrl), form.ErrInvalidTransition)
			assert.Equal(t, before, ctrl.State())
		})
	}
}

func TestSwitchBetweenCreateAndEdit(t *testing.T) {
	t.Parallel()

	ctrl, _ := newFunctions(t, fakes.NewFakeRecordStore())
	rec := resources.Function{ID: 4, Name: "alpha", IsActive: false}

	require.NoError(t, ctrl.OpenCreate())
	require.NoError(t, ctrl.OpenEdit(rec))
	assert.Equal(t, "alpha", ctrl.Form().Name)
	assert.False(t, ctrl.Form().IsActive)

	require.NoError(t, ctrl.OpenCreate())
	assert.Empty(t, ctrl.Form().Name)
	assert.True(t, ctrl.Form().IsActive)
	_, editing := ctrl.Editing()
	assert.False(t, editing)
}

func TestBusyRejectsConcurrentActions(t *testing.T) {
	t.Parallel()

	store := seededFunctions()
	ctrl, _ := newFunctions(t, store)

	var during struct {
		state                       form.State
		load, cancel, open, deleted error
	}
	store.WithHook(fakes.OpCreate, func(ctx context.Context) {
		during.state = ctrl.State()
		during.load = ctrl.Load(ctx)
		during.cancel = ctrl.Cancel()
		during.open = ctrl.OpenCreate()
		during.deleted = ctrl.RequestDelete(ctx, resources.Function{ID: 1}, yes[resources.Function])
	})

	require.NoError(t, ctrl.OpenCreate())
	ctrl.Form().Name = "delta"
	require.NoError(t, ctrl.Submit(context.Background()))

	assert.Equal(t, form.Submitting, during.state)
	assert.ErrorIs(t, during.load, form.ErrBusy)
	assert.ErrorIs(t, during.cancel, form.ErrBusy)
	assert.ErrorIs(t, during.open, form.ErrBusy)
	assert.ErrorIs(t, during.deleted, form.ErrBusy)
	assert.Zero(t, store.CallCount(fakes.OpFetch))
	assert.Zero(t, store.CallCount(fakes.OpDelete))
}

func TestRequestDeleteRemovesExactlyOne(t *testing.T) {
	t.Parallel()

	store := seededFunctions()
	ctrl, sink := newFunctions(t, store)
	require.NoError(t, ctrl.Load(context.Background()))
	before := ctrl.Items()

	require.NoError(t, ctrl.RequestDelete(context.Background(), resources.Function{ID: 2, Name: "beta"}, yes[resources.Function]))

	after := ctrl.Items()
	assert.Equal(t, []string{"gamma", "alpha"}, names(after))
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[1])
	assert.Equal(t, []string{"Function deleted successfully"}, sink.Successes())
}

func TestRequestDeleteDeclinedOrFailed(t *testing.T) {
	t.Parallel()

	store := seededFunctions()
	ctrl, sink := newFunctions(t, store)
	require.NoError(t, ctrl.Load(context.Background()))

	require.NoError(t, ctrl.RequestDelete(context.Background(), resources.Function{ID: 1}, no[resources.Function]))
	require.NoError(t, ctrl.RequestDelete(context.Background(), resources.Function{ID: 1}, nil))
	assert.Zero(t, store.CallCount(fakes.OpDelete))

	store.WithError(fakes.OpDelete, errors.New("connection refused"))
	err := ctrl.RequestDelete(context.Background(), resources.Function{ID: 1}, yes[resources.Function])
	require.Error(t, err)
	assert.Len(t, ctrl.Items(), 3)
	assert.Equal(t, []string{"Failed to delete function"}, sink.Errors())
}

func TestRequestDeleteClosesEditFormForSameRecord(t *testing.T) {
	t.Parallel()

	store := seededFunctions()
	ctrl, _ := newFunctions(t, store)
	require.NoError(t, ctrl.Load(context.Background()))

	target := ctrl.Items()[1]
	require.NoError(t, ctrl.OpenEdit(target))
	require.NoError(t, ctrl.RequestDelete(context.Background(), target, yes[resources.Function]))
	assert.Equal(t, form.Viewing, ctrl.State())
	assert.Len(t, ctrl.Items(), 2)
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "viewing", form.Viewing.String())
	assert.Equal(t, "creating", form.Creating.String())
	assert.Equal(t, "editing", form.Editing.String())
	assert.Equal(t, "submitting", form.Submitting.String())
	assert.Equal(t, "unknown", form.State(42).String())
}
