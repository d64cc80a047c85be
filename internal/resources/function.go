package resources

import (
	"strings"
	"time"

	dserrors "github.com/systmms/fnconsole/internal/errors"
	"github.com/systmms/fnconsole/pkg/recordstore"
)

// DefaultFunctionCollection is the hosted table holding functions.
const DefaultFunctionCollection = "apper_function"

// FunctionFields are the fields read for every function.
var FunctionFields = []string{
	"Name", "Tags", "Owner", "label", "script_id", "execution_url",
	"is_deployed", "is_active", "last_deployed_at",
	"require_authentication", "run_as_admin", "CreatedOn", "ModifiedOn",
}

// FunctionForm is the editable state of a function.
type FunctionForm struct {
	Name                  string
	Tags                  string
	Owner                 string
	Label                 string
	ScriptID              string
	ExecutionURL          string
	IsDeployed            bool
	IsActive              bool
	LastDeployedAt        *time.Time
	RequireAuthentication bool
	RunAsAdmin            bool
}

// NewFunctionForm returns the blank create form. New functions are active
// unless the caller clears IsActive.
func NewFunctionForm() FunctionForm {
	return FunctionForm{IsActive: true}
}

// FunctionFormFrom pre-populates an edit form from a stored function.
func FunctionFormFrom(f Function) FunctionForm {
	return FunctionForm{
		Name:                  f.Name,
		Tags:                  f.Tags,
		Owner:                 string(f.Owner),
		Label:                 f.Label,
		ScriptID:              f.ScriptID,
		ExecutionURL:          f.ExecutionURL,
		IsDeployed:            f.IsDeployed,
		IsActive:              f.IsActive,
		LastDeployedAt:        f.LastDeployedAt.Ptr(),
		RequireAuthentication: f.RequireAuthentication,
		RunAsAdmin:            f.RunAsAdmin,
	}
}

func validateFunction(f FunctionForm) error {
	if strings.TrimSpace(f.Name) == "" {
		return &dserrors.ValidationFailure{
			Fields: []dserrors.FieldError{{FieldLabel: "Name", Message: "Name is required"}},
		}
	}
	return nil
}

func functionPayload(f FunctionForm) recordstore.Record {
	rec := recordstore.Record{
		"Name":                   f.Name,
		"Tags":                   f.Tags,
		"label":                  f.Label,
		"script_id":              f.ScriptID,
		"execution_url":          f.ExecutionURL,
		"is_deployed":            f.IsDeployed,
		"is_active":              f.IsActive,
		"last_deployed_at":       timeOrNil(f.LastDeployedAt),
		"require_authentication": f.RequireAuthentication,
		"run_as_admin":           f.RunAsAdmin,
	}
	if f.Owner != "" {
		rec["Owner"] = f.Owner
	}
	return rec
}

// FunctionKind describes functions stored in collection.
func FunctionKind(collection string) Kind[Function, FunctionForm] {
	if collection == "" {
		collection = DefaultFunctionCollection
	}
	return Kind[Function, FunctionForm]{
		Collection:     collection,
		Fields:         FunctionFields,
		Singular:       "function",
		Plural:         "functions",
		ID:             func(f Function) int64 { return f.ID },
		ValidateCreate: validateFunction,
		ValidateUpdate: validateFunction,
		CreatePayload: func(f FunctionForm, _ time.Time) (recordstore.Record, error) {
			return functionPayload(f), nil
		},
		UpdatePayload: func(id int64, f FunctionForm, _ time.Time) (recordstore.Record, error) {
			rec := functionPayload(f)
			rec["Id"] = id
			return rec, nil
		},
	}
}
