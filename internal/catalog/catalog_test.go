package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/systmms/fnconsole/internal/errors"
)

const authFixture = `
functions:
  - id: login
    method: POST
    path: /auth/login
    description: Exchange credentials for a token.
secrets:
  - id: users
    method: GET
    path: /users
    description: List users.
`

func TestDefaultCatalogLoads(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)

	fns := c.ByCategory(CategoryFunctions)
	secrets := c.ByCategory(CategorySecrets)
	assert.Len(t, fns, 5)
	assert.Len(t, secrets, 5)
	assert.Equal(t, []string{"functions", "secrets"}, c.Categories())

	for _, ep := range append(fns, secrets...) {
		assert.NotEmpty(t, ep.ID)
		assert.Contains(t, []string{"GET", "POST", "PUT", "DELETE"}, ep.Method)
		assert.NotEmpty(t, ep.Description)
	}
}

func TestSearchAuth(t *testing.T) {
	t.Parallel()

	c, err := Load([]byte(authFixture))
	require.NoError(t, err)

	got := c.Search("auth")
	require.Len(t, got, 1)
	assert.Equal(t, "/auth/login", got[0].Path)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"method_case_insensitive", "delete", []string{"delete-function", "delete-secret"}},
		{"path", "/secret/{secretid}", []string{"get-secret"}},
		{"description", "OMIT VALUE", []string{"update-secret"}},
		{"no_match", "graphql", []string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ids := []string{}
			for _, ep := range c.Search(tt.query) {
				ids = append(ids, ep.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	assert.Len(t, c.Search(""), 10)
}

func TestByID(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)

	ep, err := c.ByID("create-secret")
	require.NoError(t, err)
	assert.Equal(t, "POST", ep.Method)
	assert.Equal(t, []string{"curl", "python"}, ep.ExampleLanguages())
	require.NotNil(t, ep.Responses)
	assert.Contains(t, ep.Responses.Success, `"STRIPE_KEY"`)

	_, err = c.ByID("nope")
	require.Error(t, err)
	assert.True(t, dserrors.IsNotFound(err))
	assert.Equal(t, "Endpoint not found", err.Error())
}

func TestLookupsReturnCopies(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)

	ep, err := c.ByID("list-functions")
	require.NoError(t, err)
	ep.Parameters[0].Name = "mutated"
	ep.Examples["curl"] = "mutated"
	ep.Responses.Success = "mutated"

	fresh, err := c.ByID("list-functions")
	require.NoError(t, err)
	assert.Equal(t, "userId", fresh.Parameters[0].Name)
	assert.NotEqual(t, "mutated", fresh.Examples["curl"])
	assert.NotEqual(t, "mutated", fresh.Responses.Success)

	list := c.ByCategory("FUNCTIONS")
	list[0].Path = "/mutated"
	assert.NotEqual(t, "/mutated", c.ByCategory("functions")[0].Path)
}

func TestByCategoryUnknown(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)
	got := c.ByCategory("webhooks")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadRejectsInvalidFixtures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fixture string
		wantErr string
	}{
		{
			name: "bad_method",
			fixture: `
functions:
  - {id: a, method: PATCH, path: /a, description: x}
secrets: []
`,
			wantErr: "schema validation failed",
		},
		{
			name: "missing_description",
			fixture: `
functions: []
secrets:
  - {id: a, method: GET, path: /a}
`,
			wantErr: "schema validation failed",
		},
		{
			name: "missing_partition",
			fixture: `
functions: []
`,
			wantErr: "schema validation failed",
		},
		{
			name: "duplicate_id",
			fixture: `
functions:
  - {id: a, method: GET, path: /a, description: x}
secrets:
  - {id: a, method: GET, path: /b, description: y}
`,
			wantErr: `duplicate endpoint id "a"`,
		},
		{
			name:    "not_yaml",
			fixture: "functions: [",
			wantErr: "failed to parse endpoint fixture",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load([]byte(tt.fixture))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "endpoints.yaml")
	require.NoError(t, os.WriteFile(path, []byte(authFixture), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, c.ByCategory(CategoryFunctions), 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	var ue dserrors.UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Failed to read documentation fixture", ue.Message)
}

func TestTopics(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)

	topics := c.Topics()
	require.Len(t, topics, 3)
	assert.Equal(t, "Introduction", topics[0].Title)
	assert.Equal(t, "Authentication", topics[1].Title)
	assert.Equal(t, "Errors", topics[2].Title)

	errs, err := c.Topic("ERRORS")
	require.NoError(t, err)
	assert.Contains(t, errs.Body, "429")

	_, err = c.Topic("billing")
	assert.True(t, dserrors.IsNotFound(err))
	assert.Equal(t, "Topic not found", err.Error())
}

func TestExampleLanguagesOrder(t *testing.T) {
	t.Parallel()

	ep := Endpoint{Examples: map[string]string{"ruby": "", "python": "", "go": "", "curl": ""}}
	assert.Equal(t, []string{"curl", "python", "go", "ruby"}, ep.ExampleLanguages())
}
