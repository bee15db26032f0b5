package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalDocument = `
document:
  page: P
  components:
    - id: "1:1"
      name: Button
      variants:
        - { id: "1:2" }
`

func TestLoadScenario_Inline(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/mixed_requests.yaml")
	require.NoError(t, err)

	assert.Equal(t, "mixed_requests", s.Name)
	require.NotNil(t, s.Document)
	assert.Equal(t, "Scenario", s.Document.Page)
	assert.Len(t, s.Document.Components, 2)
	require.Len(t, s.Requests, 3)
	assert.Equal(t, "COMPONENT_NOT_FOUND", s.Requests[2].Expect.Code)
	require.NotNil(t, s.Requests[0].Expect.Placed)
	assert.Equal(t, 4, *s.Requests[0].Expect.Placed)
	assert.Equal(t, 10.0, s.Layout().Padding)
	assert.Equal(t, 300.0, s.Layout().RowWidth)
}

func TestLoadScenario_DocumentPathIsRelativeToScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/nested_fanout.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "documents", "card.yaml"), s.DocumentPath)
	assert.Nil(t, s.Document)
}

func TestScenario_DefaultLayout(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/nested_guard.yaml")
	require.NoError(t, err)

	assert.Equal(t, 3, s.MaxCombinations)
	require.NotNil(t, s.Cursor)
	assert.Equal(t, 500.0, s.Cursor.X)
	assert.Equal(t, 40.0, s.Layout().Padding)
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: d
request:
  - component: "1:1"
`+minimalDocument)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nrequests: [{component: \"1:1\"}]\n" + minimalDocument,
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nrequests: [{component: \"1:1\"}]\n" + minimalDocument,
			wantErr: "description is required",
		},
		{
			name:    "missing document",
			yaml:    "name: n\ndescription: d\nrequests: [{component: \"1:1\"}]\n",
			wantErr: "document or document_path is required",
		},
		{
			name:    "both documents",
			yaml:    "name: n\ndescription: d\ndocument_path: x.yaml\nrequests: [{component: \"1:1\"}]\n" + minimalDocument,
			wantErr: "mutually exclusive",
		},
		{
			name:    "document file missing",
			yaml:    "name: n\ndescription: d\ndocument_path: missing.yaml\nrequests: [{component: \"1:1\"}]\n",
			wantErr: "document file not found",
		},
		{
			name:    "no requests",
			yaml:    "name: n\ndescription: d\nrequests: []\n" + minimalDocument,
			wantErr: "requests list is required",
		},
		{
			name:    "request without component",
			yaml:    "name: n\ndescription: d\nrequests: [{text: 1}]\n" + minimalDocument,
			wantErr: "requests[0]: component is required",
		},
		{
			name:    "negative text",
			yaml:    "name: n\ndescription: d\nrequests: [{component: \"1:1\", text: -1}]\n" + minimalDocument,
			wantErr: "text must be non-negative",
		},
		{
			name:    "placed with error code",
			yaml:    "name: n\ndescription: d\nrequests: [{component: \"1:1\", expect: {code: NO_TEMPLATE, placed: 0}}]\n" + minimalDocument,
			wantErr: "placed cannot be combined",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: n\ndescription: d\nrequests: [{component: \"1:1\"}]\nassertions: [{type: trace_contains}]\n" + minimalDocument,
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "placement without name",
			yaml:    "name: n\ndescription: d\nrequests: [{component: \"1:1\"}]\nassertions: [{type: placement}]\n" + minimalDocument,
			wantErr: "name is required for placement",
		},
		{
			name:    "run_status without status",
			yaml:    "name: n\ndescription: d\nrequests: [{component: \"1:1\"}]\nassertions: [{type: run_status}]\n" + minimalDocument,
			wantErr: "status is required for run_status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	assert.Equal(t, "mixed_requests", scenarios[0].Name)
	assert.Equal(t, "nested_fanout", scenarios[1].Name)
	assert.Equal(t, "nested_guard", scenarios[2].Name)
}

func TestLoadDir_ReportsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: [unclosed"), 0644))

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}
