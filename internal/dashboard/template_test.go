package dashboard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/grafsync/pkg/errors"
)

const sampleTemplate = `{
	"uid": "template",
	"title": "Template",
	"schemaVersion": 36,
	"panels": [
		{"id": 1, "type": "graph", "title": "Sessions"},
		{"id": 2, "type": "text", "configuredDashboardList": true, "options": {"content": "placeholder", "mode": "html"}}
	]
}`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "home.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleTemplate), 0o644))

	template, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, template.panels, 2)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid json", `{"panels": `},
		{"no panels", `{"uid": "x"}`},
		{"panels not array", `{"panels": {}}`},
		{"panel not object", `{"panels": [42]}`},
		{"flagged panel without options", `{"panels": [{"configuredDashboardList": true}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), "home.json")
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}

func TestRender(t *testing.T) {
	template, err := Parse([]byte(sampleTemplate), "home.json")
	require.NoError(t, err)

	doc := template.Render("mluviihome7", "Acme", "<ul></ul>")

	assert.Equal(t, "mluviihome7", doc["uid"])
	assert.Equal(t, "Acme", doc["title"])

	panels := doc["panels"].([]any)
	plain := panels[0].(map[string]any)
	assert.Nil(t, plain["options"], "unflagged panels are untouched")

	flagged := panels[1].(map[string]any)
	options := flagged["options"].(map[string]any)
	assert.Equal(t, "<ul></ul>", options["content"])
	assert.Equal(t, "html", options["mode"], "unrelated option keys survive")

	// Unmodeled top-level keys round-trip.
	assert.Equal(t, float64(36), doc["schemaVersion"])
}

func TestRenderDoesNotMutateTemplate(t *testing.T) {
	template, err := Parse([]byte(sampleTemplate), "home.json")
	require.NoError(t, err)

	first := template.Render("uid-1", "One", "first")
	second := template.Render("uid-2", "Two", "second")

	firstOptions := first["panels"].([]any)[1].(map[string]any)["options"].(map[string]any)
	secondOptions := second["panels"].([]any)[1].(map[string]any)["options"].(map[string]any)
	assert.Equal(t, "first", firstOptions["content"])
	assert.Equal(t, "second", secondOptions["content"])

	assert.Equal(t, "placeholder", template.panels[1]["options"].(map[string]any)["content"])
}

func TestIsListPanelTruthiness(t *testing.T) {
	tests := []struct {
		name string
		flag any
		want bool
	}{
		{"bool true", true, true},
		{"bool false", false, false},
		{"number one", float64(1), true},
		{"number zero", float64(0), false},
		{"string yes", "yes", true},
		{"string false", "false", false},
		{"empty string", "", false},
		{"null", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			panel := map[string]any{listPanelFlag: tt.flag}
			assert.Equal(t, tt.want, isListPanel(panel))
		})
	}

	assert.False(t, isListPanel(map[string]any{}))
}
