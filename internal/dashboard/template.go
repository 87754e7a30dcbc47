// Package dashboard loads and renders the home-dashboard JSON template.
// The template is an ordinary Grafana dashboard export; only the uid, the
// title, and the content of panels flagged as dashboard-list panels are
// rewritten per organization. Everything else round-trips untouched.
package dashboard

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/agentstation/grafsync/pkg/errors"
)

// listPanelFlag marks a panel whose options.content is replaced with the
// generated dashboard links. The flag must be present and truthy.
const listPanelFlag = "configuredDashboardList"

// Template is a validated home-dashboard template.
type Template struct {
	doc    map[string]any
	panels []map[string]any
}

// Load reads and validates the template file. The document must be a
// JSON object with a panels array of objects, and every flagged panel
// must carry an options object (its content is rewritten at render time).
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(data, path)
}

// Parse validates raw template JSON. The path is only used in error
// messages.
func Parse(data []byte, path string) (*Template, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}

	rawPanels, ok := doc["panels"]
	if !ok {
		return nil, &errors.ParseError{Format: "json", File: path, Message: "dashboard template has no panels array"}
	}
	list, ok := rawPanels.([]any)
	if !ok {
		return nil, &errors.ParseError{Format: "json", File: path, Message: "panels must be an array"}
	}

	panels := make([]map[string]any, 0, len(list))
	for i, raw := range list {
		panel, ok := raw.(map[string]any)
		if !ok {
			return nil, &errors.ParseError{Format: "json", File: path, Message: fmt.Sprintf("panel %d is not an object", i)}
		}
		if isListPanel(panel) {
			if _, ok := panel["options"].(map[string]any); !ok {
				return nil, &errors.ParseError{Format: "json", File: path, Message: fmt.Sprintf("dashboard list panel %d has no options object", i)}
			}
		}
		panels = append(panels, panel)
	}

	return &Template{doc: doc, panels: panels}, nil
}

// Render returns a copy of the template stamped with the given uid and
// title, with every dashboard-list panel's options.content replaced by
// listHTML. The receiver is never mutated, so one loaded template serves
// every organization of a run.
func (t *Template) Render(uid, title, listHTML string) map[string]any {
	doc := clone(t.doc)
	doc["uid"] = uid
	doc["title"] = title

	panels, _ := doc["panels"].([]any)
	for _, raw := range panels {
		panel, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if !isListPanel(panel) {
			continue
		}
		options := panel["options"].(map[string]any)
		options["content"] = listHTML
	}
	return doc
}

// isListPanel reports whether the flag field is present and truthy.
func isListPanel(panel map[string]any) bool {
	flag, ok := panel[listPanelFlag]
	if !ok {
		return false
	}
	switch v := flag.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != "" && v != "false"
	default:
		return false
	}
}

// clone deep-copies a JSON document via a marshal round trip. Template
// documents are small; correctness beats speed here.
func clone(doc map[string]any) map[string]any {
	data, err := json.Marshal(doc)
	if err != nil {
		// The document came from json.Unmarshal, so it always marshals.
		panic(err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}
