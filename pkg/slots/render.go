package slots

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"
)

// PluginEntry is one plugin in a slot's runtime configuration.
type PluginEntry struct {
	Op     Operation `json:"op"`
	Widget Widget    `json:"widget"`
}

// SlotConfig is the runtime configuration of one slot.
type SlotConfig struct {
	KeepDefault bool          `json:"keepDefault"`
	Plugins     []PluginEntry `json:"plugins"`
}

// Config builds the pluginSlots runtime configuration for an MFE.
func (r *Registry) Config(mfe string) map[string]SlotConfig {
	out := map[string]SlotConfig{}
	for _, item := range r.Items(mfe) {
		slot, ok := out[item.SlotID]
		if !ok {
			slot.KeepDefault = item.KeepDefault
		} else {
			slot.KeepDefault = slot.KeepDefault && item.KeepDefault
		}
		slot.Plugins = append(slot.Plugins, PluginEntry{Op: item.Op, Widget: item.Widget})
		out[item.SlotID] = slot
	}
	return out
}

var envConfigTemplate = template.Must(template.New("env.config.jsx").Funcs(template.FuncMap{
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
}).Parse(`import { DIRECT_PLUGIN, IFRAME_PLUGIN, PLUGIN_OPERATIONS } from '@openedx/frontend-plugin-framework';
{{- range .Imports }}
import {{ .Component }} from {{ quote .Import }};
{{- end }}

const config = {
  pluginSlots: {
{{- range .Slots }}
    {{ quote .ID }}: {
      keepDefault: {{ .Config.KeepDefault }},
      plugins: [
{{- range .Config.Plugins }}
        {
          op: PLUGIN_OPERATIONS.{{ .Op }},
          widget: {
            id: {{ quote .Widget.ID }},
            type: {{ .Widget.Type }},
            priority: {{ .Widget.Priority }},
{{- if .Widget.Component }}
            RenderWidget: {{ .Widget.Component }},
{{- end }}
{{- if .Widget.URL }}
            url: {{ quote .Widget.URL }},
{{- end }}
{{- if .Widget.Title }}
            title: {{ quote .Widget.Title }},
{{- end }}
          },
        },
{{- end }}
      ],
    },
{{- end }}
  },
};

export default config;
`))

type renderSlot struct {
	ID     string
	Config SlotConfig
}

// Render produces the env.config.jsx module for an MFE.
func (r *Registry) Render(mfe string) (string, error) {
	cfg := r.Config(mfe)
	ids := make([]string, 0, len(cfg))
	for id := range cfg {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data := struct {
		Imports []Widget
		Slots   []renderSlot
	}{}
	imported := map[string]struct{}{}
	for _, id := range ids {
		data.Slots = append(data.Slots, renderSlot{ID: id, Config: cfg[id]})
		for _, p := range cfg[id].Plugins {
			if p.Widget.Component == "" || p.Widget.Import == "" {
				continue
			}
			if _, ok := imported[p.Widget.Component]; ok {
				continue
			}
			imported[p.Widget.Component] = struct{}{}
			data.Imports = append(data.Imports, p.Widget)
		}
	}

	var buf bytes.Buffer
	if err := envConfigTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render env.config.jsx for %s: %w", mfe, err)
	}
	return buf.String(), nil
}
