// Package plot hands review data to a visualization backend. The shipped
// backend writes JSON data plus a matplotlib script per chart.
package plot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/model-critic/internal/integrity"
	"github.com/danielpatrickdp/model-critic/internal/jsonfloat"
	"github.com/danielpatrickdp/model-critic/internal/validation"
)

// Renderer draws review charts. Errors are reported to the caller, which
// logs them without failing the review.
type Renderer interface {
	Heatmap(m *integrity.CorrelationMatrix) error
	LearningCurve(strategy string, points []validation.CurvePoint) error
}

// #region script-renderer
// ScriptRenderer writes <chart>.json and plot_<chart>.py into Dir.
type ScriptRenderer struct {
	Dir string
}

// NewScriptRenderer returns a renderer writing into dir.
func NewScriptRenderer(dir string) *ScriptRenderer {
	return &ScriptRenderer{Dir: dir}
}

type heatmapData struct {
	Labels []string     `json:"labels"`
	Values [][]*float64 `json:"values"` // null where undefined
}

type curveData struct {
	Strategy string                  `json:"strategy"`
	Points   []validation.CurvePoint `json:"points"`
}

// Heatmap writes the correlation matrix. Undefined correlations become null.
func (r *ScriptRenderer) Heatmap(m *integrity.CorrelationMatrix) error {
	if m == nil {
		return nil
	}
	data := heatmapData{Labels: m.Labels, Values: make([][]*float64, len(m.Values))}
	for i, row := range m.Values {
		data.Values[i] = jsonfloat.Ptrs(row)
	}
	return r.write("heatmap", data, heatmapScript)
}

// LearningCurve writes the learning-curve samples.
func (r *ScriptRenderer) LearningCurve(strategy string, points []validation.CurvePoint) error {
	return r.write("learning_curve", curveData{Strategy: strategy, Points: points}, curveScript)
}

func (r *ScriptRenderer) write(chart string, data any, script string) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s data: %w", chart, err)
	}
	if err := os.WriteFile(filepath.Join(r.Dir, chart+".json"), b, 0o644); err != nil {
		return fmt.Errorf("write %s data: %w", chart, err)
	}
	if err := os.WriteFile(filepath.Join(r.Dir, "plot_"+chart+".py"), []byte(script), 0o755); err != nil {
		return fmt.Errorf("write %s script: %w", chart, err)
	}
	return nil
}

// #endregion script-renderer

// #region scripts
const heatmapScript = `#!/usr/bin/env python3
import json
import matplotlib.pyplot as plt
import numpy as np

with open('heatmap.json') as f:
    data = json.load(f)

values = np.array([[np.nan if v is None else v for v in row] for row in data['values']])
labels = data['labels']

fig, ax = plt.subplots(figsize=(8, 6))
im = ax.imshow(values, cmap='coolwarm', vmin=-1, vmax=1)
ax.set_xticks(range(len(labels)))
ax.set_xticklabels(labels, rotation=90)
ax.set_yticks(range(len(labels)))
ax.set_yticklabels(labels)
fig.colorbar(im, ax=ax)
ax.set_title('Correlation Matrix (Data Leakage Check)')
fig.tight_layout()
fig.savefig('heatmap.png', dpi=150)
print('Saved heatmap.png')
`

const curveScript = `#!/usr/bin/env python3
import json
import matplotlib.pyplot as plt

with open('learning_curve.json') as f:
    data = json.load(f)

sizes = [p['train_size'] for p in data['points']]
train = [p['train_score'] for p in data['points']]
val = [p['validation_score'] for p in data['points']]

plt.figure(figsize=(8, 6))
plt.plot(sizes, train, 'o-', label='Train')
plt.plot(sizes, val, 'o-', label='Validation')
plt.xlabel('Training samples')
plt.ylabel('Score')
plt.title('Learning Curve (' + data['strategy'] + ')')
plt.legend()
plt.grid(True, alpha=0.3)
plt.tight_layout()
plt.savefig('learning_curve.png', dpi=150)
print('Saved learning_curve.png')
`

// #endregion scripts
