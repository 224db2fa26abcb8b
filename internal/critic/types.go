package critic

import (
	"errors"
	"strings"

	"github.com/danielpatrickdp/model-critic/internal/configaudit"
	"github.com/danielpatrickdp/model-critic/internal/gate"
	"github.com/danielpatrickdp/model-critic/internal/integrity"
	"github.com/danielpatrickdp/model-critic/internal/performance"
	"github.com/danielpatrickdp/model-critic/internal/robustness"
	"github.com/danielpatrickdp/model-critic/internal/verdict"
)

// Sentinel errors for session comparison.
var (
	ErrNoActiveSession = errors.New("no active session: configure a session name to compare")
	ErrSessionNotFound = errors.New("previous session not found")
)

// #region payload
// Details holds the raw detector reports.
type Details struct {
	Data        integrity.Report   `json:"data"`
	Config      configaudit.Report `json:"config"`
	Performance performance.Report `json:"performance"`
	Robustness  robustness.Report  `json:"robustness"`
}

// Payload is a complete review. Performance duplicates Details.Performance
// for callers that only want the CV numbers.
type Payload struct {
	Executive   verdict.Executive  `json:"executive"`
	Technical   verdict.Technical  `json:"technical"`
	Details     Details            `json:"details"`
	Performance performance.Report `json:"performance"`
}

// Signals extracts the verdict inputs from the detector reports.
func (p *Payload) Signals() verdict.Signals {
	d := p.Details
	return verdict.FromReports(d.Data, d.Config, d.Performance, d.Robustness)
}

// #endregion payload

// #region views
// Section names accepted by views.
const (
	ViewAll         = "all"
	ViewExecutive   = "executive"
	ViewTechnical   = "technical"
	ViewDetails     = "details"
	ViewPerformance = "performance"
)

// View selects which parts of a payload to return: everything, one section,
// or a list of sections.
type View struct {
	All    bool
	Single string
	Keys   []string
}

// ParseView reads "all", a single section name, or a comma-separated list.
// An empty string means all.
func ParseView(s string) View {
	s = strings.TrimSpace(s)
	if s == "" || s == ViewAll {
		return View{All: true}
	}
	if !strings.Contains(s, ",") {
		return View{Single: s}
	}
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return View{Keys: keys}
}

// Section returns one named section.
func (p *Payload) Section(name string) (any, bool) {
	switch name {
	case ViewExecutive:
		return p.Executive, true
	case ViewTechnical:
		return p.Technical, true
	case ViewDetails:
		return p.Details, true
	case ViewPerformance:
		return p.Performance, true
	default:
		return nil, false
	}
}

// Select returns only the named sections that exist. Unknown names are
// dropped.
func (p *Payload) Select(keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := p.Section(k); ok {
			out[k] = v
		}
	}
	return out
}

// View applies v. A single unknown section yields nil.
func (p *Payload) View(v View) any {
	switch {
	case v.All:
		return p
	case v.Keys != nil:
		return p.Select(v.Keys...)
	default:
		s, _ := p.Section(v.Single)
		return s
	}
}

// #endregion views

// #region results
// DeployReport is a gate decision together with the inputs it was made on.
type DeployReport struct {
	ModelType string          `json:"model_type"`
	Signals   verdict.Signals `json:"signals"`
	Decision  gate.Decision   `json:"decision"`
}

// Comparison holds score deltas between the current run and a previous
// session. Deltas are current minus previous, keyed "global" plus every
// component present in both runs.
type Comparison struct {
	Previous       string         `json:"previous"`
	CurrentScores  verdict.Scores `json:"current_scores"`
	PreviousScores verdict.Scores `json:"previous_scores"`
	Deltas         map[string]int `json:"deltas"`
}

// #endregion results
