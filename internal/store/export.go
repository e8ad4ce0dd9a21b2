package store

import (
	"bytes"
	"encoding/json"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	"coronal/internal/analysis"
	"coronal/internal/integrate"
	"coronal/internal/scan"
)

// Vec is a float row that marshals non-finite entries as JSON null. Sweep
// grids mark missing points with NaN, which encoding/json rejects.
type Vec []float64

func (v Vec) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			buf.WriteString("null")
			continue
		}
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Grid is a dense matrix flattened to rows.
type Grid []Vec

// RunExport is the JSON form of one completed run.
type RunExport struct {
	Species      string          `json:"species"`
	Method       string          `json:"method"`
	Te           float64         `json:"te"`
	Ne           float64         `json:"ne"`
	RefuelRate   float64         `json:"refuel_rate"`
	Times        []float64       `json:"times"`
	States       Grid            `json:"states"`
	Channels     map[string]Grid `json:"channels"`
	EvalCount    []int           `json:"eval_count"`
	InternalTime []float64       `json:"internal_time"`
	Evals        int             `json:"evals"`
}

// NewRunExport flattens a run result into its JSON form.
func NewRunExport(meta RunMetadata, result *integrate.Result) RunExport {
	out := RunExport{
		Species:      meta.Species,
		Method:       meta.Method,
		Te:           meta.Te,
		Ne:           meta.Ne,
		RefuelRate:   meta.RefuelRate,
		Times:        result.Times,
		States:       make(Grid, len(result.States)),
		Channels:     make(map[string]Grid),
		EvalCount:    result.Accounting.EvalCount,
		InternalTime: result.Accounting.InternalTime,
		Evals:        result.Evals,
	}
	for i, s := range result.States {
		out.States[i] = Vec(s)
	}
	if result.Series != nil {
		for name, col := range result.Series.Scalar {
			rows := make(Grid, len(col))
			for i, v := range col {
				rows[i] = Vec{v}
			}
			out.Channels[name] = rows
		}
		for name, m := range result.Series.Vector {
			out.Channels[name] = denseRows(m)
		}
	}
	return out
}

// StatesExport is the JSON form of a stored run read back from disk:
// its metadata plus the full stage-population grid.
type StatesExport struct {
	Metadata RunMetadata `json:"metadata"`
	Times    []float64   `json:"times"`
	States   Grid        `json:"states"`
}

// ExportRun reads a stored run back and flattens it for JSON export.
func (s *Store) ExportRun(runID string) (*StatesExport, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	times, states, err := s.LoadStates(runID)
	if err != nil {
		return nil, err
	}

	out := &StatesExport{
		Metadata: *meta,
		Times:    times,
		States:   make(Grid, len(states)),
	}
	for i, row := range states {
		out.States[i] = Vec(row)
	}
	return out, nil
}

// WriteJSON writes any export form indented to w.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TemperatureExport is the JSON form of a temperature sweep.
type TemperatureExport struct {
	Species  string          `json:"species"`
	Ne       float64         `json:"ne"`
	Te       []float64       `json:"te"`
	Terminal Grid            `json:"terminal"`
	Channels map[string]Grid `json:"channels"`
	Missing  []bool          `json:"missing"`
}

func NewTemperatureExport(species string, res *scan.TemperatureResult) TemperatureExport {
	out := TemperatureExport{
		Species:  species,
		Ne:       res.Ne,
		Te:       res.Te,
		Terminal: denseRows(res.Terminal),
		Channels: make(map[string]Grid, len(res.Channels)),
		Missing:  res.Missing,
	}
	for name, m := range res.Channels {
		out.Channels[name] = denseRows(m)
	}
	return out
}

// DensityExport is the JSON form of a density sweep.
type DensityExport struct {
	Species  string          `json:"species"`
	Te       float64         `json:"te"`
	Ne       []float64       `json:"ne"`
	Terminal Grid            `json:"terminal"`
	Channels map[string]Grid `json:"channels"`
	Missing  []bool          `json:"missing"`
}

func NewDensityExport(species string, res *scan.DensityResult) DensityExport {
	out := DensityExport{
		Species:  species,
		Te:       res.Te,
		Ne:       res.Ne,
		Terminal: denseRows(res.Terminal),
		Channels: make(map[string]Grid, len(res.Channels)),
		Missing:  res.Missing,
	}
	for name, m := range res.Channels {
		out.Channels[name] = denseRows(m)
	}
	return out
}

// TempDensityExport is the JSON form of a nested temperature by density
// sweep. Grids are indexed [te][ne][column].
type TempDensityExport struct {
	Species    string            `json:"species"`
	RefuelRate float64           `json:"refuel_rate"`
	Te         []float64         `json:"te"`
	Ne         []float64         `json:"ne"`
	Terminal   []Grid            `json:"terminal"`
	Channels   map[string][]Grid `json:"channels"`
	Missing    [][]bool          `json:"missing"`
}

func NewTempDensityExport(species string, res *scan.TempDensityResult) TempDensityExport {
	out := TempDensityExport{
		Species:    species,
		RefuelRate: res.RefuelRate,
		Te:         res.Te,
		Ne:         res.Ne,
		Terminal:   make([]Grid, len(res.Terminal)),
		Channels:   make(map[string][]Grid, len(res.Channels)),
		Missing:    res.Missing,
	}
	for i, m := range res.Terminal {
		out.Terminal[i] = denseRows(m)
	}
	for name, grids := range res.Channels {
		stack := make([]Grid, len(grids))
		for i, m := range grids {
			stack[i] = denseRows(m)
		}
		out.Channels[name] = stack
	}
	return out
}

// SpreadExport is the JSON form of a randomized-initial-state ensemble.
type SpreadExport struct {
	Species    string    `json:"species"`
	Te         float64   `json:"te"`
	Ne         float64   `json:"ne"`
	Labels     []string  `json:"labels"`
	Mean       Vec       `json:"mean"`
	Stddev     Vec       `json:"stddev"`
	NormStddev Vec       `json:"norm_stddev"`
	Reference  []float64 `json:"reference"`
	RelDiff    Vec       `json:"rel_diff"`
	Samples    int       `json:"samples"`
	Dropped    int       `json:"dropped"`
}

func NewSpreadExport(species string, te, ne float64, res *analysis.SpreadResult) SpreadExport {
	return SpreadExport{
		Species:    species,
		Te:         te,
		Ne:         ne,
		Labels:     analysis.ComponentLabels(len(res.Mean) - 1),
		Mean:       res.Mean,
		Stddev:     res.Stddev,
		NormStddev: res.NormStddev,
		Reference:  res.Reference,
		RelDiff:    res.RelDiff,
		Samples:    res.Samples,
		Dropped:    res.Dropped,
	}
}

// PropagationExport is the JSON form of an error-propagation probe.
type PropagationExport struct {
	Species  string    `json:"species"`
	Param    string    `json:"param"`
	Center   float64   `json:"center"`
	Sigmas   []float64 `json:"sigmas"`
	RelSigma []float64 `json:"rel_sigma"`
	Spread   Grid      `json:"spread"`
	Dropped  []int     `json:"dropped"`
}

func NewPropagationExport(species string, res *analysis.PropagationResult) PropagationExport {
	return PropagationExport{
		Species:  species,
		Param:    string(res.Param),
		Center:   res.Center,
		Sigmas:   res.Sigmas,
		RelSigma: res.RelSigma,
		Spread:   denseRows(res.Spread),
		Dropped:  res.Dropped,
	}
}

// ResolutionExport is the JSON form of a grid-resolution sweep.
type ResolutionExport struct {
	Species   string    `json:"species"`
	Points    []int     `json:"points"`
	Reference []float64 `json:"reference"`
	Diff      Grid      `json:"diff"`
}

func NewResolutionExport(species string, res *analysis.ResolutionResult) ResolutionExport {
	return ResolutionExport{
		Species:   species,
		Points:    res.Points,
		Reference: res.Reference,
		Diff:      denseRows(res.Diff),
	}
}

// StartTimeExport is the JSON form of a start-time shift sweep.
type StartTimeExport struct {
	Species    string    `json:"species"`
	StartTimes []float64 `json:"start_times"`
	RelDiff    Grid      `json:"rel_diff"`
	Missing    []bool    `json:"missing"`
}

func NewStartTimeExport(species string, res *analysis.StartTimeResult) StartTimeExport {
	return StartTimeExport{
		Species:    species,
		StartTimes: res.StartTimes,
		RelDiff:    denseRows(res.RelDiff),
		Missing:    res.Missing,
	}
}

func denseRows(m *mat.Dense) Grid {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	rows := make(Grid, r)
	for i := 0; i < r; i++ {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}
