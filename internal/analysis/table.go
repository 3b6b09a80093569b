package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/winevalue-cli/internal/dataset"
	"github.com/KaramelBytes/winevalue-cli/internal/factor"
	"github.com/KaramelBytes/winevalue-cli/internal/utils"
	"github.com/KaramelBytes/winevalue-cli/internal/value"
)

// Options controls dataset profiling.
type Options struct {
	// SampleRows determines how many example rows to include in the report; 0 omits them.
	SampleRows int
	// GroupBy computes per-group numeric summaries for the given factors.
	GroupBy []factor.Factor
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// TopValues caps the categories listed per column.
	TopValues int
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
		TopValues:        8,
	}
}

// Report is a markdown-friendly profile of a review dataset.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     *CorrMatrix
	Model    *value.Model
}

// ColumnSummary captures the kind and statistics of one column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|categorical|text
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []factor.ValueCount
	ExampleTexts []string
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

var numericColumns = map[string]bool{
	dataset.ColPoints:           true,
	dataset.ColPrice:            true,
	dataset.ColPointsNormalized: true,
	dataset.ColValue:            true,
}

// Analyze profiles ds. When the value model can be fit, the report includes
// it and the value column joins the numeric summaries.
func Analyze(name string, ds *dataset.Dataset, opt Options) (*Report, error) {
	rep := &Report{Name: name, Rows: ds.Len()}
	if scored, m, err := value.Compute(ds); err == nil {
		ds = scored
		rep.Model = &m
	} else {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("value model not fitted: %v", err))
	}

	numeric := map[string][]float64{}
	var numNames []string
	for _, col := range ds.Names() {
		nulls, err := ds.Nulls(col)
		if err != nil {
			return nil, err
		}
		s := ColumnSummary{Name: col}
		for _, isNull := range nulls {
			if isNull {
				s.Missing++
			}
		}
		s.NonNull = len(nulls) - s.Missing
		switch {
		case numericColumns[col]:
			vals, err := ds.Floats(col)
			if err != nil {
				return nil, err
			}
			numeric[col] = vals
			numNames = append(numNames, col)
			summarizeNumeric(&s, vals, opt)
		case col == dataset.ColDescription:
			s.Kind = "text"
			texts, err := ds.Strings(col)
			if err != nil {
				return nil, err
			}
			for i, t := range texts {
				if len(s.ExampleTexts) == 3 {
					break
				}
				if !nulls[i] {
					s.ExampleTexts = append(s.ExampleTexts, t)
				}
			}
		default:
			s.Kind = "categorical"
			counts, err := factor.Counts(ds, col)
			if err != nil {
				return nil, err
			}
			s.Unique = len(counts)
			top := opt.TopValues
			if top <= 0 {
				top = 8
			}
			if len(counts) > top {
				counts = counts[:top]
			}
			s.TopValues = counts
		}
		rep.Cols = append(rep.Cols, s)
	}

	for _, f := range opt.GroupBy {
		groups, err := groupBy(ds, f, numNames, numeric)
		if err != nil {
			return nil, err
		}
		rep.Groups = append(rep.Groups, groups...)
	}
	if opt.Correlations && len(numNames) >= 2 {
		rep.Corr = correlations(numNames, numeric)
	}

	if opt.SampleRows > 0 {
		text := map[string][]string{}
		for _, c := range rep.Cols {
			if numericColumns[c.Name] {
				continue
			}
			vals, err := ds.Strings(c.Name)
			if err != nil {
				return nil, err
			}
			text[c.Name] = vals
		}
		for i := 0; i < ds.Len() && i < opt.SampleRows; i++ {
			row := make([]string, 0, len(rep.Cols))
			for _, c := range rep.Cols {
				if numericColumns[c.Name] {
					row = append(row, formatFloat(numeric[c.Name][i]))
				} else {
					row = append(row, text[c.Name][i])
				}
			}
			rep.Samples = append(rep.Samples, row)
		}
	}
	return rep, nil
}

func summarizeNumeric(s *ColumnSummary, vals []float64, opt Options) {
	s.Kind = "numeric"
	present := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return
	}
	s.Min = floats.Min(present)
	s.Max = floats.Max(present)
	if len(present) > 1 {
		s.Mean, s.Std = stat.MeanStdDev(present, nil)
	} else {
		s.Mean = present[0]
	}
	if opt.Outliers && len(present) >= 8 {
		median, mad := medianMAD(present)
		thr := opt.OutlierThreshold
		if thr <= 0 {
			thr = 3.5
		}
		var cnt int
		maxAbsZ := 0.0
		if mad > 0 {
			for _, v := range present {
				az := math.Abs(0.6745 * (v - median) / mad)
				if az > thr {
					cnt++
				}
				if az > maxAbsZ {
					maxAbsZ = az
				}
			}
		}
		s.OutliersCount = cnt
		s.OutliersMaxAbsZ = maxAbsZ
		s.OutlierThreshold = thr
	}
}

// groupBy summarizes numeric columns for the 20 largest groups of f.
func groupBy(ds *dataset.Dataset, f factor.Factor, numNames []string, numeric map[string][]float64) ([]GroupResult, error) {
	col := f.Column()
	keys, err := ds.Strings(col)
	if err != nil {
		return nil, err
	}
	nulls, err := ds.Nulls(col)
	if err != nil {
		return nil, err
	}
	byKey := map[string]*GroupResult{}
	for i, k := range keys {
		if nulls[i] {
			continue
		}
		gk := fmt.Sprintf("%s=%s", f, safeVal(k))
		g := byKey[gk]
		if g == nil {
			g = &GroupResult{Key: gk, Metrics: map[string]NumSummary{}}
			byKey[gk] = g
		}
		g.Size++
		for _, name := range numNames {
			x := numeric[name][i]
			if math.IsNaN(x) {
				continue
			}
			m, ok := g.Metrics[name]
			if !ok || x < m.Min {
				m.Min = x
			}
			if !ok || x > m.Max {
				m.Max = x
			}
			// Running mean.
			m.Count++
			m.Mean += (x - m.Mean) / float64(m.Count)
			g.Metrics[name] = m
		}
	}
	out := make([]GroupResult, 0, len(byKey))
	for _, g := range byKey {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out, nil
}

// correlations uses pairwise-complete rows for each pair of columns.
func correlations(names []string, numeric map[string][]float64) *CorrMatrix {
	n := len(names)
	m := &CorrMatrix{Columns: names, Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			xa, xb := numeric[names[a]], numeric[names[b]]
			var x, y []float64
			for i := range xa {
				if math.IsNaN(xa[i]) || math.IsNaN(xb[i]) {
					continue
				}
				x = append(x, xa[i])
				y = append(y, xb[i])
			}
			var r float64
			if len(x) >= 2 {
				r = stat.Correlation(x, y, nil)
			}
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			m.Values[a][b], m.Values[b][a] = r, r
		}
	}
	return m
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString("; e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(utils.Truncate(ex, 80)))
				}
			}
		}
		b.WriteString("\n")
	}
	if r.Model != nil {
		b.WriteString("\n[VALUE MODEL]\n")
		b.WriteString(fmt.Sprintf("points_normalized = %.4f + %.4f * ln(price) (n=%d)\n", r.Model.Intercept, r.Model.Slope, r.Model.N))
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai := math.Abs(pairs[i].R)
			aj := math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(safeVal(utils.Truncate(val, 80)))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

func formatFloat(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return fmt.Sprintf("%.4g", x)
}

// medianMAD computes median and MAD (median absolute deviation) of values.
// Both are empirical quantiles, so even-length input yields the lower median.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = stat.Quantile(0.5, stat.Empirical, cp, nil)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = stat.Quantile(0.5, stat.Empirical, dev, nil)
	return
}
