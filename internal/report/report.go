// Package report renders rankings for the terminal and writes chart and JSON
// artifacts.
package report

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/winevalue-cli/internal/ranking"
	"github.com/KaramelBytes/winevalue-cli/internal/utils"
)

const (
	topHeader    = "The biggest factors in good value and their average points above the price are:"
	bottomHeader = "The biggest factors in below average value and their average points below the price are:"
	maxKeyWidth  = 40
)

// WriteSplit prints the first n top and bottom entries as value tables.
func WriteSplit(w io.Writer, label string, s ranking.Split, n int) {
	fmt.Fprintf(w, "%s\n\n", topHeader)
	writeTable(w, label, ranking.Head(s.Top, n))
	fmt.Fprintf(w, "\n%s\n\n", bottomHeader)
	writeTable(w, label, ranking.Head(s.Bottom, n))
}

func writeTable(w io.Writer, label string, es []ranking.Entry) {
	if len(es) == 0 {
		fmt.Fprintf(w, "(no %s)\n", label)
		return
	}
	width := len([]rune(label))
	keys := make([]string, len(es))
	for i, e := range es {
		keys[i] = utils.Truncate(e.Key, maxKeyWidth)
		if n := len([]rune(keys[i])); n > width {
			width = n
		}
	}
	fmt.Fprintf(w, "%s  %10s\n", pad(label, width), "value")
	for i, e := range es {
		fmt.Fprintf(w, "%s  %10.6f\n", pad(keys[i], width), e.Value)
	}
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// ChartTitle heads every bar chart.
const ChartTitle = "Points above expected for the price"

// BarChart renders the ranking as horizontal bars around a zero axis, in
// ranking order. Positive bars extend right, negative bars left.
func BarChart(r *ranking.Ranking, width int) string {
	if width <= 0 {
		width = 30
	}
	var b strings.Builder
	b.WriteString(ChartTitle + "\n")
	b.WriteString(fmt.Sprintf("x: %s  y: Value\n\n", r.Label))
	var maxAbs float64
	keyWidth := 0
	for _, e := range r.Entries {
		maxAbs = math.Max(maxAbs, math.Abs(e.Value))
		if n := len([]rune(utils.Truncate(e.Key, maxKeyWidth))); n > keyWidth {
			keyWidth = n
		}
	}
	for _, e := range r.Entries {
		n := 0
		if maxAbs > 0 {
			n = int(math.Round(math.Abs(e.Value) / maxAbs * float64(width)))
		}
		left := strings.Repeat(" ", width)
		right := ""
		if e.Value < 0 {
			left = strings.Repeat(" ", width-n) + strings.Repeat("░", n)
		} else {
			right = strings.Repeat("█", n)
		}
		b.WriteString(fmt.Sprintf("%s %s|%s %+.3f\n", pad(utils.Truncate(e.Key, maxKeyWidth), keyWidth), left, right, e.Value))
	}
	return b.String()
}

// SaveChart writes chart to dir and returns the file path.
func SaveChart(dir, label, chart string, now time.Time) (string, error) {
	name := fmt.Sprintf("%s-value-%s.txt", utils.SafeFileName(label), now.Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := utils.SafeWriteFile(path, []byte(chart)); err != nil {
		return "", fmt.Errorf("save chart: %w", err)
	}
	return path, nil
}

// Export is the JSON shape written by the rank command.
type Export struct {
	Factor      string          `json:"factor"`
	Rows        int             `json:"rows"`
	GeneratedAt time.Time       `json:"generated_at"`
	Top         []ranking.Entry `json:"top"`
	Bottom      []ranking.Entry `json:"bottom"`
	Ranking     []ranking.Entry `json:"ranking"`
}

// WriteJSON writes the full ranking and its split to path.
func WriteJSON(path string, r *ranking.Ranking, rows int, now time.Time) error {
	s := r.Split()
	b, err := utils.PrettyJSON(Export{
		Factor:      r.Label,
		Rows:        rows,
		GeneratedAt: now.UTC(),
		Top:         s.Top,
		Bottom:      s.Bottom,
		Ranking:     r.Entries,
	})
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}
