// Package session runs the interactive drilldown: pick a factor, rank its
// values by value score, show the extremes and optionally narrow the dataset
// to one value before picking the next factor.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/winevalue-cli/internal/dataset"
	"github.com/KaramelBytes/winevalue-cli/internal/describe"
	"github.com/KaramelBytes/winevalue-cli/internal/factor"
	"github.com/KaramelBytes/winevalue-cli/internal/logger"
	"github.com/KaramelBytes/winevalue-cli/internal/ranking"
	"github.com/KaramelBytes/winevalue-cli/internal/report"
	"github.com/KaramelBytes/winevalue-cli/internal/value"
)

// ErrInvalidFactor indicates a selection outside the remaining factors.
var ErrInvalidFactor = errors.New("factor not found")

// Messages printed by the session.
const (
	MsgNotFound     = "This factor was not found"
	MsgInsufficient = "Not enough remaining wines at this level of detail"
	MsgGoodbye      = "Enjoy your wine!"

	askFactor   = "\nPlease select one:\n"
	askContinue = "Would you like to filter further? (Y for yes, all else is no)\n"
)

// State is a step of the drilldown loop.
type State int

const (
	SelectFactor State = iota
	Filter
	Rank
	Display
	AwaitContinue
	SelectDrillValue
	Done
	Error
)

var stateNames = [...]string{
	SelectFactor:     "select_factor",
	Filter:           "filter",
	Rank:             "rank",
	Display:          "display",
	AwaitContinue:    "await_continue",
	SelectDrillValue: "select_drill_value",
	Done:             "done",
	Error:            "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether the session stops in s.
func (s State) Terminal() bool { return s == Done || s == Error }

// Options holds the settings a session runs with.
type Options struct {
	Policy   factor.Policy
	Describe describe.Options
	// TopN is how many entries each side of the split shows.
	TopN int
	// ChartDir receives a bar chart file per categorical ranking when set.
	ChartDir string
	// ShowChart prints the bar chart after each categorical ranking.
	ShowChart bool
}

// DefaultOptions returns the standard thresholds with five entries per side.
func DefaultOptions() Options {
	return Options{Policy: factor.DefaultPolicy(), Describe: describe.DefaultOptions(), TopN: 5}
}

// SessionContext is everything a session reads and narrows while it runs.
type SessionContext struct {
	Dataset   *dataset.Dataset
	Remaining []factor.Factor
	Options   Options
	Out       io.Writer
	Log       logger.Logger
}

// Outcome summarizes a finished session.
type Outcome struct {
	State State
	// Reason is set when State is Error.
	Reason error
	// Path lists the factors ranked, in order.
	Path []factor.Factor
	// Rows is the size of the dataset when the session ended.
	Rows int
}

// Session is one run of the drilldown loop.
type Session struct {
	sc     SessionContext
	prompt Prompter
	log    logger.Logger
	id     string
	now    func() time.Time

	state   State
	current factor.Factor
	ranking *ranking.Ranking
	path    []factor.Factor
	reason  error
}

// New prepares a session. A nil Remaining starts with every factor.
func New(sc SessionContext, p Prompter) *Session {
	if sc.Remaining == nil {
		sc.Remaining = append([]factor.Factor(nil), factor.All...)
	} else {
		sc.Remaining = append([]factor.Factor(nil), sc.Remaining...)
	}
	if sc.Out == nil {
		sc.Out = io.Discard
	}
	if sc.Log == nil {
		sc.Log = logger.Nop()
	}
	if sc.Options.TopN <= 0 {
		sc.Options.TopN = 5
	}
	id := uuid.NewString()
	return &Session{
		sc:     sc,
		prompt: p,
		log:    sc.Log.Named("session").With(logger.String("session_id", id)),
		id:     id,
		now:    time.Now,
		state:  SelectFactor,
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Run drives the session until it reaches Done or Error. The returned error
// is non-nil only when input or output fails or ctx ends; user mistakes and
// exhausted data end in the Error state instead.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	s.log.Info(ctx, "session started", logger.Int("rows", s.sc.Dataset.Len()))
	for !s.state.Terminal() {
		if err := ctx.Err(); err != nil {
			return s.outcome(), fmt.Errorf("session %s: %w", s.state, err)
		}
		from := s.state
		if err := s.step(ctx); err != nil {
			s.log.Error(ctx, "session aborted", logger.String("state", from.String()), logger.Error(err))
			return s.outcome(), fmt.Errorf("session %s: %w", from, err)
		}
		s.log.Debug(ctx, "transition", logger.String("from", from.String()), logger.String("to", s.state.String()))
	}
	out := s.outcome()
	s.log.Info(ctx, "session finished", logger.String("state", out.State.String()), logger.Int("rows", out.Rows))
	return out, nil
}

func (s *Session) outcome() Outcome {
	return Outcome{
		State:  s.state,
		Reason: s.reason,
		Path:   append([]factor.Factor(nil), s.path...),
		Rows:   s.sc.Dataset.Len(),
	}
}

func (s *Session) step(ctx context.Context) error {
	switch s.state {
	case SelectFactor:
		return s.selectFactor(ctx)
	case Filter:
		return s.filter(ctx)
	case Rank:
		return s.rank(ctx)
	case Display:
		report.WriteSplit(s.sc.Out, string(s.current), s.ranking.Split(), s.sc.Options.TopN)
		s.state = AwaitContinue
		return nil
	case AwaitContinue:
		return s.awaitContinue(ctx)
	case SelectDrillValue:
		return s.selectDrillValue(ctx)
	}
	return fmt.Errorf("unexpected state %s", s.state)
}

func (s *Session) selectFactor(ctx context.Context) error {
	names := make([]string, len(s.sc.Remaining))
	for i, f := range s.sc.Remaining {
		names[i] = string(f)
	}
	fmt.Fprintln(s.sc.Out, "Here are the potential factors:\n"+strings.Join(names, ", "))
	answer, err := s.prompt.Ask(ctx, askFactor)
	if err != nil {
		return err
	}
	f, ok := factor.Parse(strings.TrimSpace(answer))
	idx := -1
	if ok {
		for i, r := range s.sc.Remaining {
			if r == f {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		fmt.Fprintln(s.sc.Out, MsgNotFound)
		s.fail(fmt.Errorf("%w: %q", ErrInvalidFactor, answer))
		return nil
	}
	s.sc.Remaining = append(s.sc.Remaining[:idx], s.sc.Remaining[idx+1:]...)
	s.current = f
	s.path = append(s.path, f)
	s.state = Filter
	return nil
}

func (s *Session) filter(ctx context.Context) error {
	ds, err := factor.Filter(s.sc.Dataset, s.current, s.sc.Options.Policy)
	if err != nil {
		return err
	}
	scored, model, err := value.Compute(ds)
	if err != nil {
		return s.insufficient(err)
	}
	s.log.Debug(ctx, "value model fitted",
		logger.String("factor", string(s.current)),
		logger.Int("rows", model.N),
		logger.Float64("slope", model.Slope))
	s.sc.Dataset = scored
	s.state = Rank
	return nil
}

func (s *Session) rank(ctx context.Context) error {
	if s.current.IsText() {
		ds, res, err := describe.Fit(s.sc.Dataset, s.sc.Options.Describe)
		if err != nil {
			return s.insufficient(err)
		}
		s.log.Debug(ctx, "description model fitted", logger.Int("rank", res.Rank), logger.Int("words", len(res.Vocabulary)))
		s.sc.Dataset = ds
		s.ranking = ranking.FromCoefficients(string(s.current), res.Coefficients)
		s.state = Display
		return nil
	}
	r, err := ranking.ByFactor(s.sc.Dataset, s.current.Column())
	if err != nil {
		return err
	}
	r.Label = string(s.current)
	s.ranking = r
	if err := s.chart(ctx); err != nil {
		return err
	}
	s.state = Display
	return nil
}

func (s *Session) chart(ctx context.Context) error {
	o := s.sc.Options
	if !o.ShowChart && o.ChartDir == "" {
		return nil
	}
	chart := report.BarChart(s.ranking, 0)
	if o.ShowChart {
		fmt.Fprintln(s.sc.Out, chart)
	}
	if o.ChartDir != "" {
		path, err := report.SaveChart(o.ChartDir, string(s.current), chart, s.now())
		if err != nil {
			return err
		}
		s.log.Info(ctx, "chart saved", logger.String("path", path))
	}
	return nil
}

func (s *Session) awaitContinue(ctx context.Context) error {
	answer, err := s.prompt.Ask(ctx, askContinue)
	if err != nil {
		return err
	}
	if strings.ToLower(strings.TrimSpace(answer)) != "y" {
		fmt.Fprintln(s.sc.Out, MsgGoodbye)
		s.state = Done
		return nil
	}
	s.state = SelectDrillValue
	return nil
}

// selectDrillValue prompts until the answer is a ranked key, then narrows the
// dataset to it. Description words match by containment.
func (s *Session) selectDrillValue(ctx context.Context) error {
	name := string(s.current)
	for {
		v, err := s.prompt.Ask(ctx, "Which " + name + " would you like to filter?\n")
		if err != nil {
			return err
		}
		if _, err := s.ranking.Lookup(v); err != nil {
			s.log.Debug(ctx, "drill value rejected", logger.Error(err))
			fmt.Fprint(s.sc.Out, "\nI'm sorry. "+v+" is not a valid "+name+".\n\n")
			fmt.Fprint(s.sc.Out, "Please print the "+name+" exactly as displayed in the list below\n\n")
			for _, k := range s.ranking.Keys() {
				fmt.Fprintln(s.sc.Out, k)
			}
			continue
		}
		var ds *dataset.Dataset
		if s.current.IsText() {
			// Whole descriptions never equal a single word, so an exact match
			// would always leave no rows. Keep the reviews that mention it.
			ds, err = s.sc.Dataset.WhereContains(s.current.Column(), v)
		} else {
			ds, err = s.sc.Dataset.WhereEq(s.current.Column(), v)
		}
		if err != nil {
			return err
		}
		s.log.Info(ctx, "drilled down",
			logger.String("factor", name),
			logger.String("value", v),
			logger.Int("rows", ds.Len()))
		s.sc.Dataset = ds
		fmt.Fprint(s.sc.Out, "\n\n")
		s.state = SelectFactor
		return nil
	}
}

// insufficient ends the session for model errors caused by too little data
// and passes any other error through.
func (s *Session) insufficient(err error) error {
	if errors.Is(err, value.ErrInsufficientData) ||
		errors.Is(err, value.ErrInvalidInput) ||
		errors.Is(err, describe.ErrInsufficientData) {
		fmt.Fprintln(s.sc.Out, MsgInsufficient)
		s.fail(err)
		return nil
	}
	return err
}

func (s *Session) fail(err error) {
	s.reason = err
	s.state = Error
}
