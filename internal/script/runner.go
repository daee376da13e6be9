package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/vango-dev/vmodel/pkg/diff"
	"github.com/vango-dev/vmodel/pkg/model"
	"github.com/vango-dev/vmodel/pkg/task"
	"github.com/vango-dev/vmodel/pkg/update"
)

// Record is one line of replay output.
type Record struct {
	Step      int             `json:"step"`
	Event     string          `json:"event"`
	Name      string          `json:"name,omitempty"`
	Type      diff.ChangeType `json:"type,omitempty"`
	OldValue  any             `json:"oldValue,omitempty"`
	NewValue  any             `json:"newValue,omitempty"`
	Cancelled bool            `json:"cancelled,omitempty"`
	Batch     string          `json:"batch,omitempty"`
	Diff      diff.Node       `json:"diff,omitempty"`
	State     map[string]any  `json:"state,omitempty"`
}

// Result summarizes a replay.
type Result struct {
	Steps   int
	Updates int
	State   map[string]any
}

// Runner replays scripts against fresh models.
type Runner struct {
	out     io.Writer
	logger  *slog.Logger
	metrics *model.Metrics
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger handed to replayed models.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithMetrics records the replayed models into m.
func WithMetrics(m *model.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner returns a Runner writing one JSON record per event to out.
func NewRunner(out io.Writer, opts ...RunnerOption) *Runner {
	r := &Runner{out: out, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// replay is the state of one Run.
type replay struct {
	enc     *json.Encoder
	step    int
	updates int
	err     error
}

func (p *replay) emit(rec Record) {
	if p.err != nil {
		return
	}
	rec.Step = p.step
	if err := p.enc.Encode(rec); err != nil {
		p.err = fmt.Errorf("script: write: %w", err)
	}
}

// Run replays s. Steps accumulate into one batch until a flush step, which
// ends the turn and delivers any pending update. A final record carries
// the resulting state.
func (r *Runner) Run(ctx context.Context, s *Script) (*Result, error) {
	q := task.NewQueue()
	m, err := model.New(s.Seed,
		model.WithScheduler(q),
		model.WithLogger(r.logger),
		model.WithMetrics(r.metrics),
		model.WithSilentPolicy(s.Policy()),
	)
	if err != nil {
		return nil, err
	}
	defer m.Dispose()

	for i := range s.Computed {
		if err := s.Computed[i].define(m); err != nil {
			return nil, fmt.Errorf("script: computed %q: %w", s.Computed[i].Name, err)
		}
	}

	p := &replay{enc: json.NewEncoder(r.out)}
	m.OnBeforeChange(func(e *model.BeforeChange) {
		cancelled := slices.Contains(s.Cancel, e.Name)
		if cancelled {
			e.PreventDefault()
		}
		p.emit(Record{
			Event:     model.EventBeforeChange,
			Name:      e.Name,
			Type:      e.Type,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			Cancelled: cancelled,
		})
	})
	m.OnChange(func(c model.Change) {
		p.emit(Record{
			Event:    model.EventChange,
			Name:     c.Name,
			Type:     c.Type,
			OldValue: c.OldValue,
			NewValue: c.NewValue,
		})
	})
	m.OnUpdate(func(u model.Update) {
		p.updates++
		p.emit(Record{
			Event: model.EventUpdate,
			Batch: u.ID.String(),
			Diff:  u.Diff,
		})
		for _, path := range s.Watch {
			if node := u.Diff.Get(strings.Split(path, ".")...); node != nil {
				p.emit(Record{Event: "watch", Name: path, Batch: u.ID.String(), Diff: node})
			}
		}
	})

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.step = i
		if err := runStep(m, q, step); err != nil {
			return nil, fmt.Errorf("script: step %d (%s): %w", i, step.Action(), err)
		}
		if p.err != nil {
			return nil, p.err
		}
		r.logger.Debug("script: step done", "step", i, "action", step.Action())
	}

	p.step = len(s.Steps)
	q.Drain()
	state := m.Dump()
	p.emit(Record{Event: "final", State: state})
	if p.err != nil {
		return nil, p.err
	}
	return &Result{Steps: len(s.Steps), Updates: p.updates, State: state}, nil
}

func runStep(m *model.Model, q *task.Queue, step Step) error {
	opts := model.Options{Silent: step.Silent}
	switch {
	case step.Set != nil:
		return m.Fill(step.Set, opts)
	case step.Remove != nil:
		for _, name := range step.Remove {
			if err := m.Remove(name, opts); err != nil {
				return err
			}
		}
		return nil
	case step.Update != nil:
		spec := step.spec
		if spec == nil {
			var err error
			if spec, err = update.Parse(step.Update); err != nil {
				return err
			}
		}
		return m.Update(spec, opts)
	case step.Flush:
		q.Drain()
		return nil
	default:
		return errors.New("empty step")
	}
}
