package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/calresolve/internal/action"
	"github.com/teemow/calresolve/internal/calendar"
	"github.com/teemow/calresolve/internal/disambiguation"
	"github.com/teemow/calresolve/internal/generation"
	"github.com/teemow/calresolve/internal/instrumentation"
	"github.com/teemow/calresolve/internal/logging"
)

// DefaultMaxToolIterations is the number of tool executions allowed per
// resolution.
const DefaultMaxToolIterations = 5

const purposeAction = "action"

// Disambiguator proposes events matching a loose description.
type Disambiguator interface {
	Resolve(ctx context.Context, lister disambiguation.EventLister, calendarID, text, hint string) (disambiguation.Result, error)
}

// Recorder receives one measurement per resolution.
type Recorder interface {
	RecordResolution(ctx context.Context, outcome string, toolIterations int, duration time.Duration)
}

// Config tunes the resolver.
type Config struct {
	// MaxToolIterations caps tool executions per resolution.
	MaxToolIterations int
	// Location is the calendar time zone local timestamps are read in.
	Location *time.Location
	// CalendarTimeout bounds every single calendar call. Zero disables it.
	CalendarTimeout time.Duration
	// ReadOnly refuses create, update and delete.
	ReadOnly bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxToolIterations: DefaultMaxToolIterations,
		Location:          time.UTC,
		CalendarTimeout:   15 * time.Second,
	}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(r *Resolver) { r.recorder = recorder }
}

// WithTools replaces the tool registry.
func WithTools(tools Tools) Option {
	return func(r *Resolver) { r.tools = tools }
}

// WithClock sets the clock used for the system prompt.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// Resolver runs resolutions. It keeps no per-request state and is safe for
// concurrent use.
type Resolver struct {
	generator     generation.Generator
	disambiguator Disambiguator
	cfg           Config
	tools         Tools
	logger        *slog.Logger
	recorder      Recorder
	now           func() time.Time
}

// New creates a Resolver.
func New(generator generation.Generator, disambiguator Disambiguator, cfg Config, opts ...Option) *Resolver {
	if cfg.MaxToolIterations <= 0 {
		cfg.MaxToolIterations = DefaultMaxToolIterations
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	r := &Resolver{
		generator:     generator,
		disambiguator: disambiguator,
		cfg:           cfg,
		tools:         DefaultTools(),
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.WithService(r.logger, "resolver")
	return r
}

// ReadOnly reports whether calendar changes are refused.
func (r *Resolver) ReadOnly() bool {
	return r.cfg.ReadOnly
}

// run carries the mutable state of one resolution.
type run struct {
	state        State
	iterations   int
	conversation []generation.Message
	logger       *slog.Logger
}

func (rn *run) transition(to State) {
	rn.logger.Debug("state transition",
		slog.String("from", rn.state.String()),
		logging.State(to),
		slog.Int("tool_iterations", rn.iterations))
	rn.state = to
}

// Resolve interprets text and acts on cal. It never returns nil and never
// returns an error: failures are reported as an Outcome of KindFailure.
func (r *Resolver) Resolve(ctx context.Context, cal Calendar, text string) *Outcome {
	start := time.Now()
	ctx, span := instrumentation.StartSpan(ctx, "resolver.Resolve",
		append(instrumentation.NewSpanAttributeBuilder().WithReadOnly(r.cfg.ReadOnly).Build(),
			attribute.Int("request.length", len(text)))...)

	rn := &run{state: StateRequesting, logger: r.logger}
	out := r.resolve(ctx, withCallTimeout(cal, r.cfg.CalendarTimeout), text, rn)
	out.ToolIterations = rn.iterations
	out.State = rn.state

	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
		WithOutcome(string(out.Kind), string(out.Category)).
		WithToolIterations(rn.iterations).
		Build()...)
	if out.Err != nil {
		instrumentation.SetSpanError(span, out.Err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	span.End()

	r.finish(ctx, out, logging.TextLength(text), time.Since(start))
	return out
}

// ConfirmDelete deletes an event the user picked from a disambiguation
// proposal.
func (r *Resolver) ConfirmDelete(ctx context.Context, cal Calendar, calendarID, eventID string) *Outcome {
	start := time.Now()
	ctx, span := instrumentation.StartSpan(ctx, "resolver.ConfirmDelete",
		instrumentation.NewSpanAttributeBuilder().WithCalendar(calendarID, eventID).Build()...)

	if calendarID == "" {
		calendarID = action.DefaultCalendarID
	}
	req := &action.Request{Action: action.ActionDelete, CalendarID: calendarID, EventID: eventID}

	var out *Outcome
	switch {
	case r.cfg.ReadOnly:
		out = r.fail(ErrReadOnly)
	case strings.TrimSpace(eventID) == "":
		out = r.fail(&action.IncompleteActionError{Action: action.ActionDelete, Missing: []string{"eventId"}})
	default:
		err := withCallTimeout(cal, r.cfg.CalendarTimeout).DeleteEvent(ctx, calendarID, eventID)
		if err != nil {
			out = r.fail(fmt.Errorf("%w: %w", ErrCollaboratorFailure, err))
		} else {
			out = &Outcome{Kind: KindConfirmation, Message: "Deleted the event.", State: StateResolved}
		}
	}
	out.Action = req

	if out.Err != nil {
		instrumentation.SetSpanError(span, out.Err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	span.End()

	r.finish(ctx, out, logging.EventID(eventID), time.Since(start))
	return out
}

func (r *Resolver) finish(ctx context.Context, out *Outcome, subject slog.Attr, duration time.Duration) {
	attrs := []any{
		logging.Outcome(out.Label()),
		logging.State(out.State),
		slog.Int("tool_iterations", out.ToolIterations),
		slog.Duration(logging.KeyDuration, duration),
		subject,
	}
	if out.Action != nil {
		attrs = append(attrs, logging.Action(string(out.Action.Action)))
	}
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}

	switch out.Category {
	case "":
		r.logger.Info("resolution finished", attrs...)
	case CategoryCollaboratorFailure, CategoryTimeout, CategoryGenerationUnavailable:
		r.logger.Error("resolution failed", append(attrs, logging.Err(out.Err))...)
	default:
		r.logger.Info("resolution rejected", append(attrs, logging.Err(out.Err))...)
	}

	if r.recorder != nil {
		r.recorder.RecordResolution(ctx, out.Label(), out.ToolIterations, duration)
	}
}

func (r *Resolver) resolve(ctx context.Context, cal Calendar, text string, rn *run) *Outcome {
	if strings.TrimSpace(text) == "" {
		rn.transition(StateFailed)
		return r.fail(fmt.Errorf("%w: empty request", ErrUnrecognizedAction))
	}

	rn.conversation = []generation.Message{generation.UserMessage(text)}
	prompt := systemPrompt(r.now(), r.cfg.Location, r.tools.Names())

	for {
		raw, err := r.generator.Generate(ctx, generation.Request{
			Purpose:      purposeAction,
			SystemPrompt: prompt,
			Messages:     rn.conversation,
			Schema:       action.ResponseSchema(),
		})
		if err != nil {
			rn.transition(StateFailed)
			return r.fail(generationError(err))
		}

		env, err := action.Decode(raw)
		if err != nil {
			rn.transition(StateFailed)
			return r.fail(err)
		}

		if inv, ok := env.ToolInvocation(); ok {
			if err := r.runTool(ctx, cal, inv, raw, rn); err != nil {
				rn.transition(StateFailed)
				return r.fail(err)
			}
			continue
		}

		req, err := action.Validate(env.Request)
		if err != nil {
			rn.transition(StateFailed)
			return r.fail(err)
		}
		if err := action.CheckComplete(req); err != nil {
			rn.transition(StateFailed)
			out := r.fail(err)
			out.Action = &req
			return out
		}

		out := r.dispatch(ctx, cal, text, req)
		out.Action = &req
		if out.Kind == KindFailure {
			rn.transition(StateFailed)
		} else {
			rn.transition(StateResolved)
		}
		return out
	}
}

// runTool executes one tool request and appends the request and its result
// to the conversation.
func (r *Resolver) runTool(ctx context.Context, cal Calendar, inv action.ToolInvocation, raw []byte, rn *run) error {
	if rn.iterations >= r.cfg.MaxToolIterations {
		return fmt.Errorf("%w: more than %d tool requests", ErrToolLoopExceeded, r.cfg.MaxToolIterations)
	}
	tool, ok := r.tools[inv.Name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTool, inv.Name)
	}

	rn.transition(StateToolPending)
	rn.iterations++
	instrumentation.AddSpanEvent(trace.SpanFromContext(ctx), "tool_requested",
		attribute.String(instrumentation.SpanAttrTool, inv.Name))

	ctx, span := instrumentation.StartSpan(ctx, "resolver.tool",
		instrumentation.NewSpanAttributeBuilder().WithTool(inv.Name).WithToolIterations(rn.iterations).Build()...)
	defer span.End()

	result, err := tool(ctx, ToolEnv{Calendar: cal, Location: r.cfg.Location}, inv)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("%w: %w", ErrCollaboratorFailure, err)
	}

	payload, err := json.Marshal(map[string]any{"tool": inv.Name, "result": result})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to encode tool result: %w", err)
	}
	instrumentation.SetSpanSuccess(span)

	rn.conversation = append(rn.conversation,
		generation.ModelMessage(string(raw)),
		generation.ToolMessage(string(payload)))
	rn.transition(StateRequesting)
	return nil
}

// dispatch performs or proposes the validated action.
func (r *Resolver) dispatch(ctx context.Context, cal Calendar, text string, req action.Request) *Outcome {
	switch req.Action {
	case action.ActionCreate:
		return r.create(ctx, cal, req)
	case action.ActionUpdate:
		return r.update(ctx, cal, req)
	case action.ActionDelete:
		if req.EventID != "" {
			return r.deleteByID(ctx, cal, req)
		}
		return r.proposeDelete(ctx, cal, text, req)
	default:
		return r.fail(fmt.Errorf("%w: %q", ErrUnrecognizedAction, req.Action))
	}
}

func (r *Resolver) create(ctx context.Context, cal Calendar, req action.Request) *Outcome {
	if r.cfg.ReadOnly {
		return r.fail(ErrReadOnly)
	}
	input, err := r.eventInput(req)
	if err != nil {
		return r.fail(err)
	}

	event, err := cal.CreateEvent(ctx, req.CalendarID, input)
	if err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrCollaboratorFailure, err))
	}

	msg := fmt.Sprintf("Created %q on %s.", event.Summary, displayTime(event.Start, r.cfg.Location))
	return &Outcome{Kind: KindConfirmation, Message: withLink(msg, event.Link), Event: event}
}

func (r *Resolver) update(ctx context.Context, cal Calendar, req action.Request) *Outcome {
	if r.cfg.ReadOnly {
		return r.fail(ErrReadOnly)
	}
	input, err := r.eventInput(req)
	if err != nil {
		return r.fail(err)
	}

	event, err := cal.UpdateEvent(ctx, req.CalendarID, req.EventID, input)
	if err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrCollaboratorFailure, err))
	}

	msg := fmt.Sprintf("Updated %q.", event.Summary)
	return &Outcome{Kind: KindConfirmation, Message: withLink(msg, event.Link), Event: event}
}

func (r *Resolver) deleteByID(ctx context.Context, cal Calendar, req action.Request) *Outcome {
	if r.cfg.ReadOnly {
		return r.fail(ErrReadOnly)
	}
	if err := cal.DeleteEvent(ctx, req.CalendarID, req.EventID); err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrCollaboratorFailure, err))
	}
	return &Outcome{Kind: KindConfirmation, Message: "Deleted the event."}
}

// proposeDelete looks up the event the user described. Nothing is deleted.
func (r *Resolver) proposeDelete(ctx context.Context, cal Calendar, text string, req action.Request) *Outcome {
	result, err := r.disambiguator.Resolve(ctx, cal, req.CalendarID, text, req.Summary)
	if err != nil {
		if errors.Is(err, disambiguation.ErrEventLookup) {
			err = fmt.Errorf("%w: %w", ErrCollaboratorFailure, err)
		}
		return r.fail(err)
	}

	out := &Outcome{Kind: KindDisambiguation, Disambiguation: &result}
	switch result.Outcome {
	case disambiguation.OutcomeAutoResolved:
		best, _ := result.Best()
		out.Message = fmt.Sprintf("I found %q on %s. Do you want me to delete it?",
			best.Summary, displayTime(best.Start, r.cfg.Location))
	case disambiguation.OutcomeCandidateList:
		var b strings.Builder
		b.WriteString("I found several events that could match. Which one do you want to delete?")
		for i, c := range result.Candidates {
			fmt.Fprintf(&b, "\n%d. %q on %s", i+1, c.Summary, displayTime(c.Start, r.cfg.Location))
		}
		out.Message = b.String()
	default:
		out.Message = fmt.Sprintf("I couldn't find an upcoming event matching %q.", req.Summary)
	}
	return out
}

func (r *Resolver) eventInput(req action.Request) (calendar.EventInput, error) {
	start, err := req.Start(r.cfg.Location)
	if err != nil {
		return calendar.EventInput{}, &action.SchemaValidationError{Messages: []string{"startDateTime is not a valid time"}}
	}
	end, err := req.End(r.cfg.Location)
	if err != nil {
		return calendar.EventInput{}, &action.SchemaValidationError{Messages: []string{"endDateTime is not a valid time"}}
	}
	return calendar.EventInput{
		Summary:  req.Summary,
		Start:    start,
		End:      end,
		TimeZone: r.cfg.Location.String(),
	}, nil
}

func (r *Resolver) fail(err error) *Outcome {
	category, msg := classify(err)
	return &Outcome{Kind: KindFailure, Message: msg, Category: category, Err: err, State: StateFailed}
}

func withLink(msg, link string) string {
	if link == "" {
		return msg
	}
	return msg + " " + link
}
