package resolver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/teemow/calresolve/internal/calendar"
	"github.com/teemow/calresolve/internal/disambiguation"
	"github.com/teemow/calresolve/internal/generation"
)

// scriptedGenerator returns its outputs in order and repeats the last one.
type scriptedGenerator struct {
	mu       sync.Mutex
	outputs  []string
	err      error
	requests []generation.Request
}

func (g *scriptedGenerator) Generate(_ context.Context, req generation.Request) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	msgs := make([]generation.Message, len(req.Messages))
	copy(msgs, req.Messages)
	req.Messages = msgs
	g.requests = append(g.requests, req)

	if g.err != nil {
		return nil, g.err
	}
	i := len(g.requests) - 1
	if i >= len(g.outputs) {
		i = len(g.outputs) - 1
	}
	return []byte(g.outputs[i]), nil
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type createCall struct {
	calendarID string
	input      calendar.EventInput
}

type updateCall struct {
	calendarID, eventID string
	input               calendar.EventInput
}

type deleteCall struct {
	calendarID, eventID string
}

type fakeCalendar struct {
	events  []calendar.Event
	err     error
	creates []createCall
	updates []updateCall
	deletes []deleteCall
	lists   []int
}

func (f *fakeCalendar) CreateEvent(_ context.Context, calendarID string, input calendar.EventInput) (*calendar.Event, error) {
	f.creates = append(f.creates, createCall{calendarID, input})
	if f.err != nil {
		return nil, f.err
	}
	return &calendar.Event{
		ID:      "created-1",
		Summary: input.Summary,
		Start:   input.Start,
		End:     input.End,
		Link:    "https://calendar.google.com/event?eid=created-1",
	}, nil
}

func (f *fakeCalendar) UpdateEvent(_ context.Context, calendarID, eventID string, input calendar.EventInput) (*calendar.Event, error) {
	f.updates = append(f.updates, updateCall{calendarID, eventID, input})
	if f.err != nil {
		return nil, f.err
	}
	return &calendar.Event{ID: eventID, Summary: input.Summary, Link: "https://calendar.google.com/event?eid=" + eventID}, nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	f.deletes = append(f.deletes, deleteCall{calendarID, eventID})
	return f.err
}

func (f *fakeCalendar) ListUpcomingEvents(_ context.Context, _ string, maxResults int) ([]calendar.Event, error) {
	f.lists = append(f.lists, maxResults)
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeCalendar) calls() int {
	return len(f.creates) + len(f.updates) + len(f.deletes) + len(f.lists)
}

type disambiguationCall struct {
	calendarID, text, hint string
}

type fakeDisambiguator struct {
	result disambiguation.Result
	err    error
	calls  []disambiguationCall
}

func (f *fakeDisambiguator) Resolve(_ context.Context, _ disambiguation.EventLister, calendarID, text, hint string) (disambiguation.Result, error) {
	f.calls = append(f.calls, disambiguationCall{calendarID, text, hint})
	return f.result, f.err
}

type resolution struct {
	outcome    string
	iterations int
}

type fakeRecorder struct {
	resolutions []resolution
}

func (f *fakeRecorder) RecordResolution(_ context.Context, outcome string, toolIterations int, _ time.Duration) {
	f.resolutions = append(f.resolutions, resolution{outcome, toolIterations})
}

var errBackend = errors.New("backend unavailable")

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestResolver(gen generation.Generator, dis Disambiguator, cfg Config, opts ...Option) *Resolver {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(gen, dis, cfg, opts...)
}
