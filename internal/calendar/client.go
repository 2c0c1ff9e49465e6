package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/calresolve/internal/google"
	"github.com/teemow/calresolve/internal/instrumentation"
)

const serviceName = instrumentation.ServiceCalendar

// DefaultUpcomingLimit bounds ListUpcomingEvents when the caller passes no limit.
const DefaultUpcomingLimit = 50

// ErrEventNotFound is returned when the calendar has no event with the given ID.
var ErrEventNotFound = errors.New("event not found")

// Recorder receives one measurement per Google API call.
type Recorder interface {
	RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration)
}

// Client wraps the Google Calendar service
type Client struct {
	svc      *calendar.Service
	account  string // The account this client is associated with
	recorder Recorder
	now      func() time.Time
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// SetRecorder attaches a metrics recorder. Passing nil disables recording.
func (c *Client) SetRecorder(r Recorder) {
	c.recorder = r
}

// HasTokenForAccountWithProvider checks if a valid OAuth token exists for the specified account
func HasTokenForAccountWithProvider(account string, provider google.TokenProvider) bool {
	if provider == nil {
		return false
	}
	return provider.HasTokenForAccount(account)
}

// NewClientForAccountWithProvider creates a new Calendar client with OAuth2 authentication for a specific account
// The OAuth token is retrieved from the provided token provider
func NewClientForAccountWithProvider(ctx context.Context, account string, tokenProvider google.TokenProvider, conf *oauth2.Config) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}
	if conf == nil {
		return nil, fmt.Errorf("oauth config cannot be nil")
	}

	token, err := tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	return NewClientWithHTTPClient(ctx, account, google.NewHTTPClient(ctx, conf, token))
}

// NewClientWithHTTPClient creates a Calendar client that sends requests through
// httpClient. Extra options (e.g. option.WithEndpoint) are passed to the service.
func NewClientWithHTTPClient(ctx context.Context, account string, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:     svc,
		account: account,
		now:     time.Now,
	}, nil
}

// ListUpcomingEvents lists events starting from now, expanded to single
// instances and ordered by start time.
func (c *Client) ListUpcomingEvents(ctx context.Context, calendarID string, maxResults int) (events []Event, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationListUpcoming)
	defer func() { done(err) }()

	if maxResults <= 0 {
		maxResults = DefaultUpcomingLimit
	}

	resp, err := c.svc.Events.List(calendarID).
		TimeMin(c.now().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		ShowDeleted(false).
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", wrapAPIError(err))
	}

	events = make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, toEvent(item))
	}
	return events, nil
}

// CreateEvent creates a new calendar event
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (_ *Event, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationCreate)
	defer func() { done(err) }()

	if input.Start.IsZero() || input.End.IsZero() {
		return nil, fmt.Errorf("event start and end are required")
	}

	item := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start:       toEventDateTime(input.Start, input.TimeZone),
		End:         toEventDateTime(input.End, input.TimeZone),
	}

	created, err := c.svc.Events.Insert(calendarID, item).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", wrapAPIError(err))
	}

	event := toEvent(created)
	return &event, nil
}

// UpdateEvent updates an existing calendar event
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, input EventInput) (_ *Event, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationUpdate)
	defer func() { done(err) }()

	// Get the existing event first
	existing, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", wrapAPIError(err))
	}

	if input.Summary != "" {
		existing.Summary = input.Summary
	}
	if input.Description != "" {
		existing.Description = input.Description
	}
	if !input.Start.IsZero() {
		existing.Start = toEventDateTime(input.Start, input.TimeZone)
	}
	if !input.End.IsZero() {
		existing.End = toEventDateTime(input.End, input.TimeZone)
	}

	updated, err := c.svc.Events.Update(calendarID, eventID, existing).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", wrapAPIError(err))
	}

	event := toEvent(updated)
	return &event, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) (err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationDelete)
	defer func() { done(err) }()

	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", wrapAPIError(err))
	}
	return nil
}

// observe starts a span for operation and returns a func that ends it and
// records the result.
func (c *Client) observe(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, serviceName, operation,
		instrumentation.NewSpanAttributeBuilder().WithAccount(c.account).Build()...)

	return ctx, func(err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()

		if c.recorder != nil {
			c.recorder.RecordGoogleAPIOperation(ctx, serviceName, operation, status, time.Since(start))
		}
	}
}

func wrapAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return fmt.Errorf("%w: %w", ErrEventNotFound, err)
	}
	return err
}
