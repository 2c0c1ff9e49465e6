package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calresolve/internal/action"
	"github.com/teemow/calresolve/internal/calendar"
	"github.com/teemow/calresolve/internal/resolver"
	"github.com/teemow/calresolve/internal/server"
	"github.com/teemow/calresolve/internal/tools/common"
)

// Tool names.
const (
	ToolResolveRequest = "calendar_resolve_request"
	ToolConfirmDelete  = "calendar_confirm_delete"
	ToolListUpcoming   = "calendar_list_upcoming"
)

const accountDescription = "Account name (default: 'default'). Selects which stored Google token is used."

// RegisterCalendarTools registers the calendar tools with s. The delete
// confirmation tool is only registered when writes are enabled.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil || sc == nil {
		return fmt.Errorf("mcp server and server context are required")
	}

	resolveTool := mcp.NewTool(ToolResolveRequest,
		mcp.WithDescription("Interpret a natural-language calendar request (create, move or cancel an event) "+
			"and carry it out. Vague cancellations return candidate events to confirm instead."),
		mcp.WithString("request",
			mcp.Required(),
			mcp.Description("The user's request, e.g. 'cancel my dentist appointment next week'"),
		),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
	)
	s.AddTool(resolveTool, common.InstrumentedToolHandler(ToolResolveRequest, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleResolveRequest(ctx, request, sc)
		}))

	listTool := mcp.NewTool(ToolListUpcoming,
		mcp.WithDescription("List upcoming events of a calendar, soonest first"),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description(fmt.Sprintf("Maximum number of events (default %d, at most %d)",
				resolver.DefaultToolMaxResults, resolver.MaxToolMaxResults)),
		),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler(ToolListUpcoming, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListUpcoming(ctx, request, sc)
		}))

	if sc.ReadOnly() {
		return nil
	}

	confirmTool := mcp.NewTool(ToolConfirmDelete,
		mcp.WithDescription("Delete an event the user picked from the candidates returned by "+
			ToolResolveRequest+". Only call this after the user confirmed."),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the confirmed candidate event"),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
	)
	s.AddTool(confirmTool, common.InstrumentedToolHandler(ToolConfirmDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleConfirmDelete(ctx, request, sc)
		}))

	return nil
}

func handleResolveRequest(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	text, _ := args["request"].(string)
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("request is required"), nil
	}

	cal, err := sc.CalendarForAccount(common.GetAccountFromArgs(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return outcomeResult(ctx, sc.Resolver().Resolve(ctx, cal, text))
}

func handleConfirmDelete(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID := common.GetStringArg(args, "eventId", "")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}
	calendarID := common.GetStringArg(args, "calendarId", action.DefaultCalendarID)

	cal, err := sc.CalendarForAccount(common.GetAccountFromArgs(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return outcomeResult(ctx, sc.Resolver().ConfirmDelete(ctx, cal, calendarID, eventID))
}

func handleListUpcoming(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarID := common.GetStringArg(args, "calendarId", action.DefaultCalendarID)
	maxResults := common.GetIntArg(args, "maxResults", resolver.DefaultToolMaxResults)
	if maxResults <= 0 {
		maxResults = resolver.DefaultToolMaxResults
	}
	if maxResults > resolver.MaxToolMaxResults {
		maxResults = resolver.MaxToolMaxResults
	}

	cal, err := sc.CalendarForAccount(common.GetAccountFromArgs(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := cal.ListUpcomingEvents(ctx, calendarID, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list upcoming events: %v", err)), nil
	}
	if events == nil {
		events = []calendar.Event{}
	}

	return jsonResult(map[string]any{
		"calendarId": calendarID,
		"count":      len(events),
		"events":     events,
	})
}

// outcomeResult encodes out as the tool result. Failures are returned as
// error results so clients can tell them apart.
func outcomeResult(ctx context.Context, out *resolver.Outcome) (*mcp.CallToolResult, error) {
	common.RecordOutcome(ctx, string(out.Kind), string(out.Category))

	result, err := jsonResult(out)
	if err != nil {
		return nil, err
	}
	result.IsError = out.Failed()
	return result, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
