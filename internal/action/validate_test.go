package action

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DefaultsCalendarID(t *testing.T) {
	req, err := Validate(Request{
		Action:        ActionCreate,
		Summary:       "Dentist",
		StartDateTime: "2025-05-20T15:00:00",
		EndDateTime:   "2025-05-20T16:00:00",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultCalendarID, req.CalendarID)
	assert.Equal(t, "Dentist", req.Summary)
}

func TestValidate_KeepsExplicitCalendarID(t *testing.T) {
	req, err := Validate(Request{Action: ActionDelete, CalendarID: "team@example.com", EventID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "team@example.com", req.CalendarID)
}

func TestValidate_TimestampPattern(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "full timestamp", value: "2025-05-20T15:00:00"},
		{name: "missing seconds", value: "2025-05-20T15:00", wantErr: true},
		{name: "with offset", value: "2025-05-20T15:00:00Z", wantErr: true},
		{name: "with numeric offset", value: "2025-05-20T15:00:00+02:00", wantErr: true},
		{name: "space separator", value: "2025-05-20 15:00:00", wantErr: true},
		{name: "date only", value: "2025-05-20", wantErr: true},
		{name: "impossible date", value: "2025-02-30T10:00:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(Request{Action: ActionUpdate, EventID: "e1", Summary: "x", StartDateTime: tt.value})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrSchemaValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestIsLocalDateTime(t *testing.T) {
	assert.True(t, IsLocalDateTime("2025-05-20T15:00:00"))
	assert.False(t, IsLocalDateTime("2025-05-20T15:00"))
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	_, err := Validate(Request{
		Action:        "reschedule",
		StartDateTime: "tomorrow",
		EndDateTime:   "2025-05-20T15:00",
	})
	require.Error(t, err)

	var verr *SchemaValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Messages, 3)
	assert.Contains(t, verr.Messages[0], "action must be one of create, update, delete")
	assert.Contains(t, verr.Messages[1], "startDateTime must match YYYY-MM-DDTHH:MM:SS")
	assert.Contains(t, verr.Messages[2], "endDateTime must match YYYY-MM-DDTHH:MM:SS")
	assert.Equal(t, verr.Messages[0]+"; "+verr.Messages[1]+"; "+verr.Messages[2], err.Error())
}

func TestValidate_MissingAction(t *testing.T) {
	_, err := Validate(Request{Summary: "lunch"})
	require.Error(t, err)
	assert.Equal(t, "action is required", err.Error())
}

func TestValidate_NormalizesAction(t *testing.T) {
	req, err := Validate(Request{Action: " Delete ", EventID: "e1"})
	require.NoError(t, err)
	assert.Equal(t, ActionDelete, req.Action)
}

func TestValidate_EndBeforeStart(t *testing.T) {
	_, err := Validate(Request{
		Action:        ActionCreate,
		Summary:       "Standup",
		StartDateTime: "2025-05-20T10:00:00",
		EndDateTime:   "2025-05-20T09:30:00",
	})
	require.Error(t, err)
	assert.Equal(t, "endDateTime must be after startDateTime", err.Error())
}

func TestCheckComplete(t *testing.T) {
	tests := []struct {
		name        string
		req         Request
		wantMissing []string
	}{
		{
			name: "complete create",
			req:  Request{Action: ActionCreate, Summary: "a", StartDateTime: "2025-05-20T10:00:00", EndDateTime: "2025-05-20T11:00:00"},
		},
		{
			name:        "create without end",
			req:         Request{Action: ActionCreate, Summary: "a", StartDateTime: "2025-05-20T10:00:00"},
			wantMissing: []string{"endDateTime"},
		},
		{
			name:        "create with nothing",
			req:         Request{Action: ActionCreate},
			wantMissing: []string{"summary", "startDateTime", "endDateTime"},
		},
		{
			name:        "update without event id",
			req:         Request{Action: ActionUpdate, Summary: "new title"},
			wantMissing: []string{"eventId"},
		},
		{
			name: "delete by id",
			req:  Request{Action: ActionDelete, EventID: "e1"},
		},
		{
			name: "delete by summary",
			req:  Request{Action: ActionDelete, Summary: "Team sync"},
		},
		{
			name:        "delete with nothing",
			req:         Request{Action: ActionDelete},
			wantMissing: []string{"eventId or summary"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckComplete(tt.req)
			if tt.wantMissing == nil {
				assert.NoError(t, err)
				return
			}
			var incomplete *IncompleteActionError
			require.True(t, errors.As(err, &incomplete))
			assert.Equal(t, tt.wantMissing, incomplete.Missing)
			assert.True(t, errors.Is(err, ErrIncompleteAction))
		})
	}
}

func TestRequest_StartEnd(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	req := Request{StartDateTime: "2025-05-20T15:00:00"}
	start, err := req.Start(loc)
	require.NoError(t, err)
	assert.Equal(t, 15, start.Hour())
	assert.Equal(t, loc, start.Location())

	end, err := req.End(loc)
	require.NoError(t, err)
	assert.True(t, end.IsZero())
}
