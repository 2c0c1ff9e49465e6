package action

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_FinalAction(t *testing.T) {
	env, err := Decode([]byte(`{"action":"delete","summary":"Team sync"}`))
	require.NoError(t, err)

	_, isTool := env.ToolInvocation()
	assert.False(t, isTool)
	assert.Equal(t, ActionDelete, env.Action)
	assert.Equal(t, "Team sync", env.Summary)
}

func TestDecode_ToolRequest(t *testing.T) {
	env, err := Decode([]byte(`{"tool":{"name":"list_upcoming_events","calendarId":"primary","maxResults":5}}`))
	require.NoError(t, err)

	inv, ok := env.ToolInvocation()
	require.True(t, ok)
	assert.Equal(t, ToolListUpcomingEvents, inv.Name)
	assert.Equal(t, "primary", inv.String("calendarId"))
	assert.Equal(t, 5, inv.Int("maxResults", 20))
	assert.Equal(t, 20, inv.Int("missing", 20))
}

func TestDecode_EmptyToolNameIsNotATool(t *testing.T) {
	env, err := Decode([]byte(`{"tool":{"name":""},"action":"delete","eventId":"e1"}`))
	require.NoError(t, err)
	_, ok := env.ToolInvocation()
	assert.False(t, ok)
}

func TestDecode_RepairsTrailingComma(t *testing.T) {
	env, err := Decode([]byte(`{"action":"delete","eventId":"e1",}`))
	require.NoError(t, err)
	assert.Equal(t, "e1", env.EventID)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode([]byte("   "))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaValidation))
}

func TestDecode_WrongTypeIsReportedByValidate(t *testing.T) {
	env, err := Decode([]byte(`{"action":"create","summary":42}`))
	require.NoError(t, err)
	assert.Equal(t, ActionCreate, env.Action)
	assert.Empty(t, env.Summary)

	_, err = Validate(env.Request)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaValidation))
	assert.Equal(t, "summary must be of type string (got number)", err.Error())
}

func TestDecode_AllViolationsReported(t *testing.T) {
	env, err := Decode([]byte(`{"action":"remove","summary":5,"startDateTime":"2025-05-20T15:00"}`))
	require.NoError(t, err)

	_, err = Validate(env.Request)
	var verr *SchemaValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Messages, 3)
	assert.Equal(t, "summary must be of type string (got number)", verr.Messages[0])
	assert.Contains(t, verr.Messages[1], "action must be one of create, update, delete")
	assert.Contains(t, verr.Messages[2], "startDateTime must match YYYY-MM-DDTHH:MM:SS")
	assert.NotContains(t, err.Error(), "Request.")
}

func TestDecode_MistypedActionReportedOnce(t *testing.T) {
	env, err := Decode([]byte(`{"action":1,"eventId":"e1"}`))
	require.NoError(t, err)

	_, err = Validate(env.Request)
	require.Error(t, err)
	assert.Equal(t, "action must be of type string (got number)", err.Error())
}

func TestDecode_MistypedToolField(t *testing.T) {
	env, err := Decode([]byte(`{"tool":{"name":"list_upcoming_events","maxResults":"five"}}`))
	require.NoError(t, err)
	_, isTool := env.ToolInvocation()
	assert.False(t, isTool)

	_, err = Validate(env.Request)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool.maxResults must be of type int (got string)")
}

func TestDecode_NotAnObject(t *testing.T) {
	for _, raw := range []string{`[1]`, `"x"`, `null`} {
		t.Run(raw, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchemaValidation))
			assert.Equal(t, "model output is not a JSON object", err.Error())
		})
	}
}

func TestResponseSchema(t *testing.T) {
	schema := ResponseSchema()
	require.NotNil(t, schema)
	assert.Equal(t, []string{"create", "update", "delete"}, schema.Properties["action"].Enum)
	assert.Equal(t, []string{ToolListUpcomingEvents}, schema.Properties["tool"].Properties["name"].Enum)
}
