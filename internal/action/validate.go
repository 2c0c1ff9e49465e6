package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kaptinlin/jsonrepair"
)

var localDateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so messages match what the model produced.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("localdatetime", func(fl validator.FieldLevel) bool {
		return IsLocalDateTime(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("failed to register localdatetime validation: %v", err))
	}

	return v
}

// IsLocalDateTime reports whether s matches YYYY-MM-DDTHH:MM:SS exactly.
func IsLocalDateTime(s string) bool {
	return localDateTimePattern.MatchString(s)
}

// Decode parses raw model output into an Envelope. Output that is not valid
// JSON is passed through jsonrepair once before giving up. A field of the
// wrong JSON type does not stop decoding: it is left empty and reported by
// Validate together with every other violation.
func Decode(raw []byte) (Envelope, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return Envelope{}, &SchemaValidationError{Messages: []string{"model output is empty"}}
	}

	var fields map[string]json.RawMessage
	err := json.Unmarshal([]byte(text), &fields)
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		repaired, repairErr := jsonrepair.JSONRepair(text)
		if repairErr != nil {
			return Envelope{}, &SchemaValidationError{Messages: []string{
				fmt.Sprintf("model output is not valid JSON: %v", err),
			}}
		}
		fields = nil
		err = json.Unmarshal([]byte(repaired), &fields)
	}
	if err != nil || fields == nil {
		return Envelope{}, &SchemaValidationError{Messages: []string{"model output is not a JSON object"}}
	}

	return decodeFields(fields), nil
}

// requestFields lists the string fields of Request in schema order.
var requestFields = []string{"action", "calendarId", "summary", "startDateTime", "endDateTime", "eventId"}

func decodeFields(fields map[string]json.RawMessage) Envelope {
	var env Envelope
	targets := map[string]*string{
		"action":        (*string)(&env.Action),
		"calendarId":    &env.CalendarID,
		"summary":       &env.Summary,
		"startDateTime": &env.StartDateTime,
		"endDateTime":   &env.EndDateTime,
		"eventId":       &env.EventID,
	}

	for _, name := range requestFields {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, targets[name]); err != nil {
			*targets[name] = ""
			env.typeViolations = append(env.typeViolations, typeViolation{field: name, message: typeMessage(name, "string", err)})
		}
	}

	if value, ok := fields["tool"]; ok {
		if err := json.Unmarshal(value, &env.Tool); err != nil {
			env.Tool = nil
			env.typeViolations = append(env.typeViolations, typeViolation{field: "tool", message: typeMessage("tool", "object", err)})
		}
	}
	return env
}

type typeViolation struct {
	field   string
	message string
}

// typeMessage names the offending field by its JSON path, e.g. tool.maxResults.
func typeMessage(field, want string, err error) string {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return fmt.Sprintf("%s must be of type %s", field, want)
	}
	if typeErr.Field != "" {
		field += "." + typeErr.Field
		want = typeErr.Type.String()
	}
	return fmt.Sprintf("%s must be of type %s (got %s)", field, want, typeErr.Value)
}

// Validate checks req against the action contract and returns the normalized
// request. Every violated constraint is reported in the returned
// *SchemaValidationError, not just the first, including fields Decode found
// with the wrong JSON type. Beyond the YYYY-MM-DDTHH:MM:SS pattern, timestamps
// must name a real date and time (2025-02-30T10:00:00 is rejected) and
// endDateTime must be after startDateTime.
func Validate(req Request) (Request, error) {
	var messages []string
	mistyped := make(map[string]bool, len(req.typeViolations))
	for _, v := range req.typeViolations {
		messages = append(messages, v.message)
		mistyped[v.field] = true
	}
	req = normalize(req)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Request{}, &SchemaValidationError{Messages: []string{err.Error()}}
		}
		for _, fe := range verrs {
			if !mistyped[fe.Field()] {
				messages = append(messages, fieldMessage(fe))
			}
		}
	}

	messages = append(messages, checkTimes(req)...)

	if len(messages) > 0 {
		return Request{}, &SchemaValidationError{Messages: messages}
	}
	return req, nil
}

func normalize(req Request) Request {
	req.Action = Action(strings.ToLower(strings.TrimSpace(string(req.Action))))
	req.CalendarID = strings.TrimSpace(req.CalendarID)
	req.Summary = strings.TrimSpace(req.Summary)
	req.StartDateTime = strings.TrimSpace(req.StartDateTime)
	req.EndDateTime = strings.TrimSpace(req.EndDateTime)
	req.EventID = strings.TrimSpace(req.EventID)
	req.typeViolations = nil
	if req.CalendarID == "" {
		req.CalendarID = DefaultCalendarID
	}
	return req
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s (got %q)",
			fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "localdatetime":
		return fmt.Sprintf("%s must match YYYY-MM-DDTHH:MM:SS (got %q)", fe.Field(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// checkTimes validates pattern-conforming timestamps as real calendar times.
func checkTimes(req Request) []string {
	var messages []string

	start, startOK := parseChecked("startDateTime", req.StartDateTime, &messages)
	end, endOK := parseChecked("endDateTime", req.EndDateTime, &messages)

	if startOK && endOK && !end.After(start) {
		messages = append(messages, "endDateTime must be after startDateTime")
	}
	return messages
}

func parseChecked(field, value string, messages *[]string) (time.Time, bool) {
	if value == "" || !IsLocalDateTime(value) {
		return time.Time{}, false
	}
	t, err := time.Parse(LocalDateTimeLayout, value)
	if err != nil {
		*messages = append(*messages, fmt.Sprintf("%s is not a valid date and time (got %q)", field, value))
		return time.Time{}, false
	}
	return t, true
}

// CheckComplete reports whether req carries the fields its action needs.
// create needs summary, startDateTime and endDateTime; update needs eventId
// and summary; delete needs eventId or a summary to disambiguate with.
func CheckComplete(req Request) error {
	var missing []string
	switch req.Action {
	case ActionCreate:
		if req.Summary == "" {
			missing = append(missing, "summary")
		}
		if req.StartDateTime == "" {
			missing = append(missing, "startDateTime")
		}
		if req.EndDateTime == "" {
			missing = append(missing, "endDateTime")
		}
	case ActionUpdate:
		if req.EventID == "" {
			missing = append(missing, "eventId")
		}
		if req.Summary == "" {
			missing = append(missing, "summary")
		}
	case ActionDelete:
		if req.EventID == "" && req.Summary == "" {
			missing = append(missing, "eventId or summary")
		}
	}

	if len(missing) > 0 {
		return &IncompleteActionError{Action: req.Action, Missing: missing}
	}
	return nil
}
