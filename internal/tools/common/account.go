package common

import (
	"github.com/teemow/calresolve/internal/google"
)

// GetAccountFromArgs returns the "account" argument, or the default account
// when it is missing, empty or not a string.
func GetAccountFromArgs(args map[string]any) string {
	if account, ok := args["account"].(string); ok && account != "" {
		return account
	}
	return google.DefaultAccount
}

// GetStringArg returns the string argument key, or def when it is missing,
// empty or not a string.
func GetStringArg(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

// GetIntArg returns the numeric argument key as an int, or def. JSON numbers
// arrive as float64.
func GetIntArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}
