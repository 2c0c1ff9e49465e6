package google

// DefaultOAuthScopes are the scopes a stored token must carry for the resolver
// to read and write calendar events.
var DefaultOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Calendar scope
	"https://www.googleapis.com/auth/calendar",
}
