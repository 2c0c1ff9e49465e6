// Package calendar provides a context-aware client for the Google Calendar API.
//
// The client covers what the resolver needs from a calendar: creating,
// updating, fetching and deleting events and listing upcoming events. Every
// call is traced and, when a Recorder is attached, counted.
//
// Example usage:
//
//	provider := google.NewFileTokenProvider("")
//	conf := google.OAuthConfig(clientID, clientSecret)
//	client, err := calendar.NewClientForAccountWithProvider(ctx, "default", provider, conf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	events, err := client.ListUpcomingEvents(ctx, "primary", 50)
package calendar
