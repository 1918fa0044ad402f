// Package calendar reads events from the user's primary Google Calendar.
//
// Events are requested for a DateRange with recurring events expanded into
// single instances and ordered by start time:
//
//	client, err := calendar.NewClient(tokens, logger, metrics)
//	if err != nil {
//	    return err
//	}
//	events, err := client.ListEvents(ctx, calendar.DateRange{Min: start, Max: end})
//
// Errors are classified by the google package: a missing or rejected credential
// is a *google.AuthError, any other API failure a *google.NetworkError.
package calendar
