// Package records provides an HTTP client for a remote JSON record store.
//
// The default endpoint is the public https://api.restful-api.dev/objects
// collection, which stores free-form objects of the shape
//
//	{"id": "7", "name": "Alice", "data": {"email": "a@b.com"}}
//
// # Usage Example
//
//	client := records.NewClient(records.DefaultBaseURL)
//
//	list, err := client.List(ctx)
//	if err != nil {
//	    fmt.Println(records.GetShortErrorMessage(err))
//	    return
//	}
//
//	rec := records.FromSubmission("Registration", values, types)
//	created, err := client.Create(ctx, rec)
//
// # Retries and Caching
//
// Requests that fail with a retryable error (network failures, timeouts,
// 5xx responses) are retried with exponential backoff. List results are
// cached for CacheDuration; any successful mutation invalidates the cache.
//
// # Error Handling
//
// All errors are *RecordError values carrying an ErrorType. Use the Is*
// helpers, GetShortErrorMessage and GetTroubleshootingHint to present them.
//
// # Thread Safety
//
// Client instances are safe for concurrent use.
package records
