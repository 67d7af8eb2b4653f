// Package logging provides structured logging for the formwizard tools.
//
// This package wraps a zap logger with package-level convenience functions.
// Logging is silent by default so interactive renderers are not disturbed;
// set FORMWIZARD_LOG_LEVEL or pass --log-level to enable it.
//
// # Log Levels
//
//   - Debug: Wizard transitions, websocket payloads
//   - Info: Submissions, HTTP requests, server lifecycle
//   - Warn: Retried record requests, rejected sessions
//   - Error: Startup failures, failed record requests
//
// # Structured Logging
//
//	logging.Info("Record created",
//	    zap.String("id", rec.ID),
//	    zap.String("name", rec.Name),
//	)
//
// Domain helpers keep field names consistent:
//
//	logging.LogTransition("registration", "advance", 0, 1)
//	logging.LogSubmission("registration", true)
//	logging.LogHTTPRequest(remoteAddr, "PUT", "/api/sessions/x/fields", 200, elapsed)
//	logging.LogWebSocketMessage(remoteAddr, "sent", payload)
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
