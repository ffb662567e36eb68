// Package jobs implements the background jobs of the Eternal AI API.
//
// Jobs run on their own goroutine, independently of HTTP request handling.
//
// # Jobs
//
//   - TokenCleanup: removes expired refresh tokens
//   - KarmicRetry: regenerates karmic reports whose AI step failed, up to
//     MaxKarmicRetries attempts per report
//
// # Lifecycle
//
// Every job has the same lifecycle:
//
//	cleanup := jobs.NewTokenCleanup(tokenService, cfg.Jobs.TokenCleanupInterval)
//	cleanup.Start()
//	defer cleanup.Stop() // cancels an in-flight pass and waits
//
// RunOnce executes a single pass synchronously, for tests and the operator
// CLI.
//
// # Error Handling
//
// A failed pass is logged and the job keeps its schedule.
package jobs
