// Package pipeline orchestrates the full cycle: scrape play entries, match
// them against the catalog, record outcomes in daily archive files, and keep
// the target playlist in sync with deferred, time-ordered additions.
//
// Entries are processed newest first. Five consecutive entries whose matched
// tracks are already playlist members end a run early; any other outcome
// resets the streak. Continuous mode repeats runs on a fixed interval with
// an interruptible wait.
package pipeline
