// Package playlog defines the shared play-event model: scraped entries,
// recorded outcomes, normalized dedup keys, and the clock/date parsing rules
// used to order rows within a daily record.
package playlog
