// Package archive maintains the per-day markdown record files: one row per
// matched play, kept duplicate-free per (artist, title) key and sorted by
// time of day, plus a marker-delimited statistics block per file.
package archive
