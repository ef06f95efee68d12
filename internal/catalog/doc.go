// Package catalog talks to the Spotify Web API on behalf of the pipeline.
//
// All traffic flows through a shared rate-limited transport that spaces
// dispatches, bounds in-flight requests, and retries transient failures
// honoring Retry-After. Token refresh happens proactively ahead of expiry.
// Playlist membership is cached per playlist so duplicate checks during a
// run do not hit the network.
package catalog
