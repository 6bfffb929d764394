// Package pricing resolves GPU preset names and hourly rates and turns
// render wall time into a cost estimate. Rates come from environment
// overrides, then configuration, then built-in defaults; a missing rate
// makes the cost unavailable, never an error.
package pricing
