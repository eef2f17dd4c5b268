// Package ws is the WebSocket hub that pushes the current dashboard status
// to connected UI clients on a fixed interval. It only ever reads the result
// cache - a broadcast never triggers an upstream refresh.
package ws
