// Package api is the HTTP surface of the dashboard: the HTML front page, the
// /api/v1/* JSON endpoints, and the response shapes shared with the websocket
// hub. All data endpoints read through the dashboard result cache; the
// refresh query parameter (?refresh=1|yes|true) bypasses it.
package api
