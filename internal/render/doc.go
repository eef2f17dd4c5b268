// Package render turns a dashboard page into the HTML front page. The
// template is embedded in the binary; its filters mirror the upstream
// dashboard's: first commit-message line, committer name without the email,
// and humanized timestamps.
package render
