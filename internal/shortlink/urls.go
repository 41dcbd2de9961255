// ABOUTME: Viewer URL construction for sessions and short codes
// ABOUTME: Both paths hang off the configured base URL

package shortlink

import "strings"

// ViewerURL returns the session map page a short link points at.
func ViewerURL(baseURL, sessionID string) string {
	return strings.TrimRight(baseURL, "/") + "/map/" + sessionID
}

// ShareURL returns the public short URL for code.
func ShareURL(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "/s/" + code
}
