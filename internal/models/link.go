// ABOUTME: Short link model mapping a public code to a session viewer URL
// ABOUTME: Click counts only ever move upward

package models

import "time"

// ShortLink maps a short code to a session-viewing link.
type ShortLink struct {
	ShortCode   string `json:"shortCode" yaml:"short_code"`
	OriginalURL string `json:"originalUrl" yaml:"original_url"`
	SessionID   string `json:"sessionId" yaml:"session_id"`
	CreatedAt   int64  `json:"createdAt" yaml:"created_at"`
	Clicks      int    `json:"clicks" yaml:"clicks"`
}

// Created returns the creation time.
func (l ShortLink) Created() time.Time {
	return time.UnixMilli(l.CreatedAt)
}
