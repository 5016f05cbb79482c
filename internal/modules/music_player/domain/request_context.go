package domain

import "github.com/disgoorg/snowflake/v2"

// RequestContext carries the provenance of a request through to the events it causes.
// It is never stored on a session.
type RequestContext struct {
	ActorID         snowflake.ID // User who issued the request
	NotifyChannelID snowflake.ID // Text channel for notifications, 0 for none
}

// NewRequestContext creates a RequestContext.
func NewRequestContext(actorID, notifyChannelID snowflake.ID) *RequestContext {
	return &RequestContext{
		ActorID:         actorID,
		NotifyChannelID: notifyChannelID,
	}
}

// HasNotifyChannel returns true if notifications for this request have a destination.
func (c *RequestContext) HasNotifyChannel() bool {
	return c != nil && c.NotifyChannelID != 0
}
