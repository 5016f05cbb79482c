package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// NotificationSender defines the interface for sending notifications to Discord channels.
type NotificationSender interface {
	// Send posts the notification to the channel and returns the message ID.
	Send(channelID snowflake.ID, notification *Notification) (snowflake.ID, error)

	// Delete removes a previously sent notification.
	Delete(channelID, messageID snowflake.ID) error
}

// MemberInfo contains display information for a guild member.
type MemberInfo struct {
	DisplayName string
	AvatarURL   string
}

// MemberInfoProvider resolves display information used to attribute notifications.
type MemberInfoProvider interface {
	MemberInfo(guildID, userID snowflake.ID) (*MemberInfo, error)
}
