// Package gateway defines the chat-platform collaborators the economy
// core talks to. The gateway process owns sessions, presence and channel
// provisioning; the core only needs identity lookups and a display
// surface for shop listings and announcements.
package gateway

import "context"

// MemberProfile is a player's current identity as the gateway sees it.
// RoleIDs preserves the member's own role order; stock resolution is
// order-sensitive and depends on it.
type MemberProfile struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	RoleIDs     []string `json:"role_ids"`
}

// Message is a rendered message on the display surface.
type Message struct {
	Ref     string `json:"ref"`
	Content string `json:"content"`
}

// IdentityService resolves player identity and group membership.
type IdentityService interface {
	// ResolveMember returns the member's current display name and ordered
	// role list.
	ResolveMember(ctx context.Context, memberID string) (*MemberProfile, error)

	// GroupMembers returns all members holding the given role, in the
	// gateway's listing order.
	GroupMembers(ctx context.Context, roleID string) ([]*MemberProfile, error)
}

// DisplaySurface is where shop listings and announcements are rendered.
type DisplaySurface interface {
	// FetchLatestSystemMessage returns the most recent message posted by
	// the system in the channel, or nil if there is none.
	FetchLatestSystemMessage(ctx context.Context, channelID int64) (*Message, error)

	// Post creates a new message and returns its reference.
	Post(ctx context.Context, channelID int64, content string) (string, error)

	// Edit replaces the content of an existing message.
	Edit(ctx context.Context, messageRef string, content string) error
}
