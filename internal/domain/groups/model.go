package groups

import "time"

const (
	MinMembers        = 2
	MaxMembers        = 10
	DefaultMaxGroups  = 5
	AccessSecretLimit = 10
)

// Group is a named collection of participants sharing expenses. AccessSecret is
// the shareable join code.
type Group struct {
	ID           string
	Name         string
	MemberCount  int
	AccessSecret string
	CreatorID    string
	CreatorName  string
	CreatedAt    time.Time
}

// Membership rows are never deleted; leaving flips Active and stamps LeftAt.
type Membership struct {
	ID       string
	GroupID  string
	UserID   string
	Active   bool
	JoinedAt time.Time
	LeftAt   *time.Time
}

type CreateGroupInput struct {
	UserID      string
	CreatorName string
	Name        string
	MemberCount int
}

type JoinResult struct {
	Group *Group
	// AlreadyMember is set when the caller already had an active membership.
	AlreadyMember bool
}
