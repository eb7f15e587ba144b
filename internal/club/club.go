// Package club maintains club rosters and join/leave/promote transitions.
package club

import (
	"errors"
	"fmt"
	"time"
)

// Category classifies a club.
type Category string

const (
	CategoryTechnical Category = "technical"
	CategoryCultural  Category = "cultural"
	CategorySports    Category = "sports"
	CategoryAcademic  Category = "academic"
	CategorySocial    Category = "social"
)

// ParseCategory validates a raw category string.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryTechnical, CategoryCultural, CategorySports, CategoryAcademic, CategorySocial:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown club category %q", s)
}

// MemberRole is a member's role within a club.
type MemberRole string

const (
	RoleMember      MemberRole = "member"
	RoleLeader      MemberRole = "leader"
	RoleCoordinator MemberRole = "coordinator"
)

// Club is a student club with a single designated coordinator. The
// coordinator is not required to appear in the members list.
type Club struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      Category  `json:"category"`
	CoordinatorID string    `json:"coordinator_id"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// Member is one membership row. Leaving a club flips IsActive rather than
// deleting the row, so history survives for statistics.
type Member struct {
	ClubID   string     `json:"club_id"`
	UserID   string     `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
	IsActive bool       `json:"is_active"`
}

var (
	// ErrNotFound is returned when a requested club does not exist.
	ErrNotFound = errors.New("club not found")
	// ErrClubInactive is returned when joining a deactivated club.
	ErrClubInactive = errors.New("club is inactive")
	// ErrAlreadyMember is returned when an active membership already exists.
	ErrAlreadyMember = errors.New("already an active member")
	// ErrNotAMember is returned when no active membership exists.
	ErrNotAMember = errors.New("not an active member")
)
