package club

import (
	"context"
	"sync"
)

// Memory is an in-memory repository used in dev mode and tests. All roster
// checks run under one mutex, matching the per-club serialization the
// Postgres implementation gets from row locks.
type Memory struct {
	mu      sync.Mutex
	clubs   map[string]Club
	members map[string][]Member
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		clubs:   make(map[string]Club),
		members: make(map[string][]Member),
	}
}

func (m *Memory) Create(_ context.Context, c Club) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clubs[c.ID] = c
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (Club, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clubs[id]
	if !ok {
		return Club{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) List(_ context.Context) ([]Club, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Club, 0, len(m.clubs))
	for _, c := range m.clubs {
		out = append(out, c)
	}
	return out, nil
}

func (m *Memory) Update(_ context.Context, c Club) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.clubs[c.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name, cur.Description, cur.Category = c.Name, c.Description, c.Category
	m.clubs[c.ID] = cur
	return nil
}

func (m *Memory) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clubs[id]
	if !ok {
		return ErrNotFound
	}
	c.IsActive = active
	m.clubs[id] = c
	return nil
}

func (m *Memory) SetCoordinator(_ context.Context, clubID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clubs[clubID]
	if !ok {
		return ErrNotFound
	}
	c.CoordinatorID = userID
	m.clubs[clubID] = c
	return nil
}

func (m *Memory) AddMember(_ context.Context, member Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clubs[member.ClubID]
	if !ok {
		return ErrNotFound
	}
	if !c.IsActive {
		return ErrClubInactive
	}
	for _, row := range m.members[member.ClubID] {
		if row.UserID == member.UserID && row.IsActive {
			return ErrAlreadyMember
		}
	}
	m.members[member.ClubID] = append(m.members[member.ClubID], member)
	return nil
}

func (m *Memory) DeactivateMember(_ context.Context, clubID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.members[clubID]
	for i, row := range rows {
		if row.UserID == userID && row.IsActive {
			rows[i].IsActive = false
			return nil
		}
	}
	return ErrNotAMember
}

func (m *Memory) SetMemberRole(_ context.Context, clubID, userID string, role MemberRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.members[clubID]
	for i, row := range rows {
		if row.UserID == userID && row.IsActive {
			rows[i].Role = role
			return nil
		}
	}
	return ErrNotAMember
}

func (m *Memory) ActiveMembers(_ context.Context, clubID string) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Member
	for _, row := range m.members[clubID] {
		if row.IsActive {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *Memory) ActiveMemberRole(_ context.Context, clubID, userID string) (MemberRole, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.members[clubID] {
		if row.UserID == userID && row.IsActive {
			return row.Role, true, nil
		}
	}
	return "", false, nil
}

func (m *Memory) ActiveMemberCount(_ context.Context, clubID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, row := range m.members[clubID] {
		if row.IsActive {
			count++
		}
	}
	return count, nil
}
