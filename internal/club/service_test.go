package club

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clubhub/internal/authz"
	"clubhub/internal/identity"
)

func newUser(t *testing.T, users identity.Repository, role identity.Role) identity.User {
	t.Helper()
	u := identity.User{
		ID:        uuid.NewString(),
		Name:      "user " + string(role),
		Email:     uuid.NewString() + "@campus.edu",
		Role:      role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func newFixture(t *testing.T) (*Service, Repository, identity.Repository) {
	t.Helper()
	repo := NewMemory()
	users := identity.NewMemory()
	return NewService(repo, users, zerolog.Nop()), repo, users
}

func mustCreateClub(t *testing.T, svc *Service, admin identity.User, coordinatorID string) Club {
	t.Helper()
	c, err := svc.Create(context.Background(), admin, CreateInput{
		Name:          "Robotics Club",
		Category:      "technical",
		CoordinatorID: coordinatorID,
	})
	if err != nil {
		t.Fatalf("create club: %v", err)
	}
	return c
}

func TestCreateRequiresStaff(t *testing.T) {
	svc, _, users := newFixture(t)
	student := newUser(t, users, identity.RoleStudent)
	teacher := newUser(t, users, identity.RoleTeacher)

	_, err := svc.Create(context.Background(), student, CreateInput{
		Name: "Chess", Category: "academic", CoordinatorID: teacher.ID,
	})
	var denied *authz.DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("student create: got %v, want DeniedError", err)
	}
	if denied.Reason != authz.ReasonInsufficientRole {
		t.Fatalf("reason = %q", denied.Reason)
	}

	if _, err := svc.Create(context.Background(), teacher, CreateInput{
		Name: "Chess", Category: "academic", CoordinatorID: teacher.ID,
	}); err != nil {
		t.Fatalf("teacher create: %v", err)
	}
}

func TestCreateRejectsStudentCoordinator(t *testing.T) {
	svc, _, users := newFixture(t)
	admin := newUser(t, users, identity.RoleAdmin)
	student := newUser(t, users, identity.RoleStudent)

	_, err := svc.Create(context.Background(), admin, CreateInput{
		Name: "Chess", Category: "academic", CoordinatorID: student.ID,
	})
	if err == nil {
		t.Fatal("expected error for student coordinator")
	}
}

func TestJoinAndDuplicate(t *testing.T) {
	svc, _, users := newFixture(t)
	admin := newUser(t, users, identity.RoleAdmin)
	teacher := newUser(t, users, identity.RoleTeacher)
	student := newUser(t, users, identity.RoleStudent)
	c := mustCreateClub(t, svc, admin, teacher.ID)

	m, err := svc.Join(context.Background(), student, c.ID, student.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if m.Role != RoleMember || !m.IsActive {
		t.Fatalf("membership = %+v", m)
	}

	if _, err := svc.Join(context.Background(), student, c.ID, student.ID); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("second join: got %v, want ErrAlreadyMember", err)
	}

	count, err := svc.MemberCount(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("member count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestJoinSelfOnly(t *testing.T) {
	svc, _, users := newFixture(t)
	admin := newUser(t, users, identity.RoleAdmin)
	teacher := newUser(t, users, identity.RoleTeacher)
	alice := newUser(t, users, identity.RoleStudent)
	bob := newUser(t, users, identity.RoleStudent)
	c := mustCreateClub(t, svc, admin, teacher.ID)

	var denied *authz.DeniedError
	if _, err := svc.Join(context.Background(), alice, c.ID, bob.ID); !errors.As(err, &denied) {
		t.Fatalf("join on behalf: got %v, want DeniedError", err)
	}

	// Admins may join a user on their behalf.
	if _, err := svc.Join(context.Background(), admin, c.ID, bob.ID); err != nil {
		t.Fatalf("admin join on behalf: %v", err)
	}
}

func TestJoinInactiveClub(t *testing.T) {
	svc, _, users := newFixture(t)
	admin := newUser(t, users, identity.RoleAdmin)
	teacher := newUser(t, users, identity.RoleTeacher)
	student := newUser(t, users, identity.RoleStudent)
	c := mustCreateClub(t, svc, admin, teacher.ID)

	if err := svc.Deactivate(context.Background(), admin, c.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Join(context.Background(), student, c.ID, student.ID); !errors.Is(err, ErrClubInactive) {
		t.Fatalf("join inactive: got %v, want ErrClubInactive", err)
	}
}

func TestLeaveThenLeaveAgain(t *testing.T) {
	svc, _, users := newFixture(t)
	admin := newUser(t, users, identity.RoleAdmin)
	teacher := newUser(t, users, identity.RoleTeacher)
	student := newUser(t, users, identity.RoleStudent)
	c := mustCreateClub(t, svc, admin, teacher.ID)

	if _, err := svc.Join(context.Background(), student, c.ID, student.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Leave(context.Background(), student, c.ID, student.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := svc.Leave(context.Background(), student, c.ID, student.ID); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("second leave: got %v, want ErrNotAMember", err)
	}

	count, err := svc.MemberCount(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("member count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count after leave = %d, want 0", count)
	}

	// Rejoining appends a fresh active row.
	if _, err := svc.Join(context.Background(), student, c.ID, student.ID); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	roster, err := svc.Roster(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("roster size = %d, want 1", len(roster))
	}
}

func TestPromote(t *testing.T) {
	svc, repo, users := newFixture(t)
	admin := newUser(t, users, identity.RoleAdmin)
	coordinator := newUser(t, users, identity.RoleTeacher)
	outsider := newUser(t, users, identity.RoleTeacher)
	student := newUser(t, users, identity.RoleStudent)
	c := mustCreateClub(t, svc, admin, coordinator.ID)

	if _, err := svc.Join(context.Background(), student, c.ID, student.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	var denied *authz.DeniedError
	if err := svc.Promote(context.Background(), outsider, c.ID, student.ID, RoleLeader); !errors.As(err, &denied) {
		t.Fatalf("outsider promote: got %v, want DeniedError", err)
	}
	if denied.Reason != authz.ReasonNotClubAuthority {
		t.Fatalf("reason = %q", denied.Reason)
	}

	if err := svc.Promote(context.Background(), coordinator, c.ID, student.ID, RoleLeader); err != nil {
		t.Fatalf("promote to leader: %v", err)
	}
	role, ok, err := repo.ActiveMemberRole(context.Background(), c.ID, student.ID)
	if err != nil || !ok {
		t.Fatalf("member role lookup: ok=%v err=%v", ok, err)
	}
	if role != RoleLeader {
		t.Fatalf("role = %q, want leader", role)
	}
}

func TestPromoteToCoordinatorReplacesSlot(t *testing.T) {
	svc, _, users := newFixture(t)
	admin := newUser(t, users, identity.RoleAdmin)
	coordinator := newUser(t, users, identity.RoleTeacher)
	successor := newUser(t, users, identity.RoleTeacher)
	c := mustCreateClub(t, svc, admin, coordinator.ID)

	if _, err := svc.Join(context.Background(), successor, c.ID, successor.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Promote(context.Background(), coordinator, c.ID, successor.ID, RoleCoordinator); err != nil {
		t.Fatalf("promote to coordinator: %v", err)
	}

	got, err := svc.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get club: %v", err)
	}
	if got.CoordinatorID != successor.ID {
		t.Fatalf("coordinator = %q, want %q", got.CoordinatorID, successor.ID)
	}

	// The membership row is untouched by the coordinator change.
	roster, err := svc.Roster(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 1 || roster[0].Role != RoleMember {
		t.Fatalf("roster = %+v", roster)
	}
}

// The coordinator slot only accepts teachers and admins, on every path that
// writes it.
func TestPromoteStudentToCoordinatorRejected(t *testing.T) {
	svc, _, users := newFixture(t)
	admin := newUser(t, users, identity.RoleAdmin)
	coordinator := newUser(t, users, identity.RoleTeacher)
	student := newUser(t, users, identity.RoleStudent)
	c := mustCreateClub(t, svc, admin, coordinator.ID)

	if _, err := svc.Join(context.Background(), student, c.ID, student.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Promote(context.Background(), coordinator, c.ID, student.ID, RoleCoordinator); err == nil {
		t.Fatal("promoting a student to coordinator should fail")
	}

	got, err := svc.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get club: %v", err)
	}
	if got.CoordinatorID != coordinator.ID {
		t.Fatalf("coordinator = %q, want unchanged %q", got.CoordinatorID, coordinator.ID)
	}

	// Leader promotion is still open to students.
	if err := svc.Promote(context.Background(), coordinator, c.ID, student.ID, RoleLeader); err != nil {
		t.Fatalf("promote to leader: %v", err)
	}
}

func TestPromoteNonMember(t *testing.T) {
	svc, _, users := newFixture(t)
	admin := newUser(t, users, identity.RoleAdmin)
	coordinator := newUser(t, users, identity.RoleTeacher)
	stranger := newUser(t, users, identity.RoleStudent)
	c := mustCreateClub(t, svc, admin, coordinator.ID)

	if err := svc.Promote(context.Background(), coordinator, c.ID, stranger.ID, RoleCoordinator); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("promote stranger: got %v, want ErrNotAMember", err)
	}
}

func TestSetCoordinatorAdminOnly(t *testing.T) {
	svc, _, users := newFixture(t)
	admin := newUser(t, users, identity.RoleAdmin)
	coordinator := newUser(t, users, identity.RoleTeacher)
	replacement := newUser(t, users, identity.RoleTeacher)
	c := mustCreateClub(t, svc, admin, coordinator.ID)

	var denied *authz.DeniedError
	if err := svc.SetCoordinator(context.Background(), coordinator, c.ID, replacement.ID); !errors.As(err, &denied) {
		t.Fatalf("teacher set coordinator: got %v, want DeniedError", err)
	}

	if err := svc.SetCoordinator(context.Background(), admin, c.ID, replacement.ID); err != nil {
		t.Fatalf("admin set coordinator: %v", err)
	}
	got, err := svc.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get club: %v", err)
	}
	if got.CoordinatorID != replacement.ID {
		t.Fatalf("coordinator = %q, want %q", got.CoordinatorID, replacement.ID)
	}
}
