package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func newService() *Service {
	return NewService(NewMemory(), zerolog.Nop())
}

func TestRegisterDefaultsToStudent(t *testing.T) {
	svc := newService()

	u, err := svc.Register(context.Background(), nil, RegisterInput{
		Name:     "Priya Nair",
		Email:    "Priya@Campus.EDU",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != RoleStudent {
		t.Fatalf("role = %q, want student", u.Role)
	}
	if u.Email != "priya@campus.edu" {
		t.Fatalf("email = %q, want lowercased", u.Email)
	}
	if !u.Active {
		t.Fatal("new user should be active")
	}
}

func TestRegisterStaffRequiresAdmin(t *testing.T) {
	svc := newService()

	in := RegisterInput{Name: "New Teacher", Email: "t@campus.edu", Password: "hunter2hunter2", Role: "teacher"}

	if _, err := svc.Register(context.Background(), nil, in); err == nil {
		t.Fatal("self-signup as teacher should fail")
	}

	student := &User{ID: "s1", Role: RoleStudent}
	if _, err := svc.Register(context.Background(), student, in); err == nil {
		t.Fatal("student creating teacher should fail")
	}

	admin := &User{ID: "a1", Role: RoleAdmin}
	u, err := svc.Register(context.Background(), admin, in)
	if err != nil {
		t.Fatalf("admin creating teacher: %v", err)
	}
	if u.Role != RoleTeacher {
		t.Fatalf("role = %q, want teacher", u.Role)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newService()
	in := RegisterInput{Name: "Priya Nair", Email: "priya@campus.edu", Password: "hunter2hunter2"}

	if _, err := svc.Register(context.Background(), nil, in); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(context.Background(), nil, in); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newService()
	in := RegisterInput{Name: "Priya Nair", Email: "priya@campus.edu", Password: "hunter2hunter2"}
	if _, err := svc.Register(context.Background(), nil, in); err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := svc.Authenticate(context.Background(), " Priya@campus.edu ", "hunter2hunter2")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.Email != "priya@campus.edu" {
		t.Fatalf("email = %q", u.Email)
	}

	if _, err := svc.Authenticate(context.Background(), "priya@campus.edu", "wrong-password"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("wrong password: got %v, want ErrBadCredentials", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody@campus.edu", "hunter2hunter2"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("unknown email: got %v, want ErrBadCredentials", err)
	}
}
