package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/habithouse/internal/constants"
)

func TestSetAndGetConnectionString(t *testing.T) {
	gokeyring.MockInit()

	want := "postgres://habit@localhost:5432/habithouse?sslmode=disable"
	if err := SetConnectionString(want); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}

	got, err := GetConnectionString()
	if err != nil {
		t.Fatalf("GetConnectionString() failed: %v", err)
	}
	if got != want {
		t.Errorf("GetConnectionString() = %q, want %q", got, want)
	}
}

func TestSetConnectionStringEmpty(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString("  "); err == nil {
		t.Error("SetConnectionString with blank input should return an error")
	}
}

func TestDeleteConnectionString(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString("postgres://habit@localhost/habithouse"); err != nil {
		t.Fatal(err)
	}
	if err := DeleteConnectionString(); err != nil {
		t.Fatalf("DeleteConnectionString() failed: %v", err)
	}
	if _, err := GetConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConnectionString() after delete error = %v, want ErrNotFound", err)
	}
	if err := DeleteConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteConnectionString() error = %v, want ErrNotFound", err)
	}
}

func TestResolveConnectionString(t *testing.T) {
	gokeyring.MockInit()
	_ = DeleteConnectionString()

	t.Setenv(constants.EnvConnectionString, "")
	if _, _, err := ResolveConnectionString(""); !errors.Is(err, ErrNoConnectionString) {
		t.Errorf("no sources: error = %v, want ErrNoConnectionString", err)
	}

	if err := SetConnectionString("postgres://keyring@host/db"); err != nil {
		t.Fatal(err)
	}
	got, src, err := ResolveConnectionString("")
	if err != nil || src != SourceKeyring || got != "postgres://keyring@host/db" {
		t.Errorf("keyring: got (%q, %q, %v)", got, src, err)
	}

	t.Setenv(constants.EnvConnectionString, "postgres://env@host/db")
	got, src, err = ResolveConnectionString("")
	if err != nil || src != SourceEnv || got != "postgres://env@host/db" {
		t.Errorf("env: got (%q, %q, %v)", got, src, err)
	}

	got, src, err = ResolveConnectionString("postgres://flag@host/db")
	if err != nil || src != SourceFlag || got != "postgres://flag@host/db" {
		t.Errorf("flag: got (%q, %q, %v)", got, src, err)
	}
}

func TestIsAvailableWithMock(t *testing.T) {
	gokeyring.MockInit()
	if !IsAvailable() {
		t.Error("IsAvailable() = false with mock keyring")
	}
}
