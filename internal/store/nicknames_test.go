package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/roach88/whatid/internal/what"
)

func TestRegisterNickname_Lookups(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	if err := s.RegisterNickname(ctx, "baseline", "rfc(n=1)"); err != nil {
		t.Fatalf("RegisterNickname() failed: %v", err)
	}

	id, ok, err := s.NicknameToID(ctx, "baseline")
	if err != nil || !ok || id != "rfc(n=1)" {
		t.Errorf("NicknameToID() = %q, %v, %v", id, ok, err)
	}
	nick, ok, err := s.IDToNickname(ctx, "rfc(n=1)")
	if err != nil || !ok || nick != "baseline" {
		t.Errorf("IDToNickname() = %q, %v, %v", nick, ok, err)
	}

	if _, ok, _ := s.NicknameToID(ctx, "missing"); ok {
		t.Error("NicknameToID() found a missing nickname")
	}
	if _, ok, _ := s.IDToNickname(ctx, "rfc(n=2)"); ok {
		t.Error("IDToNickname() found a missing id")
	}
}

func TestRegisterNickname_SameBindingIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	for i := 0; i < 2; i++ {
		if err := s.RegisterNickname(ctx, "a", "x()"); err != nil {
			t.Fatalf("RegisterNickname() call %d failed: %v", i, err)
		}
	}
	all, err := s.AllNicknames(ctx)
	if err != nil {
		t.Fatalf("AllNicknames() failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("AllNicknames() returned %d bindings, want 1", len(all))
	}
}

func TestRegisterNickname_Conflicts(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	if err := s.RegisterNickname(ctx, "a", "x()"); err != nil {
		t.Fatalf("RegisterNickname() failed: %v", err)
	}

	err := s.RegisterNickname(ctx, "a", "y()")
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.Code != ErrCodeNicknameTaken || ce.Existing != "x()" {
		t.Errorf("conflict = %+v", ce)
	}
	want := `NICKNAME_TAKEN: nickname "a" is already associated with id "x()", delete it before updating`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = s.RegisterNickname(ctx, "b", "x()")
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.Code != ErrCodeIDTaken || ce.Existing != "a" {
		t.Errorf("conflict = %+v", ce)
	}
	if !IsConflict(err) {
		t.Error("IsConflict() = false")
	}

	// Removing frees both sides.
	if _, err := s.RemoveNickname(ctx, "a"); err != nil {
		t.Fatalf("RemoveNickname() failed: %v", err)
	}
	if err := s.RegisterNickname(ctx, "b", "x()"); err != nil {
		t.Errorf("RegisterNickname() after removal failed: %v", err)
	}
}

func TestRegisterNickname_Invalid(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	for _, nick := range []string{"", "   ", "tab\there"} {
		err := s.RegisterNickname(ctx, nick, "x()")
		if !errors.Is(err, ErrInvalidNickname) {
			t.Errorf("RegisterNickname(%q) = %v, want ErrInvalidNickname", nick, err)
		}
	}
	if err := s.RegisterNickname(ctx, "a", ""); err == nil {
		t.Error("RegisterNickname() accepted an empty id")
	}
}

func TestRegisterNickname_NormalizesUnicode(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	// "é" precomposed and decomposed.
	if err := s.RegisterNickname(ctx, "caf\u00e9", "x()"); err != nil {
		t.Fatalf("RegisterNickname() failed: %v", err)
	}
	id, ok, err := s.NicknameToID(ctx, "cafe\u0301")
	if err != nil || !ok || id != "x()" {
		t.Errorf("NicknameToID(decomposed) = %q, %v, %v", id, ok, err)
	}
}

func TestNicknameOrID(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	if err := s.RegisterNickname(ctx, "a", "x()"); err != nil {
		t.Fatalf("RegisterNickname() failed: %v", err)
	}
	if got, _ := s.NicknameOrID(ctx, "x()"); got != "a" {
		t.Errorf("NicknameOrID(x()) = %q, want a", got)
	}
	if got, _ := s.NicknameOrID(ctx, "y()"); got != "y()" {
		t.Errorf("NicknameOrID(y()) = %q, want y()", got)
	}
}

func TestRemove(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	if err := s.RegisterNickname(ctx, "a", "x()"); err != nil {
		t.Fatalf("RegisterNickname() failed: %v", err)
	}
	if err := s.RegisterNickname(ctx, "b", "y()"); err != nil {
		t.Fatalf("RegisterNickname() failed: %v", err)
	}

	removed, err := s.RemoveID(ctx, "x()")
	if err != nil || !removed {
		t.Errorf("RemoveID() = %v, %v", removed, err)
	}
	removed, err = s.RemoveID(ctx, "x()")
	if err != nil || removed {
		t.Errorf("second RemoveID() = %v, %v", removed, err)
	}
	removed, err = s.RemoveNickname(ctx, "b")
	if err != nil || !removed {
		t.Errorf("RemoveNickname() = %v, %v", removed, err)
	}

	all, err := s.AllNicknames(ctx)
	if err != nil {
		t.Fatalf("AllNicknames() failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("AllNicknames() = %v, want empty", all)
	}
}

func TestAllNicknames_SortedAndReset(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	for _, b := range [][2]string{{"zeta", "z()"}, {"Alpha", "a()"}, {"beta", "b()"}} {
		if err := s.RegisterNickname(ctx, b[0], b[1]); err != nil {
			t.Fatalf("RegisterNickname(%s) failed: %v", b[0], err)
		}
	}

	all, err := s.AllNicknames(ctx)
	if err != nil {
		t.Fatalf("AllNicknames() failed: %v", err)
	}
	want := []string{"Alpha", "beta", "zeta"}
	if len(all) != len(want) {
		t.Fatalf("AllNicknames() returned %d bindings, want %d", len(all), len(want))
	}
	for i, b := range all {
		if b.Nickname != want[i] {
			t.Errorf("all[%d].Nickname = %q, want %q", i, b.Nickname, want[i])
		}
		if b.UUID != what.IdentityUUID(b.ID) {
			t.Errorf("all[%d].UUID = %s, want identity UUID of %s", i, b.UUID, b.ID)
		}
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	all, err = s.AllNicknames(ctx)
	if err != nil {
		t.Fatalf("AllNicknames() failed: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("AllNicknames() after Reset = %#v, want empty non-nil", all)
	}
}

func TestLookupUUID(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	if err := s.RegisterNickname(ctx, "a", "x(n=1)"); err != nil {
		t.Fatalf("RegisterNickname() failed: %v", err)
	}

	b, ok, err := s.LookupUUID(ctx, what.IdentityUUID("x(n=1)"))
	if err != nil || !ok {
		t.Fatalf("LookupUUID() = %v, %v", ok, err)
	}
	if b.Nickname != "a" || b.ID != "x(n=1)" || b.Saved {
		t.Errorf("LookupUUID() = %+v", b)
	}

	if _, ok, _ := s.LookupUUID(ctx, what.IdentityUUID("x(n=2)")); ok {
		t.Error("LookupUUID() found an unregistered identity")
	}
}

func TestRegisterConfig_SavesFullConfiguration(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	c := createTestConfig(t, "rfc", 3)

	if err := s.RegisterConfig(ctx, "run1", c, true); err != nil {
		t.Fatalf("RegisterConfig() failed: %v", err)
	}

	id, _, _ := s.NicknameToID(ctx, "run1")
	if id != "rfc(n=3,rate=0.5)" {
		t.Errorf("NicknameToID() = %q", id)
	}

	got, ok, err := s.Config(ctx, "run1")
	if err != nil || !ok {
		t.Fatalf("Config() = %v, %v", ok, err)
	}
	if !got.Equal(c) {
		t.Errorf("Config() = %s, want %s", got.MustID(what.IncludeNonID()), c.MustID(what.IncludeNonID()))
	}
	if !got.IsNonID("seed") {
		t.Error("restored configuration lost its non-identity keys")
	}
}

func TestRegisterConfig_WithoutSave(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	if err := s.RegisterConfig(ctx, "run1", createTestConfig(t, "rfc", 3), false); err != nil {
		t.Fatalf("RegisterConfig() failed: %v", err)
	}
	if _, ok, err := s.Config(ctx, "run1"); ok || err != nil {
		t.Errorf("Config() = %v, %v, want not saved", ok, err)
	}

	// Saving later attaches the configuration to the same binding.
	if err := s.RegisterConfig(ctx, "run1", createTestConfig(t, "rfc", 3), true); err != nil {
		t.Fatalf("RegisterConfig(save) failed: %v", err)
	}
	if _, ok, err := s.Config(ctx, "run1"); !ok || err != nil {
		t.Errorf("Config() = %v, %v, want saved", ok, err)
	}
}

func TestRegister_Concurrent(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every goroutine races for the same nickname with a different id.
			errs <- s.RegisterNickname(ctx, "shared", what.MustNew("x", map[string]any{"i": i}).MustID())
		}(i)
	}
	wg.Wait()
	close(errs)

	var won int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case !IsConflict(err):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("%d registrations succeeded, want exactly 1", won)
	}
}
