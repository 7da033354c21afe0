package screen

import (
	"errors"
	"testing"
)

func TestInitialScreenIsHome(t *testing.T) {
	if got := NewController().Current(); got != Home {
		t.Fatalf("initial = %s", got)
	}
}

func TestTransitions(t *testing.T) {
	cases := []struct {
		from, to Screen
		ok       bool
	}{
		{Home, Expense, true},
		{Home, Settings, true},
		{Expense, Home, true},
		{Settings, Home, true},
		{Home, Home, true},
		{Expense, Expense, true},
		{Expense, Settings, false},
		{Settings, Expense, false},
	}
	for _, tc := range cases {
		c := NewController()
		c.current = tc.from
		err := c.Show(tc.to)
		if tc.ok && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok {
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s -> %s: expected ErrInvalidTransition, got %v", tc.from, tc.to, err)
			}
			if c.Current() != tc.from {
				t.Fatalf("refused transition changed the screen")
			}
		}
	}
}

func TestUnknownScreen(t *testing.T) {
	c := NewController()
	if err := c.Show(Screen("about")); !errors.Is(err, ErrUnknownScreen) {
		t.Fatalf("expected ErrUnknownScreen, got %v", err)
	}
	if _, err := Parse("nope"); !errors.Is(err, ErrUnknownScreen) {
		t.Fatalf("expected ErrUnknownScreen, got %v", err)
	}
	if s, err := Parse("settings"); err != nil || s != Settings {
		t.Fatalf("parse settings: %s %v", s, err)
	}
}

func TestLeaveHooksRunOnEveryNonExpenseTarget(t *testing.T) {
	c := NewController()
	calls := 0
	c.OnLeaveExpense(func() { calls++ })

	steps := []struct {
		to    Screen
		calls int
	}{
		{Expense, 0},
		{Home, 1},
		{Settings, 2},
		{Home, 3},
		{Home, 4},
	}
	for _, st := range steps {
		if err := c.Show(st.to); err != nil {
			t.Fatalf("show %s: %v", st.to, err)
		}
		if calls != st.calls {
			t.Fatalf("after %s calls=%d, want %d", st.to, calls, st.calls)
		}
	}
}

func TestRefusedTransitionRunsNoHooks(t *testing.T) {
	c := NewController()
	_ = c.Show(Expense)
	calls := 0
	c.OnLeaveExpense(func() { calls++ })
	_ = c.Show(Settings)
	if calls != 0 {
		t.Fatalf("hooks ran on a refused transition")
	}
}
