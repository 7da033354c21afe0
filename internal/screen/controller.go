// Package screen implements navigation between the home, expense and settings
// screens.
package screen

import (
	"errors"
	"fmt"
	"sync"
)

type Screen string

const (
	Home     Screen = "home"
	Expense  Screen = "expense"
	Settings Screen = "settings"
)

var (
	ErrUnknownScreen     = errors.New("unknown screen")
	ErrInvalidTransition = errors.New("invalid screen transition")
)

// transitions lists the allowed moves. Expense and Settings only connect
// through Home.
var transitions = map[Screen][]Screen{
	Home:     {Expense, Settings},
	Expense:  {Home},
	Settings: {Home},
}

// Parse converts a screen name to a Screen.
func Parse(name string) (Screen, error) {
	switch s := Screen(name); s {
	case Home, Expense, Settings:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScreen, name)
	}
}

// Controller tracks the current screen. Showing any screen other than Expense
// runs the leave hooks, which is how the receipt ledger gets reset.
type Controller struct {
	mu      sync.Mutex
	current Screen
	onLeave []func()
}

func NewController() *Controller {
	return &Controller{current: Home}
}

// OnLeaveExpense registers a hook run on every transition to a screen other
// than Expense, whether or not anything was submitted.
func (c *Controller) OnLeaveExpense(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLeave = append(c.onLeave, fn)
}

func (c *Controller) Current() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Show makes target the current screen. Re-showing the current screen is allowed.
func (c *Controller) Show(target Screen) error {
	if _, err := Parse(string(target)); err != nil {
		return err
	}

	c.mu.Lock()
	if target != c.current && !allowed(c.current, target) {
		from := c.current
		c.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
	}
	c.current = target
	hooks := append([]func(){}, c.onLeave...)
	c.mu.Unlock()

	if target != Expense {
		for _, fn := range hooks {
			fn()
		}
	}
	return nil
}

func allowed(from, to Screen) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
