package spotlight

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownScreen = errors.New("unknown screen")

type ScreenState int

const (
	ScreenNone ScreenState = iota
	ScreenBootup
	ScreenHome
	ScreenDesktop
	ScreenApp
	ScreenBrowser
)

var screenStateNames = [...]string{
	ScreenNone:    "none",
	ScreenBootup:  "bootup",
	ScreenHome:    "homeScreen",
	ScreenDesktop: "desktop",
	ScreenApp:     "app",
	ScreenBrowser: "browser",
}

// AllScreens lists every screen in declaration order.
var AllScreens = []ScreenState{ScreenNone, ScreenBootup, ScreenHome, ScreenDesktop, ScreenApp, ScreenBrowser}

func (s ScreenState) Valid() bool {
	return s >= ScreenNone && s <= ScreenBrowser
}

func (s ScreenState) String() string {
	if !s.Valid() {
		return fmt.Sprintf("ScreenState(%d)", int(s))
	}
	return screenStateNames[s]
}

func ParseScreenState(name string) (ScreenState, error) {
	for i, n := range screenStateNames {
		if strings.EqualFold(n, name) {
			return ScreenState(i), nil
		}
	}
	return ScreenNone, fmt.Errorf("%w: %q", ErrUnknownScreen, name)
}

func (s ScreenState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScreen, int(s))
	}
	return []byte(s.String()), nil
}

func (s *ScreenState) UnmarshalText(text []byte) error {
	parsed, err := ParseScreenState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
