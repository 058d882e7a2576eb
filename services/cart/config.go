package cart

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"
)

const (
	defaultClearDelay = time.Second
	defaultTimezone   = "Asia/Kolkata"
)

type Config struct {
	// ClearDelay is the time the renderer gets to capture a paid bill before the cart is cleared.
	ClearDelay time.Duration
	Location   *time.Location
	Profile    Profile
}

func DefaultConfig() Config {
	return Config{
		ClearDelay: defaultClearDelay,
		Location:   time.UTC,
		Profile:    DefaultProfile(),
	}
}

func ConfigFromEnvironment() (Config, error) {
	cfg := DefaultConfig()

	if raw := os.Getenv("CART_CLEAR_DELAY"); raw != "" {
		delay, err := time.ParseDuration(raw)
		if err != nil || delay < 0 {
			return Config{}, fmt.Errorf("invalid CART_CLEAR_DELAY %q", raw)
		}
		cfg.ClearDelay = delay
	}

	timezone := os.Getenv("BILL_TIMEZONE")
	if timezone == "" {
		timezone = defaultTimezone
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BILL_TIMEZONE %q: %w", timezone, err)
	}
	cfg.Location = location

	profile, err := LoadProfile(os.Getenv("RESTAURANT_PROFILE"))
	if err != nil {
		return Config{}, err
	}
	cfg.Profile = profile

	return cfg, nil
}
