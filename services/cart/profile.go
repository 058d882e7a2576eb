package cart

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is printed in the header and footer of every bill.
type Profile struct {
	Name           string   `yaml:"name"`
	Address        string   `yaml:"address"`
	Phone          string   `yaml:"phone"`
	CurrencySymbol string   `yaml:"currencySymbol"`
	Footer         []string `yaml:"footer"`
}

func DefaultProfile() Profile {
	return Profile{
		Name:           "SWATHI RESTAURANT",
		Address:        "123 Main Street, City Name, State 12345",
		Phone:          "+91 123 456 7890",
		CurrencySymbol: "₹",
		Footer: []string{
			"Thank you for dining with us!",
			"Visit us again soon!",
		},
	}
}

// LoadProfile reads a yaml profile; fields left out keep their default value.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("error reading restaurant profile %s: %w", path, err)
	}

	err = yaml.Unmarshal(data, &profile)
	if err != nil {
		return Profile{}, fmt.Errorf("error parsing restaurant profile %s: %w", path, err)
	}

	return profile, nil
}
