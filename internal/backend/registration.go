package backend

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is how dates of birth are written by hand.
const DateLayout = "2006-01-02"

// ParseRegistration builds a registration from form text. Gender defaults
// to other and an empty date of birth is left unset.
func ParseRegistration(phone, name, gender, address, dob string) (Registration, error) {
	reg := Registration{
		PhoneNumber: strings.TrimSpace(phone),
		DisplayName: strings.TrimSpace(name),
		Gender:      Gender(strings.ToLower(strings.TrimSpace(gender))),
		Address:     strings.TrimSpace(address),
	}
	if reg.PhoneNumber == "" || reg.DisplayName == "" {
		return Registration{}, fmt.Errorf("phone number and display name are required: %w", ErrInvalidArgument)
	}
	if reg.Gender == "" {
		reg.Gender = GenderOther
	}
	if !reg.Gender.Valid() {
		return Registration{}, fmt.Errorf("gender %q: %w", gender, ErrInvalidArgument)
	}
	if dob = strings.TrimSpace(dob); dob != "" {
		t, err := time.Parse(DateLayout, dob)
		if err != nil {
			return Registration{}, fmt.Errorf("date of birth %q, want YYYY-MM-DD: %w", dob, ErrInvalidArgument)
		}
		reg.DateOfBirth = t
	}
	return reg, nil
}
