package enums

import "fmt"

// Membership is the customer tier. It has no pricing effect.
type Membership string

const (
	MembershipGold   Membership = "G"
	MembershipSilver Membership = "S"
	MembershipBronze Membership = "B"
)

// DefaultMembership is assigned to lazily created customers.
const DefaultMembership = MembershipBronze

var validMemberships = []Membership{
	MembershipGold,
	MembershipSilver,
	MembershipBronze,
}

// String implements fmt.Stringer.
func (m Membership) String() string {
	return string(m)
}

// IsValid reports whether the value is a known Membership.
func (m Membership) IsValid() bool {
	for _, candidate := range validMemberships {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMembership converts raw input into a Membership.
func ParseMembership(value string) (Membership, error) {
	for _, candidate := range validMemberships {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership %q", value)
}
