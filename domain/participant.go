// Package domain contains core concepts of the relay.
// This file defines participant identities and the principal yielded by authentication.
// No runtime, network, or storage logic should be added here.
package domain

// Identity is the stable account identifier carried by a verified credential.
type Identity string

func (i Identity) String() string {
	return string(i)
}

// Principal is what a successful credential verification yields.
type Principal struct {
	Identity Identity
	Name     string
	Roles    []string
}

// DisplayName falls back to the identity when no name is known.
func (p Principal) DisplayName() string {
	if p.Name == "" {
		return p.Identity.String()
	}
	return p.Name
}
