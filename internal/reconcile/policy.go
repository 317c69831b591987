package reconcile

import "fmt"

// Policy decides who wins when a matched record differs from the remote.
type Policy string

const (
	// PolicyLastWriteWins overwrites a matched record only if it has not been
	// edited locally since it last agreed with the remote. Such local edits
	// are kept until the remote agrees with them. Records without tracking
	// information (never reconciled) take the remote values.
	PolicyLastWriteWins Policy = "last-write-wins"

	// PolicyRemoteWins always overwrites Title and Completed of a matched
	// record with the remote values.
	PolicyRemoteWins Policy = "remote-wins"
)

// DefaultPolicy is used when Input.Policy is empty.
const DefaultPolicy = PolicyLastWriteWins

// Policies lists the accepted policy names.
var Policies = []Policy{PolicyLastWriteWins, PolicyRemoteWins}

// ParsePolicy converts a configuration string into a Policy.
// The empty string yields DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	if s == "" {
		return DefaultPolicy, nil
	}
	for _, p := range Policies {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown merge policy %q: must be one of %v", s, Policies)
}
