package model

import (
	"fmt"
	"strings"
)

// SubscriberKey identifies one delivery target as a structured triple. The
// persisted registry keys it as "transport:Kind:scope", e.g.
// "telegram:GroupMessage:-10012345".
type SubscriberKey struct {
	Transport string
	Kind      string
	Scope     string
}

// ParseSubscriberKey splits a registry key into its three segments. The
// scope segment may itself contain colons.
func ParseSubscriberKey(s string) (SubscriberKey, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return SubscriberKey{}, fmt.Errorf("malformed subscriber key %q", s)
	}
	return SubscriberKey{Transport: parts[0], Kind: parts[1], Scope: parts[2]}, nil
}

func (k SubscriberKey) String() string {
	return k.Transport + ":" + k.Kind + ":" + k.Scope
}

// MatchesScope reports whether a bulk-removal target addresses this key:
// either the target equals the scope segment or it equals the whole key.
func (k SubscriberKey) MatchesScope(target string) bool {
	return k.Scope == target || k.String() == target
}
