package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterArgs holds the parsed arguments of the /filter command.
type FilterArgs struct {
	OwnerID int64
	Types   []string
	Regex   []string
}

// ParseOwnerID extracts a numeric owner uid from a command argument string.
func ParseOwnerID(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("uid is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid uid %q", s)
	}
	return id, nil
}

// ParseFilterArgs parses arguments for /filter.
// Format: <uid> clear | <uid> [types=t1,t2] [regex=pattern]...
func ParseFilterArgs(args string) (FilterArgs, error) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return FilterArgs{}, fmt.Errorf("usage: /filter <uid> types=<t1,t2> regex=<pattern> | /filter <uid> clear")
	}

	ownerID, err := ParseOwnerID(parts[0])
	if err != nil {
		return FilterArgs{}, err
	}

	fa := FilterArgs{OwnerID: ownerID, Types: []string{}, Regex: []string{}}

	if len(parts) == 2 && parts[1] == "clear" {
		return fa, nil
	}

	for _, part := range parts[1:] {
		switch {
		case strings.HasPrefix(part, "types="):
			for _, t := range strings.Split(strings.TrimPrefix(part, "types="), ",") {
				if t = strings.TrimSpace(t); t != "" {
					fa.Types = append(fa.Types, t)
				}
			}
		case strings.HasPrefix(part, "regex="):
			if pattern := strings.TrimPrefix(part, "regex="); pattern != "" {
				fa.Regex = append(fa.Regex, pattern)
			}
		default:
			return FilterArgs{}, fmt.Errorf("unrecognized filter argument %q", part)
		}
	}

	if len(fa.Types) == 0 && len(fa.Regex) == 0 {
		return FilterArgs{}, fmt.Errorf("no filters given; use types=, regex= or clear")
	}
	return fa, nil
}

// ParseScopeArg extracts the target scope for /unsub_all.
func ParseScopeArg(args string) (string, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return "", fmt.Errorf("scope is required")
	}
	return strings.Fields(s)[0], nil
}
