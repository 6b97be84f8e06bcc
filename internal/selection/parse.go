package selection

import (
	"fmt"
	"strconv"
	"strings"
)

// SelectionError reports a malformed scope. It aborts the invocation before
// any work item executes.
type SelectionError struct {
	Option string
	Value  string
	Reason string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("invalid --%s value %q: %s", e.Option, e.Value, e.Reason)
}

// ParseIDs parses media ids given as repeated and/or comma-separated values.
// It returns nil when raw holds no ids.
func ParseIDs(raw []string) (map[int64]struct{}, error) {
	var ids map[int64]struct{}
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, &SelectionError{Option: "ids", Value: part, Reason: "not an integer"}
			}
			if id <= 0 {
				return nil, &SelectionError{Option: "ids", Value: part, Reason: "must be positive"}
			}
			if ids == nil {
				ids = make(map[int64]struct{})
			}
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// ParseNames parses conversion names given as repeated and/or comma-separated
// values. It returns nil when raw holds no names.
func ParseNames(raw []string) (map[string]struct{}, error) {
	var names map[string]struct{}
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.ContainsAny(part, `/\`) {
				return nil, &SelectionError{Option: "only", Value: part, Reason: "not a conversion name"}
			}
			if names == nil {
				names = make(map[string]struct{})
			}
			names[part] = struct{}{}
		}
	}
	return names, nil
}

// ParseScope builds a scope from raw option values.
func ParseScope(ids, only []string, onlyMissing bool) (Scope, error) {
	idSet, err := ParseIDs(ids)
	if err != nil {
		return Scope{}, err
	}
	nameSet, err := ParseNames(only)
	if err != nil {
		return Scope{}, err
	}
	return Scope{IDs: idSet, Only: nameSet, OnlyMissing: onlyMissing}, nil
}
