package update

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCommand is returned by Parse for malformed command notation.
var ErrInvalidCommand = errors.New("update: invalid command")

// Parse converts the JSON-style notation into a Spec.
//
//	{"x": {"a": {"$set": 2}}, "list": {"$push": [1, 2]}}
//
// Each object is either a single command key ($set, $push, $unshift,
// $merge, $defaults) or a map of child keys. $invoke has no data form.
func Parse(raw any) (Spec, error) {
	return parse(raw, nil)
}

func parse(raw any, path []string) (Spec, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, invalid(path, "expected an object, got %T", raw)
	}

	var command string
	for key := range obj {
		if strings.HasPrefix(key, "$") {
			if command != "" || len(obj) != 1 {
				return nil, invalid(path, "a command must be the only key of its object")
			}
			command = key
		}
	}

	if command == "" {
		t := make(Tree, len(obj))
		for key, child := range obj {
			s, err := parse(child, append(path, key))
			if err != nil {
				return nil, err
			}
			t[key] = s
		}
		return t, nil
	}

	arg := obj[command]
	switch command {
	case "$set":
		return Set(arg), nil
	case "$push", "$unshift":
		items, ok := arg.([]any)
		if !ok {
			return nil, invalid(path, "%s expects an array, got %T", command, arg)
		}
		if command == "$push" {
			return Push(items...), nil
		}
		return Unshift(items...), nil
	case "$merge", "$defaults":
		fields, ok := arg.(map[string]any)
		if !ok {
			return nil, invalid(path, "%s expects an object, got %T", command, arg)
		}
		if command == "$merge" {
			return Merge(fields), nil
		}
		return Defaults(fields), nil
	case "$invoke":
		return nil, invalid(path, "$invoke cannot be expressed as data")
	default:
		return nil, invalid(path, "unknown command %s", command)
	}
}

func invalid(path []string, format string, args ...any) error {
	where := "root"
	if len(path) > 0 {
		where = strings.Join(path, ".")
	}
	return fmt.Errorf("%w at %s: %s", ErrInvalidCommand, where, fmt.Sprintf(format, args...))
}
