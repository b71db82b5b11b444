/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import "fmt"

func stringArg(args map[string]any, name string) (string, error) {
	value, ok := args[name]
	if !ok {
		return "", fmt.Errorf("%s parameter is required", name)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s parameter must be a string, got %T", name, value)
	}
	return s, nil
}

// intArg accepts both integers and the float64 values JSON decoding
// produces for numbers.
func intArg(args map[string]any, name string) (int, error) {
	value, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("%s parameter is required", name)
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%s parameter must be an integer, got %T", name, value)
	}
}
