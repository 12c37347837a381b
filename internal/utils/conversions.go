package utils

import "strings"

func ToStringSlice(slice []any) []string {
	stringSlice := make([]string, 0)
	for _, v := range slice {
		if s, ok := v.(string); ok {
			stringSlice = append(stringSlice, s)
		}
	}
	return stringSlice
}

// SplitScopes splits a space separated scope string, dropping empty entries.
func SplitScopes(scopes string) []string {
	return strings.Fields(scopes)
}

// Contains reports whether v is one of values.
func Contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
