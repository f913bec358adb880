// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package ess

import "strings"

// StringEmpty is empty string constant. Using `ess.StringEmpty` instead of "".
const StringEmpty = ""

// IsStrEmpty returns true if strings is empty otherwise false
func IsStrEmpty(v string) bool {
	return len(strings.TrimSpace(v)) == 0
}

// IsSliceContainsString method checks given string in the slice if found returns
// true otherwise false.
func IsSliceContainsString(strSlice []string, search string) bool {
	for _, str := range strSlice {
		if strings.EqualFold(str, search) {
			return true
		}
	}
	return false
}

// SplitTrimmed method splits the given string by separator, trims the
// whitespace around each part and drops the empty parts.
//	For e.g.:
//		SplitTrimmed(" JSESSIONID ,  AnotherCookie,", ",") => ["JSESSIONID", "AnotherCookie"]
func SplitTrimmed(v, sep string) []string {
	var parts []string
	for _, p := range strings.Split(v, sep) {
		if p = strings.TrimSpace(p); len(p) > 0 {
			parts = append(parts, p)
		}
	}
	return parts
}

// UniqueStrings method returns the given values without duplicates,
// first occurrence order is kept.
func UniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}
