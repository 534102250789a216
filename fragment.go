package sqlmapper

import "strings"

// Script joins fragments with a single space.
func Script(segs ...string) string {
	return strings.Join(segs, " ")
}

// Join joins fragments with a comma.
func Join(segs ...string) string {
	return strings.Join(segs, ",")
}

// And joins fragments with " and " and wraps the result in parentheses.
// Empty fragments are skipped; it returns "" when nothing is left.
func And(segs ...string) string {
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	ret := strings.TrimSpace(strings.Join(parts, " and "))
	if ret == "" {
		return ""
	}
	return "(" + ret + ")"
}

// Where renders "where (<predicates>) " or "" when there are none, so it can be
// appended to a template unconditionally.
func Where(segs ...string) string {
	sql := And(segs...)
	if sql == "" {
		return ""
	}
	return "where " + sql + " "
}
