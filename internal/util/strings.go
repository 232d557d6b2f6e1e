package util

import "strings"

// Slugify lowercases s and keeps ASCII letters and digits, joining the runs
// between them with single dashes.
func Slugify(s string) string {
	s = strings.ToLower(s)

	var builder strings.Builder
	dash := false
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			if dash && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			builder.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}

	return builder.String()
}
