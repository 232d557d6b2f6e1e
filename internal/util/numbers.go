package util

import (
	"os"
	"strconv"
)

// EnvInt64 reads an integer environment variable. Unset or malformed values
// report false.
func EnvInt64(key string) (int64, bool) {
	s, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
