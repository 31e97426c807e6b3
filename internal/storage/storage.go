package storage

import (
	"fmt"
	"strconv"
)

// CountKey is the local storage key holding the last known transfer count.
const CountKey = "transactionCount"

// CountStore persists the transfer count across restarts.
type CountStore interface {
	LoadCount() (count int64, ok bool, err error)
	SaveCount(count int64) error
	Close() error
}

func encodeCount(count int64) string {
	return strconv.FormatInt(count, 10)
}

func decodeCount(raw string) (int64, error) {
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("stored %s %q is not an integer: %w", CountKey, raw, err)
	}
	return count, nil
}
