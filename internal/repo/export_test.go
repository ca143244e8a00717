package repo

import "time"

// SetFileClock replaces the clock of a file-backed store.
func SetFileClock(store any, now func() time.Time) {
	switch s := store.(type) {
	case *fileStatusRepo:
		s.now = now
	case *fileResultRepo:
		s.now = now
	}
}
