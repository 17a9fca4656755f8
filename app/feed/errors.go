package feed

import (
	"errors"
	"fmt"
)

var (
	ErrFeedNotFound   = errors.New("feed not found")
	ErrFeedExists     = errors.New("feed already exists")
	ErrFolderNotFound = errors.New("folder not found")

	errMissingIdentifier = errors.New("entry has no id, link or title")
)

// ParsingError marks a feed that could not be fetched or parsed, so the API
// layer can distinguish it from internal failures.
type ParsingError struct {
	URL string
	Err error
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("failed to load feed %s: %v", e.URL, e.Err)
}

func (e *ParsingError) Unwrap() error {
	return e.Err
}
