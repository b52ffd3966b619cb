package publisher

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the publisher package.
var (
	// ErrUnsupportedPublisher indicates no handler is registered for a DOI
	// prefix. Errors of type *UnsupportedPublisherError match it.
	ErrUnsupportedPublisher = errors.New("publisher: unsupported publisher")

	// ErrMalformedArticle indicates an article lacks required metadata.
	// Errors of type *MalformedArticleError match it.
	ErrMalformedArticle = errors.New("publisher: malformed article")
)

// UnsupportedPublisherError reports a DOI prefix with no registered handler.
type UnsupportedPublisherError struct {
	Prefix string
}

func (e *UnsupportedPublisherError) Error() string {
	if e.Prefix == "" {
		return "publisher: unsupported publisher: article has no DOI prefix"
	}
	return fmt.Sprintf("publisher: unsupported publisher: no handler for DOI prefix %q", e.Prefix)
}

// Is makes errors.Is(err, ErrUnsupportedPublisher) hold.
func (e *UnsupportedPublisherError) Is(target error) bool {
	return target == ErrUnsupportedPublisher
}

// MalformedArticleError reports a missing required field such as the
// article title or DOI.
type MalformedArticleError struct {
	DOI   string
	Field string
}

func (e *MalformedArticleError) Error() string {
	if e.DOI == "" {
		return fmt.Sprintf("publisher: malformed article: missing %s", e.Field)
	}
	return fmt.Sprintf("publisher: malformed article %s: missing %s", e.DOI, e.Field)
}

// Is makes errors.Is(err, ErrMalformedArticle) hold.
func (e *MalformedArticleError) Is(target error) bool {
	return target == ErrMalformedArticle
}
