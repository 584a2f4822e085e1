package domain

import "errors"

var (
	ErrInvalidPeriod          = errors.New("invalid recency period")
	ErrDocumentNotFound       = errors.New("document not found")
	ErrPersistenceWriteFailed = errors.New("persistence write failed")
	ErrDataSourceUnavailable  = errors.New("data source unavailable")

	ErrInvalidRelevanceClass = errors.New("invalid relevance class")
	ErrInvalidLinkRelevance  = errors.New("invalid link relevance")
	ErrInvalidDocType        = errors.New("invalid document type")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrChangeNotFound        = errors.New("change not found")
	ErrInvalidDocumentKey    = errors.New("invalid related document key")
)
