package screener

import "errors"

// Error taxonomy for the screener core. All of these are recoverable at
// the call site; handlers map them to HTTP statuses with errors.Is.
var (
	// ErrInvalidRange means lo >= hi after unit conversion and resolution,
	// or a bound request that supplied neither end.
	ErrInvalidRange = errors.New("invalid range")

	// ErrNoData means the corpus had no qualifying value to resolve an
	// absent bound from.
	ErrNoData = errors.New("no corpus data for attribute")

	// ErrUnknownAttribute means the attribute name is outside the schema.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrUnknownCategory means the reset category tag is not recognized.
	ErrUnknownCategory = errors.New("unknown reset category")

	// ErrSetNotFound means no filter set exists for the owner and name.
	ErrSetNotFound = errors.New("filter set not found")

	// ErrCorpusUnavailable wraps collaborator failures while scanning the
	// asset corpus.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
)
