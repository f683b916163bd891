package download

import (
	"errors"
	"io/fs"
	"net/url"

	"github.com/handiism/tiledl/internal/http"
	ioutils "github.com/handiism/tiledl/internal/io"
)

// FailureKind classifies why a tile failed.
type FailureKind int

const (
	// FailureTransport covers connection, DNS, TLS and timeout errors.
	FailureTransport FailureKind = iota

	// FailureStatus is a non-2xx response.
	FailureStatus

	// FailureFileSystem is an error creating or writing the tile file.
	FailureFileSystem

	// FailureEmptyBody is a response that wrote zero bytes.
	FailureEmptyBody

	// FailureInvalidImage is a tile rejected by verification.
	FailureInvalidImage

	numFailureKinds
)

// String returns a short lowercase name for the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureStatus:
		return "http status"
	case FailureFileSystem:
		return "file system"
	case FailureEmptyBody:
		return "empty body"
	case FailureInvalidImage:
		return "invalid image"
	default:
		return "unknown"
	}
}

// Classify maps a tile error to its FailureKind.
//
// Errors that match nothing more specific, such as a body read interrupted
// mid-stream, count as transport failures.
func Classify(err error) FailureKind {
	var (
		statusErr *http.StatusError
		urlErr    *url.Error
		pathErr   *fs.PathError
	)
	switch {
	case errors.Is(err, http.ErrEmptyBody):
		return FailureEmptyBody
	case errors.Is(err, ioutils.ErrInvalidTile):
		return FailureInvalidImage
	case errors.As(err, &statusErr):
		return FailureStatus
	case errors.As(err, &urlErr):
		return FailureTransport
	case errors.As(err, &pathErr):
		return FailureFileSystem
	default:
		return FailureTransport
	}
}

// TileError is reported for every failed tile.
type TileError struct {
	Kind FailureKind
	URL  string
	Path string
	Err  error
}

func (e *TileError) Error() string {
	return e.Kind.String() + ": " + e.URL + ": " + e.Err.Error()
}

func (e *TileError) Unwrap() error {
	return e.Err
}
