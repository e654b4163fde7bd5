package kerrors

import "github.com/antigravity/kraken-worker/internal/wire"

// ToWireError maps a kerrors.Kind onto the wire.ErrorID enum. Errors
// that are not *kerrors.Error fall back to ErrInternalError.
func ToWireError(err error) wire.Error {
	if err == nil {
		return wire.Error{}
	}

	var kerr *Error
	if !As(err, &kerr) {
		return wire.Error{ID: wire.ErrInternalError, Message: err.Error()}
	}

	id := wire.ErrInternalError
	switch kerr.Kind {
	case KindData:
		id = wire.ErrDateOutOfBounds
	case KindInput:
		id = wire.ErrBadFilter
	case KindSearch:
		id = wire.ErrNoSolution
	case KindRealtime:
		id = wire.ErrInternalError
	case KindInternal:
		id = wire.ErrInternalError
	}
	return wire.Error{ID: id, Message: kerr.Error()}
}
