package apperror

import (
	"errors"
	"fmt"
)

// ErrInvalidMove is the root of every rejected click. Transports treat it as a no-op.
var ErrInvalidMove = errors.New("invalid move")

var (
	ErrInvalidCell  = fmt.Errorf("%w: invalid cell index", ErrInvalidMove)
	ErrCellOccupied = fmt.Errorf("%w: cell is already occupied", ErrInvalidMove)
	ErrGameFinished = fmt.Errorf("%w: game is already finished", ErrInvalidMove)
	ErrReadOnly     = fmt.Errorf("%w: game is opened in preview mode", ErrInvalidMove)
)

var (
	ErrStorageUnavailable = errors.New("storage is unavailable")
	ErrAuthCancelled      = errors.New("sign-in was cancelled")
	ErrInvalidToken       = errors.New("invalid auth token")
	ErrNotFound           = errors.New("not found")
)
