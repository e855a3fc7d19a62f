package transport

import (
	"errors"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500):
		return 500
	case errors.Is(err, model.ErrResultNotReady):
		return 404
	case errors.Is(err, model.ErrIncorrectStatus):
		return 400
	default:
		return 500
	}
}
