package codec

import (
	"fmt"

	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/wireerr"
)

// identityTypeError reports that a codec was asked to encode a value of a
// type it cannot represent.
func identityTypeError(v any) error {
	const op = errors.Op("codec.Encode")
	return wireerr.BadArgumentf(op, errors.Str(fmt.Sprintf("unsupported value type %T", v)))
}
