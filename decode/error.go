package decode

import "errors"

// ErrShortPacket is returned when a decoder receives fewer bytes than
// its dialect requires.
var ErrShortPacket = errors.New("decode: packet too short for dialect")
