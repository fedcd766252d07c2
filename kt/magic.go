package kt

// Magic bytes identifying a KT request/response.
const (
	magicSetBulk    byte = 0xB8
	magicGetBulk    byte = 0xBA
	magicRemoveBulk byte = 0xB9
	magicPlayScript byte = 0xB4
	magicError      byte = 0xBF
)

// flagNoReply is the single defined request-flag bit: the server does
// not send a response for this call.
const flagNoReply uint32 = 0x01

// ExpireNever is the sentinel expiration meaning "no expiration" on the
// wire.
const ExpireNever int64 = 0x7FFFFFFFFFFFFFFF
