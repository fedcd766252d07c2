package kt

// CallOption overrides a single call's defaults (database index,
// expiration, no-reply, and per-call codec bypass).
type CallOption func(*callOptions)

type callOptions struct {
	DB             *uint16
	Expire         *int64
	NoReply        bool
	EncodeValues   *bool
	DecodeValues   *bool
}

func newCallOptions(defaultDB uint16) *callOptions {
	db := defaultDB
	return &callOptions{DB: &db}
}

func (o *callOptions) db() uint16 {
	if o.DB != nil {
		return *o.DB
	}
	return 0
}

func (o *callOptions) expire() int64 {
	if o.Expire != nil && *o.Expire != 0 {
		return *o.Expire
	}
	return ExpireNever
}

func (o *callOptions) shouldEncode() bool {
	return o.EncodeValues == nil || *o.EncodeValues
}

func (o *callOptions) shouldDecode() bool {
	return o.DecodeValues == nil || *o.DecodeValues
}

// WithDB overrides the database index for a single call.
func WithDB(db uint16) CallOption {
	return func(o *callOptions) { o.DB = &db }
}

// WithExpire sets a seconds-from-now expiration for a single call.
// Omitting this option means no expiration.
func WithExpire(seconds int64) CallOption {
	return func(o *callOptions) { o.Expire = &seconds }
}

// WithNoReply marks the call as fire-and-forget: the response cursor is
// never touched.
func WithNoReply() CallOption {
	return func(o *callOptions) { o.NoReply = true }
}

// WithEncodeValues controls whether outgoing values pass through the
// engine's codec (true, the default) or are sent as raw bytes (false).
func WithEncodeValues(encode bool) CallOption {
	return func(o *callOptions) { o.EncodeValues = &encode }
}

// WithDecodeValues controls whether incoming values pass through the
// engine's codec (true, the default) or are returned as raw bytes
// (false).
func WithDecodeValues(decode bool) CallOption {
	return func(o *callOptions) { o.DecodeValues = &decode }
}
