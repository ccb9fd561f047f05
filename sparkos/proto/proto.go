package proto

// Kind identifies the message type carried in kernel.Message.Kind.
type Kind uint16

const (
	MsgLogLine Kind = iota + 1
	MsgError
	MsgTickSubscribe
	MsgTick
	MsgUnobstructedSubscribe
	MsgUnobstructedChange
	MsgAppMessageSubscribe
	MsgAppMessage
	MsgAppShutdown
)

// ErrCode is a generic error category for MsgError responses.
type ErrCode uint16

const (
	ErrUnknown ErrCode = iota
	ErrBadMessage
	ErrUnauthorized
	ErrNotFound
	ErrBusy
	ErrOverflow
	ErrTooLarge
	ErrInternal
)

func (c ErrCode) String() string {
	switch c {
	case ErrUnknown:
		return "unknown"
	case ErrBadMessage:
		return "bad_message"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrNotFound:
		return "not_found"
	case ErrBusy:
		return "busy"
	case ErrOverflow:
		return "overflow"
	case ErrTooLarge:
		return "too_large"
	case ErrInternal:
		return "internal"
	default:
		return "unknown"
	}
}

func (k Kind) String() string {
	switch k {
	case MsgLogLine:
		return "log_line"
	case MsgError:
		return "error"
	case MsgTickSubscribe:
		return "tick_subscribe"
	case MsgTick:
		return "tick"
	case MsgUnobstructedSubscribe:
		return "unobstructed_subscribe"
	case MsgUnobstructedChange:
		return "unobstructed_change"
	case MsgAppMessageSubscribe:
		return "app_message_subscribe"
	case MsgAppMessage:
		return "app_message"
	case MsgAppShutdown:
		return "app_shutdown"
	default:
		return "unknown"
	}
}
