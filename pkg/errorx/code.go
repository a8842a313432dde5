package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010

	// Refresh token codes
	StolenDetected Code = 200001
	TokenExpired   Code = 200002

	// Claim codes
	EventClosed       Code = 300001
	RewardExhausted   Code = 300002
	AlreadyClaimed    Code = 300003
	ProofInvalid      Code = 300004
	SignalMismatch    Code = 300005
	InsufficientLevel Code = 300006
	ActionMismatch    Code = 300007
	DispatchFailed    Code = 300008
	DispatchPending   Code = 300009

	// DispatchFailedRetryable marks a dispatch failure which may clear
	// on a retry, the nullifier is already released.
	DispatchFailedRetryable Code = 300010
)
