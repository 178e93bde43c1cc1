package domain

// CallStatus is the participant-local lifecycle of a call session.
// Keep values stable because they are part of the wire protocol.
type CallStatus string

const (
	CallStatusRinging   CallStatus = "ringing"
	CallStatusConnected CallStatus = "connected"
	CallStatusEnded     CallStatus = "ended"
	CallStatusRejected  CallStatus = "rejected"
)

// CallType distinguishes audio-only from video calls. The relay does not
// act on it, it just ferries the field to the callee.
type CallType string

const (
	CallTypeAudio CallType = "audio"
	CallTypeVideo CallType = "video"
)

// RejectReasonTimeout marks server-side expiry of an unanswered call.
const RejectReasonTimeout = "timeout"
