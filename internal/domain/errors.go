package domain

import "errors"

var (
	ErrUnauthorized             = errors.New("unauthorized")
	ErrRoomNotFound             = errors.New("room not found")
	ErrRoleOccupied             = errors.New("role occupied")
	ErrRoleMismatch             = errors.New("role mismatch")
	ErrPermitInvalid            = errors.New("permit invalid")
	ErrPermitExhausted          = errors.New("permit exhausted")
	ErrPermitNotFound           = errors.New("permit not found")
	ErrStatusProbeTimeout       = errors.New("status probe timeout")
	ErrDeliveryRetriesExhausted = errors.New("delivery retries exhausted")
	ErrNotAcknowledged          = errors.New("not acknowledged")
	ErrBadPayload               = errors.New("bad payload")
	ErrRateLimited              = errors.New("rate limited")
	ErrConnectionClosed         = errors.New("connection closed")
	ErrBackpressure             = errors.New("backpressure")
)

// Wire codes carried in acknowledgement errors.
const (
	CodeUnauthorized     = "Unauthorized"
	CodeRoomNotFound     = "RoomNotFound"
	CodeRoleOccupied     = "RoleOccupied"
	CodeRoleMismatch     = "RoleMismatch"
	CodePermitInvalid    = "PermitInvalid"
	CodePermitExhausted  = "PermitExhausted"
	CodeNotAcknowledged  = "NotAcknowledged"
	CodeRetriesExhausted = "DeliveryRetriesExhausted"
	CodeBadPayload       = "BadPayload"
	CodeRateLimited      = "RateLimited"
	CodeInternal         = "Internal"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrUnauthorized, CodeUnauthorized},
	{ErrRoomNotFound, CodeRoomNotFound},
	{ErrRoleOccupied, CodeRoleOccupied},
	{ErrRoleMismatch, CodeRoleMismatch},
	{ErrPermitExhausted, CodePermitExhausted},
	{ErrPermitInvalid, CodePermitInvalid},
	{ErrPermitNotFound, CodePermitInvalid},
	{ErrNotAcknowledged, CodeNotAcknowledged},
	{ErrDeliveryRetriesExhausted, CodeRetriesExhausted},
	{ErrBadPayload, CodeBadPayload},
	{ErrRateLimited, CodeRateLimited},
}

// Code maps an error to the code surfaced in acknowledgements. Nil maps to "".
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
