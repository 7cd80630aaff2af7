package mesh

import "errors"

var (
	// ErrNotBound indicates the model is not part of a node composition.
	ErrNotBound = errors.New("model not bound to a node")
	// ErrNoBearer indicates the node has no bearer to send on.
	ErrNoBearer = errors.New("no bearer")
	// ErrAppKeyNotBound indicates the application key index is not bound to the model.
	ErrAppKeyNotBound = errors.New("application key not bound to model")
	// ErrInvalidAddr indicates the destination address can't be sent to.
	ErrInvalidAddr = errors.New("invalid destination address")
	// ErrInvalidTTL indicates the TTL is out of the allowed range.
	ErrInvalidTTL = errors.New("invalid TTL")
	// ErrPayloadTooLarge indicates the access payload needs segmentation.
	ErrPayloadTooLarge = errors.New("access payload too large")
	// ErrNoPublication indicates the model has no publication configured.
	ErrNoPublication = errors.New("no publication configured")
	// ErrSeqExhausted indicates the sequence number space ran out.
	ErrSeqExhausted = errors.New("sequence number exhausted")
	// ErrBadOpcode indicates an access payload with a truncated or reserved opcode.
	ErrBadOpcode = errors.New("bad opcode")
	// ErrMalformedPDU indicates a network PDU that can't be decoded.
	ErrMalformedPDU = errors.New("malformed network PDU")
)
