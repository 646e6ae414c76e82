package domain

// MaxKeyIDLength bounds Authorization.KeyID.
const MaxKeyIDLength = 256

// Request is a signed application command as received from a transport.
type Request struct {
	// Timestamp is milliseconds since the Unix epoch, as stamped by the signer.
	Timestamp     int64         `json:"timestamp"`
	Payload       []byte        `json:"payload"       validate:"required,min=1"`
	Authorization Authorization `json:"authorization"`
}

// Authorization names the key used to sign a request and carries the signature.
type Authorization struct {
	KeyID     string `json:"key_id"              validate:"required,max=256"`
	Signature string `json:"signature,omitempty" validate:"required,len=64,lowerhex"`
}

// IsSigned reports whether the request carries a signature.
func (r *Request) IsSigned() bool {
	return r != nil && r.Authorization.Signature != ""
}
