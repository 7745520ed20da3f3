package api

// Paths served by the HTTP API.
const (
	EncryptPath = "/api/v1/encrypt/"
	DecryptPath = "/api/v1/decrypt/"
	KeysPath    = "/api/v1/keys"

	// RequestIDHeader carries the request id assigned by the server.
	RequestIDHeader = "X-Request-Id"
)

// EncryptResponse is returned by POST /api/v1/encrypt/{recipient}. The
// request body is the raw plaintext.
type EncryptResponse struct {
	Recipient string `json:"recipient"`

	// Message is the signed envelope, wrapped at the server's armor width.
	Message string `json:"message"`
}

// DecryptResponse is returned by POST /api/v1/decrypt/{sender}. The request
// body is the signed envelope text; whitespace is ignored.
//
// Decryption and verification are reported separately. Plaintext is only
// set when decryption (and decompression, if enabled) succeeded.
type DecryptResponse struct {
	Sender    string `json:"sender"`
	Plaintext []byte `json:"plaintext,omitempty"`

	Decrypted    bool `json:"decrypted"`
	Decompressed bool `json:"decompressed"`
	Verified     bool `json:"verified"`

	DecryptError    string `json:"decrypt_error,omitempty"`
	DecompressError string `json:"decompress_error,omitempty"`
	VerifyError     string `json:"verify_error,omitempty"`
}

// OK reports whether the message was recovered and its signature matched.
func (r *DecryptResponse) OK() bool {
	return r.Decrypted && r.Decompressed && r.Verified
}

// KeyInfo describes one public key known to the server.
type KeyInfo struct {
	Name        string `json:"name"`
	OwnerName   string `json:"owner_name,omitempty"`
	OwnerEmail  string `json:"owner_email,omitempty"`
	KeySizeBits int    `json:"key_size_bits,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Randomart   string `json:"randomart,omitempty"`
	Error       string `json:"error,omitempty"`
}

// KeysResponse is returned by GET /api/v1/keys.
type KeysResponse struct {
	Keys []KeyInfo `json:"keys"`
}

// ErrorResponse is the body of non-2xx responses.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
