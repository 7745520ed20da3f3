package cryptoutils

import "errors"

var (
	// ErrMalformedKeyFile is returned when a key file is not valid URL-safe base64
	// of the DER key container.
	ErrMalformedKeyFile = errors.New("malformed key file")

	// ErrInvalidEnvelopeFormat is returned when envelope text is missing separators
	// or has the wrong number of groups.
	ErrInvalidEnvelopeFormat = errors.New("invalid envelope format")

	// ErrDecryptionFailed is returned when a message could not be decrypted.
	// The concrete reason is carried by *DecryptionError.
	ErrDecryptionFailed = errors.New("message could not be decrypted")

	// ErrSignatureMismatch is returned when a well-formed signature does not match the message.
	ErrSignatureMismatch = errors.New("signature does not match")

	// ErrMalformedSignature is returned when signature text cannot be parsed into blocks.
	ErrMalformedSignature = errors.New("malformed signature")

	// ErrBlockOutOfRange is returned when a block is negative or not smaller than the modulus.
	ErrBlockOutOfRange = errors.New("block value out of range for modulus")

	// ErrInvalidModulus is returned for moduli that are not odd and greater than one.
	ErrInvalidModulus = errors.New("invalid modulus")

	// ErrBlockWidth is returned when blocks do not reassemble into the expected byte length.
	ErrBlockWidth = errors.New("block does not fit expected width")

	// ErrInvalidRadixDigit is returned when radix-64 text contains a symbol outside the alphabet.
	ErrInvalidRadixDigit = errors.New("invalid radix-64 digit")

	// ErrInvalidPadding is returned when CBC plaintext padding is malformed.
	ErrInvalidPadding = errors.New("invalid padding")

	// ErrInvalidKeySize is returned when the symmetric key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidIVSize is returned when the initialization vector size is invalid.
	ErrInvalidIVSize = errors.New("invalid iv size")

	// ErrDecompressionFailed is returned when decrypted content is not a valid zlib stream.
	ErrDecompressionFailed = errors.New("decompression failed")
)

// DecryptionError reports why a message could not be decrypted. It matches
// ErrDecryptionFailed with errors.Is and unwraps to the underlying reason.
type DecryptionError struct {
	Reason error
}

func (e *DecryptionError) Error() string {
	if e.Reason == nil {
		return ErrDecryptionFailed.Error()
	}
	return ErrDecryptionFailed.Error() + ": " + e.Reason.Error()
}

func (e *DecryptionError) Is(target error) bool {
	return target == ErrDecryptionFailed
}

func (e *DecryptionError) Unwrap() error {
	return e.Reason
}
