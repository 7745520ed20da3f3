// Package cryptoutils implements the FinCrypt hybrid envelope: symmetric
// encryption of the message under a fresh key, textbook RSA-style wrapping
// of that key, and signatures over the envelope text.
//
// # Envelope format
//
// A signed envelope is a single line of text:
//
//	<key blocks>_<iv blocks>_<ciphertext blocks>|<signature blocks>
//
// Every group is a comma-separated list of radix-64 integers written with
// the alphabet A-Z a-z 0-9 + =, most significant digit first. Key and IV
// blocks are raised to the recipient's public exponent; ciphertext blocks
// are only encoded. The signature is the SHA-512 digest of everything before
// the '|', raised to the sender's private signing exponent.
//
// Ciphertext blocks are left-padded with the zero digit 'A' to the digit
// count of their chunk width, so chunks that start with zero bytes decode
// to their original length. Decoders that ignore the padding read the same
// integer values.
//
// # Key Functions
//
//   - Engine.EncryptAndSign / Engine.DecryptAndVerify: the full protocol
//   - Engine.Seal / Engine.Open: the envelope without signature
//   - Engine.Sign / Engine.VerifySignature: signatures over arbitrary text
//   - ParseKeyFile / MarshalKeyFile: the base64 DER key file format
//
// # Security Considerations
//
// The block transform is unpadded RSA. It is kept for interoperability with
// existing key files and envelopes, and offers none of the guarantees of
// OAEP or PSS. Decryption and signature verification are independent:
// callers must check both outcomes of DecryptAndVerify.
package cryptoutils
