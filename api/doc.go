/*
Package api defines the HTTP API of the FinCrypt server: the server
configuration, the JSON wire types, and (in package clients) a client for it.

# Endpoints

	POST /api/v1/encrypt/{recipient}   body: plaintext      -> EncryptResponse
	POST /api/v1/decrypt/{sender}      body: envelope text  -> DecryptResponse
	GET  /api/v1/keys                                       -> KeysResponse
	GET  /livez, /readyz, /drain, /undrain

The server holds one private key. Encrypt seals the request body for the named
recipient and signs it with that key; decrypt opens an envelope addressed to the
server's key and verifies it against the named sender's public key.

A decrypt request returns 200 whenever the envelope could be split into its
sealed part and signature, even if decryption or verification failed; the
response reports each outcome. Errors that prevent both steps (unknown key,
missing signature separator) return 4xx with an ErrorResponse body.
*/
package api
