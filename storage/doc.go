// Package storage provides read access to FinCrypt key files through
// pluggable key store backends.
//
// A key file is the URL-safe base64 text of the DER key container. Every
// backend serves public keys by correspondent name; the private key is
// served by backends able to keep it confidential:
//
//   - File system: public_keys/<name> and private_key/private.asc
//   - S3-compatible object storage: <prefix>/public_keys/<name>
//   - HashiCorp Vault KV v2: <mount>/data/<path>/public/<name> and .../private
//   - IPFS UnixFS directory: /ipfs/<root>/public_keys/<name>
//   - DNS TXT records: <name>.<zone>
//
// # Key Store URI Format
//
// Key stores are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Examples:
//
//   - file:///home/alice/.fincrypt
//   - s3://keys-bucket/team/?region=eu-west-1
//   - vault://s.token@vault.example.com:8200/secret/fincrypt/alice
//   - ipfs://localhost:5001/bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi
//   - dns://1.1.1.1/keys.example.com
//
// # Multi-Backend Fallback
//
// MultiKeyStore tries backends in order, skipping unavailable ones, and
// returns the first key found. A key missing from every backend is reported
// with ErrKeyNotFound.
//
// # Usage Example
//
//	factory := storage.NewKeyStoreFactory(logger)
//	store, err := factory.KeyStoreForURI("file:///home/alice/.fincrypt")
//	if err != nil {
//	    return err
//	}
//	text, err := store.Fetch(ctx, interfaces.PublicRole, "bob")
package storage
