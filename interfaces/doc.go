// Package interfaces defines core interfaces and types for the fincrypt
// system, separating interface definitions from implementations.
//
// The package provides interfaces for the key components of the system:
//
// # Key Material
//
// KeyContainer: The shared on-disk key schema. The same fields hold public or
// private exponents depending on which file they were loaded from.
//
// PublicKeyMaterial / PrivateKeyMaterial: Role-tagged key material converted
// once from a KeyContainer, so call sites never guess which exponent they hold.
//
// # Capability Interfaces
//
// SymmetricCipher: CBC-mode block cipher with cipher-owned padding.
//
// Hasher: Fixed-output digest over arbitrary byte strings.
//
// # Storage Interfaces
//
// KeyStore: Read-only access to key files across multiple backend types
// (file, S3, IPFS, Vault, DNS).
//
// KeyStoreFactory: Creates key stores from URI strings and manages
// multi-backend configurations with fallback.
package interfaces
