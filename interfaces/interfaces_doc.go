// Package interfaces defines the core interfaces and types for the fincrypt system.
//
// This package provides the contracts between different components of the system
// without including implementation details. It separates the interface definitions
// from their implementations, allowing for:
//
//   - Clear separation of concerns
//   - Multiple implementations of the same interface
//   - Better testability through mock implementations
//
// The package contains several key interfaces:
//
// # Storage Interfaces
//
//   - KeyStore: Represents any system that can look up key files by role and name
//   - KeyStoreFactory: Creates key stores from URI strings
//
// # Crypto Interfaces
//
//   - SymmetricCipher: The bulk cipher used inside the hybrid envelope
//   - Hasher: The digest signed by the signature engine
package interfaces
