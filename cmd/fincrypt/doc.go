// Command fincrypt encrypts and signs messages for correspondents and
// decrypts and verifies messages from them.
//
//	fincrypt encrypt|e <recipient> [infile]
//	fincrypt decrypt|d <sender> [infile]
//	fincrypt keys            (or fincrypt -N)
//
// Keys are read from the key stores given with --keystore or the config
// file; by default public_keys/<name> and private_key/private.asc under the
// current directory. Input is read from stdin when no file is given.
// Decrypt prints the plaintext when it could be recovered and exits with
// status 1 if decryption, decompression or verification failed.
package main
