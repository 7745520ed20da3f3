// Command httpserver runs the FinCrypt HTTP API.
//
// The server loads its private key and its correspondents' public keys from
// the configured key stores (--keystore, --config or FINCRYPT_KEYSTORES) and
// serves the endpoints documented in package api. Prometheus metrics are
// served on --metrics-addr; pprof is mounted under /debug with --pprof.
//
// Example:
//
//	httpserver --keystore file:///var/lib/fincrypt \
//	    --keystore vault://vault.internal:8200/secret/fincrypt \
//	    --listen-addr 0.0.0.0:8080
package main
