package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Messages printed on stderr for failed decrypt steps.
const (
	msgDecryptionFailed   = "Decryption failed."
	msgDecompressFailed   = "Decompression failed."
	msgVerificationFailed = "Verification failed. Message is not intact."
)

// errNotIntact is returned when a message was processed but did not decrypt
// or verify; the reasons have already been printed.
var errNotIntact = errors.New("message could not be decrypted and verified")

type runner struct {
	m      messenger
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// readInput reads the named file, or the runner's input for "" and "-".
func (r *runner) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(r.in)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

func (r *runner) encrypt(ctx context.Context, recipient, inFile string) error {
	plaintext, err := r.readInput(inFile)
	if err != nil {
		return err
	}
	text, err := r.m.Encrypt(ctx, recipient, plaintext)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, text)
	return err
}

func (r *runner) decrypt(ctx context.Context, sender, inFile string) error {
	text, err := r.readInput(inFile)
	if err != nil {
		return err
	}
	resp, err := r.m.Decrypt(ctx, sender, string(text))
	if err != nil {
		return err
	}

	if resp.Plaintext != nil {
		if _, err := r.out.Write(resp.Plaintext); err != nil {
			return err
		}
	}
	switch {
	case !resp.Decrypted:
		fmt.Fprintln(r.errOut, msgDecryptionFailed)
	case !resp.Decompressed:
		fmt.Fprintln(r.errOut, msgDecompressFailed)
	}
	if !resp.Verified {
		fmt.Fprintln(r.errOut, msgVerificationFailed)
	}

	if !resp.OK() {
		return errNotIntact
	}
	return nil
}

// enumerateKeys prints every public key with its owner, fingerprint and randomart.
func (r *runner) enumerateKeys(ctx context.Context) error {
	keys, err := r.m.Keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(r.errOut, "No public keys found.")
		return nil
	}

	for i, key := range keys {
		if i > 0 {
			fmt.Fprintln(r.out)
		}
		fmt.Fprintln(r.out, key.Name)
		if key.Error != "" {
			fmt.Fprintf(r.out, "  Error:       %s\n", key.Error)
			continue
		}
		fmt.Fprintf(r.out, "  Owner:       %s <%s>\n", key.OwnerName, key.OwnerEmail)
		fmt.Fprintf(r.out, "  Key size:    %d bits\n", key.KeySizeBits)
		fmt.Fprintf(r.out, "  Fingerprint: %s\n", wrapFingerprint(key.Fingerprint, 16))
		fmt.Fprintln(r.out, key.Randomart)
	}
	return nil
}

// wrapFingerprint puts perLine hex pairs on each line, indented to align
// under the first.
func wrapFingerprint(fp string, perLine int) string {
	pairs := strings.Split(fp, ":")
	var lines []string
	for start := 0; start < len(pairs); start += perLine {
		lines = append(lines, strings.Join(pairs[start:min(start+perLine, len(pairs))], ":"))
	}
	return strings.Join(lines, "\n               ")
}
