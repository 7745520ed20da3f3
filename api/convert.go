package api

import (
	"github.com/ruteri/fincrypt/fincrypt"
	"github.com/ruteri/fincrypt/keyring"
)

// NewDecryptResponse reports a service decrypt result on the wire.
func NewDecryptResponse(sender string, result *fincrypt.Result) *DecryptResponse {
	resp := &DecryptResponse{
		Sender:       sender,
		Plaintext:    result.Plaintext,
		Decrypted:    result.Decrypted(),
		Decompressed: result.Decompressed(),
		Verified:     result.Verified,
	}
	if result.DecryptErr != nil {
		resp.DecryptError = result.DecryptErr.Error()
	}
	if result.DecompressErr != nil {
		resp.DecompressError = result.DecompressErr.Error()
	}
	if result.VerifyErr != nil {
		resp.VerifyError = result.VerifyErr.Error()
	}
	return resp
}

func NewKeyInfo(info keyring.KeyInfo) KeyInfo {
	key := KeyInfo{Name: info.Name}
	if info.Err != nil {
		key.Error = info.Err.Error()
		return key
	}
	key.OwnerName = info.Owner.Name
	key.OwnerEmail = info.Owner.Email
	key.KeySizeBits = info.KeySizeBits
	key.Fingerprint = info.Fingerprint.String()
	key.Randomart = info.Fingerprint.Randomart()
	return key
}
