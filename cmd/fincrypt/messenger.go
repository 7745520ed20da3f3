package main

import (
	"context"

	"github.com/ruteri/fincrypt/api"
	"github.com/ruteri/fincrypt/api/clients"
	"github.com/ruteri/fincrypt/fincrypt"
)

// messenger is what the commands need, served either by a local key store
// or by a remote FinCrypt server.
type messenger interface {
	Encrypt(ctx context.Context, recipient string, plaintext []byte) (string, error)
	Decrypt(ctx context.Context, sender string, text string) (*api.DecryptResponse, error)
	Keys(ctx context.Context) ([]api.KeyInfo, error)
}

type localMessenger struct {
	svc *fincrypt.Service
}

func (m *localMessenger) Encrypt(ctx context.Context, recipient string, plaintext []byte) (string, error) {
	return m.svc.EncryptMessage(ctx, recipient, plaintext)
}

func (m *localMessenger) Decrypt(ctx context.Context, sender string, text string) (*api.DecryptResponse, error) {
	result, err := m.svc.DecryptMessage(ctx, sender, text)
	if err != nil {
		return nil, err
	}
	return api.NewDecryptResponse(sender, result), nil
}

func (m *localMessenger) Keys(ctx context.Context) ([]api.KeyInfo, error) {
	infos, err := m.svc.Keys(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]api.KeyInfo, 0, len(infos))
	for _, info := range infos {
		keys = append(keys, api.NewKeyInfo(info))
	}
	return keys, nil
}

type remoteMessenger struct {
	client *clients.Client
}

func (m *remoteMessenger) Encrypt(ctx context.Context, recipient string, plaintext []byte) (string, error) {
	resp, err := m.client.Encrypt(ctx, recipient, plaintext)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (m *remoteMessenger) Decrypt(ctx context.Context, sender string, text string) (*api.DecryptResponse, error) {
	return m.client.Decrypt(ctx, sender, text)
}

func (m *remoteMessenger) Keys(ctx context.Context) ([]api.KeyInfo, error) {
	resp, err := m.client.Keys(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}
