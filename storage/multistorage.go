package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ruteri/fincrypt/interfaces"
)

// MultiKeyStore implements interfaces.KeyStore over several backends with fallback.
type MultiKeyStore struct {
	backends []interfaces.KeyStore
	log      *slog.Logger
}

// NewMultiKeyStore creates a new multi-backend key store. Backends are tried in order.
func NewMultiKeyStore(backends []interfaces.KeyStore, logger *slog.Logger) *MultiKeyStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiKeyStore{
		backends: backends,
		log:      logger,
	}
}

// Fetch returns the key from the first available backend that has it. The
// error wraps ErrKeyNotFound when no backend failed for another reason.
func (m *MultiKeyStore) Fetch(ctx context.Context, role interfaces.KeyRole, name string) ([]byte, error) {
	start := time.Now()
	var errs []error
	notFound := true

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("key", name))
			continue
		}

		data, err := backend.Fetch(ctx, role, name)
		if err == nil {
			m.log.Debug("Fetched key",
				slog.String("backend_name", backend.Name()),
				slog.String("role", role.String()),
				slog.String("key", name),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}
		if errors.Is(err, interfaces.ErrInvalidKeyName) {
			return nil, err
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		if !errors.Is(err, interfaces.ErrKeyNotFound) && !errors.Is(err, interfaces.ErrRoleUnsupported) {
			notFound = false
		}
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("key", name),
			"err", err)
	}

	m.log.Warn("All backends failed to fetch key",
		slog.String("role", role.String()),
		slog.String("key", name),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no backend available for %s key %q", interfaces.ErrBackendUnavailable, role, name)
	}
	if notFound {
		return nil, fmt.Errorf("%w: %s key %q: %v", interfaces.ErrKeyNotFound, role, name, errors.Join(errs...))
	}
	return nil, fmt.Errorf("all backends failed to fetch %s key %q: %w", role, name, errors.Join(errs...))
}

// List merges the key names of every available backend that can enumerate them.
func (m *MultiKeyStore) List(ctx context.Context, role interfaces.KeyRole) ([]string, error) {
	seen := make(map[string]struct{})
	var errs []error
	listed := false

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			continue
		}
		names, err := backend.List(ctx, role)
		if errors.Is(err, interfaces.ErrListUnsupported) || errors.Is(err, interfaces.ErrRoleUnsupported) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			continue
		}
		listed = true
		for _, n := range names {
			seen[n] = struct{}{}
		}
	}

	if !listed && len(errs) > 0 {
		return nil, fmt.Errorf("all backends failed to list keys: %w", errors.Join(errs...))
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Available checks if any backend is available
func (m *MultiKeyStore) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend
func (m *MultiKeyStore) Name() string {
	return "multi-keystore"
}

// LocationURI returns the URIs of all backends.
func (m *MultiKeyStore) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
