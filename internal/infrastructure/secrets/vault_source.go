// Package secrets loads approved client-credential fingerprints from Vault.
package secrets

import (
	"context"
	"errors"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/stategrc/posturehub/internal/config"
	"github.com/stategrc/posturehub/pkg/logger"
)

// FingerprintSource reads the approved fingerprint list from a Vault KV v2
// secret. The secret's "fingerprints" key holds the list; static
// configuration values are merged with it by the caller.
type FingerprintSource struct {
	client *vault.Client
	mount  string
	path   string
	logger logger.Logger
}

// NewFingerprintSource creates a source against the configured Vault server.
func NewFingerprintSource(cfg *config.VaultConfig, log logger.Logger) (*FingerprintSource, error) {
	vaultCfg := vault.DefaultConfig()
	vaultCfg.Address = cfg.Address

	client, err := vault.NewClient(vaultCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	return &FingerprintSource{
		client: client,
		mount:  cfg.MountPath,
		path:   cfg.FingerprintPath,
		logger: log.WithComponent("vault_fingerprints"),
	}, nil
}

// Fetch returns the approved fingerprints stored in Vault. A missing secret
// yields an empty list, not an error.
func (s *FingerprintSource) Fetch(ctx context.Context) ([]string, error) {
	secret, err := s.client.KVv2(s.mount).Get(ctx, s.path)
	if err != nil {
		// The KV client returns the sentinel wrapped.
		if errors.Is(err, vault.ErrSecretNotFound) {
			s.logger.Warn(ctx, "Fingerprint secret not found in Vault",
				logger.String("path", s.path),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read fingerprint secret: %w", err)
	}

	raw, ok := secret.Data["fingerprints"]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("fingerprint secret has unexpected shape")
	}

	fingerprints := make([]string, 0, len(items))
	for _, item := range items {
		if fp, ok := item.(string); ok && fp != "" {
			fingerprints = append(fingerprints, fp)
		}
	}

	s.logger.Info(ctx, "Loaded fingerprints from Vault",
		logger.Int("count", len(fingerprints)),
	)
	return fingerprints, nil
}
