package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/internal/domain/service"
	"github.com/stategrc/posturehub/pkg/logger"
)

// policyFile is the on-disk shape of the access policy.
type policyFile struct {
	AllowedTenants      []string `json:"allowed_tenants"`
	AllowedFingerprints []string `json:"allowed_fingerprints"`
}

// LoadPolicyFile reads an access policy from a JSON file. The static
// configuration lists are merged in so file and config entries both apply.
func LoadPolicyFile(path string, cfg *PolicyConfig) (*models.AccessPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf policyFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, err
	}
	tenants := append(append([]string{}, cfg.AllowedTenants...), pf.AllowedTenants...)
	fingerprints := append(append([]string{}, cfg.AllowedFingerprints...), pf.AllowedFingerprints...)
	return models.NewAccessPolicy(tenants, fingerprints), nil
}

// WatchPolicyFile reloads the policy file on change and swaps the store
// atomically. A malformed file keeps the previous policy in effect. The
// watcher runs until ctx is cancelled.
func WatchPolicyFile(ctx context.Context, path string, cfg *PolicyConfig, store *service.PolicyStore, log logger.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory: editors and configmap updates replace the file
	// rather than writing it in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	log = log.WithComponent("policy_watcher")
	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		reload := func() {
			policy, err := LoadPolicyFile(path, cfg)
			if err != nil {
				log.Error(ctx, "Policy reload failed, keeping previous policy", err,
					logger.String("path", path),
				)
				return
			}
			store.Swap(policy)
			log.Info(ctx, "Access policy reloaded",
				logger.String("path", path),
				logger.Int("tenant_count", policy.TenantCount()),
			)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				// Debounce: a single save often produces several events.
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(200*time.Millisecond, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error(ctx, "Policy watcher error", err)
			}
		}
	}()

	return nil
}
