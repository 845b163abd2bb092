// Package registry maps storage provider names to key value database openers.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/kv"
	"github.com/samber/lo"
)

// Opener opens a key value database from provider specific params (ex: storage_path)
type Opener func(params map[string]any) (kv.DB, error)

var (
	mu      sync.RWMutex
	openers = map[string]Opener{}
)

// Register makes a provider available to Open. Registering a name twice replaces the opener.
func Register(provider string, opener Opener) {
	mu.Lock()
	defer mu.Unlock()
	openers[provider] = opener
}

// Providers returns the registered provider names in sorted order
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := lo.Keys(openers)
	sort.Strings(names)
	return names
}

// Open opens a key value database on a registered provider. Unknown providers are a validation
// error naming the providers that are available.
func Open(provider string, params map[string]any) (kv.DB, error) {
	mu.RLock()
	opener, ok := openers[provider]
	mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.Validation, "unknown storage provider '%s' (registered: %s)", provider, strings.Join(Providers(), ", "))
	}
	db, err := opener(params)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unavailable, "failed to open %s storage", provider)
	}
	return db, nil
}
