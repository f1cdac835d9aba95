package chainparams

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownNetwork is returned when a network lookup has no match.
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrDuplicateNetwork is returned when registering a network whose ID
	// is already taken.
	ErrDuplicateNetwork = errors.New("duplicate network")
)

// Registry is an ordered set of networks. Several networks may share the same
// extended key versions (Bitcoin and Ravencoin mainnet both use xprv/xpub),
// so lookups by version return every match in registration order and callers
// pick the first one unless they know better.
type Registry struct {
	mu       sync.RWMutex
	networks []*Network
	byID     map[string]*Network
}

// NewRegistry creates a registry holding the given networks, in order.
func NewRegistry(networks ...*Network) (*Registry, error) {
	r := &Registry{
		byID: make(map[string]*Network),
	}
	for _, net := range networks {
		if err := r.Register(net); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register appends a network to the registry.
func (r *Registry) Register(net *Network) error {
	if net == nil || net.Params == nil {
		return fmt.Errorf("%w: nil params", ErrUnknownNetwork)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := net.ID()
	if _, ok := r.byID[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNetwork, id)
	}

	r.byID[id] = net
	r.networks = append(r.networks, net)

	log.Debugf("Registered network %s (coin type %d, private prefix "+
		"%s)", id, net.CoinType, net.KeyPrefix(true))

	return nil
}

// ByName returns the network with the given ID. A bare chain name such as
// "ravencoin" resolves to that chain's first registered non-test network.
func (r *Registry) ByName(name string) (*Network, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if net, ok := r.byID[name]; ok {
		return net, nil
	}

	for _, net := range r.networks {
		if string(net.Chain) == name && !net.TestNet {
			return net, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
}

// ByVersion returns every network whose private or public extended key
// version equals version, in registration order.
func (r *Registry) ByVersion(version [4]byte) []*Network {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*Network
	for _, net := range r.networks {
		if _, ok := net.HasVersion(version); ok {
			matches = append(matches, net)
		}
	}

	return matches
}

// IsPrivateVersion reports whether version denotes a private extended key on
// any registered network. The second return value is false when no network
// knows the version.
func (r *Registry) IsPrivateVersion(version [4]byte) (bool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, net := range r.networks {
		if private, ok := net.HasVersion(version); ok {
			return private, true
		}
	}

	return false, false
}

// All returns the registered networks in order.
func (r *Registry) All() []*Network {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*Network(nil), r.networks...)
}

// defaultRegistry holds every built-in network. Bitcoin mainnet comes first so
// that an xprv/xpub string without any hint decodes as Bitcoin.
var defaultRegistry = func() *Registry {
	r, err := NewRegistry(
		BitcoinMainNet, BitcoinTestNet3, BitcoinRegTest,
		BitcoinSimNet, LitecoinMainNet, LitecoinTestNet4,
		RavencoinMainNet, RavencoinTestNet,
	)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in networks: %v", err))
	}

	return r
}()

// Default returns the registry of built-in networks.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a network to the default registry.
func Register(net *Network) error {
	return defaultRegistry.Register(net)
}

// ByName looks up a network in the default registry.
func ByName(name string) (*Network, error) {
	return defaultRegistry.ByName(name)
}

// ByVersion looks up networks by extended key version in the default
// registry.
func ByVersion(version [4]byte) []*Network {
	return defaultRegistry.ByVersion(version)
}

// All returns every network of the default registry.
func All() []*Network {
	return defaultRegistry.All()
}
