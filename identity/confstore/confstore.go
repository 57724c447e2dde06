// Package confstore persists NodeConfig as JSON on disk, create-on-read,
// overwrite-on-write, the same durability story device's UAPI config
// gives a running interface except flattened to a single file instead
// of a control socket.
package confstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lanpair/core/wire"
)

const settingsFile = "settings.json"

// NodeConfig is the node's persisted configuration. Id is never read
// from disk: it is recomputed from the current Identity on every load,
// so a config file copied onto a different identity can't masquerade
// as the original node.
type NodeConfig struct {
	Name       string              `json:"name"`
	Id         wire.PeerId         `json:"id"`
	KnownPeers []wire.PeerMetadata `json:"known_peers"`
	AutoAccept bool                `json:"auto_accept"`
}

// Store reads and writes NodeConfig at <dir>/settings.json.
type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a Store rooted at dir, creating dir if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("confstore: create %s: %w", dir, err)
	}
	return &Store{path: filepath.Join(dir, settingsFile)}, nil
}

// Load reads the persisted config, creating a default one (name
// "lanpair", no known peers, auto_accept false) on first run. id is
// substituted into the returned config regardless of what is on disk.
func (s *Store) Load(id wire.PeerId) (NodeConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		cfg := NodeConfig{Name: "lanpair", Id: id, KnownPeers: nil, AutoAccept: false}
		if werr := s.writeLocked(cfg); werr != nil {
			return NodeConfig{}, werr
		}
		return cfg, nil
	}
	if err != nil {
		return NodeConfig{}, fmt.Errorf("confstore: read %s: %w", s.path, err)
	}

	var cfg NodeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("confstore: parse %s: %w", s.path, err)
	}
	cfg.Id = id
	return cfg, nil
}

// Save overwrites the persisted config.
func (s *Store) Save(cfg NodeConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(cfg)
}

func (s *Store) writeLocked(cfg NodeConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("confstore: marshal config: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("confstore: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("confstore: rename %s: %w", tmp, err)
	}
	return nil
}
