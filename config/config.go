// Package config loads the YAML file an actor or arbiter process starts
// from, translating it into an actor.Config. It is the file-based
// counterpart to the flags cmd/actorctl also accepts (cmd/arbiterd reads
// flags only); either source (or both, flags overriding the file) can
// populate a Config before New is called.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nyric/actorio/actor"
)

// File is the on-disk shape of an actor's startup configuration.
type File struct {
	Name        string   `yaml:"name"`
	ListenAddr  string   `yaml:"listen_addr"`
	ParentAddr  string   `yaml:"parent_addr"`
	ArbiterAddr string   `yaml:"arbiter_addr"`
	NAT         string   `yaml:"nat"`
	AdminAddr   string   `yaml:"admin_addr"`
	// Verbosity is nil when the file doesn't set it, distinguishing
	// "unset" from the valid level 0 (crit) so a CLI flag default can
	// tell whether it should defer to the file.
	Verbosity *int     `yaml:"verbosity"`
	Modules   []string `yaml:"modules"`
}

// Load reads and parses the YAML file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return &f, nil
}

// ActorConfig builds an actor.Config from f with mods as its only
// Modules; f.Modules itself is not read here — the caller resolves it
// (cmd/actorctl's module registry) and passes the result as mods, since a
// YAML file can only name a module, not construct one.
func (f *File) ActorConfig(mods ...actor.Module) actor.Config {
	return actor.Config{
		Name:        f.Name,
		ListenAddr:  f.ListenAddr,
		ParentAddr:  f.ParentAddr,
		ArbiterAddr: f.ArbiterAddr,
		NAT:         f.NAT,
		AdminAddr:   f.AdminAddr,
		Modules:     mods,
	}
}
