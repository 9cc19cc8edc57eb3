package builder

import (
	"github.com/rotisserie/eris"

	"github.com/binbuff/release-tools/internal/config"
	"github.com/binbuff/release-tools/internal/vcs"
)

// Registry holds the four toolchains in summary order.
type Registry struct {
	toolchains []Toolchain
}

// NewRegistry creates the toolchains for the source directories of cfg.
func NewRegistry(cfg *config.Config, cloner vcs.Cloner) *Registry {
	return &Registry{
		toolchains: []Toolchain{
			NewC(cfg.Sources.C),
			NewCpp(cfg.Sources.Cpp, cfg.Cpp, cloner),
			NewCsharp(cfg.Sources.Csharp),
			NewJava(cfg.Sources.Java),
		},
	}
}

// Get retrieves a toolchain by target name.
func (r *Registry) Get(name string) (Toolchain, error) {
	for _, t := range r.toolchains {
		if t.Name() == name {
			return t, nil
		}
	}
	return nil, eris.Errorf("unknown target %q (choose from %v)", name, r.Names())
}

// List returns every toolchain.
func (r *Registry) List() []Toolchain {
	return append([]Toolchain(nil), r.toolchains...)
}

// Names returns every target name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.toolchains))
	for _, t := range r.toolchains {
		names = append(names, t.Name())
	}
	return names
}
