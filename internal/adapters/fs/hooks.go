package fs

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
)

var (
	_ ports.ResolverHook = ChainHooks(nil)
	_ ports.ResolverHook = (*AliasHook)(nil)
)

// ChainHooks consults each hook in order. The first hook that answers wins.
type ChainHooks []ports.ResolverHook

// ResolveImport implements ports.ResolverHook.
func (c ChainHooks) ResolveImport(ref string, from domain.ModuleID) (string, bool, error) {
	for _, h := range c {
		path, ok, err := h.ResolveImport(ref, from)
		if err != nil || ok {
			return path, ok, err
		}
	}
	return "", false, nil
}

type alias struct {
	prefix string
	target string
}

// AliasHook rewrites references that start with a configured prefix.
// The longest matching prefix wins.
type AliasHook struct {
	aliases []alias
}

// NewAliasHook creates an AliasHook. Relative targets are taken from root.
func NewAliasHook(root string, aliases map[string]string) *AliasHook {
	h := &AliasHook{aliases: make([]alias, 0, len(aliases))}
	for prefix, target := range aliases {
		if !filepath.IsAbs(target) {
			target = filepath.Join(root, filepath.FromSlash(target))
		}
		h.aliases = append(h.aliases, alias{prefix: strings.TrimSuffix(prefix, "/"), target: target})
	}
	slices.SortFunc(h.aliases, func(a, b alias) int {
		if c := cmp.Compare(len(b.prefix), len(a.prefix)); c != 0 {
			return c
		}
		return cmp.Compare(a.prefix, b.prefix)
	})
	return h
}

// ResolveImport implements ports.ResolverHook.
func (h *AliasHook) ResolveImport(ref string, _ domain.ModuleID) (string, bool, error) {
	for _, a := range h.aliases {
		if ref == a.prefix {
			return a.target, true, nil
		}
		if rest, ok := strings.CutPrefix(ref, a.prefix+"/"); ok {
			return filepath.Join(a.target, filepath.FromSlash(rest)), true, nil
		}
	}
	return "", false, nil
}
