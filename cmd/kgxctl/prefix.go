package main

import "github.com/biomedkg/kgxchange/internal/prefixmgr"

// buildPrefixManager seeds a Prefix Manager from the loaded Config's
// bindings and priority list.
func buildPrefixManager() *prefixmgr.Manager {
	defaultPrefix := "biolink"
	if cfg.Prefix.Default != "" {
		defaultPrefix = cfg.Prefix.Default
	}
	m := prefixmgr.New(defaultPrefix)
	m.OnRedefinition(func(prefix, oldBase, newBase string) {
		logger.Warnf("prefix %q redefined: %q -> %q", prefix, oldBase, newBase)
	})
	if len(cfg.Prefix.Bindings) > 0 {
		m.Update(cfg.Prefix.Bindings)
	}
	if len(cfg.Prefix.Priority) > 0 {
		m.SetPriority(cfg.Prefix.Priority)
	}
	return m
}
