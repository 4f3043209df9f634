package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/biomedkg/kgxchange/internal/remoteinput"
)

// stageInputs downloads any gh:// or http(s):// input location to a
// temp file and rewrites the flag value in place, so every Source
// constructor only ever sees a local path. Returns a cleanup func
// removing the staged files.
func stageInputs(ctx context.Context, locs ...*string) (func(), error) {
	var staged []string
	cleanup := func() {
		for _, p := range staged {
			os.Remove(p)
		}
	}

	var resolver *remoteinput.Resolver
	for _, loc := range locs {
		if loc == nil || *loc == "" || !remoteinput.IsRemote(*loc) {
			continue
		}
		if resolver == nil {
			resolver = remoteinput.NewResolver(cfg.GitHub.Token, cfg.GitHub.RateLimit)
		}
		rc, err := remoteinput.Open(ctx, resolver, *loc)
		if err != nil {
			cleanup()
			return nil, err
		}
		tmp, err := os.CreateTemp("", "kgxctl-input-*"+filepath.Ext(*loc))
		if err != nil {
			rc.Close()
			cleanup()
			return nil, err
		}
		_, err = io.Copy(tmp, rc)
		rc.Close()
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(tmp.Name())
			cleanup()
			return nil, err
		}
		staged = append(staged, tmp.Name())
		logger.WithField("location", *loc).Debug("staged remote input")
		*loc = tmp.Name()
	}
	return cleanup, nil
}
