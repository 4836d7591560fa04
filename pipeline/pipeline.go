// Package pipeline wires the three independent conversion pipelines —
// instruction translation, manifest interpretation, and resource
// resolution — into one call over an opened archive (spec.md §2's data
// flow diagram).
package pipeline

import (
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/avast/dexjvm/archive"
	"github.com/avast/dexjvm/binxml"
	"github.com/avast/dexjvm/classfile"
	"github.com/avast/dexjvm/dex"
	"github.com/avast/dexjvm/manifest"
	"github.com/avast/dexjvm/restable"
	"github.com/avast/dexjvm/translate"
)

// Result is everything Convert produces.
type Result struct {
	Manifest manifest.Manifest
	Table    *restable.Table // nil if the archive carried no resources.arsc
	Classes  map[string][]byte
	Errors   []error // per-class translation errors; recoveries, not aborts (spec.md §4.7.4)
}

// ClassSource supplies the decoded classes Convert should translate. The
// pipeline package takes this rather than raw dex bytes because the
// compiled-bytecode container format is out of scope (spec.md §4.5); a
// caller wires its own DexReader-shaped source (dex.NewReader from test
// fixtures, or a real container decoder) here.
type ClassSource interface {
	Classes() []*dex.Class
}

// Convert runs the three pipelines from spec.md §2's diagram over a.
// The manifest and resource-table entries are first read from the archive
// concurrently; once both reads finish, the manifest parse, resource
// table parse, and class translation run concurrently since spec.md §5
// describes them as sharing no mutable state.
func Convert(a *archive.Archive, classes ClassSource, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.Default()
	}

	var (
		manifestBytes, tableBytes []byte
		res                       = &Result{Classes: map[string][]byte{}}
	)

	g := new(errgroup.Group)

	g.Go(func() error {
		b, err := a.ManifestBytes()
		if err != nil {
			return fmt.Errorf("pipeline: manifest: %w", err)
		}
		manifestBytes = b
		return nil
	})

	g.Go(func() error {
		b, err := a.ResourceTableBytes()
		if err != nil {
			return fmt.Errorf("pipeline: resource table: %w", err)
		}
		tableBytes = b
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	g2 := new(errgroup.Group)

	g2.Go(func() error {
		doc, err := binxml.Parse(manifestBytes)
		if err != nil {
			return fmt.Errorf("pipeline: parsing manifest: %w", err)
		}
		res.Manifest = manifest.Interpret(doc)
		return nil
	})

	g2.Go(func() error {
		if tableBytes == nil {
			return nil
		}
		table, err := restable.Parse(tableBytes)
		if err != nil {
			return fmt.Errorf("pipeline: parsing resource table: %w", err)
		}
		res.Table = table
		return nil
	})

	g2.Go(func() error {
		translator := translate.New()
		seen := map[string]bool{}
		for _, c := range classes.Classes() {
			out, errs := classfile.EmitClass(c, translator)
			for _, e := range errs {
				res.Errors = append(res.Errors, fmt.Errorf("class %s: %w", c.Name, e))
			}
			name := classfile.InternalName(c.Name)
			if seen[name] {
				log.Warn("duplicate class name across dex files, last writer wins", "class", name)
			}
			seen[name] = true
			res.Classes[name] = out
		}
		return nil
	})

	if err := g2.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}
