// Command dexjvmc converts a packaged application archive's manifest,
// resources, and compiled bytecode into translated class files, a parsed
// manifest, and a resource resolver. It is a thin driver: CLI ergonomics,
// config files, and logging setup are out of scope for the module itself
// (spec.md treats them as external collaborators), so this stays a
// flag-parsing wrapper around the pipeline package, matching the
// teacher's own axml2xml tool.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/avast/dexjvm/archive"
	"github.com/avast/dexjvm/dex"
	"github.com/avast/dexjvm/pipeline"
)

func main() {
	var (
		verify  = flag.Bool("verify", false, "validate the archive's signing block before converting")
		mapped  = flag.Bool("mmap", false, "open the archive memory-mapped instead of buffering it")
		outDir  = flag.String("o", "", "directory to write translated class files into (default: don't write)")
		verbose = flag.Bool("v", false, "debug-level logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: dexjvmc [flags] <archive.apk>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	if *verify {
		res, err := archive.VerifySignature(path)
		if err != nil {
			log.Error("signature verification failed", "error", err)
			os.Exit(1)
		}
		log.Info("signature verified", "scheme", res.SigningSchemeID, "chains", len(res.SignerCerts))
	}

	var (
		a   *archive.Archive
		err error
	)
	if *mapped {
		a, err = archive.OpenMapped(path)
	} else {
		a, err = archive.Open(path)
	}
	if err != nil {
		log.Error("opening archive", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// No container-format decoder exists in this module (spec.md §4.5 scopes
	// the compiled-bytecode container itself out: dex.Reader's contract takes
	// already-decoded Class/Method/Instruction values, not classesN.dex's raw
	// encoding). archive.ClassesDexFiles surfaces those raw bytes, but nothing
	// here decodes them, so this driver never has classes to hand the
	// translator: it converts the manifest and resource table only. A real
	// build of this tool needs a classesN.dex decoder in front of dex.NewReader.
	reader, err := dex.NewReader(nil)
	if err != nil {
		log.Error("preparing class source", "error", err)
		os.Exit(1)
	}
	log.Warn("no classesN.dex decoder is wired; class translation will be empty")

	result, err := pipeline.Convert(a, reader, log)
	if err != nil {
		log.Error("conversion failed", "error", err)
		os.Exit(1)
	}

	for _, convErr := range result.Errors {
		log.Warn("class conversion recovered with a stub", "error", convErr)
	}

	log.Info("manifest parsed", "package", result.Manifest.Package, "activities", len(result.Manifest.Activities))
	if result.Table != nil {
		log.Info("resource table parsed", "packages", len(result.Table.Packages))
	}
	log.Info("classes translated", "count", len(result.Classes))

	if *outDir == "" {
		return
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Error("creating output directory", "error", err)
		os.Exit(1)
	}
	for name, body := range result.Classes {
		dest := *outDir + "/" + name + ".class"
		if err := os.MkdirAll(dirOf(dest), 0o755); err != nil {
			log.Error("creating class directory", "class", name, "error", err)
			continue
		}
		if err := os.WriteFile(dest, body, 0o644); err != nil {
			log.Error("writing class file", "class", name, "error", err)
		}
	}
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
