// Package tooling is the library entry point: it audits a ROM directory against a
// DAT and repairs what the audit finds, leaving persistence and display to callers.
package tooling

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-rom-manager/internal/dat"
	"github.com/deploymenttheory/go-rom-manager/internal/header"
	"github.com/deploymenttheory/go-rom-manager/internal/repair"
	"github.com/deploymenttheory/go-rom-manager/internal/romset"
	"github.com/deploymenttheory/go-rom-manager/internal/scanner"
)

// AuditRequest names everything one audit needs
type AuditRequest struct {
	Name    string        // Collection name, used for logs and the result
	DATPath string        // Path to the DAT, optionally .xz, .bz2, .gz or .zip compressed
	RootDir string        // Directory holding the set archives
	Header  header.Config // Header stripped before hashing
	Workers int           // Concurrent classifications; 0 or 1 scans sequentially
	Cache   scanner.Cache // Optional classification cache
}

// Audit loads the DAT and scans the directory. DAT errors and a missing root are
// fatal; unreadable archives only become Error sets.
func Audit(ctx context.Context, req AuditRequest, log *zap.Logger) (*scanner.Collection, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := req.Header.Validate(); err != nil {
		return nil, err
	}

	index, err := dat.Load(req.DATPath, log)
	if err != nil {
		return nil, err
	}

	classifier := romset.NewClassifier(index, req.Header, log)
	s := scanner.New(index, classifier, scanner.Options{Workers: req.Workers, Cache: req.Cache}, log)
	return s.Scan(ctx, req.Name, req.RootDir)
}

// Fix repairs every BadName set of c. A failed set is logged and the pass
// continues; the failures are returned together.
func Fix(ctx context.Context, c *scanner.Collection, dryRun bool, log *zap.Logger) ([]repair.Result, error) {
	executor := repair.New(repair.Options{DryRun: dryRun}, log)
	return apply(ctx, c.Filter(romset.SetBadName), executor.Repair, log)
}

// RemoveUnknown deletes every Unknown set of c
func RemoveUnknown(ctx context.Context, c *scanner.Collection, dryRun bool, log *zap.Logger) ([]repair.Result, error) {
	executor := repair.New(repair.Options{DryRun: dryRun}, log)
	return apply(ctx, c.Filter(romset.SetUnknown), executor.RemoveUnknown, log)
}

func apply(ctx context.Context, sets []romset.ArchiveSet, fn func(romset.ArchiveSet) (repair.Result, error), log *zap.Logger) ([]repair.Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		results []repair.Result
		errs    error
	)
	for _, set := range sets {
		if err := ctx.Err(); err != nil {
			return results, multierr.Append(errs, err)
		}
		res, err := fn(set)
		results = append(results, res)
		if err != nil {
			log.Error("Cannot process set", zap.String("set", set.BaseName), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", set.BaseName, err))
		}
	}
	return results, errs
}
