package cmd

import (
	"context"
	"fmt"

	"github.com/deploymenttheory/go-rom-manager/internal/config"
	"github.com/deploymenttheory/go-rom-manager/internal/logger"
	"github.com/deploymenttheory/go-rom-manager/internal/scanner"
	"github.com/deploymenttheory/go-rom-manager/internal/store"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
	"github.com/deploymenttheory/go-rom-manager/pkg/tooling"
)

func openStore() (*store.Store, error) {
	return store.Open(config.Instance.DataDir, log)
}

// selectCollections resolves the COLLECTION argument, or every configured
// collection when all is set
func selectCollections(args []string, all bool) ([]config.Collection, error) {
	if all {
		if len(config.Instance.Collections) == 0 {
			return nil, fmt.Errorf("%w: no collections configured", errors.ErrConfigInvalid)
		}
		return config.Instance.Collections, nil
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: a collection name is required", errors.ErrInvalidArgument)
	}
	coll, err := config.Instance.Collection(args[0])
	if err != nil {
		return nil, err
	}
	return []config.Collection{*coll}, nil
}

// scanCollection audits coll through the store's classification cache
func scanCollection(ctx context.Context, st *store.Store, coll config.Collection) (*scanner.Collection, error) {
	logger.LogInfo("Scanning collection", map[string]interface{}{
		"collection": coll.Name,
		"rom_dir":    coll.ROMDir,
	})
	return tooling.Audit(ctx, tooling.AuditRequest{
		Name:    coll.Name,
		DATPath: config.Instance.DATPath(&coll),
		RootDir: coll.ROMDir,
		Header:  coll.Header,
		Workers: config.Instance.Workers,
		Cache:   st.SetCache(coll.Name),
	}, log)
}

// scanAndSave scans coll and replaces its saved result
func scanAndSave(ctx context.Context, st *store.Store, coll config.Collection) (*scanner.Collection, error) {
	result, err := scanCollection(ctx, st, coll)
	if err != nil {
		return nil, err
	}
	if err := st.SaveCollection(result); err != nil {
		return nil, err
	}
	logger.LogInfo("Saved scanner results", map[string]interface{}{
		"collection": coll.Name,
		"data_dir":   config.Instance.DataDir,
	})
	return result, nil
}
