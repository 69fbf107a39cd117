package products

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phealth-au/platform/pkg/cache"
	"github.com/phealth-au/platform/pkg/common/logger"
)

var segmentStates = []string{"NSW", "VIC", "QLD", "TAS", "SA", "WA", "NT"}

// CacheWriter derives query-result snapshots into the file cache once an
// import completes, and stores the raw XML of each product as it loads.
type CacheWriter struct {
	store       *cache.Store
	xmlMode     cache.Mode
	fundMode    cache.Mode
	segmentMode cache.Mode
}

func NewCacheWriter(store *cache.Store, xmlMode, fundMode, segmentMode cache.Mode) *CacheWriter {
	return &CacheWriter{
		store:       store,
		xmlMode:     xmlMode,
		fundMode:    fundMode,
		segmentMode: segmentMode,
	}
}

// WriteProductXML caches a product's sanitized XML. An XML cache is always
// kept - when the configured mode is none the compressed form is written.
func (c *CacheWriter) WriteProductXML(fundCode, productCode string, data []byte) error {
	mode := c.xmlMode
	if mode == cache.ModeNone {
		mode = cache.ModeCompressed
	}
	return c.store.Write(fmt.Sprintf("products/xml/%s/%s", fundCode, productCode), mode, data)
}

// ReadProductXML returns a product's cached XML.
func (c *CacheWriter) ReadProductXML(fundCode, productCode string) ([]byte, error) {
	return c.store.Read(fmt.Sprintf("products/xml/%s/%s", fundCode, productCode))
}

// RebuildFundCaches snapshots the per-fund product listing for each fund.
func (c *CacheWriter) RebuildFundCaches(ctx context.Context, fundCodes []string, repo *Repository) error {
	logger.Log.WithField("mode", c.fundMode).Info("rebuilding product/fund caches")
	if c.fundMode == cache.ModeNone {
		return nil
	}
	for _, fundCode := range fundCodes {
		result, err := repo.FindByFund(ctx, fundCode)
		if err != nil {
			return fmt.Errorf("querying products for fund %s: %w", fundCode, err)
		}
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		if err := c.store.Write("products/fund/"+fundCode, c.fundMode, data); err != nil {
			return err
		}
	}
	return nil
}

// RebuildSegmentCaches snapshots the search results for every market
// segment: state x adults covered x dependants.
func (c *CacheWriter) RebuildSegmentCaches(ctx context.Context, repo *Repository) error {
	logger.Log.WithField("mode", c.segmentMode).Info("rebuilding product/segment caches")
	if c.segmentMode == cache.ModeNone {
		return nil
	}
	for _, state := range segmentStates {
		for adults := 0; adults <= 2; adults++ {
			for _, dependants := range []bool{true, false} {
				if adults == 0 && !dependants {
					continue
				}
				result, err := repo.Search(ctx, state, adults, dependants)
				if err != nil {
					return fmt.Errorf("querying segment %s/%d: %w", state, adults, err)
				}
				data, err := json.Marshal(result)
				if err != nil {
					return err
				}
				name := fmt.Sprintf("products/segment/%s/%d", state, adults)
				if dependants {
					name += "D"
				}
				if err := c.store.Write(name, c.segmentMode, data); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
