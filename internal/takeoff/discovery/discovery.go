// Package discovery implements C2: classifying every page of every source
// PDF into a DocumentMap via a single external agent call, cached to disk
// and fronted by an in-process hot cache.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/abudker/takeoff24/internal/takeoff/agent"
	"github.com/abudker/takeoff24/internal/takeoff/discovery/cache"
	"github.com/abudker/takeoff24/internal/takeoff/model"
	"github.com/abudker/takeoff24/internal/takeoff/obs/errs"
	"github.com/abudker/takeoff24/internal/takeoff/obs/log"
)

// CurrentCacheVersion is bumped whenever the DocumentMap schema or the
// discovery prompt changes meaningfully enough that stale caches should
// be rebuilt rather than trusted.
const CurrentCacheVersion = 1

const agentName = "discovery"

// Runner drives C2: it checks the cache, and on a miss invokes the agent,
// validates the result, and writes the cache back.
type Runner struct {
	Executor  agent.Executor
	FileStore *cache.FileStore
	HotCache  *cache.HotCache
	Timeout   int // seconds; zero means no agent-level override beyond ctx
}

// Discover returns the DocumentMap for evalID, built from sources if no
// valid cache exists. Discovery has no retry: an agent failure or
// validation failure is fatal to the evaluation.
func (r *Runner) Discover(ctx context.Context, evalID string, sources []model.SourcePDF) (model.DocumentMap, error) {
	logger := log.Named("discovery")

	if r.HotCache != nil {
		if doc, ok := r.HotCache.Get(evalID); ok && doc.CacheVersion >= CurrentCacheVersion {
			logger.Debugw("hot cache hit", "eval_id", evalID)
			return doc, nil
		}
	}

	if r.FileStore != nil {
		doc, found, err := r.FileStore.Load(evalID)
		if err != nil {
			return model.DocumentMap{}, errs.Wrap(errs.FatalToEvaluation, "discovery", err)
		}
		if found && doc.CacheVersion >= CurrentCacheVersion {
			logger.Debugw("file cache hit", "eval_id", evalID)
			if r.HotCache != nil {
				r.HotCache.Set(evalID, doc)
			}
			return doc, nil
		}
	}

	logger.Infow("discovery cache miss, invoking agent", "eval_id", evalID, "source_count", len(sources))

	prompt := buildPrompt(sources)
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.Timeout)*time.Second)
		defer cancel()
	}
	reply, err := r.Executor.Invoke(ctx, agentName, prompt)
	if err != nil {
		return model.DocumentMap{}, errs.Wrap(errs.FatalToEvaluation, "discovery", err)
	}

	var doc model.DocumentMap
	if err := agent.ExtractJSON(reply, &doc); err != nil {
		return model.DocumentMap{}, errs.Wrap(errs.FatalToEvaluation, "discovery", err)
	}
	doc.CacheVersion = CurrentCacheVersion

	if err := Validate(doc, sources); err != nil {
		return model.DocumentMap{}, errs.Wrap(errs.FatalToEvaluation, "discovery", err)
	}

	if r.FileStore != nil {
		if err := r.FileStore.Save(evalID, doc); err != nil {
			return model.DocumentMap{}, errs.Wrap(errs.FatalToEvaluation, "discovery", err)
		}
	}
	if r.HotCache != nil {
		r.HotCache.Set(evalID, doc)
	}

	return doc, nil
}

// Validate enforces the global page-numbering invariant: page numbers are
// exactly {1..total_pages} with no gaps or duplicates, and total_pages
// equals the sum of every source's page count.
func Validate(doc model.DocumentMap, sources []model.SourcePDF) error {
	wantTotal := 0
	for _, s := range sources {
		wantTotal += s.PageCount
	}
	if doc.TotalPages != wantTotal {
		return fmt.Errorf("document map total_pages %d does not match source page counts %d", doc.TotalPages, wantTotal)
	}
	if len(doc.Pages) != doc.TotalPages {
		return fmt.Errorf("document map has %d pages, want %d", len(doc.Pages), doc.TotalPages)
	}

	seen := make(map[int]bool, len(doc.Pages))
	for _, p := range doc.Pages {
		if p.PageNumber < 1 || p.PageNumber > doc.TotalPages {
			return fmt.Errorf("page number %d out of range [1,%d]", p.PageNumber, doc.TotalPages)
		}
		if seen[p.PageNumber] {
			return fmt.Errorf("duplicate page number %d", p.PageNumber)
		}
		seen[p.PageNumber] = true
	}
	return nil
}

func buildPrompt(sources []model.SourcePDF) string {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Filename)
	}
	sort.Strings(names)

	prompt := "Classify every page of the following source PDFs into a DocumentMap.\n" +
		"Page numbers are global across all sources in the order given; each source's\n" +
		"local page numbers restart at 1, and you must report both the global page_number\n" +
		"and the ref.local_page within its own source PDF.\n\nSources:\n"
	for _, s := range sources {
		prompt += fmt.Sprintf("- %s (%d pages)\n", s.Filename, s.PageCount)
	}
	return prompt
}
