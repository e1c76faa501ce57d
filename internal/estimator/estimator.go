// Package estimator computes the monthly cost delta of an infrastructure
// change report by pricing each changed resource before and after the change.
package estimator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"costdelta/internal/logging"
	"costdelta/internal/report"
	"costdelta/internal/resourcemap"
	"costdelta/internal/worker"
)

// Estimator prices change reports against a PriceLookup
type Estimator struct {
	lookup      PriceLookup
	concurrency int
	runID       string
}

// Option configures an Estimator
type Option func(*Estimator)

// WithConcurrency prefetches distinct lookups with up to n workers before
// rows are computed. n <= 1 keeps every lookup sequential.
func WithConcurrency(n int) Option {
	return func(e *Estimator) {
		e.concurrency = n
	}
}

// WithRunID fixes the run identifier instead of generating one per run
func WithRunID(id string) Option {
	return func(e *Estimator) {
		e.runID = id
	}
}

// New creates an Estimator
func New(lookup PriceLookup, opts ...Option) *Estimator {
	e := &Estimator{lookup: lookup, concurrency: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// query is one lookup the run needs
type query struct {
	key     string
	service string
	filters []Filter
}

// run holds the state of one Estimate call
type run struct {
	*Estimator
	cache      *Cache
	region     string
	incomplete bool
}

// Estimate prices every changed resource of cr. Only malformed input fails
// the run; resources that cannot be priced get rows without a delta. When
// ctx ends early the rows not yet priced are returned without data and the
// result is marked incomplete.
func (e *Estimator) Estimate(ctx context.Context, cr *report.ChangeReport, rm *resourcemap.ResourceMap, region string) (*Result, error) {
	if e.lookup == nil {
		return nil, fmt.Errorf("estimator has no price lookup")
	}
	if cr == nil {
		return nil, NewInputError(KindReport, "change report is missing", nil)
	}
	if err := cr.Validate(); err != nil {
		return nil, NewInputError(KindReport, "change report is malformed", err)
	}
	if rm == nil {
		return nil, NewInputError(KindResourceMap, "resource map is missing", nil)
	}
	if err := rm.Validate(); err != nil {
		return nil, NewInputError(KindResourceMap, "resource map is malformed", err)
	}
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, NewInputError(KindRegion, "region is empty", nil)
	}

	runID := e.runID
	if runID == "" {
		runID = uuid.NewString()
	}

	r := &run{Estimator: e, cache: NewCache(), region: region}
	logging.EstimateStart(runID, region, len(cr.Stacks), cr.ResourceCount())

	if e.concurrency > 1 {
		r.prefetch(ctx, cr, rm)
	}

	result := &Result{
		RunID:         runID,
		Region:        region,
		Rows:          []CostRow{},
		TotalDelta:    decimal.Zero,
		UnmappedTypes: []string{},
	}
	unmapped := make(map[string]bool)

	for _, stack := range cr.Stacks {
		if !stack.HasChanges() {
			continue
		}
		for _, res := range stack.Resources {
			if rm.IsFree(res.Type) {
				result.FreeCount++
				continue
			}

			row := CostRow{
				Stack:    stack.Name,
				Resource: report.CleanLogicalID(res.LogicalID),
				Type:     report.ShortType(res.Type),
				Action:   res.Action,
			}

			rule, ok := rm.Rule(res.Type)
			if !ok {
				row.Reason = ReasonNoMapping
				result.UnmappedCount++
				result.UnpricedCount++
				unmapped[res.Type] = true
				result.Rows = append(result.Rows, row)
				logging.ResourceUnpriced(stack.Name, res.LogicalID, res.Type, string(row.Reason))
				continue
			}

			if res.Action == report.ActionUpdate {
				row.Detail = changeDetail(rule, res)
			}
			if res.Action != report.ActionAdd {
				row.Before = r.monthlyCost(ctx, rule, res, before)
			}
			if res.Action != report.ActionRemove {
				row.After = r.monthlyCost(ctx, rule, res, after)
			}

			if row.Before == nil && row.After == nil {
				row.Reason = ReasonLookupFailed
				result.UnpricedCount++
				logging.ResourceUnpriced(stack.Name, res.LogicalID, res.Type, string(row.Reason))
			} else {
				delta := valueOrZero(row.After).Sub(valueOrZero(row.Before))
				row.Delta = &delta
				result.TotalDelta = result.TotalDelta.Add(delta)
				result.PricedCount++
			}
			result.Rows = append(result.Rows, row)
		}
	}

	for t := range unmapped {
		result.UnmappedTypes = append(result.UnmappedTypes, t)
	}
	sort.Strings(result.UnmappedTypes)
	result.Incomplete = r.incomplete

	logging.EstimateComplete(runID, result.PricedCount, result.FreeCount, result.UnpricedCount, result.TotalDelta.String())
	if result.Incomplete {
		logging.Warn("Estimate ended before every resource was priced", map[string]interface{}{
			"run_id": runID,
		})
	}
	return result, nil
}

// monthlyCost prices one direction of a resource, or returns nil
func (r *run) monthlyCost(ctx context.Context, rule *resourcemap.PricingRule, res report.ResourceChange, dir direction) *decimal.Decimal {
	q := r.newQuery(rule, res, dir)

	// outcomes fetched before the deadline still count
	e, cached := r.cache.load(q.key)
	quote, err := e.quote, e.err
	if !cached {
		quote, err = r.do(ctx, q)
		if err != nil && isCancellation(ctx, err) {
			r.incomplete = true
		}
	}
	if err != nil {
		logging.Debug("Price lookup failed", map[string]interface{}{
			"logical_id": res.LogicalID,
			"direction":  dir.String(),
			"service":    q.service,
			"error":      err.Error(),
		})
		return nil
	}
	if quote == nil {
		return nil
	}

	cost := quote.UnitPrice
	if m := rule.Multiplier(); m != nil {
		cost = cost.Mul(*m)
	}
	return &cost
}

func (r *run) newQuery(rule *resourcemap.PricingRule, res report.ResourceChange, dir direction) query {
	filters := resolveFilters(rule, res, dir)
	return query{
		key:     cacheKey(rule.Service, r.region, filters),
		service: rule.Service,
		filters: filters,
	}
}

// do runs a query through the run cache
func (r *run) do(ctx context.Context, q query) (*Quote, error) {
	return r.cache.Get(ctx, q.key, func(ctx context.Context) (*Quote, error) {
		logging.Debug("Looking up price", map[string]interface{}{
			"service": q.service,
			"filters": q.filters,
			"region":  r.region,
		})
		return r.lookup.Lookup(ctx, q.service, q.filters, r.region)
	})
}

// prefetch warms the cache with every distinct query the run needs
func (r *run) prefetch(ctx context.Context, cr *report.ChangeReport, rm *resourcemap.ResourceMap) {
	queries := r.collectQueries(cr, rm)
	if len(queries) == 0 {
		return
	}

	pool := worker.NewPool(ctx, r.concurrency, 0)
	defer pool.Stop()

	tasks := make([]worker.Task, 0, len(queries))
	for _, q := range queries {
		q := q
		tasks = append(tasks, func(ctx context.Context) error {
			_, err := r.do(ctx, q)
			return err
		})
	}
	pool.ExecuteTasks(tasks)

	m := pool.GetMetrics()
	logging.Progress("Prefetched prices", map[string]interface{}{
		"queries":      len(queries),
		"lookups":      r.cache.Calls(),
		"failed":       m.FailedTasks,
		"peak_workers": m.PeakWorkers,
	})
}

// collectQueries lists the distinct queries in report order
func (r *run) collectQueries(cr *report.ChangeReport, rm *resourcemap.ResourceMap) []query {
	seen := make(map[string]bool)
	var queries []query
	add := func(q query) {
		if !seen[q.key] {
			seen[q.key] = true
			queries = append(queries, q)
		}
	}

	for _, stack := range cr.Stacks {
		for _, res := range stack.Resources {
			if rm.IsFree(res.Type) {
				continue
			}
			rule, ok := rm.Rule(res.Type)
			if !ok {
				continue
			}
			if res.Action != report.ActionAdd {
				add(r.newQuery(rule, res, before))
			}
			if res.Action != report.ActionRemove {
				add(r.newQuery(rule, res, after))
			}
		}
	}
	return queries
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
