package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/fincache/observe"
	"github.com/jonwraymond/fincache/ops"
	"github.com/jonwraymond/fincache/shape"
)

// Profile names a fixed access pattern whose queries are warmed ahead
// of use.
type Profile string

const (
	// ProfileDashboard warms the account overview: balances, budgets,
	// categories and the current month's cashflow.
	ProfileDashboard Profile = "dashboard"

	// ProfileInvestments warms full account detail plus institution
	// and subscription data.
	ProfileInvestments Profile = "investments"

	// ProfileTransactions warms the recent transaction window and the
	// directories used to annotate it.
	ProfileTransactions Profile = "transactions"

	// ProfileAll warms the union of every profile, deduplicated by
	// fingerprint.
	ProfileAll Profile = "all"
)

// ParseProfile parses a profile name.
func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToLower(s))
	if !p.Valid() {
		return "", wrapOp(ErrUnknownProfile, s)
	}
	return p, nil
}

// Valid reports whether p is a known profile.
func (p Profile) Valid() bool {
	switch p {
	case ProfileDashboard, ProfileInvestments, ProfileTransactions, ProfileAll:
		return true
	default:
		return false
	}
}

// String returns the string representation of the profile.
func (p Profile) String() string {
	return string(p)
}

// tuple is one warmup request.
type tuple struct {
	operation string
	params    map[string]any
	level     shape.Level
}

// TupleResult reports the outcome of one warmed request.
type TupleResult struct {
	// Operation is the warmed operation.
	Operation string

	// Shape is the detail level that was requested.
	Shape shape.Level

	// Duration is the wall time the fetch took.
	Duration time.Duration

	// Err is the fetch error, nil on success.
	Err error
}

// Failed reports whether the tuple's fetch failed.
func (r TupleResult) Failed() bool {
	return r.Err != nil
}

// Summary reports a whole warmup batch.
type Summary struct {
	// Profile is the profile that was warmed.
	Profile Profile

	// BatchID correlates the batch's log lines.
	BatchID string

	// Results holds one entry per tuple, in tuple order.
	Results []TupleResult

	// Duration is the wall time of the whole batch.
	Duration time.Duration
}

// Failures counts the tuples whose fetch failed.
func (s Summary) Failures() int {
	n := 0
	for _, r := range s.Results {
		if r.Failed() {
			n++
		}
	}
	return n
}

// Preload warms the cache for a profile's expected access pattern.
// Every tuple goes through the normal fetch path, so warmed entries
// obey the same TTL, deduplication and counting rules as organic
// requests. Warming is best effort: every tuple is always attempted
// and individual failures stay in the summary, they never abort the
// batch or surface as an error.
func (s *Service) Preload(ctx context.Context, profile Profile) (Summary, error) {
	tuples := s.warmTuples(profile)
	if tuples == nil {
		return Summary{}, wrapOp(ErrUnknownProfile, profile.String())
	}

	summary := Summary{
		Profile: profile,
		BatchID: uuid.NewString(),
		Results: make([]TupleResult, len(tuples)),
	}

	s.logger.Info(ctx, "preload started",
		observe.Field{Key: "profile", Value: profile.String()},
		observe.Field{Key: "batch_id", Value: summary.BatchID},
		observe.Field{Key: "tuples", Value: len(tuples)})

	start := time.Now()

	var g errgroup.Group
	g.SetLimit(s.preloadLimit)
	for i, t := range tuples {
		g.Go(func() error {
			tupleStart := time.Now()
			_, err := s.Fetch(ctx, t.operation, t.params, t.level)
			summary.Results[i] = TupleResult{
				Operation: t.operation,
				Shape:     t.level,
				Duration:  time.Since(tupleStart),
				Err:       err,
			}
			if err != nil {
				s.logger.Warn(ctx, "preload tuple failed",
					observe.Field{Key: "batch_id", Value: summary.BatchID},
					observe.Field{Key: "operation", Value: t.operation},
					observe.Field{Key: "shape", Value: t.level.String()},
					observe.Field{Key: "error", Value: err.Error()})
			}
			return nil
		})
	}
	// Tuple failures stay in the summary; the group never errors.
	_ = g.Wait()

	summary.Duration = time.Since(start)

	s.logger.Info(ctx, "preload finished",
		observe.Field{Key: "profile", Value: profile.String()},
		observe.Field{Key: "batch_id", Value: summary.BatchID},
		observe.Field{Key: "failures", Value: summary.Failures()},
		observe.Field{Key: "duration_ms", Value: float64(summary.Duration.Milliseconds())})

	return summary, nil
}

// Warmup window defaults.
const (
	dateLayout             = "2006-01-02"
	transactionWindowDays  = 30
	transactionWindowLimit = 100
)

// warmTuples returns the fixed request list for a profile, or nil for
// an unknown one. Date windows are pinned to day granularity so
// repeated warmups within a day share fingerprints with each other and
// with organic requests using the same defaults.
func (s *Service) warmTuples(profile Profile) []tuple {
	now := s.now()
	today := now.Format(dateLayout)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format(dateLayout)
	windowStart := now.AddDate(0, 0, -transactionWindowDays).Format(dateLayout)

	dashboard := []tuple{
		{ops.OpGetAccounts, nil, shape.LevelBalance},
		{ops.OpGetCategories, nil, shape.LevelFull},
		{ops.OpGetBudgets, nil, shape.LevelFull},
		{ops.OpGetCashflow, map[string]any{"start_date": monthStart, "end_date": today}, shape.LevelFull},
	}
	investments := []tuple{
		{ops.OpGetAccounts, nil, shape.LevelFull},
		{ops.OpGetInstitutions, nil, shape.LevelFull},
		{ops.OpGetSubscriptionDetails, nil, shape.LevelFull},
	}
	transactions := []tuple{
		{ops.OpGetTransactions, map[string]any{"start_date": windowStart, "end_date": today, "limit": transactionWindowLimit}, shape.LevelFull},
		{ops.OpGetCategories, nil, shape.LevelFull},
		{ops.OpGetTags, nil, shape.LevelFull},
		{ops.OpGetMerchants, nil, shape.LevelFull},
	}

	switch profile {
	case ProfileDashboard:
		return dashboard
	case ProfileInvestments:
		return investments
	case ProfileTransactions:
		return transactions
	case ProfileAll:
		all := make([]tuple, 0, len(dashboard)+len(investments)+len(transactions))
		all = append(all, dashboard...)
		all = append(all, investments...)
		all = append(all, transactions...)
		return s.dedupeTuples(all)
	default:
		return nil
	}
}

// dedupeTuples drops tuples whose fingerprint an earlier tuple already
// covers, keeping first occurrences in order.
func (s *Service) dedupeTuples(tuples []tuple) []tuple {
	seen := make(map[string]bool, len(tuples))
	out := make([]tuple, 0, len(tuples))
	for _, t := range tuples {
		var setParams []string
		if desc, ok := s.registry.Lookup(t.operation); ok {
			setParams = desc.SetParams
		}
		fp, err := s.keyer.Key(t.operation, t.level.String(), t.params, setParams)
		if err != nil {
			// Keep the tuple; Preload will surface the failure per tuple.
			out = append(out, t)
			continue
		}
		if seen[fp.Key] {
			continue
		}
		seen[fp.Key] = true
		out = append(out, t)
	}
	return out
}
