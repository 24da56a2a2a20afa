package audit

import (
	"sort"

	"github.com/smallbiznis/settletrace/internal/config"
	"github.com/smallbiznis/settletrace/internal/relationship"
	"go.uber.org/zap"
)

// Auditor classifies payments by how far their rollup chain has progressed.
// It reads the relationship index only; structural incompleteness is the
// expected, reportable case, never an error. Per payment the classification
// is a small monotonic state machine: Unlinked → HasEnterpriseTotal →
// FullyLinked, driven purely by index mutations and recomputed fresh on
// every call, never cached.
type Auditor struct {
	index      *relationship.Index
	log        *zap.Logger
	thresholds *config.AuditThresholdHolder
}

func NewAuditor(x *relationship.Index, log *zap.Logger, thresholds *config.AuditThresholdHolder) *Auditor {
	return &Auditor{
		index:      x,
		log:        log.Named("audit.auditor"),
		thresholds: thresholds,
	}
}

// Report partitions a payment set by completeness. MissingEnterpriseTotal,
// MissingTotal and Complete are a strict partition of the input: every
// payment lands in exactly one. CompletelyMissing mirrors
// MissingEnterpriseTotal for callers who only care about the
// earliest-stage gap. All sets are sorted by ID.
type Report struct {
	MissingEnterpriseTotal []string `json:"missing_enterprise_total"`
	MissingTotal           []string `json:"missing_total"`
	Complete               []string `json:"complete"`
	CompletelyMissing      []string `json:"completely_missing"`
}

// IncompletePayments classifies each payment in the given set. Duplicate
// input IDs are collapsed; unknown IDs classify as missing_enterprise_total
// since the index records no edge for them.
func (a *Auditor) IncompletePayments(paymentIDs []string) Report {
	report := Report{
		MissingEnterpriseTotal: []string{},
		MissingTotal:           []string{},
		Complete:               []string{},
		CompletelyMissing:      []string{},
	}

	for _, paymentID := range dedupe(paymentIDs) {
		entID, ok := a.index.EnterpriseTotalByPayment(paymentID)
		if !ok {
			report.MissingEnterpriseTotal = append(report.MissingEnterpriseTotal, paymentID)
			report.CompletelyMissing = append(report.CompletelyMissing, paymentID)
			continue
		}
		if _, ok := a.index.TotalByEnterpriseTotal(entID); !ok {
			report.MissingTotal = append(report.MissingTotal, paymentID)
			continue
		}
		report.Complete = append(report.Complete, paymentID)
	}

	sort.Strings(report.MissingEnterpriseTotal)
	sort.Strings(report.MissingTotal)
	sort.Strings(report.Complete)
	sort.Strings(report.CompletelyMissing)
	return report
}

// Stats derives completeness ratios from the same partition. Percentages
// are 0 on empty denominators rather than failing.
type Stats struct {
	Total                     int     `json:"total"`
	WithEnterpriseTotal       int     `json:"with_enterprise_total"`
	PctWithEnterpriseTotal    float64 `json:"pct_with_enterprise_total"`
	EnterpriseTotalToTotalPct float64 `json:"enterprise_total_to_total_pct"`
}

// CompletenessStats reports how much of the payment set is rolled up.
func (a *Auditor) CompletenessStats(paymentIDs []string) Stats {
	report := a.IncompletePayments(paymentIDs)

	withEnt := len(report.MissingTotal) + len(report.Complete)
	stats := Stats{
		Total:               withEnt + len(report.MissingEnterpriseTotal),
		WithEnterpriseTotal: withEnt,
	}
	if stats.Total > 0 {
		stats.PctWithEnterpriseTotal = pct(withEnt, stats.Total)
	}
	if withEnt > 0 {
		stats.EnterpriseTotalToTotalPct = pct(len(report.Complete), withEnt)
	}
	return stats
}

// Summary is the whole-index completeness view: adjacency map sizes plus
// per-stage completion rates.
type Summary struct {
	TotalPayments             int     `json:"total_payments"`
	PaymentsWithEnterprise    int     `json:"payments_with_enterprise"`
	PaymentsWithoutEnterprise int     `json:"payments_without_enterprise"`
	TotalEnterpriseTotals     int     `json:"total_enterprise_totals"`
	EnterpriseTotalsWithTotal int     `json:"enterprise_totals_with_total"`
	EnterpriseTotalsSansTotal int     `json:"enterprise_totals_without_total"`
	TotalAmounts              int     `json:"total_amounts"`
	PaymentToEnterprisePct    float64 `json:"payment_to_enterprise_pct"`
	EnterpriseToTotalPct      float64 `json:"enterprise_to_total_pct"`
}

// CompletenessSummary reports aggregate completeness over the whole index.
// When completion rates fall below the configured alert thresholds the
// summary is logged at warn level.
func (a *Auditor) CompletenessSummary() Summary {
	counts := a.index.Stats()

	summary := Summary{
		TotalPayments:             counts.PaymentsWithOrders,
		PaymentsWithEnterprise:    counts.PaymentsWithEnterpriseTotal,
		PaymentsWithoutEnterprise: counts.PaymentsWithOrders - counts.PaymentsWithEnterpriseTotal,
		TotalEnterpriseTotals:     counts.EnterpriseTotalsWithPayments,
		EnterpriseTotalsWithTotal: counts.EnterpriseTotalsWithTotal,
		EnterpriseTotalsSansTotal: counts.EnterpriseTotalsWithPayments - counts.EnterpriseTotalsWithTotal,
		TotalAmounts:              counts.Totals,
	}
	if summary.PaymentsWithoutEnterprise < 0 {
		summary.PaymentsWithoutEnterprise = 0
	}
	if summary.EnterpriseTotalsSansTotal < 0 {
		summary.EnterpriseTotalsSansTotal = 0
	}
	if summary.TotalPayments > 0 {
		summary.PaymentToEnterprisePct = pct(summary.PaymentsWithEnterprise, summary.TotalPayments)
	}
	if summary.TotalEnterpriseTotals > 0 {
		summary.EnterpriseToTotalPct = pct(summary.EnterpriseTotalsWithTotal, summary.TotalEnterpriseTotals)
	}

	if a.thresholds != nil {
		limits := a.thresholds.Current()
		if summary.TotalPayments > 0 && summary.PaymentToEnterprisePct < limits.MinPaymentToEnterprisePct {
			a.log.Warn("payment rollup completion below threshold",
				zap.Float64("pct", summary.PaymentToEnterprisePct),
				zap.Float64("threshold", limits.MinPaymentToEnterprisePct),
			)
		}
		if summary.TotalEnterpriseTotals > 0 && summary.EnterpriseToTotalPct < limits.MinEnterpriseToTotalPct {
			a.log.Warn("enterprise rollup completion below threshold",
				zap.Float64("pct", summary.EnterpriseToTotalPct),
				zap.Float64("threshold", limits.MinEnterpriseToTotalPct),
			)
		}
	}
	return summary
}

func pct(part, whole int) float64 {
	return float64(part) / float64(whole) * 100
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
