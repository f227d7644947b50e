package enrichment

import (
	"context"
	"sort"
	"strings"

	"cropdoc/internal/logging"
	"cropdoc/internal/types"
)

// FindAffectedCrops returns the table crops associated with entityName that
// also appear in the crop names of plans. Matching is case-insensitive
// substring containment in both directions. The result is sorted and never
// nil; plans is not modified.
func FindAffectedCrops(entityName string, plans []types.Owner, table Table) []string {
	affected := []string{}
	if len(plans) == 0 {
		return affected
	}
	candidates := table.CropsFor(entityName)
	if len(candidates) == 0 {
		return affected
	}

	planCrops := make([]string, 0, len(plans))
	for _, p := range plans {
		if name := normalize(p.CropName()); name != "" {
			planCrops = append(planCrops, name)
		}
	}

	for _, crop := range candidates {
		for _, name := range planCrops {
			if matches(crop, name) {
				affected = append(affected, crop)
				break
			}
		}
	}
	sort.Strings(affected)
	return affected
}

// PlanLister is the read side of the plan store that enrichment needs.
type PlanLister interface {
	ListAll(ctx context.Context, kind types.OwnerKind) ([]types.Owner, error)
}

// Enricher runs FindAffectedCrops against the live plan store.
type Enricher struct {
	plans PlanLister
	table Table
}

// NewEnricher creates an enricher over plans using table.
func NewEnricher(plans PlanLister, table Table) *Enricher {
	return &Enricher{plans: plans, table: table}
}

// AffectedCrops never fails: a store read error yields an empty result.
func (e *Enricher) AffectedCrops(ctx context.Context, entityName string) []string {
	if e == nil || e.plans == nil {
		return []string{}
	}
	plans, err := e.plans.ListAll(ctx, types.OwnerPlan)
	if err != nil {
		logging.EnrichmentWarn("plan lookup failed, skipping enrichment: %v", err)
		return []string{}
	}
	crops := FindAffectedCrops(entityName, plans, e.table)
	logging.EnrichmentDebug("entity=%q plans=%d affected=%v", entityName, len(plans), crops)
	return crops
}

// AffectedPlans returns the plans whose crop matches one of crops.
func AffectedPlans(plans []types.Owner, crops []string) []types.Owner {
	var out []types.Owner
	for _, p := range plans {
		name := normalize(p.CropName())
		for _, c := range crops {
			if matches(normalize(c), name) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

var nonActionableNames = map[string]bool{
	"no weed detected":    true,
	"no pest detected":    true,
	"no disease detected": true,
	"no issue detected":   true,
	"analysis error":      true,
	"error":               true,
	"none":                true,
	"healthy":             true,
}

// IsActionable reports whether a result names something the user can act on.
func IsActionable(result types.DiagnosticResult) bool {
	name := normalize(result.EntityName)
	if name == "" || nonActionableNames[name] {
		return false
	}
	return !strings.HasPrefix(name, "no ")
}
