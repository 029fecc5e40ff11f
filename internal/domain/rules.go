package domain

// RulePredicate is a compiled boolean check over a normalized feature set.
// Rule conditions are a closed set of Go functions registered at startup;
// no rule is ever evaluated from a config- or user-derived string.
type RulePredicate func(*NormalizedFeatureSet) bool

// RiskRule pairs one predicate with its additive risk weight.
type RiskRule struct {
	Name      string
	Weight    float64
	Predicate RulePredicate
}

// RuleSet is the ordered rule table backing a rule-based disease model.
type RuleSet struct {
	Disease DiseaseKey
	Version string
	Rules   []RiskRule
}

// Evaluate applies every rule in order. Risk is the capped sum of the
// satisfied weights; confidence is the fraction of rules satisfied
// (0 for an empty set).
func (rs *RuleSet) Evaluate(features *NormalizedFeatureSet) (risk, confidence float64, satisfied []string) {
	if len(rs.Rules) == 0 {
		return 0, 0, nil
	}
	for _, rule := range rs.Rules {
		if rule.Predicate(features) {
			risk += rule.Weight
			satisfied = append(satisfied, rule.Name)
		}
	}
	if risk > 1.0 {
		risk = 1.0
	}
	confidence = float64(len(satisfied)) / float64(len(rs.Rules))
	return risk, confidence, satisfied
}
