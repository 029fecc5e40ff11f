package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func alwaysTrue(*NormalizedFeatureSet) bool  { return true }
func alwaysFalse(*NormalizedFeatureSet) bool { return false }

func TestRuleSet_Evaluate(t *testing.T) {
	rs := &RuleSet{
		Disease: DiseaseCardiovascular,
		Rules: []RiskRule{
			{Name: "a", Weight: 0.3, Predicate: alwaysTrue},
			{Name: "b", Weight: 0.2, Predicate: alwaysFalse},
			{Name: "c", Weight: 0.1, Predicate: alwaysTrue},
			{Name: "d", Weight: 0.4, Predicate: alwaysFalse},
		},
	}

	risk, confidence, satisfied := rs.Evaluate(&NormalizedFeatureSet{})
	assert.InDelta(t, 0.4, risk, 0.001)
	assert.InDelta(t, 0.5, confidence, 0.001)
	assert.Equal(t, []string{"a", "c"}, satisfied)
}

func TestRuleSet_Evaluate_CapsRiskAtOne(t *testing.T) {
	rs := &RuleSet{
		Rules: []RiskRule{
			{Name: "a", Weight: 0.7, Predicate: alwaysTrue},
			{Name: "b", Weight: 0.7, Predicate: alwaysTrue},
		},
	}

	risk, confidence, _ := rs.Evaluate(&NormalizedFeatureSet{})
	assert.Equal(t, 1.0, risk)
	assert.Equal(t, 1.0, confidence)
}

func TestRuleSet_Evaluate_EmptySet(t *testing.T) {
	rs := &RuleSet{}

	risk, confidence, satisfied := rs.Evaluate(&NormalizedFeatureSet{})
	assert.Zero(t, risk)
	assert.Zero(t, confidence)
	assert.Nil(t, satisfied)
}

func TestRuleSet_Evaluate_NoneSatisfied(t *testing.T) {
	rs := &RuleSet{
		Rules: []RiskRule{
			{Name: "a", Weight: 0.5, Predicate: alwaysFalse},
		},
	}

	risk, confidence, satisfied := rs.Evaluate(&NormalizedFeatureSet{})
	assert.Zero(t, risk)
	assert.Zero(t, confidence)
	assert.Empty(t, satisfied)
}
