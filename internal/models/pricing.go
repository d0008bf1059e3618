// Package models contains the pricing analysis domain types.
package models

import "strings"

// IssueType is a category of deceptive pricing practice.
type IssueType string

const (
	IssueHiddenFee       IssueType = "hidden_fee"       // Undisclosed setup, overage or add-on fees
	IssueFakeFree        IssueType = "fake_free"        // "Free" tier too limited to be usable
	IssueMisleadingPrice IssueType = "misleading_price" // Annual-as-monthly, per-user vs per-seat confusion
	IssueUsageCap        IssueType = "usage_cap"        // Hidden limits most users will exceed
	IssueFeatureGate     IssueType = "feature_gate"     // Essential features locked behind expensive tiers
	IssueTimeLimit       IssueType = "time_limit"       // Trial disguised as a free plan
	IssueRequiredAddon   IssueType = "required_addon"   // Core functionality requires paid add-ons
	IssueBaitSwitch      IssueType = "bait_switch"      // "Starting at" price that doesn't apply to real use
)

// DefaultIssueType is used for any type string the model invents.
const DefaultIssueType = IssueHiddenFee

// IssueTypes lists every issue type in prompt order.
var IssueTypes = []IssueType{
	IssueHiddenFee,
	IssueFakeFree,
	IssueMisleadingPrice,
	IssueUsageCap,
	IssueFeatureGate,
	IssueTimeLimit,
	IssueRequiredAddon,
	IssueBaitSwitch,
}

// issueTypeAliases maps common model spellings onto the canonical values.
var issueTypeAliases = map[string]IssueType{
	"hidden_fees":          IssueHiddenFee,
	"fake_free_tier":       IssueFakeFree,
	"fake_free_plan":       IssueFakeFree,
	"misleading_pricing":   IssueMisleadingPrice,
	"usage_caps":           IssueUsageCap,
	"usage_limit":          IssueUsageCap,
	"feature_gating":       IssueFeatureGate,
	"disguised_time_limit": IssueTimeLimit,
	"required_add_on":      IssueRequiredAddon,
	"required_addons":      IssueRequiredAddon,
	"bait_and_switch":      IssueBaitSwitch,
}

// ParseIssueType maps any string onto an IssueType. It never fails:
// unrecognised input yields DefaultIssueType.
func ParseIssueType(s string) IssueType {
	key := normalizeEnum(s)
	for _, t := range IssueTypes {
		if key == string(t) {
			return t
		}
	}
	if t, ok := issueTypeAliases[key]; ok {
		return t
	}
	return DefaultIssueType
}

// Valid reports whether t is one of the closed set of issue types.
func (t IssueType) Valid() bool {
	for _, known := range IssueTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Severity ranks how harmful an issue is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// DefaultSeverity applies when the model omits or garbles severity.
const DefaultSeverity = SeverityMedium

// Severities lists every severity from least to most severe.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// ParseSeverity maps any string onto a Severity, defaulting to medium.
func ParseSeverity(s string) Severity {
	key := normalizeEnum(s)
	for _, sev := range Severities {
		if key == string(sev) {
			return sev
		}
	}
	return DefaultSeverity
}

// Valid reports whether s is one of the closed set of severities.
func (s Severity) Valid() bool {
	for _, known := range Severities {
		if s == known {
			return true
		}
	}
	return false
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_", "&", "and").Replace(s)
}

// PricingIssue is a single deceptive practice found on the page.
type PricingIssue struct {
	Type           IssueType `json:"type" enum:"hidden_fee,fake_free,misleading_price,usage_cap,feature_gate,time_limit,required_addon,bait_switch" doc:"Issue category"`
	Severity       Severity  `json:"severity" enum:"low,medium,high,critical" doc:"How harmful the issue is"`
	Title          string    `json:"title" doc:"Short title"`
	Description    string    `json:"description" doc:"Detailed explanation"`
	Evidence       string    `json:"evidence" doc:"Quote from the pricing page proving this issue"`
	Recommendation string    `json:"recommendation" doc:"What users should know"`
}

// TierAnalysis describes one pricing plan found on the page.
type TierAnalysis struct {
	Name               string   `json:"name" doc:"Tier name"`
	StatedPrice        string   `json:"stated_price" doc:"Price as advertised"`
	TrueCostEstimate   *string  `json:"true_cost_estimate" doc:"Realistic cost for typical usage, null when unknown"`
	Limitations        []string `json:"limitations" doc:"Limitations of the tier"`
	HiddenRequirements []string `json:"hidden_requirements" doc:"Requirements not obvious from the headline price"`
}

// AnalysisResult is the full analysis returned to the client.
type AnalysisResult struct {
	ToolName        string         `json:"tool_name" doc:"Name of the analysed tool"`
	OverallScore    int            `json:"overall_score" minimum:"0" maximum:"100" doc:"Honesty score 0-100, 100 is completely honest"`
	Verdict         string         `json:"verdict" doc:"One-line verdict"`
	Issues          []PricingIssue `json:"issues" doc:"Detected issues in model output order"`
	Tiers           []TierAnalysis `json:"tiers" doc:"Per-tier analysis"`
	Summary         string         `json:"summary" doc:"Short summary of findings"`
	Recommendations []string       `json:"recommendations" doc:"Recommendations for buyers"`
}

// TrialStatus reports free-trial usage for a device.
type TrialStatus struct {
	Used      int `json:"used" doc:"Free analyses already used"`
	Remaining int `json:"remaining" doc:"Free analyses left"`
	Limit     int `json:"limit" doc:"Free analyses per device"`
}

// NewTrialStatus derives remaining from used and limit, never below zero.
func NewTrialStatus(used, limit int) TrialStatus {
	return TrialStatus{
		Used:      used,
		Remaining: max(0, limit-used),
		Limit:     limit,
	}
}
