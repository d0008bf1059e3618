package service

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/pricing-detective/internal/constants"
	"github.com/jmylchreest/pricing-detective/internal/models"
)

// issueTypeDescriptions are listed in the prompt in models.IssueTypes order.
var issueTypeDescriptions = map[models.IssueType]string{
	models.IssueHiddenFee:       "Undisclosed fees (setup fees, overage charges, required add-ons)",
	models.IssueFakeFree:        `"Free" tiers with severe limitations that make them unusable`,
	models.IssueMisleadingPrice: "Prices shown in a misleading way (annual price shown as monthly, per-user vs per-seat confusion)",
	models.IssueUsageCap:        "Hidden usage limits that most users will exceed",
	models.IssueFeatureGate:     "Essential features locked behind expensive tiers",
	models.IssueTimeLimit:       `Trials disguised as "free" plans`,
	models.IssueRequiredAddon:   "Core functionality requires paid add-ons",
	models.IssueBaitSwitch:      `"Starting at" prices that don't apply to realistic use cases`,
}

const analysisResponseShape = `{
  "tool_name": "Name of the tool (extract from content or use 'Unknown')",
  "overall_score": <0-100, where 100 is completely honest>,
  "verdict": "One sentence verdict",
  "issues": [
    {
      "type": "<issue_type>",
      "severity": "low|medium|high|critical",
      "title": "Short title",
      "description": "Detailed explanation",
      "evidence": "Exact quote from pricing page",
      "recommendation": "What users should know"
    }
  ],
  "tiers": [
    {
      "name": "Tier name",
      "stated_price": "$X/month",
      "true_cost_estimate": "Realistic cost for typical usage",
      "limitations": ["Limitation 1", "Limitation 2"],
      "hidden_requirements": ["Requirement 1"]
    }
  ],
  "summary": "2-3 sentence summary of findings",
  "recommendations": ["Recommendation 1", "Recommendation 2"]
}`

// BuildAnalysisPrompt creates the prompt for the LLM to analyze pricing content.
// Content beyond constants.MaxPromptContentLength characters is dropped.
func BuildAnalysisPrompt(content, language string) string {
	var sb strings.Builder

	sb.WriteString("You are a pricing transparency analyst. Your job is to analyze SaaS pricing pages and detect hidden fees, fake free tiers, and misleading pricing tactics.\n\n")
	sb.WriteString("Analyze the following pricing page content and identify ALL issues:\n\n")

	sb.WriteString("## Issue Types to Detect:\n\n")
	for i, t := range models.IssueTypes {
		fmt.Fprintf(&sb, "%d. **%s** - %s\n", i+1, t, issueTypeDescriptions[t])
	}

	sb.WriteString("\n## Pricing Page Content:\n")
	sb.WriteString(truncateRunes(content, constants.MaxPromptContentLength))

	sb.WriteString("\n\n## Respond in JSON format:\n")
	sb.WriteString(analysisResponseShape)
	sb.WriteString("\n\nBe thorough but fair. Only flag real issues with evidence.")

	if language != "" && language != constants.DefaultLanguage {
		fmt.Fprintf(&sb, "\n\nIMPORTANT: Respond in %s language.", language)
	}

	return sb.String()
}

// truncateRunes cuts s to at most n characters without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
