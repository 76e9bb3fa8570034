package agent

import (
	"fmt"
	"strings"

	"github.com/inceptionlabs/inception/backend/pkg/utils"
)

// Markers the models are asked to append so finished output can be told
// apart from output cut off by token limits.
const (
	AnalysisCompleteMarker  = "[AGENT_COMPLETE]"
	SynthesisCompleteMarker = "[SYNTHESIS_COMPLETE]"
)

const (
	// Insight previews shared between specialists are capped to keep the
	// prompt inside the local model's context window.
	insightPreviewRunes  = 800
	synthesisInsightCap  = 1200
	synthesisTruncNotice = "\n[... content truncated for synthesis ...]"
)

// PriorInsight is one completed specialist analysis shared with later seats.
type PriorInsight struct {
	Role Role
	Name string
	Text string
}

// BuildAnalysisPrompt renders the user brief for one specialist: the
// business idea, previews of earlier completed analyses, and a wrap-up
// notice when minutesRemaining is non-negative. The persona paragraph is
// delivered separately as the system message.
func BuildAnalysisPrompt(def Definition, businessIdea string, prior []PriorInsight, minutesRemaining int) string {
	parts := []string{
		fmt.Sprintf("# Role: %s", def.Name),
		fmt.Sprintf("# Expertise: %s", def.Expertise),
		"",
		"## Your Task:",
		"Analyze the following business idea from your specialized perspective and provide comprehensive insights.",
		"",
		"## Business Idea:",
		businessIdea,
		"",
	}

	shared := make([]PriorInsight, 0, len(prior))
	for _, p := range prior {
		if p.Role == def.Role {
			continue
		}
		shared = append(shared, p)
	}

	if len(shared) > 0 {
		parts = append(parts,
			"## Insights from Other Specialists:",
			"The following insights have been provided by other domain experts. Use these to inform your analysis and identify synergies or gaps:",
			"",
		)
		for _, p := range shared {
			parts = append(parts,
				fmt.Sprintf("### %s:", p.Name),
				utils.TruncateRunes(p.Text, insightPreviewRunes, "..."),
				"",
			)
		}
	}

	if minutesRemaining >= 0 {
		parts = append(parts,
			"## Time Remaining:",
			fmt.Sprintf("You have approximately %d minutes remaining. Please provide your final, comprehensive analysis now. Focus on key insights and actionable recommendations.", minutesRemaining),
			"",
		)
	}

	parts = append(parts, "## Your Analysis Should Cover:")
	for _, area := range def.FocusAreas {
		parts = append(parts, "- "+area)
	}

	parts = append(parts,
		"",
		"## Output Format:",
		def.OutputFormat,
		"",
		"## Instructions:",
		"1. Be thorough but concise. Focus on actionable insights.",
		"2. Use data-driven reasoning where possible.",
		"3. If collaborating with other agents, reference their insights and build upon them.",
		"4. Provide specific, implementable recommendations.",
		fmt.Sprintf("5. When finished, append %s at the end.", AnalysisCompleteMarker),
		"",
		"Begin your analysis:",
	)

	return strings.Join(parts, "\n")
}

// BuildSynthesisPrompt renders the coordinator brief that folds every
// collected analysis into a single executive-ready business plan.
func BuildSynthesisPrompt(coordinator Definition, businessIdea string, insights []PriorInsight, elapsedMinutes int) string {
	parts := []string{
		fmt.Sprintf("# Role: %s", coordinator.Name),
		fmt.Sprintf("# Expertise: %s", coordinator.Expertise),
		"",
		"## Your Task:",
		"Synthesize insights from all specialized agents into a comprehensive, executive-ready business plan.",
		"",
		"## Original Business Idea:",
		businessIdea,
		"",
		"## Insights from Specialized Agents:",
		"",
	}

	for _, p := range insights {
		parts = append(parts,
			fmt.Sprintf("### %s Analysis:", p.Name),
			utils.TruncateRunes(p.Text, synthesisInsightCap, synthesisTruncNotice),
			"",
		)
	}

	parts = append(parts,
		"## Business Plan Structure:",
		"Create a comprehensive business plan with the following sections:",
		"",
		"1. **Executive Summary** (2-3 paragraphs)",
		"   - Business concept overview",
		"   - Key value proposition",
		"   - Primary objectives and success metrics",
		"",
		"2. **Market Opportunity**",
		"   - Market size and opportunity",
		"   - Target audience and customer personas",
		"   - Competitive landscape and differentiation",
		"",
		"3. **Business Model & Strategy**",
		"   - Revenue model and pricing strategy",
		"   - Go-to-market strategy",
		"   - Marketing and customer acquisition plan",
		"",
		"4. **Financial Projections**",
		"   - Startup costs and capital requirements",
		"   - Revenue projections (Year 1-3)",
		"   - Unit economics and profitability analysis",
		"   - Funding requirements (if applicable)",
		"",
		"5. **Product & Technology**",
		"   - Product/service description",
		"   - Technology stack and development roadmap",
		"   - Scalability considerations",
		"",
		"6. **Risk Analysis & Mitigation**",
		"   - Key risks and challenges",
		"   - Risk mitigation strategies",
		"   - Contingency plans",
		"",
		"7. **Implementation Roadmap**",
		"   - Phase 1: Launch (Months 1-3)",
		"   - Phase 2: Growth (Months 4-6)",
		"   - Phase 3: Scale (Months 7-12)",
		"   - Key milestones and success metrics",
		"",
		"8. **Conclusion & Next Steps**",
		"   - Summary of key recommendations",
		"   - Immediate action items",
		"   - Success criteria and KPIs",
		"",
		"## Instructions:",
		"1. Synthesize all agent insights into a cohesive, professional business plan.",
		"2. Ensure all sections are comprehensive and actionable.",
		"3. Maintain consistency across sections (e.g., financial projections align with market analysis).",
		"4. Prioritize recommendations based on impact and feasibility.",
		"5. Use clear, executive-level language suitable for stakeholders.",
		fmt.Sprintf("6. When complete, append %s at the end.", SynthesisCompleteMarker),
		"",
		"## Session Context:",
		fmt.Sprintf("Incubator session duration: %d minutes", elapsedMinutes),
		"",
		"Begin synthesis:",
	)

	return strings.Join(parts, "\n")
}
