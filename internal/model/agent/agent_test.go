package agent

import (
	"strings"
	"testing"
)

func TestSeedPanelOrder(t *testing.T) {
	defs := Seed()
	if len(defs) != 6 {
		t.Fatalf("expected 6 seeded definitions, got %d", len(defs))
	}

	wantOrder := []Role{
		RoleMarketingExpert,
		RoleFinancialAdvisor,
		RoleMarketAnalyst,
		RoleTechnicalArchitect,
		RoleRiskAnalyst,
		RoleCEACoordinator,
	}
	for i, role := range wantOrder {
		if defs[i].Role != role {
			t.Errorf("seed[%d].Role = %s, want %s", i, defs[i].Role, role)
		}
	}

	for _, def := range defs {
		if def.Name == "" || def.Persona == "" || def.OutputFormat == "" {
			t.Errorf("definition %s has empty fields", def.Role)
		}
		if len(def.FocusAreas) == 0 {
			t.Errorf("definition %s has no focus areas", def.Role)
		}
	}
}

func TestMemoryStoreAnalystsExcludesCoordinator(t *testing.T) {
	store := NewMemoryStore(Seed())

	analysts := store.Analysts()
	if len(analysts) != 5 {
		t.Fatalf("expected 5 analysts, got %d", len(analysts))
	}
	for _, def := range analysts {
		if def.Role == RoleCEACoordinator {
			t.Fatal("coordinator leaked into analyst list")
		}
	}

	if _, ok := store.FindByRole(RoleCEACoordinator); !ok {
		t.Fatal("coordinator missing from store")
	}
	if _, ok := store.FindByRole(Role("pastry_chef")); ok {
		t.Fatal("unknown role resolved to a definition")
	}
}

func TestBuildAnalysisPromptBasics(t *testing.T) {
	store := NewMemoryStore(Seed())
	def, _ := store.FindByRole(RoleMarketingExpert)

	prompt := BuildAnalysisPrompt(def, "A subscription box for rare teas", nil, -1)

	for _, want := range []string{
		"# Role: Marketing Strategist",
		"## Business Idea:",
		"A subscription box for rare teas",
		"## Your Analysis Should Cover:",
		"- Target audience identification and segmentation",
		"## Output Format:",
		AnalysisCompleteMarker,
		"Begin your analysis:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if strings.Contains(prompt, "## Insights from Other Specialists:") {
		t.Error("prompt references other specialists with no prior insights")
	}
	if strings.Contains(prompt, "## Time Remaining:") {
		t.Error("prompt contains a wrap-up notice outside wrap-up")
	}
}

func TestBuildAnalysisPromptSharesPriorInsights(t *testing.T) {
	store := NewMemoryStore(Seed())
	def, _ := store.FindByRole(RoleFinancialAdvisor)

	prior := []PriorInsight{
		{Role: RoleMarketingExpert, Name: "Marketing Strategist", Text: "Target urban tea lovers."},
		{Role: RoleFinancialAdvisor, Name: "Financial Advisor", Text: "should never appear"},
	}

	prompt := BuildAnalysisPrompt(def, "rare teas", prior, -1)

	if !strings.Contains(prompt, "## Insights from Other Specialists:") {
		t.Fatal("prompt missing shared insights section")
	}
	if !strings.Contains(prompt, "### Marketing Strategist:") {
		t.Error("prompt missing prior specialist heading")
	}
	if !strings.Contains(prompt, "Target urban tea lovers.") {
		t.Error("prompt missing prior insight text")
	}
	if strings.Contains(prompt, "should never appear") {
		t.Error("prompt includes the agent's own prior insight")
	}
}

func TestBuildAnalysisPromptTruncatesLongInsights(t *testing.T) {
	store := NewMemoryStore(Seed())
	def, _ := store.FindByRole(RoleMarketAnalyst)

	long := strings.Repeat("x", 900)
	prior := []PriorInsight{{Role: RoleMarketingExpert, Name: "Marketing Strategist", Text: long}}

	prompt := BuildAnalysisPrompt(def, "rare teas", prior, -1)

	if strings.Contains(prompt, long) {
		t.Fatal("long insight was not truncated")
	}
	if !strings.Contains(prompt, strings.Repeat("x", 800)+"...") {
		t.Error("truncated insight preview missing ellipsis")
	}
}

func TestBuildAnalysisPromptWrapUpNotice(t *testing.T) {
	store := NewMemoryStore(Seed())
	def, _ := store.FindByRole(RoleRiskAnalyst)

	prompt := BuildAnalysisPrompt(def, "rare teas", nil, 3)

	if !strings.Contains(prompt, "## Time Remaining:") {
		t.Fatal("prompt missing wrap-up section")
	}
	if !strings.Contains(prompt, "approximately 3 minutes remaining") {
		t.Error("prompt missing remaining minutes")
	}
}

func TestBuildSynthesisPromptStructure(t *testing.T) {
	store := NewMemoryStore(Seed())
	coordinator, _ := store.FindByRole(RoleCEACoordinator)

	insights := []PriorInsight{
		{Role: RoleMarketingExpert, Name: "Marketing Strategist", Text: "Lean on social channels."},
		{Role: RoleFinancialAdvisor, Name: "Financial Advisor", Text: strings.Repeat("y", 1300)},
	}

	prompt := BuildSynthesisPrompt(coordinator, "rare teas", insights, 42)

	for _, want := range []string{
		"# Role: Chief Executive Agent (CEA)",
		"## Original Business Idea:",
		"### Marketing Strategist Analysis:",
		"Lean on social channels.",
		"1. **Executive Summary**",
		"8. **Conclusion & Next Steps**",
		SynthesisCompleteMarker,
		"Incubator session duration: 42 minutes",
		"Begin synthesis:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("synthesis prompt missing %q", want)
		}
	}

	if strings.Contains(prompt, strings.Repeat("y", 1300)) {
		t.Error("oversized insight was not truncated for synthesis")
	}
	if !strings.Contains(prompt, "[... content truncated for synthesis ...]") {
		t.Error("synthesis prompt missing truncation notice")
	}
}
