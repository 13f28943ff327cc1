package analyzer

import (
	"testing"

	"go.uber.org/zap"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

func TestAnalyzeDependenciesCycle(t *testing.T) {
	sources := map[string]string{
		"a.py": "import b\n",
		"b.py": "import c\n",
		"c.py": "import a\n",
	}

	da := New(zap.NewNop()).AnalyzeDependencies(compile.LangPython, sources)

	if len(da.Cycles) != 1 {
		t.Fatalf("AnalyzeDependencies() found %d cycles, want exactly 1: %v", len(da.Cycles), da.Cycles)
	}

	cycle := da.Cycles[0]
	if len(cycle) != 3 {
		t.Fatalf("cycle = %v, want 3 members", cycle)
	}
	members := make(map[string]bool, len(cycle))
	for _, f := range cycle {
		members[f] = true
	}
	for _, want := range []string{"a.py", "b.py", "c.py"} {
		if !members[want] {
			t.Errorf("cycle %v missing %s", cycle, want)
		}
	}

	if da.Health == HealthExcellent {
		t.Error("Health = EXCELLENT for a cyclic graph")
	}
	if da.BuildOrder != nil {
		t.Errorf("BuildOrder = %v for a cyclic graph, want nil", da.BuildOrder)
	}
}

func TestAnalyzeDependenciesAcyclic(t *testing.T) {
	sources := map[string]string{
		"main.c": "#include <stdio.h>\n#include \"util.h\"\nint main() {}\n",
		"util.c": "#include \"util.h\"\nvoid util() {}\n",
		"util.h": "void util(void);\n",
	}

	da := New(zap.NewNop()).AnalyzeDependencies(compile.LangC, sources)

	if len(da.Cycles) != 0 {
		t.Fatalf("AnalyzeDependencies() found cycles in acyclic graph: %v", da.Cycles)
	}
	if len(da.Graph.Edges) != 3 {
		t.Errorf("edges = %v, want 3", da.Graph.Edges)
	}
	// Targets are util.h and the external stdio.h
	if da.ModulesCount != 2 {
		t.Errorf("ModulesCount = %d, want 2", da.ModulesCount)
	}
	if len(da.Graph.Nodes) != 4 {
		t.Errorf("nodes = %v, want 4 including the external include", da.Graph.Nodes)
	}

	// util.h is imported by 2 of 4 nodes, above the one-third threshold
	if len(da.CriticalFiles) != 1 || da.CriticalFiles[0] != "util.h" {
		t.Errorf("CriticalFiles = %v, want [util.h]", da.CriticalFiles)
	}

	if da.Complexity != ComplexitySimple {
		t.Errorf("Complexity = %v, want %v", da.Complexity, ComplexitySimple)
	}
	if da.Health != HealthExcellent {
		t.Errorf("Health = %v, want %v", da.Health, HealthExcellent)
	}

	pos := make(map[string]int, len(da.BuildOrder))
	for i, f := range da.BuildOrder {
		pos[f] = i
	}
	if len(pos) != 3 {
		t.Fatalf("BuildOrder = %v, want the 3 source files", da.BuildOrder)
	}
	if pos["util.h"] > pos["main.c"] || pos["util.h"] > pos["util.c"] {
		t.Errorf("BuildOrder = %v, want util.h before its importers", da.BuildOrder)
	}
}

func TestAnalyzeDependenciesEmpty(t *testing.T) {
	da := New(zap.NewNop()).AnalyzeDependencies(compile.LangC, nil)

	if len(da.Graph.Nodes) != 0 || len(da.Graph.Edges) != 0 {
		t.Errorf("graph = %+v, want empty", da.Graph)
	}
	if da.Complexity != ComplexitySimple || da.Health != HealthExcellent {
		t.Errorf("tiers = %v/%v, want SIMPLE/EXCELLENT", da.Complexity, da.Health)
	}
	if da.ModulesCount != 0 {
		t.Errorf("ModulesCount = %d, want 0", da.ModulesCount)
	}
}

func TestFindCyclesDiamondIsAcyclic(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	adj := map[string][]string{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d"},
	}

	if cycles := findCycles(nodes, adj); len(cycles) != 0 {
		t.Errorf("findCycles(diamond) = %v, want none", cycles)
	}
}

func TestFindCyclesIndependent(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	adj := map[string][]string{
		"a": {"b"},
		"b": {"a"},
		"c": {"d"},
		"d": {"c"},
	}

	cycles := findCycles(nodes, adj)
	if len(cycles) != 2 {
		t.Errorf("findCycles(two independent cycles) = %v, want 2", cycles)
	}
}

func TestFindCyclesSelfContainedInLargerGraph(t *testing.T) {
	// Only b<->c cycle; a and d hang off it
	nodes := []string{"a", "b", "c", "d"}
	adj := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"b", "d"},
	}

	cycles := findCycles(nodes, adj)
	if len(cycles) != 1 {
		t.Fatalf("findCycles() = %v, want 1 cycle", cycles)
	}
	if len(cycles[0]) != 2 {
		t.Errorf("cycle = %v, want the b/c pair", cycles[0])
	}
}

func TestResolveImport(t *testing.T) {
	index := map[string]string{
		"util.h": "util.h",
		"util":   "util.h",
		"b.py":   "b.py",
		"b":      "b.py",
	}

	tests := []struct {
		name string
		imp  string
		want string
	}{
		{"exact", "util.h", "util.h"},
		{"relative path", "./util", "util.h"},
		{"stem via extension", "util.h", "util.h"},
		{"dotted module tail", "pkg.b", "b.py"},
		{"unresolved stays external", "stdio.h", "stdio.h"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveImport(tt.imp, index); got != tt.want {
				t.Errorf("resolveImport(%q) = %q, want %q", tt.imp, got, tt.want)
			}
		})
	}
}

func TestComplexityFor(t *testing.T) {
	tests := []struct {
		nodes int
		edges int
		want  ComplexityTier
	}{
		{0, 0, ComplexitySimple},
		{4, 3, ComplexitySimple},
		{4, 6, ComplexityModerate},
		{4, 10, ComplexityComplex},
		{4, 12, ComplexityVeryComplex},
	}

	for _, tt := range tests {
		if got := complexityFor(tt.nodes, tt.edges); got != tt.want {
			t.Errorf("complexityFor(%d, %d) = %v, want %v", tt.nodes, tt.edges, got, tt.want)
		}
	}
}

func TestHealthFor(t *testing.T) {
	tests := []struct {
		nodes  int
		cycles int
		want   HealthTier
	}{
		{10, 0, HealthExcellent},
		{10, 1, HealthGood},
		{10, 2, HealthFair},
		{10, 4, HealthPoor},
		{10, 6, HealthVeryPoor},
	}

	for _, tt := range tests {
		if got := healthFor(tt.nodes, tt.cycles); got != tt.want {
			t.Errorf("healthFor(%d, %d) = %v, want %v", tt.nodes, tt.cycles, got, tt.want)
		}
	}
}
