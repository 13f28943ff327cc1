package analyzer

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gammazero/toposort"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// importPatterns extracts one import target per match, per language.
// Data-driven like the diagnostic rules: adding a language is a table entry.
var importPatterns = map[compile.Language][]*regexp.Regexp{
	compile.LangC: {
		regexp.MustCompile(`^\s*#\s*include\s*["<]([^">]+)[">]`),
	},
	compile.LangCPP: {
		regexp.MustCompile(`^\s*#\s*include\s*["<]([^">]+)[">]`),
		regexp.MustCompile(`^\s*import\s+([\w.:]+)\s*;`),
	},
	compile.LangJava: {
		regexp.MustCompile(`^\s*import\s+(?:static\s+)?([\w.]+?)(?:\.\*)?\s*;`),
	},
	compile.LangKotlin: {
		regexp.MustCompile(`^\s*import\s+([\w.]+?)(?:\.\*)?\s*$`),
	},
	compile.LangPython: {
		regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\b`),
		regexp.MustCompile(`^\s*import\s+([\w.]+)`),
	},
	compile.LangJavaScript: {
		regexp.MustCompile(`^\s*import\s+.*?\bfrom\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`),
	},
	compile.LangGo: {
		regexp.MustCompile(`^\s*import\s+(?:[\w.]+\s+)?"([^"]+)"`),
		regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([\w./-]+)"\s*$`),
	},
	compile.LangRust: {
		regexp.MustCompile(`^\s*use\s+([\w:]+)`),
		regexp.MustCompile(`^\s*mod\s+(\w+)\s*;`),
		regexp.MustCompile(`^\s*extern\s+crate\s+(\w+)`),
	},
}

// ComplexityTier buckets dependency graphs by edge density.
type ComplexityTier int

const (
	ComplexitySimple ComplexityTier = iota
	ComplexityModerate
	ComplexityComplex
	ComplexityVeryComplex
)

// String returns the uppercase tier name.
func (c ComplexityTier) String() string {
	switch c {
	case ComplexitySimple:
		return "SIMPLE"
	case ComplexityModerate:
		return "MODERATE"
	case ComplexityComplex:
		return "COMPLEX"
	case ComplexityVeryComplex:
		return "VERY_COMPLEX"
	}
	return "UNKNOWN"
}

// HealthTier buckets dependency graphs by cycle count relative to size.
type HealthTier int

const (
	HealthExcellent HealthTier = iota
	HealthGood
	HealthFair
	HealthPoor
	HealthVeryPoor
)

// String returns the uppercase tier name.
func (h HealthTier) String() string {
	switch h {
	case HealthExcellent:
		return "EXCELLENT"
	case HealthGood:
		return "GOOD"
	case HealthFair:
		return "FAIR"
	case HealthPoor:
		return "POOR"
	case HealthVeryPoor:
		return "VERY_POOR"
	}
	return "UNKNOWN"
}

// DependencyAnalysis is the extracted import graph plus derived structure
// metrics.
type DependencyAnalysis struct {
	Graph         compile.DependencyGraph
	Cycles        [][]string // each an ordered file list
	CriticalFiles []string   // depended on by more than a third of all nodes
	Complexity    ComplexityTier
	Health        HealthTier
	BuildOrder    []string // dependency-first order of source files, nil when cyclic
	ModulesCount  int      // distinct nodes that are the target of an edge
}

// AnalyzeDependencies extracts the import graph from the given sources.
// Import targets resolve to in-set files where possible so local cycles are
// detectable; unresolved targets stay as named external nodes.
func (a *Analyzer) AnalyzeDependencies(lang compile.Language, sources map[string]string) DependencyAnalysis {
	files := make([]string, 0, len(sources))
	for f := range sources {
		files = append(files, f)
	}
	sort.Strings(files)

	// Index each file under its path, base name and stem so an import like
	// "util.h", "./util" or "pkg.util" can resolve to it
	index := make(map[string]string, len(files)*3)
	addKey := func(key, file string) {
		if key == "" {
			return
		}
		if _, taken := index[key]; !taken {
			index[key] = file
		}
	}
	for _, f := range files {
		base := filepath.Base(f)
		addKey(f, f)
		addKey(base, f)
		addKey(strings.TrimSuffix(base, filepath.Ext(base)), f)
	}

	patterns := importPatterns[lang]
	edgeSeen := make(map[compile.DependencyEdge]bool)
	var edges []compile.DependencyEdge

	for _, f := range files {
		for _, line := range strings.Split(sources[f], "\n") {
			for _, re := range patterns {
				m := re.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				target := resolveImport(m[1], index)
				if target == "" || target == f {
					continue
				}
				e := compile.DependencyEdge{From: f, To: target}
				if !edgeSeen[e] {
					edgeSeen[e] = true
					edges = append(edges, e)
				}
			}
		}
	}

	nodeSet := make(map[string]bool, len(files))
	for _, f := range files {
		nodeSet[f] = true
	}
	targetSet := make(map[string]bool)
	for _, e := range edges {
		nodeSet[e.To] = true
		targetSet[e.To] = true
	}
	nodes := make([]string, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	adj := make(map[string][]string, len(nodes))
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	for n := range adj {
		sort.Strings(adj[n])
	}

	da := DependencyAnalysis{
		Graph:        compile.DependencyGraph{Nodes: nodes, Edges: edges},
		Cycles:       findCycles(nodes, adj),
		ModulesCount: len(targetSet),
	}
	da.CriticalFiles = criticalFiles(nodes, edges)
	da.Complexity = complexityFor(len(nodes), len(edges))
	da.Health = healthFor(len(nodes), len(da.Cycles))
	if len(da.Cycles) == 0 {
		da.BuildOrder = buildOrder(files, edges)
	}
	return da
}

// resolveImport maps an extracted import string onto an indexed file, trying
// progressively looser keys. Returns "" only for empty imports; unresolved
// imports come back unchanged as external node names.
func resolveImport(imp string, index map[string]string) string {
	imp = strings.TrimSpace(imp)
	if imp == "" {
		return ""
	}
	candidates := []string{imp, filepath.Base(imp)}
	if i := strings.LastIndexAny(imp, "./:"); i >= 0 && i+1 < len(imp) {
		candidates = append(candidates, imp[i+1:])
	}
	if base := filepath.Base(imp); filepath.Ext(base) != "" {
		candidates = append(candidates, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if i := strings.IndexAny(imp, "./:"); i > 0 {
		candidates = append(candidates, imp[:i])
	}
	for _, c := range candidates {
		if f, ok := index[c]; ok {
			return f
		}
	}
	return imp
}

// findCycles runs a depth-first traversal with an explicit recursion stack,
// reporting each back edge's cycle as the ordered node path. Deterministic
// for sorted nodes and adjacency.
func findCycles(nodes []string, adj map[string][]string) [][]string {
	const (
		white = iota // unvisited
		gray         // on the current path
		black        // fully explored
	)

	type frame struct {
		node string
		next int
	}

	color := make(map[string]int, len(nodes))
	var cycles [][]string

	for _, start := range nodes {
		if color[start] != white {
			continue
		}
		stack := []frame{{node: start}}
		color[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(adj[top.node]) {
				next := adj[top.node][top.next]
				top.next++
				switch color[next] {
				case white:
					color[next] = gray
					stack = append(stack, frame{node: next})
				case gray:
					cycle := make([]string, 0, len(stack))
					recording := false
					for _, fr := range stack {
						if fr.node == next {
							recording = true
						}
						if recording {
							cycle = append(cycle, fr.node)
						}
					}
					cycles = append(cycles, cycle)
				}
				continue
			}
			color[top.node] = black
			stack = stack[:len(stack)-1]
		}
	}
	return cycles
}

// criticalFiles returns nodes depended upon by more than a third of all
// nodes, sorted.
func criticalFiles(nodes []string, edges []compile.DependencyEdge) []string {
	if len(nodes) == 0 {
		return nil
	}

	dependents := make(map[string]map[string]bool)
	for _, e := range edges {
		if dependents[e.To] == nil {
			dependents[e.To] = make(map[string]bool)
		}
		dependents[e.To][e.From] = true
	}

	threshold := float64(len(nodes)) / 3
	var critical []string
	for target, from := range dependents {
		if float64(len(from)) > threshold {
			critical = append(critical, target)
		}
	}
	sort.Strings(critical)
	return critical
}

func complexityFor(nodes, edges int) ComplexityTier {
	if nodes == 0 {
		return ComplexitySimple
	}
	density := float64(edges) / float64(nodes)
	switch {
	case density < 1.0:
		return ComplexitySimple
	case density < 2.0:
		return ComplexityModerate
	case density < 3.0:
		return ComplexityComplex
	}
	return ComplexityVeryComplex
}

func healthFor(nodes, cycles int) HealthTier {
	if cycles == 0 || nodes == 0 {
		return HealthExcellent
	}
	ratio := float64(cycles) / float64(nodes)
	switch {
	case ratio <= 0.1:
		return HealthGood
	case ratio <= 0.25:
		return HealthFair
	case ratio <= 0.5:
		return HealthPoor
	}
	return HealthVeryPoor
}

// buildOrder topologically sorts the source files dependency-first. External
// nodes participate in ordering but are dropped from the returned list.
func buildOrder(files []string, edges []compile.DependencyEdge) []string {
	hasEdge := make(map[string]bool)
	var tedges []toposort.Edge
	for _, e := range edges {
		// The imported node must come before its importer
		tedges = append(tedges, toposort.Edge{e.To, e.From})
		hasEdge[e.From] = true
		hasEdge[e.To] = true
	}
	for _, f := range files {
		if !hasEdge[f] {
			tedges = append(tedges, toposort.Edge{nil, f})
		}
	}

	sorted, err := toposort.Toposort(tedges)
	if err != nil {
		return nil
	}

	local := make(map[string]bool, len(files))
	for _, f := range files {
		local[f] = true
	}
	order := make([]string, 0, len(files))
	for _, n := range sorted {
		if n == nil {
			continue
		}
		if f := n.(string); local[f] {
			order = append(order, f)
		}
	}
	return order
}
