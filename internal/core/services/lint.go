package services

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
	"github.com/welshwandering/doctrine/internal/logger"
)

// DefaultProbeTTL is how long a cached URL verdict stays valid.
const DefaultProbeTTL = 24 * time.Hour

// Ensure LintService implements the interface.
var _ driving.LintService = (*LintService)(nil)

// LintService runs corpus checks over stored guides: link resolution,
// anchors, reference hygiene, extends relations, framework uniqueness,
// index freshness, and optional external URL probing. Checks read the
// catalog, not the disk, so a scan must precede a lint.
type LintService struct {
	guideStore driven.GuideStore
	probeStore driven.ProbeStore
	prober     driven.LinkProber
	indexFile  string
	probeTTL   time.Duration
}

// NewLintService creates a new lint service. indexFile is the
// corpus-relative path of the frameworks index document; probeTTL
// bounds how long cached URL verdicts are reused.
func NewLintService(
	guideStore driven.GuideStore,
	probeStore driven.ProbeStore,
	prober driven.LinkProber,
	indexFile string,
	probeTTL time.Duration,
) *LintService {
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}
	if probeTTL <= 0 {
		probeTTL = DefaultProbeTTL
	}
	return &LintService{
		guideStore: guideStore,
		probeStore: probeStore,
		prober:     prober,
		indexFile:  indexFile,
		probeTTL:   probeTTL,
	}
}

// Lint runs the configured checks and returns every issue found.
func (s *LintService) Lint(ctx context.Context, opts driving.LintOptions) (*domain.IssueList, error) {
	if s.guideStore == nil {
		return nil, domain.ErrNotImplemented
	}

	// 1. Load the guides in scope
	guides, err := s.guideStore.ListGuides(ctx, opts.SourceID)
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}
	logger.Debug("Linting %d guides", len(guides))

	byPath := make(map[string]*domain.Guide, len(guides))
	for i := range guides {
		byPath[guides[i].Path] = &guides[i]
	}

	// 2. Structural passes over the stored corpus
	list := domain.NewIssueList()
	for i := range guides {
		guide := &guides[i]
		if !guide.IsMarkdown() {
			continue
		}
		s.checkLinks(guide, byPath, list)
		s.checkReferences(guide, list)
	}
	s.checkExtends(guides, byPath, list)
	s.checkFrameworks(guides, list)
	s.checkIndexes(guides, byPath, list)

	// 3. External URL probing only when asked
	if opts.ProbeURLs && checkRequested(opts.Checks, "url") {
		if err := s.checkURLs(ctx, guides, list); err != nil {
			return nil, err
		}
	}

	// 4. Keep only the requested checks
	if len(opts.Checks) > 0 {
		filtered := domain.NewIssueList()
		for _, issue := range list.Issues() {
			if checkRequested(opts.Checks, string(issue.Code)) {
				filtered.Add(issue)
			}
		}
		list = filtered
	}

	logger.Debug("Lint found %d errors, %d warnings", list.Errors(), list.Warnings())
	return list, nil
}

// checkRequested reports whether a check selection covers an issue
// code. Selections are prefixes, so "link" covers link-unresolved and
// link-escapes-corpus while "ref-unused" selects one code exactly.
func checkRequested(checks []string, code string) bool {
	if len(checks) == 0 {
		return true
	}
	for _, c := range checks {
		if strings.HasPrefix(code, c) {
			return true
		}
	}
	return false
}

// checkLinks verifies that relative links land on existing corpus
// files and that fragments name real headings.
func (s *LintService) checkLinks(guide *domain.Guide, byPath map[string]*domain.Guide, list *domain.IssueList) {
	for i := range guide.Links {
		link := &guide.Links[i]
		switch link.Kind {
		case domain.LinkAnchor:
			if link.Fragment == "" {
				continue
			}
			if guide.SectionByAnchor(link.Fragment) == nil {
				list.Add(domain.Issue{
					Code:      domain.IssueAnchorMissing,
					Severity:  domain.SeverityError,
					GuidePath: guide.Path,
					Line:      link.Line,
					Message:   fmt.Sprintf("no heading with anchor #%s", link.Fragment),
				})
			}

		case domain.LinkRelative:
			if link.EscapesCorpus(guide.Path) {
				list.Add(domain.Issue{
					Code:      domain.IssueLinkEscapesCorpus,
					Severity:  domain.SeverityError,
					GuidePath: guide.Path,
					Line:      link.Line,
					Message:   fmt.Sprintf("%s climbs above the corpus root", link.Target),
				})
				continue
			}

			resolved := link.ResolveAgainst(guide.Path)
			target, ok := byPath[resolved]
			if !ok {
				// A dangling non-markdown target may be an asset the
				// scan patterns skipped, so it only warns.
				severity := domain.SeverityError
				if !isMarkdownPath(resolved) {
					severity = domain.SeverityWarning
				}
				list.Add(domain.Issue{
					Code:      domain.IssueLinkUnresolved,
					Severity:  severity,
					GuidePath: guide.Path,
					Line:      link.Line,
					Message:   fmt.Sprintf("target %s does not exist", resolved),
				})
				continue
			}

			if link.Fragment != "" && target.IsMarkdown() && target.SectionByAnchor(link.Fragment) == nil {
				list.Add(domain.Issue{
					Code:      domain.IssueAnchorMissing,
					Severity:  domain.SeverityError,
					GuidePath: guide.Path,
					Line:      link.Line,
					Message:   fmt.Sprintf("%s has no heading with anchor #%s", resolved, link.Fragment),
				})
			}
		}
	}
}

// checkReferences verifies footnote and reference-link hygiene within
// one guide: every usage defined, no duplicate definitions, every
// definition used.
func (s *LintService) checkReferences(guide *domain.Guide, list *domain.IssueList) {
	firstDef := make(map[string]int)
	used := make(map[string]bool)

	for _, ref := range guide.References {
		if ref.Kind != domain.RefDefinition {
			continue
		}
		if first, ok := firstDef[ref.Label]; ok {
			list.Add(domain.Issue{
				Code:      domain.IssueRefDuplicate,
				Severity:  domain.SeverityError,
				GuidePath: guide.Path,
				Line:      ref.Line,
				Message:   fmt.Sprintf("[%s] defined again (first defined at line %d)", ref.Label, first),
			})
			continue
		}
		firstDef[ref.Label] = ref.Line
	}

	for _, ref := range guide.References {
		if ref.Kind != domain.RefUsage {
			continue
		}
		if _, ok := firstDef[ref.Label]; !ok {
			list.Add(domain.Issue{
				Code:      domain.IssueRefUndefined,
				Severity:  domain.SeverityError,
				GuidePath: guide.Path,
				Line:      ref.Line,
				Message:   fmt.Sprintf("[%s] is never defined", ref.Label),
			})
			continue
		}
		used[ref.Label] = true
	}

	for label, line := range firstDef {
		if !used[label] {
			list.Add(domain.Issue{
				Code:      domain.IssueRefUnused,
				Severity:  domain.SeverityWarning,
				GuidePath: guide.Path,
				Line:      line,
				Message:   fmt.Sprintf("[%s] is defined but never used", label),
			})
		}
	}
}

// checkExtends verifies that extends declarations point at markdown
// guides in the corpus and that no chain loops.
func (s *LintService) checkExtends(guides []domain.Guide, byPath map[string]*domain.Guide, list *domain.IssueList) {
	for i := range guides {
		guide := &guides[i]
		if !guide.IsMarkdown() || guide.Extends == "" {
			continue
		}
		target, ok := byPath[guide.Extends]
		switch {
		case !ok:
			list.Add(domain.Issue{
				Code:      domain.IssueExtendsMissing,
				Severity:  domain.SeverityError,
				GuidePath: guide.Path,
				Message:   fmt.Sprintf("extends %s which is not in the corpus", guide.Extends),
			})
		case !target.IsMarkdown():
			list.Add(domain.Issue{
				Code:      domain.IssueExtendsMissing,
				Severity:  domain.SeverityError,
				GuidePath: guide.Path,
				Message:   fmt.Sprintf("extends %s which is not a markdown guide", guide.Extends),
			})
		}
	}

	// Chain walk with coloring so each cycle is reported once.
	const (
		unvisited = 0
		onChain   = 1
		done      = 2
	)
	state := make(map[string]int, len(guides))
	for i := range guides {
		guide := &guides[i]
		if !guide.IsMarkdown() || state[guide.Path] != unvisited {
			continue
		}

		var chain []string
		current := guide
		for {
			state[current.Path] = onChain
			chain = append(chain, current.Path)

			next, ok := byPath[current.Extends]
			if current.Extends == "" || !ok || !next.IsMarkdown() {
				break
			}
			if state[next.Path] == done {
				break
			}
			if state[next.Path] == onChain {
				start := 0
				for j, p := range chain {
					if p == next.Path {
						start = j
						break
					}
				}
				cycle := append([]string{}, chain[start:]...)
				cycle = append(cycle, next.Path)
				list.Add(domain.Issue{
					Code:      domain.IssueExtendsCycle,
					Severity:  domain.SeverityError,
					GuidePath: next.Path,
					Message:   "extends cycle: " + strings.Join(cycle, " -> "),
				})
				break
			}
			current = next
		}
		for _, p := range chain {
			state[p] = done
		}
	}
}

// checkFrameworks warns when two guides claim the same framework at
// the same version. Names compare case-insensitively, matching the
// catalog sort.
func (s *LintService) checkFrameworks(guides []domain.Guide, list *domain.IssueList) {
	claimed := make(map[string][]string)
	for i := range guides {
		guide := &guides[i]
		if !guide.IsMarkdown() || guide.Framework == "" {
			continue
		}
		key := strings.ToLower(guide.Framework) + "\x00" + guide.FrameworkVersion
		claimed[key] = append(claimed[key], guide.Path)
	}

	for _, paths := range claimed {
		if len(paths) < 2 {
			continue
		}
		sort.Strings(paths)
		first := byFrameworkLabel(guides, paths[0])
		for _, p := range paths[1:] {
			list.Add(domain.Issue{
				Code:      domain.IssueFrameworkDuplicate,
				Severity:  domain.SeverityWarning,
				GuidePath: p,
				Message:   fmt.Sprintf("framework %q already claimed by %s", first, paths[0]),
			})
		}
	}
}

// byFrameworkLabel returns the framework label of the guide at a path,
// with the version appended when one is pinned.
func byFrameworkLabel(guides []domain.Guide, guidePath string) string {
	for i := range guides {
		if guides[i].Path != guidePath {
			continue
		}
		label := guides[i].Framework
		if guides[i].FrameworkVersion != "" {
			label += " " + guides[i].FrameworkVersion
		}
		return label
	}
	return ""
}

// indexRow is one parsed data row of a frameworks table. Targets are
// resolved to corpus-relative paths.
type indexRow struct {
	line      int
	framework string
	guidePath string
	extends   string
}

// checkIndexes compares each source's index document against its
// guides: every guide listed, every row accurate.
func (s *LintService) checkIndexes(guides []domain.Guide, byPath map[string]*domain.Guide, list *domain.IssueList) {
	bySource := make(map[string][]*domain.Guide)
	for i := range guides {
		bySource[guides[i].SourceID] = append(bySource[guides[i].SourceID], &guides[i])
	}

	sourceIDs := make([]string, 0, len(bySource))
	for id := range bySource {
		sourceIDs = append(sourceIDs, id)
	}
	sort.Strings(sourceIDs)

	for _, sourceID := range sourceIDs {
		s.checkSourceIndex(sourceID, bySource[sourceID], byPath, list)
	}
}

func (s *LintService) checkSourceIndex(sourceID string, guides []*domain.Guide, byPath map[string]*domain.Guide, list *domain.IssueList) {
	var index *domain.Guide
	for _, guide := range guides {
		if guide.Path == s.indexFile {
			index = guide
			break
		}
	}
	if index == nil {
		list.Add(domain.Issue{
			Code:     domain.IssueIndexMissing,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("source %s has no index document %s", sourceID, s.indexFile),
		})
		return
	}

	rows, found := s.parseIndexTable(index.Content)
	if !found {
		list.Add(domain.Issue{
			Code:      domain.IssueIndexMissing,
			Severity:  domain.SeverityWarning,
			GuidePath: index.Path,
			Message:   "no frameworks table between doctrine markers",
		})
		return
	}

	byTarget := make(map[string]indexRow, len(rows))
	for _, row := range rows {
		byTarget[row.guidePath] = row
	}

	for _, guide := range guides {
		if !guide.IsMarkdown() || guide.Path == s.indexFile {
			continue
		}
		row, listed := byTarget[guide.Path]
		if !listed {
			list.Add(domain.Issue{
				Code:      domain.IssueIndexMissing,
				Severity:  domain.SeverityWarning,
				GuidePath: guide.Path,
				Message:   fmt.Sprintf("not listed in the frameworks table of %s", s.indexFile),
			})
			continue
		}

		want := guide.Framework
		if guide.FrameworkVersion != "" {
			want += " " + guide.FrameworkVersion
		}
		if row.framework != want {
			list.Add(domain.Issue{
				Code:      domain.IssueIndexStale,
				Severity:  domain.SeverityWarning,
				GuidePath: index.Path,
				Line:      row.line,
				Message:   fmt.Sprintf("row for %s says framework %q, guide says %q", guide.Path, row.framework, want),
			})
		}
		if row.extends != guide.Extends {
			list.Add(domain.Issue{
				Code:      domain.IssueIndexStale,
				Severity:  domain.SeverityWarning,
				GuidePath: index.Path,
				Line:      row.line,
				Message:   fmt.Sprintf("row for %s says extends %q, guide says %q", guide.Path, row.extends, guide.Extends),
			})
		}
	}

	for _, row := range rows {
		if _, ok := byPath[row.guidePath]; !ok {
			list.Add(domain.Issue{
				Code:      domain.IssueIndexStale,
				Severity:  domain.SeverityWarning,
				GuidePath: index.Path,
				Line:      row.line,
				Message:   fmt.Sprintf("lists %s which is not in the corpus", row.guidePath),
			})
		}
	}
}

// parseIndexTable extracts the data rows of the frameworks table from
// an index document. Reports false when no marked table exists.
func (s *LintService) parseIndexTable(content string) ([]indexRow, bool) {
	start := strings.Index(content, FrameworksMarkerStart)
	end := strings.Index(content, FrameworksMarkerEnd)
	if start == -1 || end == -1 || end < start {
		return nil, false
	}

	indexDir := path.Dir(s.indexFile)
	var rows []indexRow
	inRegion := false
	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == FrameworksMarkerStart:
			inRegion = true
			continue
		case trimmed == FrameworksMarkerEnd:
			inRegion = false
			continue
		case !inRegion:
			continue
		}

		framework, guideTarget, extendsTarget, ok := parseTableRow(trimmed)
		if !ok {
			continue
		}
		row := indexRow{
			line:      i + 1,
			framework: framework,
			guidePath: resolveIndexTarget(indexDir, guideTarget),
		}
		if extendsTarget != "" {
			row.extends = resolveIndexTarget(indexDir, extendsTarget)
		}
		rows = append(rows, row)
	}
	return rows, true
}

// parseTableRow splits one `| Framework | Guide | Extends |` data row.
// Header and separator rows report false.
func parseTableRow(line string) (framework, guideTarget, extendsTarget string, ok bool) {
	if !strings.HasPrefix(line, "|") {
		return "", "", "", false
	}

	// Escaped pipes belong to cell text, not the grid.
	masked := strings.ReplaceAll(line, "\\|", "\x00")
	cells := strings.Split(masked, "|")
	if len(cells) < 5 {
		return "", "", "", false
	}

	framework = unmaskPipes(strings.TrimSpace(cells[1]))
	if framework == "Framework" || strings.HasPrefix(framework, "---") {
		return "", "", "", false
	}
	guideTarget = linkTarget(unmaskPipes(strings.TrimSpace(cells[2])))
	extendsTarget = linkTarget(unmaskPipes(strings.TrimSpace(cells[3])))
	if guideTarget == "" {
		return "", "", "", false
	}
	return framework, guideTarget, extendsTarget, true
}

func unmaskPipes(s string) string {
	return strings.ReplaceAll(s, "\x00", "|")
}

// linkTarget extracts the destination from a `[text](target)` cell.
func linkTarget(cell string) string {
	open := strings.LastIndex(cell, "](")
	if open == -1 || !strings.HasSuffix(cell, ")") {
		return ""
	}
	return cell[open+2 : len(cell)-1]
}

// resolveIndexTarget resolves a table link against the index document's
// directory, producing a corpus-relative path.
func resolveIndexTarget(indexDir, target string) string {
	return path.Clean(path.Join(indexDir, target))
}

// urlOccurrence pins one appearance of an external URL to a guide line.
type urlOccurrence struct {
	guidePath string
	line      int
	fragment  string
}

// checkURLs probes external link and reference URLs, reusing cached
// verdicts younger than the TTL.
func (s *LintService) checkURLs(ctx context.Context, guides []domain.Guide, list *domain.IssueList) error {
	if s.prober == nil {
		return fmt.Errorf("probe urls: %w", domain.ErrNotImplemented)
	}

	occurrences := make(map[string][]urlOccurrence)
	fragments := make(map[string]map[string]struct{})
	record := func(url, fragment, guidePath string, line int) {
		occurrences[url] = append(occurrences[url], urlOccurrence{
			guidePath: guidePath,
			line:      line,
			fragment:  fragment,
		})
		if fragment != "" {
			if fragments[url] == nil {
				fragments[url] = make(map[string]struct{})
			}
			fragments[url][fragment] = struct{}{}
		}
	}

	for i := range guides {
		guide := &guides[i]
		if !guide.IsMarkdown() {
			continue
		}
		for j := range guide.Links {
			link := &guide.Links[j]
			if link.Kind == domain.LinkExternal && isProbeableURL(link.Target) {
				record(link.Target, link.Fragment, guide.Path, link.Line)
			}
		}
		for j := range guide.References {
			ref := &guide.References[j]
			if ref.Kind == domain.RefDefinition && isProbeableURL(ref.URL) {
				url, fragment := splitURLFragment(ref.URL)
				record(url, fragment, guide.Path, ref.Line)
			}
		}
	}
	if len(occurrences) == 0 {
		return nil
	}

	// Cached verdicts first, then one probe pass for the misses.
	verdicts := make(map[string]driven.ProbeResult, len(occurrences))
	var targets []driven.ProbeTarget
	for url := range occurrences {
		if s.probeStore != nil {
			cached, err := s.probeStore.Get(ctx, url, s.probeTTL)
			if err != nil {
				return fmt.Errorf("read probe cache: %w", err)
			}
			if cached != nil {
				verdicts[url] = *cached
				continue
			}
		}
		targets = append(targets, driven.ProbeTarget{
			URL:       url,
			Fragments: sortedFragments(fragments[url]),
		})
	}
	sort.Slice(targets, func(a, b int) bool { return targets[a].URL < targets[b].URL })

	if len(targets) > 0 {
		logger.Debug("Probing %d external URLs", len(targets))
		results, err := s.prober.ProbeAll(ctx, targets)
		if err != nil {
			return fmt.Errorf("probe urls: %w", err)
		}
		for _, result := range results {
			verdicts[result.URL] = result
			if s.probeStore != nil {
				if err := s.probeStore.Save(ctx, result); err != nil {
					logger.Warn("Failed to cache probe result for %s: %v", result.URL, err)
				}
			}
		}
	}

	for url, verdict := range verdicts {
		for _, occ := range occurrences[url] {
			if !verdict.OK {
				message := fmt.Sprintf("%s answered %d", url, verdict.StatusCode)
				if verdict.Error != "" {
					message = fmt.Sprintf("%s unreachable: %s", url, verdict.Error)
				}
				list.Add(domain.Issue{
					Code:      domain.IssueURLUnreachable,
					Severity:  domain.SeverityWarning,
					GuidePath: occ.guidePath,
					Line:      occ.line,
					Message:   message,
				})
				continue
			}
			if occ.fragment != "" && containsString(verdict.MissingFragments, occ.fragment) {
				list.Add(domain.Issue{
					Code:      domain.IssueURLAnchorMissing,
					Severity:  domain.SeverityWarning,
					GuidePath: occ.guidePath,
					Line:      occ.line,
					Message:   fmt.Sprintf("#%s not found at %s", occ.fragment, url),
				})
			}
		}
	}
	return nil
}

// isMarkdownPath reports whether a corpus path names a markdown file.
func isMarkdownPath(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

// isProbeableURL reports whether a destination is an HTTP URL worth
// probing. mailto and other schemes are left alone.
func isProbeableURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// splitURLFragment separates a URL from its #fragment.
func splitURLFragment(url string) (string, string) {
	if idx := strings.Index(url, "#"); idx != -1 {
		return url[:idx], url[idx+1:]
	}
	return url, ""
}

func sortedFragments(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
