package hsext

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// versionPattern matches a dotted numeric version with at least two
// components: 9.4, 4.17.0, 4.17.0.0.
const versionPattern = `(?:\d+\.)+\d+`

// DylibExt returns the shared-library extension for a GOOS value, without
// the leading dot.
func DylibExt(goos string) string {
	switch goos {
	case "darwin", "ios":
		return "dylib"
	case "windows":
		return "dll"
	default:
		return "so"
	}
}

// LinkName strips the "lib" prefix and the ".<ext>" suffix from a matched
// filename, leaving the stem the linker expects after -l:
//
//	LinkName("libHSbase-4.17.0-ghc9.4.7.so", "so") == "HSbase-4.17.0-ghc9.4.7"
//
// The result is only meaningful for names accepted by a Matcher.
func LinkName(file, ext string) string {
	end := len(file) - len(ext) - 1
	if end < 3 {
		return ""
	}
	return file[3:end]
}

// Match is a file selected for linking.
type Match struct {
	File            string     // on-disk name
	LinkName        string     // File without "lib" and ".<ext>"
	Dependency      Dependency // DepRTS for the runtime
	Version         string     // package version, e.g. 4.17.0
	CompilerVersion string     // GHC version, e.g. 9.4.7
}

// Matcher decides which files in the GHC library directory are link
// targets for one RTS flavour, one dependency list and one platform.
//
// Two anchored, case-sensitive grammars are used:
//
//	lib(<prefix>)-<version>-ghc<version>.<ext>      declared dependencies
//	libHSrts-<version><suffix>-ghc<version>.<ext>   the runtime
//
// The RTS suffix is matched exactly, so libHSrts-1.0.2_thr-ghc9.4.7.so is
// rejected when the non-threaded (empty suffix) runtime is selected.
// Patterns are compiled once in NewMatcher.
type Matcher struct {
	ext    string
	rts    RTSVersion
	deps   []Dependency
	byPref map[string]Dependency
	dep    *regexp.Regexp // nil when no dependencies are declared
	rtsRe  *regexp.Regexp
}

// NewMatcher compiles the grammars for the given flavour, dependencies and
// extension (without dot).
func NewMatcher(rts RTSVersion, deps []Dependency, ext string) *Matcher {
	m := &Matcher{
		ext:    ext,
		rts:    rts,
		deps:   append([]Dependency(nil), deps...),
		byPref: make(map[string]Dependency, len(deps)),
	}

	quotedExt := regexp.QuoteMeta(ext)

	if len(deps) > 0 {
		prefixes := make([]string, 0, len(deps))
		for _, d := range deps {
			m.byPref[d.Prefix()] = d
			prefixes = append(prefixes, regexp.QuoteMeta(d.Prefix()))
		}
		m.dep = regexp.MustCompile(`^lib(` + strings.Join(prefixes, "|") + `)-(` +
			versionPattern + `)-ghc(` + versionPattern + `)\.` + quotedExt + `$`)
	}

	m.rtsRe = regexp.MustCompile(`^lib` + regexp.QuoteMeta(DepRTS.Prefix()) + `-(` +
		versionPattern + `)` + regexp.QuoteMeta(rts.Suffix()) + `-ghc(` +
		versionPattern + `)\.` + quotedExt + `$`)

	return m
}

// Ext returns the extension this matcher accepts.
func (m *Matcher) Ext() string { return m.ext }

// Match classifies a single filename.
func (m *Matcher) Match(file string) (Match, bool) {
	if m.dep != nil {
		if sub := m.dep.FindStringSubmatch(file); sub != nil {
			return Match{
				File:            file,
				LinkName:        LinkName(file, m.ext),
				Dependency:      m.byPref[sub[1]],
				Version:         sub[2],
				CompilerVersion: sub[3],
			}, true
		}
	}
	if sub := m.rtsRe.FindStringSubmatch(file); sub != nil {
		return Match{
			File:            file,
			LinkName:        LinkName(file, m.ext),
			Dependency:      DepRTS,
			Version:         sub[1],
			CompilerVersion: sub[2],
		}, true
	}
	return Match{}, false
}

// MatchAll classifies every name, keeping input order. Names that match
// neither grammar are ignored.
func (m *Matcher) MatchAll(files []string) *MatchSet {
	set := &MatchSet{required: append([]Dependency{DepRTS}, m.deps...)}
	for _, f := range files {
		if match, ok := m.Match(f); ok {
			set.Matches = append(set.Matches, match)
		}
	}
	return set
}

// MatchSet is the result of one matching pass.
type MatchSet struct {
	Matches  []Match
	required []Dependency
}

// LinkNames returns the link names in match order.
func (s *MatchSet) LinkNames() []string {
	names := make([]string, len(s.Matches))
	for i, m := range s.Matches {
		names[i] = m.LinkName
	}
	return names
}

// For returns the matches of one dependency.
func (s *MatchSet) For(d Dependency) []Match {
	var out []Match
	for _, m := range s.Matches {
		if m.Dependency == d {
			out = append(out, m)
		}
	}
	return out
}

// Missing returns the RTS and declared dependencies that matched nothing,
// RTS first.
func (s *MatchSet) Missing() []Dependency {
	seen := make(map[Dependency]bool, len(s.Matches))
	for _, m := range s.Matches {
		seen[m.Dependency] = true
	}
	var missing []Dependency
	for _, d := range s.required {
		if !seen[d] {
			missing = append(missing, d)
		}
	}
	return missing
}

// ScanDir resolves dir to a canonical absolute path and lists the names of
// its non-directory entries.
func ScanDir(dir string) (string, []string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", nil, &DirectoryError{Dir: dir, Op: "resolve", Err: errors.New("empty path")}
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err == nil {
		resolved, err = filepath.Abs(resolved)
	}
	if err != nil {
		return "", nil, &DirectoryError{Dir: dir, Op: "resolve", Err: err}
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return "", nil, &DirectoryError{Dir: resolved, Op: "list", Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return resolved, names, nil
}
