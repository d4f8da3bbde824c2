package hsext

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DirectiveKind is the kind of a linker directive.
type DirectiveKind int

const (
	SearchPath DirectiveKind = iota // add a library search directory
	LinkDylib                       // link a dynamic library by name
	Runpath                         // embed a run-time search path
)

func (k DirectiveKind) String() string {
	switch k {
	case SearchPath:
		return "search-path"
	case LinkDylib:
		return "link-dylib"
	case Runpath:
		return "runpath"
	default:
		return fmt.Sprintf("DirectiveKind(%d)", int(k))
	}
}

// Directive is one instruction for the host build.
type Directive struct {
	Kind  DirectiveKind
	Value string
}

func (d Directive) String() string {
	return d.Kind.String() + " " + d.Value
}

// Emitter receives directives in order.
type Emitter interface {
	Emit(d Directive) error
}

// DirectiveList records directives in memory.
type DirectiveList []Directive

// Emit implements Emitter.
func (l *DirectiveList) Emit(d Directive) error {
	*l = append(*l, d)
	return nil
}

// TextEmitter writes one directive per line:
//
//	search-path /path/to/dist/build/foo
//	link-dylib foo
//	runpath /path/to/dist/build/foo
type TextEmitter struct {
	W io.Writer
}

// Emit implements Emitter.
func (e *TextEmitter) Emit(d Directive) error {
	_, err := fmt.Fprintln(e.W, d.String())
	return err
}

// FlagEmitter turns directives into cgo linker flags: -L<dir>, -l<name>
// and -Wl,-rpath,<dir>.
type FlagEmitter struct {
	flags []string
}

// Emit implements Emitter.
func (e *FlagEmitter) Emit(d Directive) error {
	switch d.Kind {
	case SearchPath:
		e.flags = append(e.flags, "-L"+d.Value)
	case LinkDylib:
		e.flags = append(e.flags, "-l"+d.Value)
	case Runpath:
		e.flags = append(e.flags, "-Wl,-rpath,"+d.Value)
	default:
		return fmt.Errorf("unsupported directive %v", d.Kind)
	}
	return nil
}

// Flags returns the collected flags.
func (e *FlagEmitter) Flags() []string {
	return append([]string(nil), e.flags...)
}

// LDFLAGS returns the flags as one string suitable for CGO_LDFLAGS or a
// #cgo LDFLAGS line. Flags containing spaces or quotes are single-quoted.
func (e *FlagEmitter) LDFLAGS() string {
	quoted := make([]string, len(e.flags))
	for i, f := range e.flags {
		quoted[i] = quoteFlag(f)
	}
	return strings.Join(quoted, " ")
}

// CgoSource renders a Go file for package pkg that carries the flags in a
// #cgo LDFLAGS directive, so that go build links the foreign library.
func (e *FlagEmitter) CgoSource(pkg string) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by hsext; DO NOT EDIT.\n\npackage %s\n\n", pkg)
	fmt.Fprintf(&buf, "// #cgo LDFLAGS: %s\nimport \"C\"\n", e.LDFLAGS())
	return format.Source(buf.Bytes())
}

func quoteFlag(f string) string {
	if !strings.ContainsAny(f, " \t'\"\\") {
		return f
	}
	return "'" + strings.ReplaceAll(f, "'", `'\''`) + "'"
}

// EmitArtifactLink emits the search path of the built library, the library
// itself by package name, and with rpath a run-path entry for the same
// directory.
func EmitArtifactLink(e Emitter, artifactPath, packageName string, rpath bool) error {
	dir := filepath.Dir(artifactPath)
	directives := []Directive{
		{Kind: SearchPath, Value: dir},
		{Kind: LinkDylib, Value: packageName},
	}
	if rpath {
		directives = append(directives, Directive{Kind: Runpath, Value: dir})
	}
	return emitAll(e, directives)
}

// EmitSystemLinks emits libraryDir as a search path followed by one
// link-dylib per name, in the given order, and with rpath a run-path entry
// for libraryDir.
func EmitSystemLinks(e Emitter, libraryDir string, names []string, rpath bool) error {
	directives := make([]Directive, 0, len(names)+2)
	directives = append(directives, Directive{Kind: SearchPath, Value: libraryDir})
	for _, name := range names {
		directives = append(directives, Directive{Kind: LinkDylib, Value: name})
	}
	if rpath {
		directives = append(directives, Directive{Kind: Runpath, Value: libraryDir})
	}
	return emitAll(e, directives)
}

func emitAll(e Emitter, directives []Directive) error {
	for _, d := range directives {
		if err := e.Emit(d); err != nil {
			return err
		}
	}
	return nil
}

// Link emits the directives that link the built library itself.
func (l *Library) Link(e Emitter, rpath bool) error {
	if err := EmitArtifactLink(e, l.Path, l.build.env.PackageName, rpath); err != nil {
		return &Error{Stage: StageLink, Err: err}
	}
	return nil
}

// LinkSystem links the GHC runtime and the declared Haskell packages.
//
// # Process Flow
//
//  1. Ask ghc-pkg for the rts dynamic-library directory
//  2. Resolve and list that directory
//  3. Match every filename against the RTS and dependency grammars
//  4. Fail if the RTS or any declared dependency matched nothing
//  5. Emit the search path, one link-dylib per match, and the run path
//
// Nothing is emitted when any step before 5 fails.
func (l *Library) LinkSystem(e Emitter, rpath bool) error {
	b := l.build

	libDir, err := b.DynamicLibraryDir()
	if err != nil {
		return err
	}

	dir, files, err := ScanDir(libDir)
	if err != nil {
		return &Error{Stage: StageLink, Err: err}
	}

	matcher := NewMatcher(b.rts, l.deps, DylibExt(b.goos))
	set := matcher.MatchAll(files)

	if missing := set.Missing(); len(missing) > 0 {
		return &Error{Stage: StageLink, Err: &MissingLibraryError{Dir: dir, Missing: missing}}
	}

	for _, d := range append([]Dependency{DepRTS}, l.deps...) {
		if found := set.For(d); len(found) > 1 {
			clash := make([]string, len(found))
			for i, m := range found {
				clash[i] = m.File
			}
			b.log.Warn("several libraries match one dependency, linking all",
				zap.String("dependency", string(d)),
				zap.Strings("files", clash))
		}
	}

	names := set.LinkNames()
	if err := EmitSystemLinks(e, dir, names, rpath); err != nil {
		return &Error{Stage: StageLink, Err: err}
	}

	b.log.Info("linked GHC libraries",
		zap.String("dir", dir),
		zap.Stringer("rts", b.rts),
		zap.Strings("libraries", names))
	return nil
}
