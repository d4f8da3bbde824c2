package hsext

import (
	"bufio"
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"unicode"
)

// CgoGenerator is the default Generator. It reads the prototypes GHC
// writes into a foreign-export stub header,
//
//	extern HsInt foo(HsInt a1);
//
// and renders a cgo file with one exported Go wrapper per prototype plus
// HsInit/HsExit for the runtime.
type CgoGenerator struct {
	// Package is the Go package clause of the generated file.
	Package string

	// NoRuntimeHelpers omits HsInit and HsExit.
	NoRuntimeHelpers bool
}

type hsType struct {
	Go     string
	unsafe bool
}

// HsFFI.h types and their Go counterparts.
var hsTypes = map[string]hsType{
	"HsInt":       {Go: "int"},
	"HsInt8":      {Go: "int8"},
	"HsInt16":     {Go: "int16"},
	"HsInt32":     {Go: "int32"},
	"HsInt64":     {Go: "int64"},
	"HsWord":      {Go: "uint"},
	"HsWord8":     {Go: "uint8"},
	"HsWord16":    {Go: "uint16"},
	"HsWord32":    {Go: "uint32"},
	"HsWord64":    {Go: "uint64"},
	"HsFloat":     {Go: "float32"},
	"HsDouble":    {Go: "float64"},
	"HsChar":      {Go: "rune"},
	"HsBool":      {Go: "int"},
	"HsPtr":       {Go: "unsafe.Pointer", unsafe: true},
	"HsFunPtr":    {Go: "unsafe.Pointer", unsafe: true},
	"HsStablePtr": {Go: "unsafe.Pointer", unsafe: true},
}

var prototypeRe = regexp.MustCompile(`^extern\s+([A-Za-z_]\w*)\s+([A-Za-z_]\w*)\s*\(([^)]*)\)\s*;$`)

// Function is one parsed prototype.
type Function struct {
	CName  string
	GoName string
	Params []Param
	Result string // C type name, empty for void
}

// Param is one parameter of a Function.
type Param struct {
	Name  string
	CType string
}

// ParseStubHeader extracts the foreign-export prototypes from a stub header.
// Preprocessor lines and the extern "C" block markers are skipped; any
// other extern line that is not a plain prototype over HsFFI types is an
// error.
func ParseStubHeader(src []byte) ([]Function, error) {
	var funcs []Function
	seen := map[string]bool{"HsInit": true, "HsExit": true}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "extern") || strings.HasPrefix(line, `extern "C"`) {
			continue
		}

		sub := prototypeRe.FindStringSubmatch(line)
		if sub == nil {
			return nil, fmt.Errorf("line %d: unsupported declaration %q", lineNo, line)
		}

		fn := Function{CName: sub[2], GoName: exportName(sub[2])}
		if sub[1] != "void" {
			if _, ok := hsTypes[sub[1]]; !ok {
				return nil, fmt.Errorf("line %d: %s: unsupported return type %s", lineNo, fn.CName, sub[1])
			}
			fn.Result = sub[1]
		}

		params, err := parseParams(sub[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", lineNo, fn.CName, err)
		}
		fn.Params = params

		if seen[fn.GoName] {
			return nil, fmt.Errorf("line %d: %s: Go name %s already in use", lineNo, fn.CName, fn.GoName)
		}
		seen[fn.GoName] = true
		funcs = append(funcs, fn)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return funcs, nil
}

func parseParams(list string) ([]Param, error) {
	list = strings.TrimSpace(list)
	if list == "" || list == "void" {
		return nil, nil
	}

	var params []Param
	for i, raw := range strings.Split(list, ",") {
		fields := strings.Fields(raw)
		var p Param
		switch len(fields) {
		case 1:
			p = Param{CType: fields[0], Name: fmt.Sprintf("a%d", i+1)}
		case 2:
			p = Param{CType: fields[0], Name: fields[1]}
		default:
			return nil, fmt.Errorf("unsupported parameter %q", strings.TrimSpace(raw))
		}
		if _, ok := hsTypes[p.CType]; !ok {
			return nil, fmt.Errorf("unsupported parameter type %s", p.CType)
		}
		if token.IsKeyword(p.Name) {
			p.Name += "_"
		}
		if !token.IsIdentifier(p.Name) {
			return nil, fmt.Errorf("invalid parameter name %q", p.Name)
		}
		params = append(params, p)
	}
	return params, nil
}

// exportName turns a C identifier into an exported Go one: add_ints → AddInts.
func exportName(c string) string {
	var b strings.Builder
	for _, part := range strings.Split(c, "_") {
		if part == "" {
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	name := b.String()
	if name == "" || !unicode.IsLetter([]rune(name)[0]) {
		name = "X" + name
	}
	return name
}

// Generate implements Generator.
func (g *CgoGenerator) Generate(req BindingRequest) (*Bindings, error) {
	src, err := os.ReadFile(req.Header)
	if err != nil {
		return nil, &GeneratorError{Header: req.Header, Err: err}
	}

	funcs, err := ParseStubHeader(src)
	if err != nil {
		return nil, &GeneratorError{Header: req.Header, Err: err}
	}

	out, err := g.render(req, funcs)
	if err != nil {
		return nil, &GeneratorError{Header: req.Header, Err: err}
	}
	return &Bindings{Source: out}, nil
}

type renderFunc struct {
	CName  string
	GoName string
	Params string
	Args   string
	Result string
}

type renderData struct {
	Package  string
	Source   string
	Header   string
	Includes []string
	Unsafe   bool
	Runtime  bool
	Funcs    []renderFunc
}

var bindingsTemplate = template.Must(template.New("bindings").Parse(`// Code generated by hsext from {{.Source}}; DO NOT EDIT.

package {{.Package}}

/*
{{- range .Includes}}
#cgo CFLAGS: -isystem {{.}}
{{- end}}
#include "{{.Header}}"
*/
import "C"
{{- if .Unsafe}}

import "unsafe"
{{- end}}
{{- if .Runtime}}

// HsInit starts the Haskell runtime. Call it once before any other binding.
func HsInit() {
	C.hs_init(nil, nil)
}

// HsExit shuts the Haskell runtime down.
func HsExit() {
	C.hs_exit()
}
{{- end}}
{{- range .Funcs}}

// {{.GoName}} calls the Haskell export {{.CName}}.
func {{.GoName}}({{.Params}}) {{.Result}} {
{{- if .Result}}
	return {{.Result}}(C.{{.CName}}({{.Args}}))
{{- else}}
	C.{{.CName}}({{.Args}})
{{- end}}
}
{{- end}}
`))

func (g *CgoGenerator) render(req BindingRequest, funcs []Function) ([]byte, error) {
	pkg := g.Package
	if pkg == "" {
		pkg = "main"
	}
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("invalid Go package name %q", pkg)
	}

	data := renderData{
		Package: pkg,
		Source:  filepath.Base(req.Header),
		Header:  filepath.ToSlash(req.Header),
		Runtime: !g.NoRuntimeHelpers,
	}
	for _, inc := range req.SystemIncludes {
		if inc != "" {
			data.Includes = append(data.Includes, quoteFlag(inc))
		}
	}

	for _, fn := range funcs {
		rf := renderFunc{CName: fn.CName, GoName: fn.GoName}
		params := make([]string, len(fn.Params))
		args := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			t := hsTypes[p.CType]
			data.Unsafe = data.Unsafe || t.unsafe
			params[i] = p.Name + " " + t.Go
			args[i] = "C." + p.CType + "(" + p.Name + ")"
		}
		rf.Params = strings.Join(params, ", ")
		rf.Args = strings.Join(args, ", ")
		if fn.Result != "" {
			t := hsTypes[fn.Result]
			data.Unsafe = data.Unsafe || t.unsafe
			rf.Result = t.Go
		}
		data.Funcs = append(data.Funcs, rf)
	}

	var buf bytes.Buffer
	if err := bindingsTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}
