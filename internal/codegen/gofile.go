package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"strings"
	"text/template"

	"github.com/Alia5/metagen/metaobject"
)

const goFileTemplate = `// Code generated by metagen {{.Version}}. DO NOT EDIT.

package {{.Package}}

import "github.com/Alia5/metagen/metaobject"

var (
{{- range .Classes}}
	// {{.Var}} is the meta-object of {{.Name}} ({{.Kind}}, layout {{.LayoutName}}).
	{{.Var}} = &metaobject.MetaObject{
		ClassName:  {{quote .Name}},
		SuperClass: {{quote .Super}},
		Kind:       {{.KindConst}},
		Layout:     metaobject.Layout{Revision: {{.Layout.Revision}}, PointerSize: {{.Layout.PointerSize}}, BigEndian: {{.Layout.BigEndian}}},
		StringData: []byte({{quote .StringData}}),
		Data: []uint32{
{{- range .DataLines}}
			{{.}}
{{- end}}
		},
	}
{{end -}}
)

// RegisterMetaObjects publishes the meta-objects of this package in r. Call it
// once during process setup, before any lookup by class name.
func RegisterMetaObjects(r *metaobject.Registry) error {
	return r.RegisterAll(
{{- range .Classes}}
		{{.Var}},
{{- end}}
	)
}
`

var goFileTmpl = template.Must(template.New("gofile").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(goFileTemplate))

type goClass struct {
	Var        string
	Name       string
	Super      string
	Kind       metaobject.Kind
	KindConst  string
	Layout     metaobject.Layout
	LayoutName string
	StringData string
	DataLines  []string
}

// RenderGo renders the Go file holding every class's record and the
// RegisterMetaObjects function, formatted with go/format.
func RenderGo(pkg string, classes []Class) ([]byte, error) {
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("invalid package name %q", pkg)
	}
	version, err := GetVersion()
	if err != nil {
		return nil, err
	}

	data := struct {
		Version string
		Package string
		Classes []goClass
	}{Version: version, Package: pkg}

	seen := make(map[string]string)
	for _, cls := range classes {
		mo := cls.MetaObject
		v := VarName(mo.ClassName)
		if prev, dup := seen[v]; dup {
			return nil, fmt.Errorf("classes %s and %s map to the same identifier %s", prev, mo.ClassName, v)
		}
		seen[v] = mo.ClassName

		kindConst := "metaobject.KindObject"
		if mo.Kind == metaobject.KindGadget {
			kindConst = "metaobject.KindGadget"
		}
		data.Classes = append(data.Classes, goClass{
			Var:        v,
			Name:       mo.ClassName,
			Super:      mo.SuperClass,
			Kind:       mo.Kind,
			KindConst:  kindConst,
			Layout:     mo.Layout,
			LayoutName: mo.Layout.String(),
			StringData: string(mo.StringData),
			DataLines:  dataLines(mo.Data),
		})
	}

	var buf bytes.Buffer
	if err := goFileTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return src, nil
}

// dataLines puts the header on the first line and the rest eight fields per
// line. Type fields carrying a string index are written in hex.
func dataLines(data []uint32) []string {
	var lines []string
	emit := func(vs []uint32) {
		parts := make([]string, len(vs))
		for i, v := range vs {
			if v >= metaobject.UnresolvedType {
				parts[i] = fmt.Sprintf("0x%08x", v)
			} else {
				parts[i] = strconv.FormatUint(uint64(v), 10)
			}
		}
		lines = append(lines, strings.Join(parts, ", ")+",")
	}

	head := min(len(data), metaobject.HeaderFieldCount)
	emit(data[:head])
	for i := head; i < len(data); i += 8 {
		emit(data[i:min(i+8, len(data))])
	}
	return lines
}

// VarName is the exported identifier of a class's record in generated code.
func VarName(class string) string {
	return "MetaObject" + strings.ReplaceAll(class, "::", "_")
}

// fileBase is the file name stem of a class's blob and listing files.
func fileBase(class string) string {
	return strings.ReplaceAll(class, "::", "_")
}
