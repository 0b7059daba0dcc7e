package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/Alia5/metagen/metaobject"
)

// Summary is the decoded, human-oriented view of a MetaObject. It is built
// from the serialized bytes, not from the descriptor, so it shows exactly what
// the consuming runtime will read.
type Summary struct {
	Class        string             `json:"class" yaml:"class" toml:"class"`
	SuperClass   string             `json:"superClass,omitempty" yaml:"superClass,omitempty" toml:"superClass,omitempty"`
	Kind         string             `json:"kind" yaml:"kind" toml:"kind"`
	Layout       string             `json:"layout" yaml:"layout" toml:"layout"`
	Strings      int                `json:"strings" yaml:"strings" toml:"strings"`
	ClassInfo    []ClassInfoSummary `json:"classInfo,omitempty" yaml:"classInfo,omitempty" toml:"classInfo,omitempty"`
	Methods      []MethodSummary    `json:"methods,omitempty" yaml:"methods,omitempty" toml:"methods,omitempty"`
	Constructors []MethodSummary    `json:"constructors,omitempty" yaml:"constructors,omitempty" toml:"constructors,omitempty"`
	Enums        []EnumSummary      `json:"enums,omitempty" yaml:"enums,omitempty" toml:"enums,omitempty"`
}

type ClassInfoSummary struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Value string `json:"value" yaml:"value" toml:"value"`
}

type MethodSummary struct {
	Index      int      `json:"index" yaml:"index" toml:"index"`
	Type       string   `json:"type" yaml:"type" toml:"type"`
	Access     string   `json:"access" yaml:"access" toml:"access"`
	Signature  string   `json:"signature" yaml:"signature" toml:"signature"`
	ReturnType string   `json:"returnType,omitempty" yaml:"returnType,omitempty" toml:"returnType,omitempty"`
	ParamNames []string `json:"paramNames,omitempty" yaml:"paramNames,omitempty" toml:"paramNames,omitempty"`
	Attributes []string `json:"attributes,omitempty" yaml:"attributes,omitempty" toml:"attributes,omitempty"`
}

type EnumSummary struct {
	Name   string   `json:"name" yaml:"name" toml:"name"`
	Alias  string   `json:"alias,omitempty" yaml:"alias,omitempty" toml:"alias,omitempty"`
	Flag   bool     `json:"flag" yaml:"flag" toml:"flag"`
	Keys   []string `json:"keys" yaml:"keys" toml:"keys"`
	Values []int32  `json:"values" yaml:"values" toml:"values"`
}

var methodTypes = map[uint32]string{
	metaobject.MethodTypeMethod:      "method",
	metaobject.MethodTypeSignal:      "signal",
	metaobject.MethodTypeSlot:        "slot",
	metaobject.MethodTypeConstructor: "constructor",
}

func methodSummary(mi metaobject.MethodInfo) MethodSummary {
	ms := MethodSummary{
		Index:      mi.Index,
		Type:       methodTypes[mi.Flags&metaobject.MethodTypeMask],
		Access:     strings.ToLower(mi.Access().String()),
		Signature:  mi.Signature(),
		ReturnType: mi.ReturnType,
	}
	for _, n := range mi.ParamNames {
		if n != "" {
			ms.ParamNames = mi.ParamNames
			break
		}
	}
	if mi.Flags&metaobject.MethodCompatibility != 0 {
		ms.Attributes = append(ms.Attributes, "compat")
	}
	if mi.Flags&metaobject.MethodCloned != 0 {
		ms.Attributes = append(ms.Attributes, "cloned")
	}
	if mi.Flags&metaobject.MethodScriptable != 0 {
		ms.Attributes = append(ms.Attributes, "scriptable")
	}
	return ms
}

// Summarize decodes mo.
func Summarize(mo *metaobject.MetaObject) (*Summary, error) {
	s := &Summary{
		Class:      mo.ClassName,
		SuperClass: mo.SuperClass,
		Kind:       mo.Kind.String(),
		Layout:     mo.Layout.String(),
		Strings:    mo.StringCount(),
	}

	infos, err := mo.ClassInfos()
	if err != nil {
		return nil, err
	}
	for _, ci := range infos {
		s.ClassInfo = append(s.ClassInfo, ClassInfoSummary(ci))
	}

	methods, err := mo.Methods()
	if err != nil {
		return nil, err
	}
	for _, mi := range methods {
		s.Methods = append(s.Methods, methodSummary(mi))
	}

	ctors, err := mo.Constructors()
	if err != nil {
		return nil, err
	}
	for _, mi := range ctors {
		s.Constructors = append(s.Constructors, methodSummary(mi))
	}

	enums, err := mo.Enums()
	if err != nil {
		return nil, err
	}
	for _, ei := range enums {
		es := EnumSummary{
			Name:   ei.Name,
			Flag:   ei.Flags&metaobject.EnumIsFlag != 0,
			Keys:   ei.Keys,
			Values: ei.Values,
		}
		if ei.Alias != ei.Name {
			es.Alias = ei.Alias
		}
		s.Enums = append(s.Enums, es)
	}
	return s, nil
}

// Listing renders the text listing of mo: the decoded tables followed by the
// string table and the raw data array.
func Listing(mo *metaobject.MetaObject) ([]byte, error) {
	s, err := Summarize(mo)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s", s.Kind, s.Class)
	if s.SuperClass != "" {
		fmt.Fprintf(&b, " : %s", s.SuperClass)
	}
	fmt.Fprintf(&b, "\nlayout %s, revision %d\n", s.Layout, mo.Revision())

	if len(s.ClassInfo) > 0 {
		b.WriteString("\nclassinfo:\n")
		for _, ci := range s.ClassInfo {
			fmt.Fprintf(&b, "  %s = %q\n", ci.Name, ci.Value)
		}
	}
	writeMethods := func(title string, ms []MethodSummary) {
		if len(ms) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, m := range ms {
			fmt.Fprintf(&b, "  %3d %-11s %-9s %s", m.Index, m.Type, m.Access, m.Signature)
			if m.ReturnType != "" && m.ReturnType != "void" {
				fmt.Fprintf(&b, " -> %s", m.ReturnType)
			}
			if len(m.Attributes) > 0 {
				fmt.Fprintf(&b, " [%s]", strings.Join(m.Attributes, ","))
			}
			b.WriteByte('\n')
		}
	}
	writeMethods("methods", s.Methods)
	writeMethods("constructors", s.Constructors)

	if len(s.Enums) > 0 {
		b.WriteString("\nenums:\n")
		for _, e := range s.Enums {
			kind := "enum"
			if e.Flag {
				kind = "flag"
			}
			fmt.Fprintf(&b, "  %s %s", kind, e.Name)
			if e.Alias != "" {
				fmt.Fprintf(&b, " (alias %s)", e.Alias)
			}
			b.WriteByte('\n')
			for i, k := range e.Keys {
				fmt.Fprintf(&b, "    %s = %d\n", k, e.Values[i])
			}
		}
	}

	fmt.Fprintf(&b, "\nstrings (%d):\n", s.Strings)
	for i := 0; i < s.Strings; i++ {
		str, err := mo.StringAt(i)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "  %3d %q\n", i, str)
	}

	fmt.Fprintf(&b, "\ndata (%d fields):\n", len(mo.Data))
	for _, line := range dataLines(mo.Data) {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	return b.Bytes(), nil
}

// WriteSummary encodes the summaries of mos to w as text, json, yaml or toml.
func WriteSummary(w io.Writer, format string, mos ...*metaobject.MetaObject) error {
	if format == "text" || format == "" {
		for i, mo := range mos {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			listing, err := Listing(mo)
			if err != nil {
				return err
			}
			if _, err := w.Write(listing); err != nil {
				return err
			}
		}
		return nil
	}

	summaries := make([]*Summary, 0, len(mos))
	for _, mo := range mos {
		s, err := Summarize(mo)
		if err != nil {
			return fmt.Errorf("%s: %w", mo.ClassName, err)
		}
		summaries = append(summaries, s)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summaries); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		// TOML documents are tables; the class list becomes an array of tables.
		doc := struct {
			Classes []Summary `toml:"class"`
		}{}
		for _, s := range summaries {
			doc.Classes = append(doc.Classes, *s)
		}
		data, err := toml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unsupported format: %s", format)
}
