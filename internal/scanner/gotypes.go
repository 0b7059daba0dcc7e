package scanner

import (
	"fmt"
	"go/ast"
	"strings"
)

// goToMeta maps predeclared Go types to the runtime's type spelling.
var goToMeta = map[string]string{
	"bool":    "bool",
	"int":     "int",
	"int8":    "signed char",
	"int16":   "short",
	"int32":   "int",
	"int64":   "qlonglong",
	"uint":    "uint",
	"uint8":   "uchar",
	"byte":    "uchar",
	"uint16":  "ushort",
	"uint32":  "uint",
	"uint64":  "qulonglong",
	"uintptr": "quintptr",
	"rune":    "QChar",
	"float32": "float",
	"float64": "double",
	"string":  "QString",
	"any":     "QVariant",
}

// metaType converts a Go parameter or result type expression to the type
// spelling used in signatures.
func metaType(expr ast.Expr) (string, error) {
	switch t := expr.(type) {
	case *ast.Ident:
		if m, ok := goToMeta[t.Name]; ok {
			return m, nil
		}
		return t.Name, nil
	case *ast.StarExpr:
		inner, err := metaType(t.X)
		if err != nil {
			return "", err
		}
		return inner + "*", nil
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok && pkg.Name == "unsafe" && t.Sel.Name == "Pointer" {
			return "void*", nil
		}
		// package qualifiers do not exist on the other side
		return t.Sel.Name, nil
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "QVariant", nil
		}
	case *ast.ArrayType:
		if t.Len != nil {
			break
		}
		if elt, ok := t.Elt.(*ast.Ident); ok {
			switch elt.Name {
			case "byte", "uint8":
				return "QByteArray", nil
			case "string":
				return "QStringList", nil
			case "any":
				return "QVariantList", nil
			}
		}
		inner, err := metaType(t.Elt)
		if err != nil {
			return "", err
		}
		return "QList<" + inner + ">", nil
	case *ast.MapType:
		if k, ok := t.Key.(*ast.Ident); ok && k.Name == "string" {
			if v, ok := t.Value.(*ast.Ident); ok && v.Name == "any" {
				return "QVariantMap", nil
			}
			if _, ok := t.Value.(*ast.InterfaceType); ok {
				return "QVariantMap", nil
			}
		}
		key, err := metaType(t.Key)
		if err != nil {
			return "", err
		}
		val, err := metaType(t.Value)
		if err != nil {
			return "", err
		}
		return "QMap<" + key + "," + val + ">", nil
	}
	return "", fmt.Errorf("%w: %T has no runtime equivalent", ErrUnsupportedGoType, expr)
}

// signatureFromFunc derives parameters and return type from a method
// declaration. Unnamed parameters keep an empty name.
func signatureFromFunc(ft *ast.FuncType) (params, ret string, err error) {
	var parts []string
	if ft.Params != nil {
		for _, field := range ft.Params.List {
			if _, variadic := field.Type.(*ast.Ellipsis); variadic {
				return "", "", fmt.Errorf("%w: variadic parameters", ErrUnsupportedGoType)
			}
			typ, err := metaType(field.Type)
			if err != nil {
				return "", "", err
			}
			if len(field.Names) == 0 {
				parts = append(parts, typ)
				continue
			}
			for _, n := range field.Names {
				if n.Name == "_" {
					parts = append(parts, typ)
					continue
				}
				parts = append(parts, typ+" "+n.Name)
			}
		}
	}

	ret = "void"
	if ft.Results != nil && ft.Results.NumFields() > 0 {
		if ft.Results.NumFields() > 1 {
			return "", "", fmt.Errorf("%w: multiple results", ErrUnsupportedGoType)
		}
		if ret, err = metaType(ft.Results.List[0].Type); err != nil {
			return "", "", err
		}
	}
	return "(" + strings.Join(parts, ", ") + ")", ret, nil
}
