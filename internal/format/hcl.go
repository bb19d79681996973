package format

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// HCL decodes files whose top-level blocks are sections and whose block
// attributes are options:
//
//	model {
//	  module_name = "flat"
//	  mapping     = "theory,model"
//	}
type HCL struct{}

// Decode implements Decoder.
func (HCL) Decode(filename string, src []byte) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("unexpected HCL body type %T in %s", file.Body, filename)
	}
	if attrs := sortedAttributes(body.Attributes); len(attrs) > 0 {
		return nil, fmt.Errorf("%s: attribute %q must be inside a section block", attrs[0].SrcRange, attrs[0].Name)
	}

	doc := &Document{Files: []string{filename}}
	for _, blk := range body.Blocks {
		if len(blk.Labels) > 0 {
			return nil, fmt.Errorf("%s: section %q must not have labels", blk.DefRange(), blk.Type)
		}
		if len(blk.Body.Blocks) > 0 {
			nested := blk.Body.Blocks[0]
			return nil, fmt.Errorf("%s: nested block %q in section %q is not supported", nested.DefRange(), nested.Type, blk.Type)
		}
		section := doc.Ensure(blk.Type)
		for _, attr := range sortedAttributes(blk.Body.Attributes) {
			v, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("failed to evaluate %s.%s: %w", blk.Type, attr.Name, diags)
			}
			native, err := ctyToNative(v)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", blk.Type, attr.Name, err)
			}
			section.Set(attr.Name, native)
		}
	}
	return doc, nil
}

// sortedAttributes returns attributes in source order.
func sortedAttributes(attrs hclsyntax.Attributes) []*hclsyntax.Attribute {
	out := make([]*hclsyntax.Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SrcRange.Start.Byte < out[j].SrcRange.Start.Byte
	})
	return out
}

// ctyToNative recursively converts a cty.Value to its most natural Go
// counterpart. Whole numbers that fit an int become int, other numbers
// float64, so that HCL agrees with YAML and TOML on integer options.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nativeVal)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", keyStr, err)
			}
			goMap[keyStr] = nativeVal
		}
		return goMap, nil

	default:
		return nil, fmt.Errorf("unsupported cty type: %s", ty.FriendlyName())
	}
}

// DecodeBody decodes an HCL file into a gohcl-tagged struct. It is used for
// small fixed-shape files such as module manifests.
func DecodeBody(filename string, src []byte, target any) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	if diags := gohcl.DecodeBody(file.Body, nil, target); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	return nil
}
