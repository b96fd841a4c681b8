package hcl

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/matchgridgo/internal/config"
	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeBody evaluates HCL expressions, applies manifest defaults, and
// populates the provided Go struct using reflection. Arguments are converted
// to their manifest-declared type before decoding so a grid author gets a
// type error naming the argument, not a reflection panic.
func (c *Converter) DecodeBody(
	ctx context.Context,
	inputStruct any,
	args map[string]hcl.Expression,
	defs map[string]*config.InputDefinition,
	evalCtx *hcl.EvalContext,
) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting HCL body decoding.")

	structVal := reflect.ValueOf(inputStruct)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("inputStruct must be a non-nil pointer")
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		lookupName := field.Name
		if tag := field.Tag.Get("mggo"); tag != "" {
			lookupName = strings.Split(tag, ",")[0]
		}

		inputDef, defExists := defs[lookupName]
		if !defExists {
			continue
		}

		targetPtr := fieldVal.Addr().Interface()
		argExpr, argProvided := args[lookupName]

		if argProvided {
			val, diags := argExpr.Value(evalCtx)
			if diags.HasErrors() {
				return fmt.Errorf("failed to evaluate argument %q: %w", lookupName, diags)
			}
			if inputDef.Type != cty.NilType && inputDef.Type != cty.DynamicPseudoType {
				converted, err := convert.Convert(val, inputDef.Type)
				if err != nil {
					return fmt.Errorf("failed to decode argument '%s': %w", lookupName, describeCtyError(err))
				}
				val = converted
			}
			if err := c.decode(ctx, val, targetPtr); err != nil {
				return fmt.Errorf("failed to decode argument %q: %w", lookupName, err)
			}
			continue
		}

		if inputDef.Default == nil && !inputDef.Optional {
			return fmt.Errorf("missing required argument %q", lookupName)
		}
		if inputDef.Default != nil {
			if err := c.decode(ctx, *inputDef.Default, targetPtr); err != nil {
				return fmt.Errorf("failed to apply default for %q: %w", lookupName, err)
			}
		}
	}
	logger.Debug("Finished HCL body decoding successfully.")
	return nil
}

// describeCtyError rebuilds the attribute path a cty conversion error carries
// so the message names the exact nested value that was wrong. cty keeps the
// path out of Error() by default.
func describeCtyError(err error) error {
	var pathErr cty.PathError
	if !errors.As(err, &pathErr) || len(pathErr.Path) == 0 {
		return err
	}
	msg := pathErr.Error()
	for i := len(pathErr.Path) - 1; i >= 0; i-- {
		switch step := pathErr.Path[i].(type) {
		case cty.GetAttrStep:
			msg = fmt.Sprintf("in attribute '%s': %s", step.Name, msg)
		case cty.IndexStep:
			if step.Key.Type() == cty.String {
				msg = fmt.Sprintf("in key '%s': %s", step.Key.AsString(), msg)
			} else {
				idx, _ := step.Key.AsBigFloat().Int64()
				msg = fmt.Sprintf("in element %d: %s", idx, msg)
			}
		}
	}
	return errors.New(msg)
}

// ctyValueType is used to spot struct fields that want the raw cty.Value.
var ctyValueType = reflect.TypeOf(cty.Value{})

// decode converts a single cty.Value into the Go value behind the pointer.
// Composite targets recurse; everything else funnels through gocty.
func (c *Converter) decode(ctx context.Context, val cty.Value, goVal any) error {
	valPtr := reflect.ValueOf(goVal)
	if valPtr.Kind() != reflect.Ptr {
		return fmt.Errorf("target for decoding must be a pointer, got %T", goVal)
	}
	target := valPtr.Elem()

	// cty.Value targets receive the evaluated value verbatim, nulls included.
	if target.Type() == ctyValueType {
		target.Set(reflect.ValueOf(val))
		return nil
	}

	if val.IsNull() {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	switch target.Kind() {
	case reflect.Interface:
		native, err := ctyToNative(val)
		if err != nil {
			return err
		}
		if native == nil {
			target.Set(reflect.Zero(target.Type()))
			return nil
		}
		target.Set(reflect.ValueOf(native))
		return nil

	case reflect.Struct:
		return c.decodeStruct(ctx, val, target)

	case reflect.Map:
		return c.decodeMap(ctx, val, target)

	case reflect.Slice:
		if !val.CanIterateElements() {
			return fmt.Errorf("cannot decode %s into slice", val.Type().FriendlyName())
		}
		out := reflect.MakeSlice(target.Type(), 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			elemPtr := reflect.New(target.Type().Elem())
			if err := c.decode(ctx, elem, elemPtr.Interface()); err != nil {
				return err
			}
			out = reflect.Append(out, elemPtr.Elem())
		}
		target.Set(out)
		return nil

	default:
		return c.decodePrimitive(ctx, val, goVal)
	}
}

// decodeStruct maps object attributes onto struct fields by their mggo tag,
// falling back to the cty tag so handler output structs round-trip into
// downstream inputs.
func (c *Converter) decodeStruct(ctx context.Context, val cty.Value, target reflect.Value) error {
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return fmt.Errorf("cannot decode %s into struct %s", val.Type().FriendlyName(), target.Type())
	}

	attrs := make(map[string]cty.Value)
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		attrs[k.AsString()] = v
	}

	structType := target.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !target.Field(i).CanSet() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("mggo"); tag != "" {
			name = strings.Split(tag, ",")[0]
		} else if tag := field.Tag.Get("cty"); tag != "" {
			name = strings.Split(tag, ",")[0]
		}
		attrVal, ok := attrs[name]
		if !ok {
			continue
		}
		if err := c.decode(ctx, attrVal, target.Field(i).Addr().Interface()); err != nil {
			return fmt.Errorf("in attribute '%s': %w", name, err)
		}
	}
	return nil
}

// decodeMap fills a string-keyed Go map from a cty map or object value.
func (c *Converter) decodeMap(ctx context.Context, val cty.Value, target reflect.Value) error {
	if !val.CanIterateElements() {
		return fmt.Errorf("cannot decode %s into map", val.Type().FriendlyName())
	}
	mapType := target.Type()
	if mapType.Key().Kind() != reflect.String {
		return fmt.Errorf("map targets must be keyed by string, got %s", mapType.Key())
	}

	out := reflect.MakeMapWithSize(mapType, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		elemPtr := reflect.New(mapType.Elem())
		if err := c.decode(ctx, v, elemPtr.Interface()); err != nil {
			return fmt.Errorf("key %q: %w", k.AsString(), err)
		}
		out.SetMapIndex(reflect.ValueOf(k.AsString()), elemPtr.Elem())
	}
	target.Set(out)
	return nil
}

// decodePrimitive handles scalars, converting the value to the Go type's
// implied cty.Type first so `42` decodes into both int and float64 fields.
func (c *Converter) decodePrimitive(ctx context.Context, val cty.Value, goVal any) error {
	logger := ctxlog.FromContext(ctx)
	valPtr := reflect.ValueOf(goVal)

	impliedType, err := gocty.ImpliedType(valPtr.Elem().Interface())
	if err != nil {
		logger.Debug("Could not imply cty.Type from Go type, attempting direct decoding.",
			"go_type", valPtr.Elem().Type().String(), "error", err)
		return gocty.FromCtyValue(val, goVal)
	}

	convertedVal, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w",
			val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}

	if !val.Type().Equals(convertedVal.Type()) {
		logger.Debug("Implicitly converted value type.",
			"from", val.Type().FriendlyName(),
			"to", convertedVal.Type().FriendlyName(),
		)
	}

	return gocty.FromCtyValue(convertedVal, goVal)
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
// Pointers are dereferenced first since handlers return pointers to their
// output structs.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, nil
	}
	if cv, ok := v.(cty.Value); ok {
		return cv, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return cty.NilVal, nil
		}
		rv = rv.Elem()
	}
	native := rv.Interface()

	ty, err := gocty.ImpliedType(native)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(native, ty)
}

// ctyToNative lowers a cty.Value to plain Go values for `any` targets.
// Numbers always come back as float64, mirroring encoding/json.
func ctyToNative(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	t := val.Type()
	switch {
	case t == cty.String:
		return val.AsString(), nil
	case t == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case t == cty.Bool:
		return val.True(), nil
	case t.IsListType() || t.IsTupleType() || t.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	case t.IsMapType() || t.IsObjectType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = native
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type for native conversion: %s", t.FriendlyName())
}
