package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vk/matchgridgo/internal/config"
	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValidateRegistry performs a strict parity check between manifests and Go
// code: every manifest input must have a matching Go struct field and vice
// versa, with compatible types. Manifests whose handlers are not registered
// in this process are skipped so partial registration (tests, trimmed-down
// builds) still validates.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string

	for runnerType, def := range r.RunnerDefs {
		if def.Lifecycle == nil || def.Lifecycle.OnRun == "" {
			errs = append(errs, fmt.Sprintf("runner '%s': manifest does not declare a lifecycle handler", runnerType))
			continue
		}
		handler, ok := r.Runners[def.Lifecycle.OnRun]
		if !ok {
			continue
		}
		errs = append(errs, r.validateInputParity(ctx, "runner", runnerType, handler.InputType, def.Inputs)...)
	}

	for assetType, def := range r.AssetDefs {
		if def.Lifecycle == nil || def.Lifecycle.Create == "" || def.Lifecycle.Destroy == "" {
			errs = append(errs, fmt.Sprintf("asset '%s': manifest must declare both create and destroy handlers", assetType))
			continue
		}
		handler, ok := r.AssetHandlers[def.Lifecycle.Create]
		if !ok {
			continue
		}
		errs = append(errs, r.validateInputParity(ctx, "asset", assetType, handler.InputType, def.Inputs)...)
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// validateInputParity compares one manifest input set against one Go input
// struct and returns every mismatch found.
func (r *Registry) validateInputParity(
	ctx context.Context,
	kind, typeName string,
	inputType reflect.Type,
	inputs map[string]*config.InputDefinition,
) []string {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	if inputType == nil {
		if len(inputs) > 0 {
			errs = append(errs, fmt.Sprintf("%s '%s': manifest declares inputs, but Go handler has no input struct", kind, typeName))
		}
		return errs
	}

	goInputs := make(map[string]reflect.StructField)
	for i := 0; i < inputType.NumField(); i++ {
		field := inputType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagName := strings.Split(field.Tag.Get("mggo"), ",")[0]
		if tagName != "" && tagName != "-" {
			goInputs[tagName] = field
		}
	}

	for name := range goInputs {
		if _, ok := inputs[name]; !ok {
			errs = append(errs, fmt.Sprintf("%s '%s': Go struct has field for input '%s' which is not declared in manifest", kind, typeName, name))
		}
	}
	for name := range inputs {
		if _, ok := goInputs[name]; !ok {
			errs = append(errs, fmt.Sprintf("%s '%s': manifest declares input '%s' which is not found in Go struct", kind, typeName, name))
		}
	}

	for name, inputDef := range inputs {
		goField, ok := goInputs[name]
		if !ok {
			continue
		}

		manifestType := inputDef.Type
		if manifestType.Equals(cty.DynamicPseudoType) {
			logger.Warn("Manifest input uses 'type = any', which disables static type checking.",
				kind, typeName, "input", name)
			continue
		}

		goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s '%s', input '%s': could not imply cty type from Go field type %s: %v", kind, typeName, name, goField.Type, err))
			continue
		}

		if !manifestType.Equals(goFieldType) {
			if manifestType.IsObjectType() && goFieldType.IsObjectType() && goField.Type.Kind() == reflect.Struct {
				errs = append(errs, validateObjectAttrs(kind, typeName, name, manifestType, goFieldType, goField.Type)...)
				continue
			}
			errs = append(errs, fmt.Sprintf("%s '%s', input '%s': type mismatch. Manifest requires '%s' but Go field '%s' implies '%s'",
				kind, typeName, name, manifestType.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
		}
	}

	return errs
}

// validateObjectAttrs drills into an object-typed input attribute by
// attribute, so a deep mismatch names the offending field instead of
// reporting two types that both print as 'object'.
func validateObjectAttrs(
	kind, typeName, inputName string,
	manifestType, goType cty.Type,
	goStruct reflect.Type,
) []string {
	var errs []string
	manifestAttrs := manifestType.AttributeTypes()
	goAttrs := goType.AttributeTypes()

	fieldNames := make(map[string]string)
	for i := 0; i < goStruct.NumField(); i++ {
		field := goStruct.Field(i)
		tagName := strings.Split(field.Tag.Get("cty"), ",")[0]
		if tagName != "" && tagName != "-" {
			fieldNames[tagName] = field.Name
		}
	}

	for attrName, manifestAttr := range manifestAttrs {
		goAttr, ok := goAttrs[attrName]
		if !ok {
			errs = append(errs, fmt.Sprintf("%s '%s', input '%s': manifest object declares attribute '%s' which is not found in Go struct",
				kind, typeName, inputName, attrName))
			continue
		}
		if !manifestAttr.Equals(goAttr) {
			errs = append(errs, fmt.Sprintf("%s '%s', input '%s': attribute '%s' type mismatch: manifest requires '%s', but Go struct field '%s' provides '%s'",
				kind, typeName, inputName, attrName, manifestAttr.FriendlyName(), fieldNames[attrName], goAttr.FriendlyName()))
		}
	}
	for attrName := range goAttrs {
		if _, ok := manifestAttrs[attrName]; !ok {
			errs = append(errs, fmt.Sprintf("%s '%s', input '%s': Go struct provides attribute '%s' which is not declared in manifest object",
				kind, typeName, inputName, attrName))
		}
	}
	return errs
}
