package executor

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/dag"
	"github.com/vk/matchgridgo/internal/nodeid"
	"github.com/vk/matchgridgo/internal/registry"
)

// buildDepsStruct populates the `deps` struct for a step handler by resolving
// each tagged field against the step's `uses` block and injecting the live
// resource instance.
func (e *Executor) buildDepsStruct(ctx context.Context, node *dag.Node, handler *registry.RegisteredRunner) (any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building dependency struct.", "step", node.ID)

	if handler.NewDeps == nil {
		return nil, nil
	}
	depsStruct := handler.NewDeps()
	if depsStruct == nil {
		return nil, nil
	}

	if len(node.StepConfig.Uses) == 0 {
		logger.Debug("Step has no 'uses' block, returning empty deps.", "step", node.ID)
		return depsStruct, nil
	}

	usesMap := node.StepConfig.Uses
	depsValue := reflect.ValueOf(depsStruct).Elem()
	depsType := depsValue.Type()

	for i := 0; i < depsValue.NumField(); i++ {
		field := depsType.Field(i)
		fieldLogger := logger.With("step", node.ID, "go_field", field.Name)

		tag := field.Tag.Get("mggo")
		if tag == "" || tag == "-" {
			fieldLogger.Debug("Dependency field has no 'mggo' tag, skipping.")
			continue
		}

		lookupKey := strings.Split(tag, ",")[0]
		resourceExpr, ok := usesMap[lookupKey]
		if !ok {
			fieldLogger.Debug("No matching entry in 'uses' block for key, skipping.", "key", lookupKey)
			continue
		}

		vars := resourceExpr.Variables()
		if len(vars) != 1 {
			return nil, fmt.Errorf("field '%s' in 'uses' must be a direct reference to one resource", lookupKey)
		}
		resourceID, err := traversableToID(vars[0])
		if err != nil {
			return nil, err
		}
		fieldLogger.Debug("Resolved resource dependency.", "resource_id", resourceID)

		instance, found := e.resourceInstances.Load(resourceID)
		if !found {
			return nil, fmt.Errorf("step '%s' requires resource '%s', which has not been created", node.ID, resourceID)
		}

		instanceType := reflect.TypeOf(instance)
		fieldType := field.Type

		if fieldType.Kind() == reflect.Interface {
			if !instanceType.Implements(fieldType) {
				err := fmt.Errorf("type mismatch for '%s': resource of type %v does not implement required interface %v", lookupKey, instanceType, fieldType)
				fieldLogger.Error("Dependency injection failed.", "error", err)
				return nil, err
			}
		} else if !instanceType.AssignableTo(fieldType) {
			err := fmt.Errorf("type mismatch for '%s': resource of type %v is not assignable to field of type %v", lookupKey, instanceType, fieldType)
			fieldLogger.Error("Dependency injection failed.", "error", err)
			return nil, err
		}

		fieldLogger.Debug("Injecting resource dependency.")
		depsValue.Field(i).Set(reflect.ValueOf(instance))
	}

	logger.Debug("Successfully built dependency struct.", "step", node.ID)
	return depsStruct, nil
}

// traversableToID converts an HCL traversal for a resource into its canonical string ID.
func traversableToID(v hcl.Traversal) (string, error) {
	if len(v) < 3 {
		return "", fmt.Errorf("invalid resource traversal")
	}
	if v.RootName() != "resource" {
		return "", fmt.Errorf("expected a 'resource' traversal, got '%s'", v.RootName())
	}
	typeAttr, typeOk := v[1].(hcl.TraverseAttr)
	nameAttr, nameOk := v[2].(hcl.TraverseAttr)
	if !typeOk || !nameOk {
		return "", fmt.Errorf("invalid resource traversal")
	}
	return nodeid.ResourceAddr(typeAttr.Name, nameAttr.Name).String(), nil
}
