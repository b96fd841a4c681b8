package dag

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/nodeid"
	"github.com/vk/matchgridgo/internal/registry"
)

// linkNodes performs the second pass, establishing dependency links from both
// explicit `depends_on` entries and variable references inside expressions.
func linkNodes(ctx context.Context, graph *Graph, r *registry.Registry) error {
	for _, node := range graph.Nodes {
		var dependsOn []string
		var expressions []hcl.Expression

		if node.Type == StepNode {
			dependsOn = node.StepConfig.DependsOn
			for _, expr := range node.StepConfig.Arguments {
				expressions = append(expressions, expr)
			}
			for _, expr := range node.StepConfig.Uses {
				expressions = append(expressions, expr)
			}
			// count and timeout are evaluated at run time, so anything they
			// reference must be finished first.
			if node.StepConfig.Count != nil {
				expressions = append(expressions, node.StepConfig.Count)
			}
			if node.StepConfig.Timeout != nil {
				expressions = append(expressions, node.StepConfig.Timeout)
			}
		} else { // ResourceNode
			dependsOn = node.ResourceConfig.DependsOn
			for _, expr := range node.ResourceConfig.Arguments {
				expressions = append(expressions, expr)
			}
			if node.ResourceConfig.Timeout != nil {
				expressions = append(expressions, node.ResourceConfig.Timeout)
			}
		}

		if err := linkExplicitDeps(ctx, node, dependsOn, graph); err != nil {
			return err
		}
		for _, expr := range expressions {
			if err := linkImplicitDeps(ctx, node, expr, graph, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// linkExplicitDeps resolves dependencies from a `depends_on` list. Addresses
// are written without the node-kind prefix, so both kinds are probed.
func linkExplicitDeps(ctx context.Context, node *Node, dependsOn []string, graph *Graph) error {
	logger := ctxlog.FromContext(ctx)
	for _, depAddr := range dependsOn {
		var depNode *Node
		var found bool
		if typeName, name, ok := nodeid.SplitRef(depAddr); ok {
			if depNode, found = graph.Nodes[nodeid.StepAddr(typeName, name).String()]; !found {
				depNode, found = graph.Nodes[nodeid.ResourceAddr(typeName, name).String()]
			}
		}
		if !found {
			return fmt.Errorf("node '%s' depends on non-existent identifier '%s'", node.ID, depAddr)
		}

		if depNode.ID == node.ID {
			return fmt.Errorf("node '%s' cannot depend on itself", node.ID)
		}

		if _, exists := node.Deps[depNode.ID]; !exists {
			logger.Debug("Linking explicit dependency.", "from", node.ID, "to", depNode.ID)
			node.Deps[depNode.ID] = depNode
			depNode.Dependents[node.ID] = node
		}
	}
	return nil
}

// linkImplicitDeps parses an expression for variable traversals to create
// dependency links.
func linkImplicitDeps(ctx context.Context, node *Node, expr hcl.Expression, graph *Graph, r *registry.Registry) error {
	logger := ctxlog.FromContext(ctx)
	for _, traversal := range expr.Variables() {
		if len(traversal) < 3 {
			continue
		}
		rootName := traversal.RootName()
		if rootName != "step" && rootName != "resource" {
			continue
		}
		typeAttr, typeOk := traversal[1].(hcl.TraverseAttr)
		nameAttr, nameOk := traversal[2].(hcl.TraverseAttr)
		if !typeOk || !nameOk {
			continue
		}
		depID := nodeid.Address{Kind: nodeid.Kind(rootName), Type: typeAttr.Name, Name: nameAttr.Name}.String()
		depNode, ok := graph.Nodes[depID]
		if !ok {
			return fmt.Errorf("node '%s' references non-existent %s '%s.%s'",
				node.ID, rootName, typeAttr.Name, nameAttr.Name)
		}
		if depID == node.ID {
			return fmt.Errorf("node '%s' cannot reference itself", node.ID)
		}

		// If referencing an output, validate it exists in the manifest.
		if len(traversal) > 3 {
			if outputAttr, isOutput := traversal[3].(hcl.TraverseAttr); isOutput && outputAttr.Name == "output" {
				if err := validateOutputReference(traversal, depNode, r); err != nil {
					return err
				}
			}
		}

		if _, exists := node.Deps[depID]; !exists {
			logger.Debug("Linking implicit dependency.", "from", node.ID, "to", depID, "traversal", formatTraversal(traversal))
			node.Deps[depID] = depNode
			depNode.Dependents[node.ID] = node
		}
	}
	return nil
}

// validateOutputReference checks that a `step.<type>.<name>.output.<attr>`
// reference names an output the runner's manifest actually declares. Indexed
// accesses into instanced outputs are left to runtime evaluation.
func validateOutputReference(traversal hcl.Traversal, depNode *Node, r *registry.Registry) error {
	if depNode.Type != StepNode || len(traversal) < 5 {
		return nil
	}

	outputNameAttr, ok := traversal[4].(hcl.TraverseAttr)
	if !ok {
		return nil
	}
	outputName := outputNameAttr.Name

	runnerDef, ok := r.RunnerDefs[depNode.StepConfig.RunnerType]
	if !ok {
		return fmt.Errorf("internal error: could not find definition for runner type %s", depNode.StepConfig.RunnerType)
	}

	if _, ok := runnerDef.Outputs[outputName]; ok {
		return nil
	}

	return fmt.Errorf("reference to undeclared output %q on step %q", outputName, depNode.ID)
}
