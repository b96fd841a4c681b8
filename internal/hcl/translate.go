package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/vk/matchgridgo/internal/config"
	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// isExprDefined reports whether an optional expression attribute was actually
// written in the source file. gohcl fills absent expression fields with a
// synthetic null whose source range is zero-width, which is the only signal
// we get back from the decoder.
func isExprDefined(ctx context.Context, expr hcl.Expression, name string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	if r.Start == r.End {
		ctxlog.FromContext(ctx).Debug("Optional attribute not set.", "attribute", name)
		return false
	}
	return true
}

// extractBodyAttributes flattens an HCL body into a map of raw expressions,
// keeping evaluation lazy until the executor has a real evaluation context.
func extractBodyAttributes(body hcl.Body) map[string]hcl.Expression {
	attributes := make(map[string]hcl.Expression)
	if body == nil {
		return attributes
	}
	attrs, _ := body.JustAttributes()
	for name, attr := range attrs {
		attributes[name] = attr.Expr
	}
	return attributes
}

// translateStep converts the HCL-specific step schema into the agnostic model.
func (l *Loader) translateStep(ctx context.Context, s *schema.Step) *config.Step {
	step := &config.Step{
		RunnerType: s.RunnerType,
		Name:       s.Name,
		Arguments:  make(map[string]hcl.Expression),
		Uses:       make(map[string]hcl.Expression),
		DependsOn:  s.DependsOn,
		Instancing: config.ModeSingular,
	}
	if s.Arguments != nil {
		step.Arguments = extractBodyAttributes(s.Arguments.Body)
	}
	if s.Uses != nil {
		step.Uses = extractBodyAttributes(s.Uses.Body)
	}
	if isExprDefined(ctx, s.Count, "count") {
		step.Count = s.Count
		step.Instancing = config.ModeInstanced
	}
	if isExprDefined(ctx, s.Timeout, "timeout") {
		step.Timeout = s.Timeout
	}
	return step
}

// translateResource converts the HCL-specific resource schema into the agnostic model.
func (l *Loader) translateResource(ctx context.Context, r *schema.Resource) *config.Resource {
	resource := &config.Resource{
		AssetType: r.AssetType,
		Name:      r.Name,
		Arguments: make(map[string]hcl.Expression),
		DependsOn: r.DependsOn,
	}
	if r.Arguments != nil {
		resource.Arguments = extractBodyAttributes(r.Arguments.Body)
	}
	if isExprDefined(ctx, r.Timeout, "timeout") {
		resource.Timeout = r.Timeout
	}
	return resource
}

// translateRunnerDefinition converts the HCL-specific runner schema into the agnostic model.
func (l *Loader) translateRunnerDefinition(ctx context.Context, s *schema.RunnerDefinition) (*config.RunnerDefinition, error) {
	def := &config.RunnerDefinition{
		Type:        s.Type,
		Description: s.Description,
		Inputs:      make(map[string]*config.InputDefinition),
		Outputs:     make(map[string]*config.OutputDefinition),
		Uses:        make(map[string]*config.UsesDefinition),
	}
	if s.Lifecycle != nil {
		def.Lifecycle = &config.Lifecycle{OnRun: s.Lifecycle.OnRun}
	}
	for _, in := range s.Inputs {
		translated, err := l.translateInputDefinition(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("runner %q: %w", s.Type, err)
		}
		def.Inputs[translated.Name] = translated
	}
	for _, out := range s.Outputs {
		ty, err := l.translateTypeExpr(ctx, out.Type)
		if err != nil {
			return nil, fmt.Errorf("runner %q, output %q: %w", s.Type, out.Name, err)
		}
		def.Outputs[out.Name] = &config.OutputDefinition{
			Name:        out.Name,
			Type:        ty,
			Description: out.Description,
		}
	}
	for _, use := range s.Uses {
		def.Uses[use.LocalName] = &config.UsesDefinition{
			LocalName: use.LocalName,
			AssetType: use.AssetType,
		}
	}
	return def, nil
}

// translateAssetDefinition converts the HCL-specific asset schema into the agnostic model.
func (l *Loader) translateAssetDefinition(ctx context.Context, s *schema.AssetDefinition) (*config.AssetDefinition, error) {
	def := &config.AssetDefinition{
		Type:        s.Type,
		Description: s.Description,
		Inputs:      make(map[string]*config.InputDefinition),
		Outputs:     make(map[string]*config.OutputDefinition),
	}
	if s.Lifecycle != nil {
		def.Lifecycle = &config.AssetLifecycle{Create: s.Lifecycle.Create, Destroy: s.Lifecycle.Destroy}
	}
	for _, in := range s.Inputs {
		translated, err := l.translateInputDefinition(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("asset %q: %w", s.Type, err)
		}
		def.Inputs[translated.Name] = translated
	}
	for _, out := range s.Outputs {
		ty, err := l.translateTypeExpr(ctx, out.Type)
		if err != nil {
			return nil, fmt.Errorf("asset %q, output %q: %w", s.Type, out.Name, err)
		}
		def.Outputs[out.Name] = &config.OutputDefinition{
			Name:        out.Name,
			Type:        ty,
			Description: out.Description,
		}
	}
	return def, nil
}

// translateInputDefinition resolves an input's declared type and, when a
// default is present, pre-converts it to that type so validation failures
// surface at load time rather than mid-run.
func (l *Loader) translateInputDefinition(ctx context.Context, s *schema.InputDefinition) (*config.InputDefinition, error) {
	ty, err := l.translateTypeExpr(ctx, s.Type)
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", s.Name, err)
	}

	def := &config.InputDefinition{
		Name:        s.Name,
		Type:        ty,
		Description: s.Description,
	}

	if isExprDefined(ctx, s.Default, "default") {
		raw, diags := s.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("input %q: failed to evaluate default: %w", s.Name, diags)
		}
		converted, err := convert.Convert(raw, ty)
		if err != nil {
			return nil, fmt.Errorf("input %q: default does not match declared type: %w", s.Name, err)
		}
		def.Default = &converted
		def.Optional = true
	}

	return def, nil
}

// translateTypeExpr resolves a manifest type expression like `string` or
// `list(number)` into a concrete cty.Type. An absent expression means the
// manifest author accepts anything.
func (l *Loader) translateTypeExpr(ctx context.Context, expr hcl.Expression) (cty.Type, error) {
	if !isExprDefined(ctx, expr, "type") {
		return cty.DynamicPseudoType, nil
	}
	ty, diags := typeexpr.TypeConstraint(expr)
	if diags.HasErrors() {
		return cty.DynamicPseudoType, fmt.Errorf("invalid type expression: %w", diags)
	}
	return ty, nil
}
