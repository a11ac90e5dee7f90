// pkg/rpa/actions_variable.go
package rpa

import (
	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
)

func registerVariableActions(r *Registry) {
	r.Register("var_set", schemas.ActionMetadata{
		Name:        "Set Variable",
		Description: "Store a value in an execution variable",
		Category:    "variable",
		Params: []schemas.ActionParam{
			{Key: "name", Type: "string"},
			{Key: "value", Type: "any"},
		},
		OutputType: "any",
	}, varSet)

	r.Register("var_get", schemas.ActionMetadata{
		Name:        "Get Variable",
		Description: "Read an execution variable",
		Category:    "variable",
		Params: []schemas.ActionParam{
			{Key: "name", Type: "string"},
			{Key: "default", Type: "any"},
		},
		OutputType: "any",
	}, varGet)
}

// varSet resolves "${ref}" values before storing, so one variable can be
// aliased to another. The stored value is also returned, which lets an
// output_var on the node capture it under a second name.
func varSet(c *Context, params map[string]any) (any, error) {
	name, err := requiredStringParam(params, "name")
	if err != nil {
		return nil, err
	}
	value := c.Resolve(params["value"])
	c.SetVar(name, value)
	return value, nil
}

func varGet(c *Context, params map[string]any) (any, error) {
	name, err := requiredStringParam(params, "name")
	if err != nil {
		return nil, err
	}
	return c.GetVar(name, params["default"]), nil
}
