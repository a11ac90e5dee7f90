// pkg/rpa/actions_keyboard.go
package rpa

import (
	"time"

	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
)

func registerKeyboardActions(r *Registry) {
	r.Register("keyboard_type", schemas.ActionMetadata{
		Name:        "Type Text",
		Description: "Type text into the focused element",
		Category:    "keyboard",
		Params: []schemas.ActionParam{
			{Key: "text", Type: "string"},
			{Key: "delay", Type: "int", Value: 0},
		},
	}, keyboardType)

	r.Register("keyboard_press", schemas.ActionMetadata{
		Name:        "Press Key",
		Description: "Press a named key, e.g. Enter or Tab",
		Category:    "keyboard",
		Params: []schemas.ActionParam{
			{Key: "key", Type: "string"},
		},
	}, keyboardPress)

	r.Register("mouse_click", schemas.ActionMetadata{
		Name:        "Mouse Click",
		Description: "Click at viewport coordinates",
		Category:    "mouse",
		Params: []schemas.ActionParam{
			{Key: "x", Type: "float"},
			{Key: "y", Type: "float"},
		},
	}, mouseClick)

	r.Register("mouse_move", schemas.ActionMetadata{
		Name:        "Mouse Move",
		Description: "Move the pointer to viewport coordinates",
		Category:    "mouse",
		Params: []schemas.ActionParam{
			{Key: "x", Type: "float"},
			{Key: "y", Type: "float"},
		},
	}, mouseMove)
}

func keyboardType(c *Context, params map[string]any) (any, error) {
	d, err := c.Driver()
	if err != nil {
		return nil, err
	}
	text, err := requiredStringParam(params, "text")
	if err != nil {
		return nil, err
	}
	delay := time.Duration(intParam(params, "delay", 0)) * time.Millisecond
	return nil, d.TypeText(text, delay)
}

func keyboardPress(c *Context, params map[string]any) (any, error) {
	d, err := c.Driver()
	if err != nil {
		return nil, err
	}
	key, err := requiredStringParam(params, "key")
	if err != nil {
		return nil, err
	}
	return nil, d.Press(key)
}

func mouseClick(c *Context, params map[string]any) (any, error) {
	d, err := c.Driver()
	if err != nil {
		return nil, err
	}
	return nil, d.ClickAt(floatParam(params, "x", 0), floatParam(params, "y", 0))
}

func mouseMove(c *Context, params map[string]any) (any, error) {
	d, err := c.Driver()
	if err != nil {
		return nil, err
	}
	return nil, d.MoveMouse(floatParam(params, "x", 0), floatParam(params, "y", 0))
}
