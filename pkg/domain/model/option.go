package model

import (
	"fmt"
	"reflect"
)

// Option is one allowed choice of a select or multiSelect field
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var (
	optionValueKeys = []string{"value", "codigo", "id"}
	optionLabelKeys = []string{"label", "nombre"}
)

// NormalizeOptions canonicalizes raw option entries into value/label pairs.
// Primitive entries are used as both value and label. Object entries resolve
// their value from "value", "codigo" or "id" and their label from "label" or
// "nombre", falling back to the value. Entries that resolve no value are
// dropped.
func NormalizeOptions(raw []any) []Option {
	options := make([]Option, 0, len(raw))
	for _, entry := range raw {
		if opt, ok := normalizeOption(entry); ok {
			options = append(options, opt)
		}
	}
	return options
}

func normalizeOption(entry any) (Option, bool) {
	switch val := entry.(type) {
	case nil:
		return Option{}, false
	case Option:
		return completeOption(val.Value, val.Label)
	case *Option:
		if val == nil {
			return Option{}, false
		}
		return completeOption(val.Value, val.Label)
	case map[string]any:
		return optionFromLookup(func(key string) (any, bool) {
			v, ok := val[key]
			return v, ok
		})
	case map[string]string:
		return optionFromLookup(func(key string) (any, bool) {
			v, ok := val[key]
			return v, ok
		})
	case map[any]any:
		return optionFromLookup(func(key string) (any, bool) {
			v, ok := val[key]
			return v, ok
		})
	}

	switch reflect.ValueOf(entry).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct, reflect.Pointer, reflect.Func, reflect.Chan:
		return Option{}, false
	}

	value := stringify(entry)
	return completeOption(value, value)
}

func optionFromLookup(lookup func(key string) (any, bool)) (Option, bool) {
	value, ok := firstResolved(lookup, optionValueKeys)
	if !ok {
		return Option{}, false
	}
	label, _ := firstResolved(lookup, optionLabelKeys)
	return completeOption(value, label)
}

func firstResolved(lookup func(key string) (any, bool), keys []string) (string, bool) {
	for _, key := range keys {
		v, ok := lookup(key)
		if !ok || v == nil {
			continue
		}
		switch v.(type) {
		case map[string]any, []any:
			continue
		}
		return stringify(v), true
	}
	return "", false
}

func completeOption(value, label string) (Option, bool) {
	if value == "" {
		return Option{}, false
	}
	if label == "" {
		label = value
	}
	return Option{Value: value, Label: label}, true
}

// optionValues returns the set of normalized option values
func optionValues(raw []any) map[string]struct{} {
	options := NormalizeOptions(raw)
	values := make(map[string]struct{}, len(options))
	for _, opt := range options {
		values[opt.Value] = struct{}{}
	}
	return values
}

// String implements fmt.Stringer
func (o Option) String() string {
	return fmt.Sprintf("%s (%s)", o.Label, o.Value)
}
