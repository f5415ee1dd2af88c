// Package starlark runs Starlark scripts as eachof iterators.
//
// A script defines each(view, key). It is called once per entry, in the
// collection's order. Returning False skips the entry; any other value is
// collected as the entry's result. A Starlark error or fail() halts the
// iteration with a *ScriptError.
package starlark

import (
	"fmt"
	"sort"
	"time"

	"github.com/leapstack-labs/eachof/pkg/core"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// ItemToStarlark converts an item into the frozen "view" struct passed to
// each(). Fields: key, path, content, layout, tags, data.
func ItemToStarlark(item *core.Item) (starlark.Value, error) {
	if item == nil {
		return starlark.None, nil
	}

	data, err := GoToStarlark(item.Data)
	if err != nil {
		return nil, fmt.Errorf("view %q data: %w", item.Key, err)
	}
	if data == starlark.None {
		data = starlark.NewDict(0)
	}
	tags, _ := GoToStarlark(item.Tags)
	if tags == starlark.None {
		tags = starlark.NewList(nil)
	}

	v := starlarkstruct.FromStringDict(starlark.String("view"), starlark.StringDict{
		"key":     starlark.String(item.Key),
		"path":    starlark.String(item.Path),
		"content": starlark.String(item.Content),
		"layout":  starlark.String(item.Layout),
		"tags":    tags,
		"data":    data,
	})
	v.Freeze()
	return v, nil
}

// GoToStarlark converts a Go value to a Starlark value.
// Supported types: string, int, int64, uint64, float64, bool, time.Time,
// []string, []any, map[string]any. Map keys are inserted in sorted order.
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case uint64:
		return starlark.MakeUint64(val), nil
	case float64:
		return starlark.Float(val), nil
	case bool:
		return starlark.Bool(val), nil
	case time.Time:
		return starlark.String(val.Format(time.RFC3339)), nil

	case []string:
		if val == nil {
			return starlark.None, nil
		}
		list := make([]starlark.Value, len(val))
		for i, s := range val {
			list[i] = starlark.String(s)
		}
		return starlark.NewList(list), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case map[string]any:
		if val == nil {
			return starlark.None, nil
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		dict := starlark.NewDict(len(val))
		for _, k := range keys {
			sv, err := GoToStarlark(val[k])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts a Starlark value back to a Go value.
// Returns: string, int64, float64, bool, []any, map[string]any, or nil.
// Structs become maps of their fields.
func ToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case nil, starlark.NoneType:
		return nil, nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return val.String(), nil
		}
		return i64, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.Bool:
		return bool(val), nil

	case starlark.Indexable: // list, tuple
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	case *starlark.Dict:
		result := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			gv, err := ToGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", key, err)
			}
			result[string(key)] = gv
		}
		return result, nil

	case *starlarkstruct.Struct:
		fields := make(starlark.StringDict)
		val.ToStringDict(fields)
		result := make(map[string]any, len(fields))
		for name, field := range fields {
			gv, err := ToGo(field)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			result[name] = gv
		}
		return result, nil

	default:
		return val.String(), nil
	}
}
