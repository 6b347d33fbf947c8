package lua

import (
	"fmt"

	glua "github.com/yuin/gopher-lua"
)

// toLua converts a JSON-shaped Go value (the output of encoding/json into
// map[string]any) to its Lua equivalent.
func toLua(L *glua.LState, v any) glua.LValue {
	switch val := v.(type) {
	case nil:
		return glua.LNil
	case bool:
		return glua.LBool(val)
	case float64:
		return glua.LNumber(val)
	case int:
		return glua.LNumber(val)
	case int64:
		return glua.LNumber(val)
	case string:
		return glua.LString(val)
	case []any:
		tbl := L.NewTable()
		for _, item := range val {
			tbl.Append(toLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, toLua(L, item))
		}
		return tbl
	default:
		// Anything non-JSON-shaped degrades to its string form rather than
		// aborting the invocation.
		return glua.LString(fmt.Sprint(val))
	}
}

// fromLua converts a Lua value back to a JSON-shaped Go value.
// Tables with sequential numeric keys become []any; everything else becomes
// map[string]any with stringified keys.
func fromLua(v glua.LValue) any {
	switch val := v.(type) {
	case *glua.LNilType:
		return nil
	case glua.LBool:
		return bool(val)
	case glua.LNumber:
		return float64(val)
	case glua.LString:
		return string(val)
	case *glua.LTable:
		return tableToGo(val)
	default:
		return val.String()
	}
}

func tableToGo(tbl *glua.LTable) any {
	if n := tbl.MaxN(); n > 0 {
		arr := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			arr = append(arr, fromLua(tbl.RawGetInt(i)))
		}
		return arr
	}

	obj := make(map[string]any)
	tbl.ForEach(func(key, value glua.LValue) {
		obj[key.String()] = fromLua(value)
	})
	return obj
}
