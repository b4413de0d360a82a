package util

import (
	"strconv"
)

// ToInt64 converts a Redis Lua reply element to int64.
// Lua numbers arrive as int64; strings appear when a script returns them
// verbatim.
func ToInt64(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case float64:
		return int64(x)
	case uint64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	default:
		return 0
	}
}
