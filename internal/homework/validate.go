package homework

import (
	"encoding/json"
	"math"
)

// Payload keys of the status API.
const (
	keyHomeworks   = "homeworks"
	keyCurrentDate = "current_date"
	keyName        = "homework_name"
	keyStatus      = "status"
)

// WorkItem is one decoded element of the homeworks list.
// It stays untyped until Parse checks it.
type WorkItem = any

// Validate checks the shape of a decoded payload and returns its work items,
// newest first. The checks run in a fixed order so every failure is distinct:
// not a mapping, missing homeworks, homeworks not a list, empty list.
func Validate(raw any) ([]WorkItem, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ShapeError("not a mapping")
	}
	v, ok := m[keyHomeworks]
	if !ok {
		return nil, ShapeError("missing homeworks")
	}
	items, ok := v.([]any)
	if !ok {
		return nil, ShapeError("homeworks not a list")
	}
	if len(items) == 0 {
		return nil, EmptyError("no homeworks")
	}
	return items, nil
}

// ReportedTime returns the server's current_date from a payload, if present
// and integral.
func ReportedTime(raw any) (int64, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return 0, false
	}
	switch v := m[keyCurrentDate].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
