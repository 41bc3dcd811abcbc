package commands

// Int returns an integer option.
func (i Invocation) Int(name string) (int, bool) {
	switch v := i.Options[name].(type) {
	case int64:
		return int(v), true
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// IntOr returns an integer option or def when it is absent.
func (i Invocation) IntOr(name string, def int) int {
	if v, ok := i.Int(name); ok {
		return v
	}
	return def
}

// String returns a string option.
func (i Invocation) String(name string) (string, bool) {
	v, ok := i.Options[name].(string)
	return v, ok
}

// Bool returns a boolean option, false when absent.
func (i Invocation) Bool(name string) bool {
	v, _ := i.Options[name].(bool)
	return v
}
