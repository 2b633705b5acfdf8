package model

// ApplyDefaults fills declared default values for fields whose name is absent
// from current. Keys already present are never overwritten, whatever their
// value. When nothing is applied the very same map is returned so callers can
// detect a no-op; otherwise a new map is returned and current is untouched.
func ApplyDefaults(fields []FieldDefinition, current AttributeValues) AttributeValues {
	var applied AttributeValues

	for i := range fields {
		fd := &fields[i]
		if fd.DefaultValue == nil {
			continue
		}
		name := string(fd.Name)
		if _, present := current[name]; present {
			continue
		}
		if applied == nil {
			applied = make(AttributeValues, len(current)+1)
			for k, v := range current {
				applied[k] = v
			}
		}
		if _, present := applied[name]; present {
			continue
		}
		applied[name] = cloneValue(fd.DefaultValue)
	}

	if applied == nil {
		return current
	}
	return applied
}

// ApplyGroupDefaults is ApplyDefaults over every field of every group
func ApplyGroupDefaults(groups []Group, current AttributeValues) AttributeValues {
	var fields []FieldDefinition
	for _, g := range groups {
		fields = append(fields, g.Fields...)
	}
	return ApplyDefaults(fields, current)
}
