package model

import "github.com/secmon-lab/dynattr/pkg/domain/types"

// BuildPayload converts accepted values into the canonical attribute payload.
// Only active fields are considered. Empty values are omitted, except for
// boolean fields which are always stored. It returns nil, not an empty map,
// when no attribute remains.
//
// BuildPayload does not validate; run Validate first. Feeding its output back
// as values yields the same payload.
func BuildPayload(fields []FieldDefinition, values AttributeValues) Payload {
	payload := make(Payload)

	for i := range fields {
		fd := &fields[i]
		if !fd.Active {
			continue
		}

		name := string(fd.Name)
		raw := values[name]
		if fd.Type != types.FieldTypeBoolean && IsEmpty(raw) {
			continue
		}

		if v, ok := specOf(fd.Type).coerce(fd, raw); ok {
			payload[name] = v
		}
	}

	if len(payload) == 0 {
		return nil
	}
	return payload
}

// PreserveInactive copies stored values of inactive fields into payload, so
// soft-deleted attributes survive a resubmission of the entity. payload is not
// modified; a new map is returned when anything is carried over.
func PreserveInactive(fields []FieldDefinition, payload, stored Payload) Payload {
	if len(stored) == 0 {
		return payload
	}

	var merged Payload
	for i := range fields {
		fd := &fields[i]
		if fd.Active {
			continue
		}
		name := string(fd.Name)
		v, ok := stored[name]
		if !ok {
			continue
		}
		if merged == nil {
			merged = make(Payload, len(payload)+1)
			for k, pv := range payload {
				merged[k] = pv
			}
		}
		merged[name] = cloneValue(v)
	}

	if merged == nil {
		return payload
	}
	return merged
}

// Values returns the payload as an editable value map
func (p Payload) Values() AttributeValues {
	if p == nil {
		return nil
	}
	values := make(AttributeValues, len(p))
	for k, v := range p {
		values[k] = cloneValue(v)
	}
	return values
}
