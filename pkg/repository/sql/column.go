package sql

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
)

// jsonColumn stores any JSON encodable value in a text column. A nil value
// is stored as NULL.
type jsonColumn[T any] struct {
	Data T
	Null bool
}

func newJSONColumn[T any](data T, null bool) jsonColumn[T] {
	return jsonColumn[T]{Data: data, Null: null}
}

func (c jsonColumn[T]) Value() (driver.Value, error) {
	if c.Null {
		return nil, nil
	}
	raw, err := json.Marshal(c.Data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode JSON column")
	}
	return string(raw), nil
}

func (c *jsonColumn[T]) Scan(src any) error {
	var data []byte

	switch val := src.(type) {
	case string:
		data = []byte(val)
	case []byte:
		data = val
	case nil:
		var zero T
		c.Data = zero
		c.Null = true
		return nil
	default:
		return goerr.New("invalid type for JSON column", goerr.V("type", val))
	}

	c.Null = false
	if err := json.Unmarshal(data, &c.Data); err != nil {
		return goerr.Wrap(err, "failed to decode JSON column")
	}
	return nil
}

type (
	anyColumn         = jsonColumn[any]
	optionsColumn     = jsonColumn[[]any]
	rulesColumn       = jsonColumn[*model.ValidationRules]
	fieldConfigColumn = jsonColumn[[]model.FieldConfig]
)
