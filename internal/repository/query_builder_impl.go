package repository

import (
	"encoding/json"
	"fmt"
	"reflect"

	"equiphouse/internal/docstore"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// jsonbQueryBuilder turns document filters into conditions over a JSONB column.
type jsonbQueryBuilder struct {
	filters []docstore.Filter
}

func NewQueryBuilder(filters ...docstore.Filter) QueryBuilder {
	return &jsonbQueryBuilder{filters: filters}
}

func (q *jsonbQueryBuilder) BuildConditions(column string) ([]exp.Expression, error) {
	conditions := make([]exp.Expression, 0, len(q.filters))
	for _, f := range q.filters {
		condition, err := q.buildCondition(column, f)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, condition)
	}

	return conditions, nil
}

func (q *jsonbQueryBuilder) buildCondition(column string, f docstore.Filter) (exp.Expression, error) {
	switch f.Op {
	case docstore.OpEqual:
		// Containment keeps the JSON type of the value, so true never equals "true".
		payload, err := json.Marshal(map[string]any{f.Field: f.Value})
		if err != nil {
			return nil, fmt.Errorf("invalid filter value for %s: %w", f.Field, err)
		}
		return goqu.L(fmt.Sprintf("%s @> ?::jsonb", column), string(payload)), nil
	case docstore.OpIn:
		values := reflect.ValueOf(f.Value)
		if values.Kind() != reflect.Slice {
			return nil, fmt.Errorf("filter %s: in requires a list value", f.Field)
		}
		alternatives := make([]exp.Expression, 0, values.Len())
		for i := 0; i < values.Len(); i++ {
			alternative, err := q.buildCondition(column, docstore.Eq(f.Field, values.Index(i).Interface()))
			if err != nil {
				return nil, err
			}
			alternatives = append(alternatives, alternative)
		}
		if len(alternatives) == 0 {
			return goqu.L("FALSE"), nil
		}
		return goqu.Or(alternatives...), nil
	case docstore.OpGreaterOrEqual, docstore.OpLessOrEqual:
		field := goqu.L(fmt.Sprintf("(%s->>?)::numeric", column), f.Field)
		if _, ok := f.Value.(string); ok {
			field = goqu.L(fmt.Sprintf("%s->>?", column), f.Field)
		}
		if f.Op == docstore.OpGreaterOrEqual {
			return field.Gte(f.Value), nil
		}
		return field.Lte(f.Value), nil
	default:
		return nil, fmt.Errorf("filter %s: unsupported operator %q", f.Field, f.Op)
	}
}
