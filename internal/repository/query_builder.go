package repository

import "github.com/doug-martin/goqu/v9/exp"

type QueryBuilder interface {
	BuildConditions(column string) ([]exp.Expression, error)
}
