package metadata

import "fmt"

type Condition string

const (
	ConditionNormal  Condition = "normal"
	ConditionDamaged Condition = "damaged"
	ConditionLost    Condition = "lost"
)

func NewCondition(value string) (Condition, error) {
	condition := Condition(value)
	if !condition.isValid() {
		return "", fmt.Errorf("invalid condition: %s", value)
	}
	return condition, nil
}

func (c Condition) isValid() bool {
	switch c {
	case ConditionNormal, ConditionDamaged, ConditionLost:
		return true
	default:
		return false
	}
}
