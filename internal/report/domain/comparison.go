package report

import "math"

// Direction classifies a period-over-period change.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Comparison captures the delta between a metric's current and previous
// period values. PercentChange is non-negative and rounded to one decimal;
// the sign lives in Direction.
type Comparison struct {
	PercentChange float64   `json:"percent_change"`
	Direction     Direction `json:"direction"`
	PreviousValue int64     `json:"previous_value"`
	IsNew         bool      `json:"is_new"`
}

// Compare computes the comparison for one metric. A metric with no previous
// value is treated as new and reported as a 100% increase; message formatting
// depends on these exact rules.
func Compare(current, previous int64) Comparison {
	if previous == 0 {
		if current > 0 {
			return Comparison{PercentChange: 100, Direction: DirectionUp, IsNew: true}
		}
		return Comparison{Direction: DirectionFlat}
	}

	change := (float64(current) - float64(previous)) / float64(previous) * 100
	change = math.Round(math.Abs(change)*10) / 10

	direction := DirectionFlat
	switch {
	case current > previous:
		direction = DirectionUp
	case current < previous:
		direction = DirectionDown
	}
	return Comparison{PercentChange: change, Direction: direction, PreviousValue: previous}
}
