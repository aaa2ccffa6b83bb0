package chart

// Suggest picks a chart type from the result shape alone: pie for a small
// two-column breakdown, line for long results, bar otherwise. ok is false
// when a chart would not help (zero or one row).
func Suggest(rowCount, columnCount int) (Type, bool) {
	switch {
	case rowCount >= 2 && rowCount <= 6 && columnCount == 2:
		return TypePie, true
	case rowCount > 10:
		return TypeLine, true
	case rowCount > 1:
		return TypeBar, true
	default:
		return "", false
	}
}
