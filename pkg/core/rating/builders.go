package rating

import "fmt"

func bound(v float64) *float64 { return &v }

// HigherIsBetter rates green at or above green, orange in [orange, green)
// and red below orange.
func HigherIsBetter(green, orange float64) Rule {
	return Rule{
		Norm: fmt.Sprintf("≥ %s", formatBound(green)),
		Bands: []Band{
			{Rating: Red, To: bound(orange)},
			{Rating: Orange, From: bound(orange), FromInclusive: true, To: bound(green)},
			{Rating: Green, From: bound(green), FromInclusive: true},
		},
	}
}

// LowerIsBetter rates green at or below green, orange in (green, orange]
// and red above orange.
func LowerIsBetter(green, orange float64) Rule {
	return Rule{
		Norm: fmt.Sprintf("≤ %s", formatBound(green)),
		Bands: []Band{
			{Rating: Green, To: bound(green), ToInclusive: true},
			{Rating: Orange, From: bound(green), To: bound(orange), ToInclusive: true},
			{Rating: Red, From: bound(orange)},
		},
	}
}

// TargetRange rates green inside [low, high], orange in the margins
// [redLow, low) and (high, redHigh], and red outside.
func TargetRange(redLow, low, high, redHigh float64) Rule {
	return Rule{
		Norm: fmt.Sprintf("%s – %s", formatBound(low), formatBound(high)),
		Bands: []Band{
			{Rating: Red, To: bound(redLow)},
			{Rating: Orange, From: bound(redLow), FromInclusive: true, To: bound(low)},
			{Rating: Green, From: bound(low), FromInclusive: true, To: bound(high), ToInclusive: true},
			{Rating: Orange, From: bound(high), To: bound(redHigh), ToInclusive: true},
			{Rating: Red, From: bound(redHigh)},
		},
	}
}

// PositiveIsGreen rates strictly positive amounts green and the rest with
// the given rating.
func PositiveIsGreen(otherwise Rating) Rule {
	return Rule{
		Norm: "> 0",
		Bands: []Band{
			{Rating: otherwise, To: bound(0), ToInclusive: true},
			{Rating: Green, From: bound(0)},
		},
	}
}

// NonNegativeIsGreen rates amounts at or above zero green and negatives with
// the given rating.
func NonNegativeIsGreen(otherwise Rating) Rule {
	return Rule{
		Norm: "≥ 0",
		Bands: []Band{
			{Rating: otherwise, To: bound(0)},
			{Rating: Green, From: bound(0), FromInclusive: true},
		},
	}
}

// NonPositiveIsGreen rates outflows (zero or negative) green and inflows with
// the given rating.
func NonPositiveIsGreen(otherwise Rating) Rule {
	return Rule{
		Norm: "≤ 0",
		Bands: []Band{
			{Rating: Green, To: bound(0), ToInclusive: true},
			{Rating: otherwise, From: bound(0)},
		},
	}
}

// ProfitabilityRule rates returns: red when negative, orange below target,
// green at or above target.
func ProfitabilityRule(target float64) Rule {
	r := HigherIsBetter(target, 0)
	r.Norm = joinNorm(fmt.Sprintf("≥ %s", formatBound(target)), "< 0 збиток")
	return r
}
