package advisory

import "strings"

// Condition is a set of weather phenomena relevant to clothing advice.
// Conditions are read from the free-text description and, when available,
// from the numeric condition code of the weather provider; the engine matches
// on the union of both.
type Condition uint8

const (
	// ConditionRain is steady rain ("pluie").
	ConditionRain Condition = 1 << iota
	// ConditionShower is showery or rainy-looking weather ("pluvieux", "averse").
	ConditionShower
	ConditionSnow
	ConditionWind
	ConditionStorm
	ConditionFog
)

// conditionKeywords lists the French keywords that mark each condition in a
// lower-cased description. Matching is by substring, so "neigeux" also
// matches "neige" and "venteux" also matches "vent".
var conditionKeywords = []struct {
	cond     Condition
	keywords []string
}{
	{ConditionRain, []string{"pluie"}},
	{ConditionShower, []string{"pluvieux", "averse"}},
	{ConditionSnow, []string{"neige", "neigeux"}},
	{ConditionWind, []string{"vent", "venteux"}},
	{ConditionStorm, []string{"orage", "orageux"}},
	{ConditionFog, []string{"brouillard", "brume"}},
}

var conditionNames = []struct {
	cond Condition
	name string
}{
	{ConditionRain, "rain"},
	{ConditionShower, "shower"},
	{ConditionSnow, "snow"},
	{ConditionWind, "wind"},
	{ConditionStorm, "storm"},
	{ConditionFog, "fog"},
}

// Has reports whether every condition in other is present in c.
func (c Condition) Has(other Condition) bool {
	return c&other == other && other != 0
}

// Any reports whether at least one condition in other is present in c.
func (c Condition) Any(other Condition) bool {
	return c&other != 0
}

// Names returns the condition names in a fixed order, for logs and JSON.
func (c Condition) Names() []string {
	names := make([]string, 0, len(conditionNames))
	for _, cn := range conditionNames {
		if c.Has(cn.cond) {
			names = append(names, cn.name)
		}
	}
	return names
}

// String joins Names with "|", or returns "none".
func (c Condition) String() string {
	names := c.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ParseDescription extracts the conditions named in a free-text description.
// The description is lower-cased before matching.
func ParseDescription(description string) Condition {
	desc := strings.ToLower(description)
	var c Condition
	for _, ck := range conditionKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(desc, kw) {
				c |= ck.cond
				break
			}
		}
	}
	return c
}

// FromConditionCode maps an OpenWeatherMap condition id to conditions.
// Unknown and zero codes yield the empty set.
func FromConditionCode(id int) Condition {
	switch {
	case id >= 200 && id <= 202, id >= 230 && id <= 232:
		return ConditionStorm | ConditionRain
	case id >= 210 && id <= 221:
		return ConditionStorm
	case id >= 300 && id <= 321:
		return ConditionRain
	case id >= 500 && id <= 511:
		return ConditionRain
	case id >= 520 && id <= 531:
		return ConditionRain | ConditionShower
	case id >= 611 && id <= 616:
		return ConditionSnow | ConditionRain
	case id >= 600 && id <= 622:
		return ConditionSnow
	case id == 701, id == 721, id == 741:
		return ConditionFog
	case id == 771:
		return ConditionWind
	case id == 781:
		return ConditionWind | ConditionStorm
	default:
		return 0
	}
}

// Detect returns the union of the description and code conditions.
func Detect(description string, conditionID int) Condition {
	return ParseDescription(description) | FromConditionCode(conditionID)
}
