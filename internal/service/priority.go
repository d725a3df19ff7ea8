package service

import "github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"

var highPriorityCategories = map[string]struct{}{
	"ELECTRICAL REPAIR":                  {},
	"FIRE ALARMS/EXTINGUISHERS":          {},
	"EMERGENCY/EXIT LIGHTING":            {},
	"EYE WASH AND SAFETY SHOWER REPAIRS": {},
	"PLUMBING REPAIR":                    {},
	"HEATING/COOLING":                    {},
}

var mediumPriorityCategories = map[string]struct{}{
	"DOOR REPAIRS":            {},
	"WINDOW REPAIRS":          {},
	"AIR FLOW ISSUES":         {},
	"DRINKING WATER FOUNTAIN": {},
}

// PriorityFor maps a category to its urgency. Unknown categories are low.
func PriorityFor(category string) domain.TicketPriority {
	if _, ok := highPriorityCategories[category]; ok {
		return domain.TicketPriorityHigh
	}
	if _, ok := mediumPriorityCategories[category]; ok {
		return domain.TicketPriorityMedium
	}
	return domain.TicketPriorityLow
}
