package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
)

func TestPriorityFor(t *testing.T) {
	cases := map[string]domain.TicketPriority{
		"ELECTRICAL REPAIR":                  domain.TicketPriorityHigh,
		"FIRE ALARMS/EXTINGUISHERS":          domain.TicketPriorityHigh,
		"EMERGENCY/EXIT LIGHTING":            domain.TicketPriorityHigh,
		"EYE WASH AND SAFETY SHOWER REPAIRS": domain.TicketPriorityHigh,
		"PLUMBING REPAIR":                    domain.TicketPriorityHigh,
		"HEATING/COOLING":                    domain.TicketPriorityHigh,
		"DOOR REPAIRS":                       domain.TicketPriorityMedium,
		"WINDOW REPAIRS":                     domain.TicketPriorityMedium,
		"AIR FLOW ISSUES":                    domain.TicketPriorityMedium,
		"DRINKING WATER FOUNTAIN":            domain.TicketPriorityMedium,
		"PEST CONTROL":                       domain.TicketPriorityLow,
		"plumbing repair":                    domain.TicketPriorityLow,
		"":                                   domain.TicketPriorityLow,
	}
	for category, want := range cases {
		assert.Equal(t, want, PriorityFor(category), category)
	}
}
