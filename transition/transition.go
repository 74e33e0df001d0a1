package transition

import (
	"strconv"

	"github.com/jsphweid/midistates/model"
)

// ComputeID concatenates the decimal ids of both states: 1 -> 2 is 12,
// 9 -> 1 is 91. A state id of 10 or more makes the code longer.
func ComputeID(from, to model.StateID) model.TransitionID {
	id, err := strconv.Atoi(strconv.Itoa(from) + strconv.Itoa(to))
	if err != nil {
		panic("Could not compute transition id: " + err.Error())
	}
	return id
}

// Build emits one transition per adjacent pair of events. Indexes refer to
// positions in events, so they keep their meaning after later filtering.
func Build(events []model.StateEvent) []model.Transition {
	if len(events) < 2 {
		return nil
	}
	res := make([]model.Transition, 0, len(events)-1)
	for i := 0; i < len(events)-1; i++ {
		from, to := events[i], events[i+1]
		res = append(res, model.Transition{
			IdxFrom:         i,
			StateFrom:       from.State,
			OnsetFromS:      from.TimeS,
			IdxTo:           i + 1,
			StateTo:         to.State,
			OnsetToS:        to.TimeS,
			TransitionTimeS: to.TimeS - from.TimeS,
			TransitionID:    ComputeID(from.State, to.State),
		})
	}
	return res
}
