package listing

import "fmt"

// Transition is one row of a status table.
type Transition struct {
	Action         Action
	From           []Status
	Actor          Relation
	To             Status // empty: status unchanged (edit)
	SetsTraveler   bool
	ClearsTraveler bool
	Refund         bool
}

func (t Transition) appliesFrom(s Status) bool {
	for _, f := range t.From {
		if f == s {
			return true
		}
	}
	return false
}

// Target returns the resulting status when applied to from.
func (t Transition) Target(from Status) Status {
	if t.To == "" {
		return from
	}
	return t.To
}

type Machine struct {
	kind  Kind
	rules []Transition
}

func NewMachine(kind Kind, rules ...Transition) Machine {
	return Machine{kind: kind, rules: rules}
}

func (m Machine) Kind() Kind { return m.kind }

// Next resolves the transition for action taken by actor while the listing is in from.
// ErrForbidden means the action exists from that status but belongs to someone else.
func (m Machine) Next(from Status, action Action, actor Relation) (Transition, error) {
	matchedStatus := false
	for _, r := range m.rules {
		if r.Action != action || !r.appliesFrom(from) {
			continue
		}
		matchedStatus = true
		if r.Actor == actor {
			return r, nil
		}
	}
	if matchedStatus {
		return Transition{}, fmt.Errorf("%w: %s cannot %s", ErrForbidden, actor, action)
	}
	return Transition{}, fmt.Errorf("%w: %s %s from %s", ErrInvalidTransition, m.kind, action, from)
}

func (m Machine) Allowed(from Status, actor Relation) []Action {
	var out []Action
	for _, r := range m.rules {
		if r.Actor == actor && r.appliesFrom(from) {
			out = append(out, r.Action)
		}
	}
	return out
}

func (m Machine) Can(from Status, action Action, actor Relation) bool {
	_, err := m.Next(from, action, actor)
	return err == nil
}

var ShopperAdMachine = NewMachine(KindShopper,
	Transition{Action: ActionPublish, From: []Status{StatusDraft}, Actor: RelationOwner, To: StatusActive},
	Transition{Action: ActionRequestHelp, From: []Status{StatusActive}, Actor: RelationOther, To: StatusInDiscussion, SetsTraveler: true},
	Transition{Action: ActionAcceptTraveler, From: []Status{StatusInDiscussion}, Actor: RelationOwner, To: StatusAccepted},
	Transition{Action: ActionRejectTraveler, From: []Status{StatusInDiscussion}, Actor: RelationOwner, To: StatusActive, ClearsTraveler: true},
	// traveler side cancel recycles the ad instead of terminating it
	Transition{Action: ActionTravelerCancel, From: []Status{StatusInDiscussion, StatusAccepted, StatusShipped}, Actor: RelationSelectedTraveler, To: StatusActive, ClearsTraveler: true},
	Transition{Action: ActionShip, From: []Status{StatusAccepted}, Actor: RelationSelectedTraveler, To: StatusShipped},
	Transition{Action: ActionComplete, From: []Status{StatusShipped}, Actor: RelationOwner, To: StatusCompleted},
	Transition{Action: ActionShopperCancel, From: []Status{StatusActive, StatusInDiscussion}, Actor: RelationOwner, To: StatusCancelled, ClearsTraveler: true, Refund: true},
	Transition{Action: ActionEdit, From: []Status{StatusDraft, StatusActive, StatusInDiscussion}, Actor: RelationOwner},
)

var TravelAdMachine = NewMachine(KindTravel,
	Transition{Action: ActionBook, From: []Status{StatusActive}, Actor: RelationOther, To: StatusBooked},
	Transition{Action: ActionExpire, From: []Status{StatusActive}, Actor: RelationSystem, To: StatusExpired},
	Transition{Action: ActionEdit, From: []Status{StatusActive}, Actor: RelationOwner},
)

func MachineFor(k Kind) Machine {
	if k == KindTravel {
		return TravelAdMachine
	}
	return ShopperAdMachine
}

func IsTerminal(k Kind, s Status) bool {
	return len(MachineFor(k).Allowed(s, RelationOwner)) == 0 &&
		len(MachineFor(k).Allowed(s, RelationOther)) == 0 &&
		len(MachineFor(k).Allowed(s, RelationSelectedTraveler)) == 0 &&
		len(MachineFor(k).Allowed(s, RelationSystem)) == 0
}
