package models

// RequestStatus is the shared lifecycle enum for friend requests and party
// invites: pending is the only non-terminal state.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusDeclined RequestStatus = "declined"
	StatusCanceled RequestStatus = "canceled"
)

var statusTransitions = map[RequestStatus][]RequestStatus{
	StatusPending:  {StatusAccepted, StatusDeclined, StatusCanceled},
	StatusAccepted: {},
	StatusDeclined: {},
	StatusCanceled: {},
}

// Terminal reports whether no further transition is allowed from s.
func (s RequestStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// CanTransition reports whether s -> to is a legal transition.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	for _, next := range statusTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}
