package types

// ViewState is the employee join page state. It replaces the page's loose
// loading/connected/joined/completed flags with one value.
type ViewState string

const (
	ViewLoading    ViewState = "Loading"
	ViewError      ViewState = "Error"
	ViewWelcome    ViewState = "Welcome"
	ViewPreparing  ViewState = "Preparing"
	ViewInProgress ViewState = "InProgress"
	ViewCompleted  ViewState = "Completed"
)

var viewTransitions = map[ViewState][]ViewState{
	ViewLoading:    {ViewError, ViewWelcome, ViewInProgress, ViewCompleted},
	ViewWelcome:    {ViewPreparing, ViewError},
	ViewPreparing:  {ViewInProgress, ViewWelcome, ViewError},
	ViewInProgress: {ViewCompleted, ViewError},
	ViewError:      {ViewLoading},
}

func (v ViewState) CanTransitionTo(next ViewState) bool {
	for _, n := range viewTransitions[v] {
		if n == next {
			return true
		}
	}
	return false
}

// ViewForSession is the state a freshly loaded join page lands in.
func ViewForSession(status SessionStatus) ViewState {
	switch status {
	case SessionPending:
		return ViewWelcome
	case SessionInProgress:
		return ViewInProgress
	case SessionCompleted:
		return ViewCompleted
	}
	return ViewError
}
