package session

// Notifier receives the transient user-facing messages the context
// produces (toasts in the original storefront). Implementations must not
// block.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// Navigator abstracts the view router: the context only ever needs to
// know where the user is and to send them to the login view.
type Navigator interface {
	Path() string
	GoTo(path string)
}

// LoginPath is the route a forced logout navigates to.
const LoginPath = "/login"

// NopNotifier discards all messages.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Info(string)    {}
func (NopNotifier) Warn(string)    {}
func (NopNotifier) Error(string)   {}

// NopNavigator reports a fixed location and ignores navigation.
type NopNavigator struct{}

func (NopNavigator) Path() string { return "/" }
func (NopNavigator) GoTo(string)  {}
