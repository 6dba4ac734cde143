package datatable

// StatusSink receives human readable status messages from a model.
type StatusSink interface {
	Report(message string)
}

// StatusFunc adapts a function to a StatusSink.
type StatusFunc func(message string)

// Report implements StatusSink.
func (f StatusFunc) Report(message string) { f(message) }

// Listener is notified around every change to the loaded rows.
// DataAboutToChange is always followed by DataChanged; row and column
// counts must not be read in between.
type Listener interface {
	DataAboutToChange()
	DataChanged()
}

// ListenerFuncs adapts a pair of functions to a Listener. Nil fields are
// skipped.
type ListenerFuncs struct {
	AboutToChange func()
	Changed       func()
}

// DataAboutToChange implements Listener.
func (l ListenerFuncs) DataAboutToChange() {
	if l.AboutToChange != nil {
		l.AboutToChange()
	}
}

// DataChanged implements Listener.
func (l ListenerFuncs) DataChanged() {
	if l.Changed != nil {
		l.Changed()
	}
}
