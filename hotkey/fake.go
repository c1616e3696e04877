package hotkey

// FakeHotkey is driven by tests and the scripted test mode.
type FakeHotkey struct {
	edges
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{edges: edges{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}}
}

func (f *FakeHotkey) Register() error { return nil }
func (f *FakeHotkey) Unregister()     {}

func (f *FakeHotkey) SimKeydown() { f.keydown <- struct{}{} }
func (f *FakeHotkey) SimKeyup()   { f.keyup <- struct{}{} }
