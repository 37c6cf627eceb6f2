package stream

// Labels maps nominal values to indexes in first-seen order.
type Labels struct {
	index map[string]int
	names []string
}

// NewLabels returns an empty mapping.
func NewLabels() *Labels {
	return &Labels{index: make(map[string]int)}
}

// Index returns the index of name, assigning the next one if unseen.
func (l *Labels) Index(name string) int {
	if i, ok := l.index[name]; ok {
		return i
	}
	i := len(l.names)
	l.index[name] = i
	l.names = append(l.names, name)
	return i
}

// Len returns the number of distinct values seen.
func (l *Labels) Len() int { return len(l.names) }

// Names returns the values in index order.
func (l *Labels) Names() []string {
	return append([]string(nil), l.names...)
}
