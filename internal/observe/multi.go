package observe

// Multi fans every event out to each observer in order.
type Multi []Observer

// NewMulti drops nil entries and flattens nested Multis.
func NewMulti(observers ...Observer) Multi {
	var m Multi
	for _, o := range observers {
		switch v := o.(type) {
		case nil:
		case Multi:
			m = append(m, v...)
		default:
			m = append(m, v)
		}
	}
	return m
}

func (m Multi) OnPhilosopherState(id int, state PhilosopherState) {
	for _, o := range m {
		o.OnPhilosopherState(id, state)
	}
}

func (m Multi) OnMealCompleted(id int, meals int) {
	for _, o := range m {
		o.OnMealCompleted(id, meals)
	}
}

func (m Multi) OnForkState(id int, state ForkState) {
	for _, o := range m {
		o.OnForkState(id, state)
	}
}

func (m Multi) OnBufferOccupancy(count int) {
	for _, o := range m {
		o.OnBufferOccupancy(count)
	}
}

func (m Multi) OnBufferWait(side Side) {
	for _, o := range m {
		o.OnBufferWait(side)
	}
}

func (m Multi) OnItem(side Side, agent int, value int) {
	for _, o := range m {
		o.OnItem(side, agent, value)
	}
}

func (m Multi) OnAgent(kind string, running bool) {
	for _, o := range m {
		o.OnAgent(kind, running)
	}
}
