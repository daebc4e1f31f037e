package lock

// Size expone size a los tests externos.
func (l *MemoryLocker) Size() int { return l.size() }
