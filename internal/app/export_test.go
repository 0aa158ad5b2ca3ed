package app

// Seams for the external test package.

var NewRegistryWithPicker = newRegistryWithPicker

// StartedSent is closed once the round's started message was handed to the announcer.
func (r *Round) StartedSent() <-chan struct{} { return r.startedSent }
