package presence

// Broadcast delivers ev to every connected user.
func (m *Manager) Broadcast(ev Event) {
	frame, err := Encode(ev)
	if err != nil {
		m.logger.Error().Err(err).Str("msg_type", string(ev.Type())).Msg("Error marshaling event for broadcast.")
		return
	}

	m.mu.RLock()
	targets := make([]*Queue, 0, len(m.users))
	for _, u := range m.users {
		if u.connected {
			targets = append(targets, u.queue)
		}
	}
	m.mu.RUnlock()

	for _, q := range targets {
		q.Push(frame)
	}
}

// BroadcastWorld delivers ev to every connected user in world. A pos event is never
// delivered back to the user it describes.
func (m *Manager) BroadcastWorld(world int, ev Event) {
	frame, err := Encode(ev)
	if err != nil {
		m.logger.Error().Err(err).Str("msg_type", string(ev.Type())).Msg("Error marshaling event for world broadcast.")
		return
	}

	origin := ""
	if pos, ok := ev.(PosEvent); ok {
		origin = pos.User
	}

	m.mu.RLock()
	targets := make([]*Queue, 0, len(m.users))
	for _, u := range m.users {
		if !u.connected || u.world != world {
			continue
		}
		if origin != "" && u.id == origin {
			continue
		}
		targets = append(targets, u.queue)
	}
	m.mu.RUnlock()

	for _, q := range targets {
		q.Push(frame)
	}
}

// BroadcastUserList sends the current list of connected users to every connected user.
func (m *Manager) BroadcastUserList() {
	m.mu.RLock()
	records := m.connectedRecordsLocked()
	m.mu.RUnlock()

	m.Broadcast(ListEvent{Users: records})
}

// Enqueue queues ev for the user id. It reports false when id is not registered.
func (m *Manager) Enqueue(id string, ev Event) bool {
	u, ok := m.Lookup(id)
	if !ok {
		return false
	}

	frame, err := Encode(ev)
	if err != nil {
		m.logger.Error().Err(err).Str("user_id", id).Msg("Error marshaling event for user.")
		return false
	}

	u.queue.Push(frame)
	return true
}
