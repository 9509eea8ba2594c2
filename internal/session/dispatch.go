package session

import (
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/protocol"
)

// dispatch performs exactly one registry or coordinator operation for cmd
// and returns the events to deliver. The session's registered name is the
// acting player; names supplied in the request must agree with it.
func (m *Manager) dispatch(s *Session, cmd protocol.Command) ([]model.Event, error) {
	switch c := cmd.(type) {
	case protocol.RegisterCommand:
		return m.register(s, c)
	case protocol.ListCommand:
		return m.list(s), nil
	}

	me := s.Name()
	if me == "" {
		return nil, model.ErrNotRegistered
	}

	switch c := cmd.(type) {
	case protocol.ChallengeCommand:
		if err := checkIdentity(me, c.From); err != nil {
			return nil, err
		}
		return m.coordinator.Challenge(me, c.To)

	case protocol.AcceptCommand:
		if err := checkIdentity(me, c.From); err != nil {
			return nil, err
		}
		return m.coordinator.Accept(me, c.To)

	case protocol.DeclineCommand:
		if err := checkIdentity(me, c.From); err != nil {
			return nil, err
		}
		return m.coordinator.Decline(me, c.To)

	case protocol.MoveCommand:
		if err := checkIdentity(me, c.Player); err != nil {
			return nil, err
		}
		return m.coordinator.SubmitMove(me, c.MatchID, c.Move)

	case protocol.QuitCommand:
		if err := checkIdentity(me, c.Player); err != nil {
			return nil, err
		}
		return m.quit(s, me), nil
	}

	return nil, model.ErrUnknownAction
}

func (m *Manager) register(s *Session, c protocol.RegisterCommand) ([]model.Event, error) {
	if s.Name() != "" {
		return nil, model.ErrAlreadyRegistered
	}

	name, err := model.NormalizeName(c.Name)
	if err != nil {
		return nil, err
	}
	if err := m.registry.Register(name, s); err != nil {
		return nil, err
	}
	s.setName(name)

	events := []model.Event{{
		Type:    model.EventRegistered,
		Payload: model.RegisteredPayload{Name: name},
	}}
	return append(events, m.presenceEvents(model.SystemJoined, name)...), nil
}

func (m *Manager) list(s *Session) []model.Event {
	return []model.Event{{
		Type:    model.EventOnlineList,
		Payload: model.OnlineListPayload{Players: without(m.registry.Names(), s.Name())},
	}}
}

// quit forfeits the player's match and removes them. The coordinator drops
// the registry entry, which closes this session once its outbox is flushed.
func (m *Manager) quit(s *Session, me model.PlayerName) []model.Event {
	s.setName("")
	events := m.coordinator.HandleQuit(me)
	return append(events, m.presenceEvents(model.SystemLeft, me)...)
}

func checkIdentity(me, claimed model.PlayerName) error {
	if claimed != "" && claimed != me {
		return model.ErrIdentityMismatch
	}
	return nil
}
