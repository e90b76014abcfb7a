package inspect

import (
	"livesync/core/errors"
	"livesync/feature/group"

	"go.uber.org/zap"
)

// ErrUnknownItem is returned for a name the group does not hold.
var ErrUnknownItem = errors.New("unknown item")

// ItemState is the inspection view of one item.
type ItemState struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Publication string `json:"publication,omitempty"`
	Loaded      bool   `json:"loaded"`
	Inited      bool   `json:"inited"`
	Subscribed  bool   `json:"subscribed"`
}

// Health is the group state report.
type Health struct {
	Loaded bool        `json:"loaded"`
	Inited bool        `json:"inited"`
	Items  []ItemState `json:"items"`
}

// ItemValue is one item with its current value.
type ItemValue struct {
	ItemState
	Value any `json:"value"`
}

// Service reads the state of a group.
type Service struct {
	group  *group.Group
	logger *zap.Logger
}

// NewService creates a new inspection service.
func NewService(g *group.Group, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{group: g, logger: logger}
}

// Health reports the group and item states.
func (s *Service) Health() Health {
	items := s.group.Items()
	h := Health{
		Loaded: s.group.IsLoaded(),
		Inited: s.group.IsInited(),
		Items:  make([]ItemState, 0, len(items)),
	}
	for _, it := range items {
		h.Items = append(h.Items, stateOf(it))
	}
	return h
}

// Values returns every item value in group order.
func (s *Service) Values() group.Values {
	return s.group.Values()
}

// Value returns the named item and its value.
func (s *Service) Value(name string) (*ItemValue, error) {
	it, ok := s.group.Item(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownItem, "item %q", name)
	}
	return &ItemValue{ItemState: stateOf(it), Value: it.Value()}, nil
}

func stateOf(it *group.Item) ItemState {
	return ItemState{
		Name:        it.Name(),
		Kind:        it.Kind().String(),
		Publication: it.Publication(),
		Loaded:      it.IsLoaded(),
		Inited:      it.IsInited(),
		Subscribed:  it.Value().Subscribed(),
	}
}
