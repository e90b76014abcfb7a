package mocks

import (
	"livesync/core/transport"

	"github.com/stretchr/testify/mock"
)

// Transport is a mock implementation of transport.Transport.
// Its On method shadows mock.Mock.On, so expectations are set with
// tr.Mock.On("SendMessage", ...).
type Transport struct {
	mock.Mock
}

func (m *Transport) On(event string, fn transport.Listener) func() {
	args := m.Called(event, fn)
	if off, ok := args.Get(0).(func()); ok {
		return off
	}
	return func() {}
}

func (m *Transport) SendMessage(topic string, args ...any) error {
	callArgs := append([]any{topic}, args...)
	ret := m.Called(callArgs...)
	return ret.Error(0)
}

func (m *Transport) IsOpen() bool {
	args := m.Called()
	return args.Bool(0)
}
