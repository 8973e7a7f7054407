// Package sim provides a simulated connection capability.
//
// The simulator stands in for a real messaging-automation connection in
// development and tests: it walks the normal lifecycle (loading, code,
// authenticated, ready) on a timer or under manual control, and serves
// canned directory data derived from the client id.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yndnr/chatmesh-go/internal/core/capability"
	"github.com/yndnr/chatmesh-go/pkg/token"
)

// Options configure the simulator.
type Options struct {
	// StepDelay is the pause between lifecycle events. Zero means
	// events fire as fast as the scheduler allows.
	StepDelay time.Duration

	// AutoScan completes the handshake without a Scan call, as if the
	// code were scanned immediately after production.
	AutoScan bool

	// FailAuth makes the handshake end in an auth-failure event.
	FailAuth bool
}

// Factory returns a capability factory producing simulators with the
// given options.
func Factory(opts Options) capability.Factory {
	return func(clientID string, sink capability.EventSink) (capability.Capability, error) {
		return New(clientID, sink, opts), nil
	}
}

// Sim is a simulated connection for one client.
type Sim struct {
	clientID string
	sink     capability.EventSink
	opts     Options

	mu        sync.Mutex
	state     string
	destroyed bool
	scanned   chan struct{}
	scanOnce  sync.Once
}

// New creates a simulator for a client.
func New(clientID string, sink capability.EventSink, opts Options) *Sim {
	return &Sim{
		clientID: clientID,
		sink:     sink,
		opts:     opts,
		state:    "STOPPED",
		scanned:  make(chan struct{}),
	}
}

// Initialize starts the simulated handshake in the background.
func (s *Sim) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return fmt.Errorf("sim: capability destroyed")
	}
	s.state = "OPENING"
	s.mu.Unlock()

	go s.run()
	return nil
}

// run walks the lifecycle events in order.
func (s *Sim) run() {
	s.pause()
	s.sink.LoadingProgress(20, "sim: loading")
	s.pause()
	s.sink.LoadingProgress(100, "sim: loaded")

	code, err := token.GenerateWithLength(24)
	if err != nil {
		s.setState("FAILED")
		s.sink.AuthFailure("sim: code generation failed")
		return
	}
	s.setState("PAIRING")
	s.sink.CodeProduced("sim-code:" + code)

	if s.opts.FailAuth {
		s.pause()
		s.setState("FAILED")
		s.sink.AuthFailure("sim: authentication rejected")
		return
	}

	if s.opts.AutoScan {
		s.Scan()
	}

	<-s.scanned
	if s.isDestroyed() {
		return
	}

	s.pause()
	s.setState("AUTHENTICATED")
	s.sink.Authenticated()
	s.pause()
	s.setState("CONNECTED")
	s.sink.Ready()
}

// Scan simulates the external scan of the produced code, unblocking the
// handshake. Safe to call more than once.
func (s *Sim) Scan() {
	s.scanOnce.Do(func() { close(s.scanned) })
}

func (s *Sim) pause() {
	if s.opts.StepDelay > 0 {
		time.Sleep(s.opts.StepDelay)
	}
}

func (s *Sim) setState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Sim) isDestroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// GetState returns the simulator's internal state string.
func (s *Sim) GetState(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return "", fmt.Errorf("sim: capability destroyed")
	}
	return s.state, nil
}

// requireConnected guards action methods.
func (s *Sim) requireConnected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("sim: capability destroyed")
	}
	if s.state != "CONNECTED" {
		return fmt.Errorf("sim: not connected (state %s)", s.state)
	}
	return nil
}

// SendMessage records a send and returns a synthetic result.
func (s *Sim) SendMessage(ctx context.Context, to, content string) (*capability.SendResult, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	id, err := token.GenerateWithLength(12)
	if err != nil {
		return nil, err
	}
	s.sink.InboundMessage(&capability.Message{
		ID:        id,
		ChatID:    to,
		From:      s.clientID,
		To:        to,
		Body:      content,
		Timestamp: time.Now().UnixMilli(),
		FromMe:    true,
	})
	return &capability.SendResult{
		MessageID: id,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Logout ends the session gracefully.
func (s *Sim) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("sim: capability destroyed")
	}
	s.state = "STOPPED"
	return nil
}

// Destroy tears the simulator down.
func (s *Sim) Destroy(ctx context.Context) error {
	s.mu.Lock()
	s.destroyed = true
	s.state = "STOPPED"
	s.mu.Unlock()
	s.Scan() // unblock a pending handshake goroutine
	return nil
}

// Contacts returns a canned contact list.
func (s *Sim) Contacts(ctx context.Context) ([]capability.Contact, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	return []capability.Contact{
		{ID: s.clientID + ":contact-1", Name: "Contact One", Number: "+5511990000001"},
		{ID: s.clientID + ":contact-2", Name: "Contact Two", Number: "+5511990000002"},
	}, nil
}

// Chats returns a canned chat list.
func (s *Sim) Chats(ctx context.Context) ([]capability.Chat, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	return []capability.Chat{
		{ID: s.clientID + ":chat-1", Name: "Contact One", LastMessageAt: time.Now().UnixMilli()},
	}, nil
}

// ChatByID returns a canned chat.
func (s *Sim) ChatByID(ctx context.Context, chatID string) (*capability.Chat, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	return &capability.Chat{ID: chatID, Name: "Chat " + chatID}, nil
}

// ChatHistory returns a canned message history.
func (s *Sim) ChatHistory(ctx context.Context, chatID string, limit int) ([]capability.Message, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1
	}
	msgs := make([]capability.Message, 0, limit)
	for i := 0; i < limit && i < 5; i++ {
		msgs = append(msgs, capability.Message{
			ID:        fmt.Sprintf("%s:msg-%d", chatID, i),
			ChatID:    chatID,
			Body:      fmt.Sprintf("message %d", i),
			Timestamp: time.Now().UnixMilli(),
		})
	}
	return msgs, nil
}

// Profile returns the simulated account profile.
func (s *Sim) Profile(ctx context.Context) (*capability.Profile, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	return &capability.Profile{
		ID:       s.clientID + ":self",
		Name:     "Sim " + s.clientID,
		Number:   "+5511990000000",
		Platform: "sim",
	}, nil
}

// ProfilePicture returns a canned picture URL.
func (s *Sim) ProfilePicture(ctx context.Context, contact string) (string, error) {
	if err := s.requireConnected(); err != nil {
		return "", err
	}
	return "https://sim.invalid/pictures/" + contact, nil
}

// IsRegisteredUser reports whether a number exists in the simulated directory.
func (s *Sim) IsRegisteredUser(ctx context.Context, number string) (bool, error) {
	if err := s.requireConnected(); err != nil {
		return false, err
	}
	return number != "", nil
}

// Block blocks a contact.
func (s *Sim) Block(ctx context.Context, contact string) error {
	return s.requireConnected()
}

// Unblock unblocks a contact.
func (s *Sim) Unblock(ctx context.Context, contact string) error {
	return s.requireConnected()
}

// CreateGroup creates a simulated group.
func (s *Sim) CreateGroup(ctx context.Context, name string, participants []string) (*capability.GroupResult, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	id, err := token.GenerateWithLength(12)
	if err != nil {
		return nil, err
	}
	return &capability.GroupResult{
		GroupID:      "group-" + id,
		Name:         name,
		Participants: participants,
	}, nil
}

// AddParticipants adds members to a simulated group.
func (s *Sim) AddParticipants(ctx context.Context, groupID string, participants []string) error {
	return s.requireConnected()
}

// RemoveParticipants removes members from a simulated group.
func (s *Sim) RemoveParticipants(ctx context.Context, groupID string, participants []string) error {
	return s.requireConnected()
}
