package preview

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/branchflow/internal/logging"
	"github.com/aretw0/branchflow/pkg/domain"
)

// Session is a single preview run. It is not safe for concurrent use.
type Session struct {
	flow    domain.Flow
	startID string
	current string
	history []domain.ChatMessage

	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithLogger configures a logger for choice events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Start begins a preview at the first start node of flow. The flow is copied.
func Start(flow domain.Flow, opts ...Option) (*Session, error) {
	s := &Session{
		flow:   flow.Clone(),
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	start, ok := s.flow.StartNode()
	if !ok {
		return nil, fmt.Errorf("no start node: %w", domain.ErrNodeNotFound)
	}
	s.startID = start.ID
	s.current = start.ID
	return s, nil
}

// Current returns the node the conversation is at.
func (s *Session) Current() domain.FlowNode {
	node, _ := s.flow.FindNode(s.current)
	return node.Clone()
}

// Done reports whether the conversation reached a terminal node.
func (s *Session) Done() bool {
	node, _ := s.flow.FindNode(s.current)
	return node.IsTerminal()
}

// Choose follows the option at index on the current node.
func (s *Session) Choose(index int) (domain.FlowNode, error) {
	node, _ := s.flow.FindNode(s.current)
	if node.IsTerminal() {
		return domain.FlowNode{}, domain.ErrConversationOver
	}
	if index < 0 || index >= len(node.Options) {
		return domain.FlowNode{}, fmt.Errorf("option %d of node %s: %w", index, node.ID, domain.ErrInvalidChoice)
	}

	opt := node.Options[index]
	next, ok := s.flow.FindNode(opt.TargetID)
	if !ok {
		return domain.FlowNode{}, fmt.Errorf("option %q points to %q: %w", opt.Label, opt.TargetID, domain.ErrNodeNotFound)
	}

	ts := s.now().UnixMilli()
	s.history = append(s.history,
		domain.ChatMessage{Speaker: domain.SpeakerBot, Text: node.Text, Timestamp: ts},
		domain.ChatMessage{Speaker: domain.SpeakerUser, Text: opt.Label, Timestamp: ts},
	)
	s.logger.Debug("preview choice",
		"from", node.ID,
		"to", next.ID,
		"label", opt.Label,
	)
	s.current = next.ID
	return next.Clone(), nil
}

// ChooseLabel follows the first option on the current node whose label matches.
func (s *Session) ChooseLabel(label string) (domain.FlowNode, error) {
	node, _ := s.flow.FindNode(s.current)
	if node.IsTerminal() {
		return domain.FlowNode{}, domain.ErrConversationOver
	}
	for i, opt := range node.Options {
		if opt.Label == label {
			return s.Choose(i)
		}
	}
	return domain.FlowNode{}, fmt.Errorf("label %q on node %s: %w", label, node.ID, domain.ErrInvalidChoice)
}

// Restart returns to the start node and clears the conversation.
func (s *Session) Restart() {
	s.current = s.startID
	s.history = nil
}

// Conversation returns a copy of the recorded messages.
func (s *Session) Conversation() []domain.ChatMessage {
	return append([]domain.ChatMessage{}, s.history...)
}

// Transcript exports the conversation. StartTime is the first message's
// timestamp, or now when nothing was said yet.
func (s *Session) Transcript() domain.Transcript {
	end := s.now().UnixMilli()
	start := end
	if len(s.history) > 0 {
		start = s.history[0].Timestamp
	}
	return domain.Transcript{
		StartTime:    start,
		EndTime:      end,
		Conversation: s.Conversation(),
	}
}
