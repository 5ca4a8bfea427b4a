package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"liquid/internal/atom"
	"liquid/internal/extract"
	"liquid/internal/logs"
	"liquid/internal/model"
	"liquid/internal/render"
	"liquid/internal/script"
	"liquid/internal/store"
	"liquid/internal/validate"
)

var (
	ErrEmptyInput = errors.New("empty input")
	ErrNoSuchNode = errors.New("no such node")
)

// ExtractionMessage is shown when the model's reply carried no usable JSON.
const ExtractionMessage = "My reflection layer blurred. Can you repeat that?"

const defaultHistoryTurns = 20

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one line of the conversation. ToolID references the tool an
// assistant reply produced, if any.
type Entry struct {
	ID     string    `json:"id"`
	Role   Role      `json:"role"`
	Text   string    `json:"text"`
	ToolID string    `json:"tool_id,omitempty"`
	At     time.Time `json:"at"`
}

// Tool is the generated interface currently on screen.
type Tool struct {
	ID     string
	Header *extract.Header
	Layout []atom.Node
	State  atom.State
}

// View is a rendering of the active tool.
type View struct {
	ToolID   string           `json:"tool_id,omitempty"`
	Header   *extract.Header  `json:"header,omitempty"`
	State    atom.State       `json:"state"`
	Elements []render.Element `json:"elements"`
}

// Notice is a user-visible explanation of an activation that changed nothing.
type Notice struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Recorder receives recovered payloads. store.Store satisfies it.
type Recorder interface {
	Append(ctx context.Context, rec store.Record) error
}

type Config struct {
	ID          string
	Generator   model.Generator
	Interpreter script.Interpreter
	Walker      *render.Walker
	Recorder    Recorder
	System      string
	Temperature *float64
	// HistoryTurns bounds how many prior entries are sent as context.
	HistoryTurns int
	Logger       *slog.Logger
	Now          func() time.Time
}

type Session struct {
	id          string
	generator   model.Generator
	interpreter script.Interpreter
	walker      *render.Walker
	recorder    Recorder
	system      string
	temperature *float64
	turns       int
	logger      *slog.Logger
	now         func() time.Time

	// submit serializes requests to the model.
	submit sync.Mutex

	mu      sync.RWMutex
	entries []Entry
	tool    *Tool
	pending int

	records sync.WaitGroup
}

func New(cfg Config) (*Session, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("session: generator is required")
	}
	s := &Session{
		id:          cfg.ID,
		generator:   cfg.Generator,
		interpreter: cfg.Interpreter,
		walker:      cfg.Walker,
		recorder:    cfg.Recorder,
		system:      cfg.System,
		temperature: cfg.Temperature,
		turns:       cfg.HistoryTurns,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.system == "" {
		s.system = model.BuildSystemPrompt("")
	}
	if s.turns <= 0 {
		s.turns = defaultHistoryTurns
	}
	if s.logger == nil {
		s.logger = logs.Discard()
	}
	if s.walker == nil {
		s.walker = render.NewWalker(render.WithLogger(s.logger))
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

// Submit sends text to the model and applies the reply. A submission made
// while another is outstanding waits for it. Model, transport and extraction
// failures become an assistant entry and are not returned as errors.
func (s *Session) Submit(ctx context.Context, text string) (Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, ErrEmptyInput
	}
	ctx = logs.WithSession(ctx, s.id)

	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
	}()

	s.submit.Lock()
	defer s.submit.Unlock()

	s.mu.Lock()
	history := s.historyLocked()
	s.entries = append(s.entries, s.newEntry(RoleUser, text, ""))
	s.mu.Unlock()

	// The context may have expired while queued behind another submission.
	if err := ctx.Err(); err != nil {
		s.logger.WarnContext(ctx, "submission expired while queued", "error", err)
		return s.appendAssistant(model.UserMessage(err), ""), nil
	}

	raw, err := s.generator.Generate(ctx, model.Request{
		System:      s.system,
		History:     history,
		Prompt:      text,
		Temperature: s.temperature,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "generation failed", "error", err)
		return s.appendAssistant(model.UserMessage(err), ""), nil
	}

	reply, err := extract.Decode(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "extraction failed", "error", err)
		return s.appendAssistant(ExtractionMessage, ""), nil
	}

	toolID := ""
	if reply.Tool != nil {
		tool := &Tool{
			ID:     uuid.NewString(),
			Header: reply.Header,
			Layout: reply.Tool.Layout,
			State:  reply.Tool.State,
		}
		s.lint(ctx, tool)
		toolID = tool.ID

		s.mu.Lock()
		s.tool = tool
		s.mu.Unlock()
	}

	entry := s.appendAssistant(reply.Chat, toolID)
	s.record(ctx, reply.Raw)
	return entry, nil
}

func (s *Session) historyLocked() []model.Turn {
	start := max(len(s.entries)-s.turns, 0)
	turns := make([]model.Turn, 0, len(s.entries)-start)
	for _, entry := range s.entries[start:] {
		role := model.RoleUser
		if entry.Role == RoleAssistant {
			role = model.RoleModel
		}
		turns = append(turns, model.Turn{Role: role, Text: entry.Text})
	}
	return turns
}

func (s *Session) newEntry(role Role, text, toolID string) Entry {
	return Entry{ID: uuid.NewString(), Role: role, Text: text, ToolID: toolID, At: s.now()}
}

func (s *Session) appendAssistant(text, toolID string) Entry {
	entry := s.newEntry(RoleAssistant, text, toolID)
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
	return entry
}

func (s *Session) lint(ctx context.Context, tool *Tool) {
	report := validate.Layout(tool.Layout, tool.State)
	for _, issue := range report.Issues {
		s.logger.DebugContext(ctx, "layout issue",
			"tool", tool.ID, "path", issue.Path, "code", issue.Code, "message", issue.Message)
	}
}

// record logs the payload in the background. Failures are only logged.
func (s *Session) record(ctx context.Context, payload []byte) {
	if s.recorder == nil || len(payload) == 0 {
		return
	}
	rec, err := store.NewRecord(s.id, payload, s.now())
	if err != nil {
		s.logger.WarnContext(ctx, "history record rejected", "error", err)
		return
	}

	ctx = context.WithoutCancel(ctx)
	s.records.Add(1)
	go func() {
		defer s.records.Done()
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.recorder.Append(ctx, rec); err != nil {
			s.logger.WarnContext(ctx, "history append failed", "record", rec.ID, "error", err)
		}
	}()
}

// Flush waits for background history writes.
func (s *Session) Flush() {
	s.records.Wait()
}

// Activate runs the action of the button at path against the active tool.
// A nil Notice means the state changed.
func (s *Session) Activate(ctx context.Context, path string) (*Notice, error) {
	ctx = logs.WithSession(ctx, s.id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tool == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchNode, path)
	}

	tool := s.tool
	var next atom.State
	tree := s.walker.Tree(tool.Layout, tool.State, func(action atom.Action) error {
		state, err := s.interpreter.Apply(tool.State, action)
		next = state
		return err
	})

	err := tree.Activate(path)
	switch {
	case errors.Is(err, render.ErrNoSuchElement):
		return nil, fmt.Errorf("%w: %s", ErrNoSuchNode, path)
	case err != nil:
		s.logger.InfoContext(ctx, "activation had no effect", "path", path, "error", err)
		return &Notice{Path: path, Message: noticeMessage(err), Err: err}, nil
	}

	s.tool = &Tool{ID: tool.ID, Header: tool.Header, Layout: tool.Layout, State: next}
	s.logger.DebugContext(ctx, "activated", "path", path, "tool", tool.ID)
	return nil, nil
}

func noticeMessage(err error) string {
	switch {
	case errors.Is(err, script.ErrNoScript):
		return "That button doesn't do anything yet."
	case errors.Is(err, script.ErrMissingKey):
		return "That button's script is missing a key."
	case errors.Is(err, script.ErrUnknownAction):
		return "I don't know how to run that action."
	case errors.Is(err, script.ErrNotNumeric):
		return "That value isn't a number."
	default:
		return fmt.Sprintf("That action failed: %v", err)
	}
}

// View renders the active tool. The zero View means no tool is active.
func (s *Session) View() View {
	s.mu.RLock()
	tool := s.tool
	s.mu.RUnlock()

	if tool == nil {
		return View{}
	}
	return View{
		ToolID:   tool.ID,
		Header:   tool.Header,
		State:    tool.State,
		Elements: s.walker.Render(tool.Layout, tool.State),
	}
}

func (s *Session) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Busy reports whether a submission is outstanding.
func (s *Session) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending > 0
}

// Clear drops the conversation and the active tool.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.tool = nil
}
