package policy

import (
	"fmt"
	"strconv"
	"strings"

	"cardsmith/go-backend/internal/domains/cards"
	"cardsmith/go-backend/internal/domains/contracts"
	"cardsmith/go-backend/internal/domains/workflow/model"
)

// EventType classifies an inbound event once it is bound to a session.
type EventType string

const (
	EventUpload      EventType = "upload"
	EventDone        EventType = "done"
	EventNameDefault EventType = "name_default"
	EventNameCustom  EventType = "name_custom"
	EventText        EventType = "text"
)

// EventForToken maps a keyboard choice token to its event type.
func EventForToken(token string) (EventType, bool) {
	switch strings.TrimSpace(token) {
	case model.TokenDone:
		return EventDone, true
	case model.TokenNameDefault:
		return EventNameDefault, true
	case model.TokenNameCustom:
		return EventNameCustom, true
	default:
		return "", false
	}
}

// Event is the input of one transition.
type Event struct {
	Type EventType
	Text string
	// Item and ItemCount are set for uploads; ItemCount is the number of
	// records or lines found in the file.
	Item      *model.Item
	ItemCount int
}

// Prompt tells the caller what to ask the requester after a transition.
type Prompt string

const (
	PromptNone        Prompt = ""
	PromptContactName Prompt = "contact_name"
	PromptNamingMode  Prompt = "naming_mode"
	PromptCustomName  Prompt = "custom_name"
	PromptFileName    Prompt = "file_name"
	PromptSplitLimit  Prompt = "split_limit"
)

// Outcome is the result of an accepted transition.
type Outcome struct {
	From   model.State
	To     model.State
	Prompt Prompt
	// Run is set when the session reached a fully configured state and the
	// engine must be started.
	Run bool
}

type transitionKey struct {
	kind  model.Kind
	state model.State
	event EventType
}

type step struct {
	next   model.State
	prompt Prompt
	run    bool
	apply  func(data model.Data, ev Event) error
}

var table = buildTable()

// Apply runs the transition registered for (session kind, state, event). It
// reports ok=false when the event has no meaning in the current state; the
// session is then untouched. A non-nil error (ErrEmptyBatch,
// ErrInvalidParameter) also leaves state unchanged.
func Apply(s *model.Session, ev Event) (Outcome, bool, error) {
	if s == nil {
		return Outcome{}, false, contracts.ErrSessionExpired
	}
	st, ok := table[transitionKey{kind: s.Kind, state: s.State, event: ev.Type}]
	if !ok {
		return Outcome{}, false, nil
	}
	if st.apply != nil {
		if err := st.apply(s.Data, ev); err != nil {
			return Outcome{}, true, err
		}
	}
	out := Outcome{From: s.State, To: st.next, Prompt: st.prompt, Run: st.run}
	s.State = st.next
	return out, true, nil
}

// Accepts reports whether ev has a transition from the session's state.
func Accepts(s *model.Session, ev EventType) bool {
	if s == nil {
		return false
	}
	_, ok := table[transitionKey{kind: s.Kind, state: s.State, event: ev}]
	return ok
}

// Path lists the states of kind in the order a session moves through them.
func Path(kind model.Kind) []model.State {
	switch {
	case kind.IsBatch() && kind.NeedsContactBase():
		return []model.State{model.StateCollecting, model.StateAwaitingContactName, model.StateNamingMode, model.StateAwaitingCustomName, model.StateRunning}
	case kind.IsBatch():
		return []model.State{model.StateCollecting, model.StateNamingMode, model.StateAwaitingCustomName, model.StateRunning}
	case kind == model.KindSplit:
		return []model.State{model.StateAwaitingFile, model.StateAwaitingSplitLimit, model.StateNamingMode, model.StateAwaitingCustomName, model.StateRunning}
	default:
		return []model.State{model.StateAwaitingText, model.StateAwaitingFileName, model.StateRunning}
	}
}

func buildTable() map[transitionKey]step {
	t := make(map[transitionKey]step)
	add := func(kind model.Kind, from model.State, ev EventType, st step) {
		t[transitionKey{kind: kind, state: from, event: ev}] = st
	}

	for _, kind := range model.Kinds() {
		switch {
		case kind.IsBatch():
			add(kind, model.StateCollecting, EventUpload, step{next: model.StateCollecting, apply: addToBatch})
			if kind.NeedsContactBase() {
				add(kind, model.StateCollecting, EventDone, step{next: model.StateAwaitingContactName, prompt: PromptContactName, apply: completeBatch})
				add(kind, model.StateAwaitingContactName, EventText, step{next: model.StateNamingMode, prompt: PromptNamingMode, apply: setContactBase})
			} else {
				add(kind, model.StateCollecting, EventDone, step{next: model.StateNamingMode, prompt: PromptNamingMode, apply: completeBatch})
			}
			addNaming(add, kind)
		case kind == model.KindSplit:
			add(kind, model.StateAwaitingFile, EventUpload, step{next: model.StateAwaitingSplitLimit, prompt: PromptSplitLimit, apply: setSplitSource})
			add(kind, model.StateAwaitingSplitLimit, EventText, step{next: model.StateNamingMode, prompt: PromptNamingMode, apply: setSplitLimit})
			addNaming(add, kind)
		default:
			add(kind, model.StateAwaitingText, EventText, step{next: model.StateAwaitingFileName, prompt: PromptFileName, apply: setBufferedText})
			add(kind, model.StateAwaitingFileName, EventText, step{next: model.StateRunning, run: true, apply: setOutputFileName})
		}
	}
	return t
}

func addNaming(add func(model.Kind, model.State, EventType, step), kind model.Kind) {
	add(kind, model.StateNamingMode, EventNameDefault, step{next: model.StateRunning, run: true, apply: setNamingDefault})
	add(kind, model.StateNamingMode, EventNameCustom, step{next: model.StateAwaitingCustomName, prompt: PromptCustomName, apply: setNamingCustom})
	add(kind, model.StateAwaitingCustomName, EventText, step{next: model.StateRunning, run: true, apply: setCustomBase})
}

type batched interface {
	Collector() *model.Batch
}

type named interface {
	Settings() *model.Naming
}

func addToBatch(data model.Data, ev Event) error {
	b, ok := data.(batched)
	if !ok || ev.Item == nil {
		return fmt.Errorf("%w: upload without batch", contracts.ErrInvalidParameter)
	}
	b.Collector().Add(*ev.Item)
	return nil
}

func completeBatch(data model.Data, _ Event) error {
	b, ok := data.(batched)
	if !ok || b.Collector().Len() == 0 {
		return contracts.ErrEmptyBatch
	}
	return nil
}

func setContactBase(data model.Data, ev Event) error {
	base := cards.CleanContactBase(ev.Text)
	if base == "" {
		return fmt.Errorf("%w: contact name is empty", contracts.ErrInvalidParameter)
	}
	switch d := data.(type) {
	case *model.TextToCards:
		d.ContactBase = base
	case *model.RenameContacts:
		d.ContactBase = base
	default:
		return fmt.Errorf("%w: %s has no contact name", contracts.ErrInvalidParameter, data.Kind())
	}
	return nil
}

func setSplitSource(data model.Data, ev Event) error {
	d, ok := data.(*model.Split)
	if !ok || ev.Item == nil {
		return fmt.Errorf("%w: upload without split session", contracts.ErrInvalidParameter)
	}
	item := *ev.Item
	d.Source = &item
	d.Domain = cards.DomainForExt(item.Ext)
	d.Total = ev.ItemCount
	return nil
}

// ParseSplitLimit accepts a positive decimal integer.
func ParseSplitLimit(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: split size must be a positive number", contracts.ErrInvalidParameter)
	}
	return n, nil
}

func setSplitLimit(data model.Data, ev Event) error {
	d, ok := data.(*model.Split)
	if !ok {
		return fmt.Errorf("%w: not a split session", contracts.ErrInvalidParameter)
	}
	limit, err := ParseSplitLimit(ev.Text)
	if err != nil {
		return err
	}
	d.Limit = limit
	return nil
}

func setBufferedText(data model.Data, ev Event) error {
	if strings.TrimSpace(ev.Text) == "" {
		return fmt.Errorf("%w: text is empty", contracts.ErrInvalidParameter)
	}
	switch d := data.(type) {
	case *model.MessageToFile:
		d.Text = ev.Text
	case *model.Freeform:
		d.Text = ev.Text
	default:
		return fmt.Errorf("%w: %s does not buffer text", contracts.ErrInvalidParameter, data.Kind())
	}
	return nil
}

func setOutputFileName(data model.Data, ev Event) error {
	name, err := cleanOutputName(ev.Text)
	if err != nil {
		return err
	}
	switch d := data.(type) {
	case *model.MessageToFile:
		d.FileName = trimExt(name, cards.ExtLines)
	case *model.Freeform:
		d.FileName = name
	default:
		return fmt.Errorf("%w: %s takes no file name", contracts.ErrInvalidParameter, data.Kind())
	}
	return nil
}

func setNamingDefault(data model.Data, _ Event) error {
	n, ok := data.(named)
	if !ok {
		return fmt.Errorf("%w: %s has no naming", contracts.ErrInvalidParameter, data.Kind())
	}
	*n.Settings() = model.Naming{Mode: model.NamingDefault}
	return nil
}

func setNamingCustom(data model.Data, _ Event) error {
	n, ok := data.(named)
	if !ok {
		return fmt.Errorf("%w: %s has no naming", contracts.ErrInvalidParameter, data.Kind())
	}
	n.Settings().Mode = model.NamingCustom
	return nil
}

func setCustomBase(data model.Data, ev Event) error {
	n, ok := data.(named)
	if !ok {
		return fmt.Errorf("%w: %s has no naming", contracts.ErrInvalidParameter, data.Kind())
	}
	name, err := cleanOutputName(ev.Text)
	if err != nil {
		return err
	}
	*n.Settings() = model.Naming{Mode: model.NamingCustom, CustomBase: name}
	return nil
}

// cleanOutputName trims a typed file name and rejects names that are empty or
// would escape into a directory.
func cleanOutputName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return "", fmt.Errorf("%w: file name %q is not usable", contracts.ErrInvalidParameter, raw)
	}
	return name, nil
}

func trimExt(name, ext string) string {
	if strings.HasSuffix(strings.ToLower(name), ext) && len(name) > len(ext) {
		return name[:len(name)-len(ext)]
	}
	return name
}
