package model

// State is a step inside one workflow.
type State string

const (
	StateCollecting          State = "collecting"
	StateAwaitingFile        State = "awaiting_file"
	StateAwaitingText        State = "awaiting_text"
	StateAwaitingContactName State = "awaiting_contact_name"
	StateAwaitingSplitLimit  State = "awaiting_split_limit"
	StateAwaitingFileName    State = "awaiting_file_name"
	StateNamingMode          State = "naming_mode"
	StateAwaitingCustomName  State = "awaiting_custom_name"
	StateRunning             State = "running"
)

// Choice tokens carried by keyboard buttons.
const (
	TokenDone        = "done_batch"
	TokenNameDefault = "name_default"
	TokenNameCustom  = "name_custom"
)

type NamingMode string

const (
	NamingDefault NamingMode = "default"
	NamingCustom  NamingMode = "custom"
)

// Naming holds the output naming choice of a workflow.
type Naming struct {
	Mode       NamingMode
	CustomBase string
}

// Settings exposes the naming of any variant that embeds it.
func (n *Naming) Settings() *Naming {
	return n
}
