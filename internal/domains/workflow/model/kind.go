package model

import "strings"

// Kind names a workflow; the value doubles as its start command.
type Kind string

const (
	KindTextToCards    Kind = "txt_to_vcf"
	KindCardsToText    Kind = "vcf_to_txt"
	KindMessageToFile  Kind = "msg_to_txt"
	KindRenameFiles    Kind = "rename_file"
	KindRenameContacts Kind = "rename_ctc"
	KindMergeCards     Kind = "merge_vcf"
	KindMergeText      Kind = "merge_txt"
	KindSplit          Kind = "split_file"
	KindFreeform       Kind = "admin_navy_file"
)

var allKinds = []Kind{
	KindTextToCards,
	KindCardsToText,
	KindMessageToFile,
	KindRenameFiles,
	KindRenameContacts,
	KindMergeCards,
	KindMergeText,
	KindSplit,
	KindFreeform,
}

// Kinds lists every workflow in menu order.
func Kinds() []Kind {
	return append([]Kind(nil), allKinds...)
}

// ParseKind maps a start command (with or without the leading slash) to its workflow.
func ParseKind(command string) (Kind, bool) {
	command = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(command)), "/")
	for _, k := range allKinds {
		if string(k) == command {
			return k, true
		}
	}
	return "", false
}

// IsBatch reports whether the workflow collects uploads until a completion signal.
func (k Kind) IsBatch() bool {
	switch k {
	case KindTextToCards, KindCardsToText, KindRenameFiles, KindRenameContacts, KindMergeCards, KindMergeText:
		return true
	default:
		return false
	}
}

// IsMerge reports whether the workflow folds its batch into a single output.
func (k Kind) IsMerge() bool {
	return k == KindMergeCards || k == KindMergeText
}

// NeedsContactBase reports whether the workflow asks for a contact name base.
func (k Kind) NeedsContactBase() bool {
	return k == KindTextToCards || k == KindRenameContacts
}
