package policy

import (
	"strconv"

	"cardsmith/go-backend/internal/domains/cards"
	"cardsmith/go-backend/internal/domains/workflow/model"
)

// MergedOutputName is the default base name of merge outputs.
const MergedOutputName = "Merged_Output"

// OutputExt is the extension an engine gives its outputs. Bulk rename keeps
// the extension captured at upload time.
func OutputExt(kind model.Kind, domain cards.Domain, item model.Item) string {
	switch kind {
	case model.KindTextToCards, model.KindRenameContacts, model.KindMergeCards, model.KindFreeform:
		return cards.ExtCards
	case model.KindCardsToText, model.KindMergeText, model.KindMessageToFile:
		return cards.ExtLines
	case model.KindRenameFiles:
		return item.Ext
	case model.KindSplit:
		return domain.Ext()
	default:
		return ""
	}
}

// ResolveName returns the file name of output index (0-based). base is the
// original base name of the source the output derives from.
func ResolveName(kind model.Kind, naming model.Naming, index int, base, ext string) string {
	custom := naming.Mode == model.NamingCustom
	seq := strconv.Itoa(index + 1)
	switch {
	case kind.IsMerge():
		if custom {
			return naming.CustomBase + ext
		}
		return MergedOutputName + ext
	case kind == model.KindSplit:
		if custom {
			return naming.CustomBase + " " + seq + ext
		}
		return base + " " + seq + ext
	case kind.IsBatch():
		if custom {
			return naming.CustomBase + " " + seq + ext
		}
		return base + ext
	default:
		// Single text workflows always use the typed file name.
		return naming.CustomBase + ext
	}
}
