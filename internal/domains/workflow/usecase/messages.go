package usecase

import (
	"fmt"

	"cardsmith/go-backend/internal/domains/workflow/model"
	"cardsmith/go-backend/internal/domains/workflow/policy"
	"cardsmith/go-backend/pkg/models"
)

const (
	menuText = "⚡ Professional Batch Bot Ready\n\n" +
		"Available Tools:\n" +
		"➤ /txt_to_vcf - Text to VCF (Sequential)\n" +
		"➤ /vcf_to_txt - VCF to Text\n" +
		"➤ /msg_to_txt - Message to File\n" +
		"➤ /rename_file - Bulk Rename Files\n" +
		"➤ /rename_ctc - Rename Contact Name (Sequential)\n" +
		"➤ /merge_vcf - Merge Multiple VCFs\n" +
		"➤ /merge_txt - Merge Multiple TXTs\n" +
		"➤ /split_file - Split Big Files\n" +
		"➤ /admin_navy_file - Admin Format\n" +
		"➤ /reset - Cancel Process"

	resetText          = "🔄 Process Reset Successfully."
	sessionExpiredText = "⌛ Session expired. Send a command to start again."
	emptyBatchText     = "❌ No files!"
	analyzingText      = "🔄 Analyzing File..."
	customNameText     = "✏️ Enter Custom File Name:"
	retryNumberText    = "❌ Please enter a valid number."
	retryNameText      = "❌ Please enter a valid name."
	retryTextText      = "❌ Please send some text."
	allDoneText        = "✅ All Files Done."
	mergeDoneText      = "✅ Merge Done."
	singleDoneText     = "✅ Done!"
	uploadFailedText   = "❌ Error: could not save the uploaded file."
	adminUsageText     = "❌ Usage: /%s <user id>"
)

var (
	doneKeyboard = models.Keyboard{
		{{Label: "✅ Upload Done / Next", Token: model.TokenDone}},
	}
	namingKeyboard = models.Keyboard{
		{{Label: "📂 Default Name", Token: model.TokenNameDefault}},
		{{Label: "✏️ Custom Name", Token: model.TokenNameCustom}},
	}
)

func startText(kind model.Kind) (string, models.Keyboard) {
	switch kind {
	case model.KindTextToCards:
		return "📂 Send Text Files.\nAuto-delete enabled. Click Done when finished.", doneKeyboard
	case model.KindRenameContacts:
		return "📂 Send VCF Files to Rename Contacts.\n(Sequence: Name 1, Name 2...)\nClick Done when finished.", doneKeyboard
	case model.KindCardsToText:
		return "📂 Send VCF Files.\nClick Done when finished.", doneKeyboard
	case model.KindRenameFiles:
		return "📂 Send Files to Rename.\nClick Done when finished.", doneKeyboard
	case model.KindMergeCards:
		return "📂 Send VCF Files to Merge.\nClick Done when finished.", doneKeyboard
	case model.KindMergeText:
		return "📂 Send Text Files to Merge.\nClick Done when finished.", doneKeyboard
	case model.KindMessageToFile:
		return "📝 Type your message content below:", nil
	case model.KindSplit:
		return "✂️ Send the File you want to split:", nil
	case model.KindFreeform:
		return "📝 Send Data in Admin/Navy Format:", nil
	default:
		return menuText, nil
	}
}

// promptText renders what the requester is asked after a transition.
func promptText(s *model.Session, p policy.Prompt) (string, models.Keyboard) {
	switch p {
	case policy.PromptContactName:
		if s.Kind == model.KindRenameContacts {
			return "✅ Files Received.\n\n👤 Enter New Contact Name Base:\n(Contacts will become Name 1, Name 2...)", nil
		}
		return "✅ Files Received.\n\n👤 Enter Contact Name Base:\n(e.g., if you type 'Flame', contacts will be Flame 1, Flame 2...)", nil
	case policy.PromptNamingMode:
		return namingModeText(s), namingKeyboard
	case policy.PromptCustomName:
		return customNameText, nil
	case policy.PromptFileName:
		if s.Kind == model.KindFreeform {
			return "📝 Enter Output File Name:", nil
		}
		return "📝 Enter File Name:", nil
	case policy.PromptSplitLimit:
		total := 0
		if d, ok := s.Data.(*model.Split); ok {
			total = d.Total
		}
		return fmt.Sprintf("📊 Analysis Complete.\n\nTotal Numbers: %d\n\n🔢 Enter how many per file?", total), nil
	default:
		return "", nil
	}
}

func namingModeText(s *model.Session) string {
	switch d := s.Data.(type) {
	case *model.TextToCards:
		return fmt.Sprintf("📝 Base Name Set: %s\nContacts will be %s 1, %s 2...\n\nSelect Output File Name Mode:", d.ContactBase, d.ContactBase, d.ContactBase)
	case *model.RenameContacts:
		return fmt.Sprintf("📝 Base Name Set: %s\n\nSelect Output File Name Mode:", d.ContactBase)
	case *model.RenameFiles:
		return "📝 Select Renaming Mode:"
	case *model.Merge:
		return "📝 Select Merged File Name Mode:"
	default:
		return "📝 Select Output File Name Mode:"
	}
}

// retryText is the prompt repeated when typed input was rejected in state.
func retryText(state model.State) string {
	switch state {
	case model.StateAwaitingSplitLimit:
		return retryNumberText
	case model.StateAwaitingText:
		return retryTextText
	default:
		return retryNameText
	}
}

func processingText(kind model.Kind) string {
	switch kind {
	case model.KindTextToCards:
		return "⚙️ Processing with Sequential Names..."
	case model.KindRenameContacts:
		return "⚙️ Renaming Contacts (Sequential)..."
	case model.KindSplit:
		return "⚙️ Splitting..."
	case model.KindMergeCards, model.KindMergeText:
		return "⚙️ Processing Merge..."
	case model.KindMessageToFile, model.KindFreeform:
		return ""
	default:
		return "⚙️ Processing..."
	}
}

func doneText(kind model.Kind) string {
	switch {
	case kind.IsMerge():
		return mergeDoneText
	case kind == model.KindMessageToFile || kind == model.KindFreeform:
		return singleDoneText
	default:
		return allDoneText
	}
}

func errorText(err error) string {
	return "❌ Error: " + err.Error()
}
