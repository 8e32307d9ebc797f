package model

import "cardsmith/go-backend/internal/domains/cards"

// Item is one uploaded file: its artifact plus the metadata captured at upload time.
type Item struct {
	ArtifactID string
	BaseName   string
	Ext        string
}

// Batch keeps uploads in arrival order.
type Batch struct {
	Items []Item
}

// Collector exposes the batch of any variant that embeds it.
func (b *Batch) Collector() *Batch {
	return b
}

func (b *Batch) Add(item Item) {
	b.Items = append(b.Items, item)
}

func (b *Batch) Len() int {
	return len(b.Items)
}

func (b *Batch) ArtifactIDs() []string {
	ids := make([]string, 0, len(b.Items))
	for _, item := range b.Items {
		ids = append(ids, item.ArtifactID)
	}
	return ids
}

// Data is the per-kind payload of a session. Each variant carries only the
// fields its own workflow reads or writes.
type Data interface {
	Kind() Kind
	ArtifactIDs() []string
}

type TextToCards struct {
	Batch
	Naming
	ContactBase string
}

func (*TextToCards) Kind() Kind { return KindTextToCards }

type CardsToText struct {
	Batch
	Naming
}

func (*CardsToText) Kind() Kind { return KindCardsToText }

type RenameFiles struct {
	Batch
	Naming
}

func (*RenameFiles) Kind() Kind { return KindRenameFiles }

type RenameContacts struct {
	Batch
	Naming
	ContactBase string
}

func (*RenameContacts) Kind() Kind { return KindRenameContacts }

// Merge serves both merge workflows; Domain tells them apart.
type Merge struct {
	Batch
	Naming
	Domain cards.Domain
}

func (m *Merge) Kind() Kind {
	if m.Domain == cards.DomainCards {
		return KindMergeCards
	}
	return KindMergeText
}

type Split struct {
	Naming
	Source *Item
	Domain cards.Domain
	Total  int
	Limit  int
}

func (*Split) Kind() Kind { return KindSplit }

func (s *Split) ArtifactIDs() []string {
	if s.Source == nil {
		return nil
	}
	return []string{s.Source.ArtifactID}
}

type MessageToFile struct {
	Text     string
	FileName string
}

func (*MessageToFile) Kind() Kind { return KindMessageToFile }

func (*MessageToFile) ArtifactIDs() []string { return nil }

type Freeform struct {
	Text     string
	FileName string
}

func (*Freeform) Kind() Kind { return KindFreeform }

func (*Freeform) ArtifactIDs() []string { return nil }

// NewData returns the empty payload for kind.
func NewData(kind Kind) Data {
	switch kind {
	case KindTextToCards:
		return &TextToCards{}
	case KindCardsToText:
		return &CardsToText{}
	case KindRenameFiles:
		return &RenameFiles{}
	case KindRenameContacts:
		return &RenameContacts{}
	case KindMergeCards:
		return &Merge{Domain: cards.DomainCards}
	case KindMergeText:
		return &Merge{Domain: cards.DomainLines}
	case KindSplit:
		return &Split{}
	case KindMessageToFile:
		return &MessageToFile{}
	case KindFreeform:
		return &Freeform{}
	default:
		return nil
	}
}
