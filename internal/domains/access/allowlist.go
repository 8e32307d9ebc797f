package access

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

var ErrInvalidRequesterID = errors.New("invalid requester id")

// ParseRequesterID parses a decimal requester id as typed after addadmin/deladmin.
func ParseRequesterID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidRequesterID
	}
	return id, nil
}

type AllowList struct {
	entries map[int64]struct{}
}

func NewAllowList(ids []int64) (AllowList, error) {
	a := AllowList{entries: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		if id <= 0 {
			return AllowList{}, ErrInvalidRequesterID
		}
		a.entries[id] = struct{}{}
	}
	return a, nil
}

func (a *AllowList) Add(id int64) error {
	if id <= 0 {
		return ErrInvalidRequesterID
	}
	if a.entries == nil {
		a.entries = make(map[int64]struct{})
	}
	a.entries[id] = struct{}{}
	return nil
}

func (a *AllowList) Remove(id int64) bool {
	if _, ok := a.entries[id]; !ok {
		return false
	}
	delete(a.entries, id)
	return true
}

func (a AllowList) Contains(id int64) bool {
	_, ok := a.entries[id]
	return ok
}

func (a AllowList) List() []int64 {
	out := make([]int64, 0, len(a.entries))
	for id := range a.entries {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
