package access

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"cardsmith/go-backend/internal/securestore"
)

// StateStore persists the allow-list as one decimal id per line. With a secret
// configured the file is sealed; a plaintext file left by an older deployment
// is still read and sealed on the next write.
type StateStore struct {
	path   string
	secret string
}

func (s *StateStore) Configure(path, secret string) {
	s.path = strings.TrimSpace(path)
	s.secret = strings.TrimSpace(secret)
}

func (s *StateStore) Path() string {
	return s.path
}

func (s *StateStore) Bootstrap() (AllowList, error) {
	if s.path == "" {
		return NewAllowList(nil)
	}
	raw, err := securestore.ReadFile(s.path, s.secret)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewAllowList(nil)
		}
		return AllowList{}, err
	}
	ids, err := decodeIDs(raw)
	if err != nil {
		return AllowList{}, err
	}
	return NewAllowList(ids)
}

func (s *StateStore) Persist(list AllowList) error {
	if s.path == "" {
		return nil
	}
	return securestore.WriteFile(s.path, s.secret, encodeIDs(list.List()))
}

func encodeIDs(ids []int64) []byte {
	var buf bytes.Buffer
	for _, id := range ids {
		buf.WriteString(strconv.FormatInt(id, 10))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func decodeIDs(raw []byte) ([]int64, error) {
	var ids []int64
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		id, err := ParseRequesterID(text)
		if err != nil {
			return nil, fmt.Errorf("allow-list line %d: %w", line, err)
		}
		ids = append(ids, id)
	}
	return ids, scanner.Err()
}
