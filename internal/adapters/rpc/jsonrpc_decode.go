package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"cardsmith/go-backend/pkg/models"
)

var errInvalidParams = errors.New("invalid params")

// decodeObject rejects unknown fields and trailing data.
func decodeObject(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errInvalidParams
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errInvalidParams
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errInvalidParams
	}
	return nil
}

func decodeCommandParams(raw json.RawMessage) (models.CommandEvent, error) {
	var p struct {
		RequesterID int64    `json:"requester_id"`
		Name        string   `json:"name"`
		Args        []string `json:"args"`
	}
	if err := decodeObject(raw, &p); err != nil {
		return models.CommandEvent{}, err
	}
	if p.RequesterID <= 0 || strings.TrimSpace(p.Name) == "" {
		return models.CommandEvent{}, errInvalidParams
	}
	return models.CommandEvent{RequesterID: p.RequesterID, Name: p.Name, Args: p.Args}, nil
}

func decodeTextParams(raw json.RawMessage) (models.TextEvent, error) {
	var p struct {
		RequesterID int64  `json:"requester_id"`
		Text        string `json:"text"`
	}
	if err := decodeObject(raw, &p); err != nil {
		return models.TextEvent{}, err
	}
	if p.RequesterID <= 0 {
		return models.TextEvent{}, errInvalidParams
	}
	return models.TextEvent{RequesterID: p.RequesterID, Text: p.Text}, nil
}

func decodeUploadParams(raw json.RawMessage) (models.UploadEvent, error) {
	var p struct {
		RequesterID   int64  `json:"requester_id"`
		FileName      string `json:"file_name"`
		ContentBase64 string `json:"content_base64"`
	}
	if err := decodeObject(raw, &p); err != nil {
		return models.UploadEvent{}, err
	}
	if p.RequesterID <= 0 || strings.TrimSpace(p.FileName) == "" {
		return models.UploadEvent{}, errInvalidParams
	}
	data, err := base64.StdEncoding.DecodeString(p.ContentBase64)
	if err != nil {
		return models.UploadEvent{}, errInvalidParams
	}
	return models.UploadEvent{
		RequesterID: p.RequesterID,
		FileName:    p.FileName,
		Size:        int64(len(data)),
		Open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}, nil
}

func decodeChoiceParams(raw json.RawMessage) (models.ChoiceEvent, error) {
	var p struct {
		RequesterID int64             `json:"requester_id"`
		Token       string            `json:"token"`
		Message     models.MessageRef `json:"message"`
	}
	if err := decodeObject(raw, &p); err != nil {
		return models.ChoiceEvent{}, err
	}
	if p.RequesterID <= 0 || strings.TrimSpace(p.Token) == "" {
		return models.ChoiceEvent{}, errInvalidParams
	}
	if !p.Message.IsZero() && p.Message.ChatID != p.RequesterID {
		return models.ChoiceEvent{}, errInvalidParams
	}
	return models.ChoiceEvent{RequesterID: p.RequesterID, Token: strings.TrimSpace(p.Token), Message: p.Message}, nil
}
