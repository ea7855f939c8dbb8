package server

import (
	"encoding/base64"
	"encoding/json"

	"github.com/ironsheep/plate-gate/internal/imaging"
	"github.com/ironsheep/plate-gate/internal/pipeline"
	"github.com/ironsheep/plate-gate/internal/store"
)

const (
	typeEvent   = "event"
	typeRefresh = "refresh"

	thumbnailQuality = 85
)

type eventMessage struct {
	Type string `json:"type"`
	pipeline.RecognitionEvent
	StatusLabel string `json:"status_label"`
	Color       string `json:"color"`
	Thumbnail   string `json:"image_jpeg_base64,omitempty"`
}

type refreshMessage struct {
	Type    string        `json:"type"`
	Entries []store.Entry `json:"entries"`
}

func encodeEvent(ev pipeline.RecognitionEvent) ([]byte, error) {
	msg := eventMessage{
		Type:             typeEvent,
		RecognitionEvent: ev,
		StatusLabel:      ev.Status.String(),
		Color:            statusHex(ev.Status),
	}
	if ev.Image != nil {
		data, err := imaging.EncodeJPEG(ev.Image, thumbnailQuality)
		if err != nil {
			return nil, err
		}
		msg.Thumbnail = base64.StdEncoding.EncodeToString(data)
	}
	return json.Marshal(msg)
}

func encodeRefresh(entries []store.Entry) ([]byte, error) {
	if entries == nil {
		entries = []store.Entry{}
	}
	return json.Marshal(refreshMessage{Type: typeRefresh, Entries: entries})
}
