package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KevinHern/flappy-bird-ai/telemetry"
)

// CurrentCodecVersion tags every stored payload.
const CurrentCodecVersion = 1

// ErrVersionMismatch is returned for payloads written by another codec.
var ErrVersionMismatch = errors.New("record version mismatch")

type generationPayload struct {
	CodecVersion int                       `json:"codec_version"`
	Stats        telemetry.GenerationStats `json:"stats"`
}

type championPayload struct {
	CodecVersion int                 `json:"codec_version"`
	Entry        telemetry.HallEntry `json:"entry"`
}

func encodeGeneration(stats telemetry.GenerationStats) ([]byte, error) {
	return json.Marshal(generationPayload{CodecVersion: CurrentCodecVersion, Stats: stats})
}

func decodeGeneration(data []byte) (telemetry.GenerationStats, error) {
	var p generationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return telemetry.GenerationStats{}, err
	}
	if err := checkVersion(p.CodecVersion); err != nil {
		return telemetry.GenerationStats{}, err
	}
	return p.Stats, nil
}

func encodeChampion(entry telemetry.HallEntry) ([]byte, error) {
	return json.Marshal(championPayload{CodecVersion: CurrentCodecVersion, Entry: entry})
}

func decodeChampion(data []byte) (telemetry.HallEntry, error) {
	var p championPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return telemetry.HallEntry{}, err
	}
	if err := checkVersion(p.CodecVersion); err != nil {
		return telemetry.HallEntry{}, err
	}
	return p.Entry, nil
}

func checkVersion(v int) error {
	if v != CurrentCodecVersion {
		return fmt.Errorf("%w: codec %d, want %d", ErrVersionMismatch, v, CurrentCodecVersion)
	}
	return nil
}
