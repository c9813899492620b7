package snapshot

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 is the durable form of the transport simulation: four lists
// keyed by entity id. Units absent from a list load with their initial state.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Holdings     []HoldingV1     `json:"holdings"`
	Crafting     []CraftingV1    `json:"crafting"`
	Transporters []TransporterV1 `json:"transporters"`
	Manipulators []ManipulatorV1 `json:"manipulators"`
}

type HoldingV1 struct {
	EntityID  uint64      `json:"entity_id"`
	Resources map[int]int `json:"resources"`
}

type CraftingV1 struct {
	EntityID       uint64 `json:"entity_id"`
	RecipeID       int    `json:"recipe_id"`
	TicksRemaining int    `json:"ticks_remaining"`
}

type TransporterV1 struct {
	EntityID      uint64  `json:"entity_id"`
	Status        string  `json:"status"`
	Resource      int     `json:"resource,omitempty"`
	Amount        int     `json:"amount,omitempty"`
	Position      float64 `json:"position"`
	LateralOffset float64 `json:"lateral_offset"`
	SideCursor    int     `json:"side_cursor,omitempty"`
}

type ManipulatorV1 struct {
	EntityID    uint64  `json:"entity_id"`
	Status      string  `json:"status"`
	Resource    int     `json:"resource,omitempty"`
	Amount      int     `json:"amount,omitempty"`
	ArmPosition float64 `json:"arm_position"`
}

// Encode writes a JSON header line followed by the gob body, zstd-compressed.
func Encode(w io.Writer, snap SnapshotV1) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func Decode(r io.Reader) (SnapshotV1, error) {
	var snap SnapshotV1
	dec, err := zstd.NewReader(r)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	hb, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(bytes.TrimSpace(hb), &h); err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	if h.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

func Marshal(snap SnapshotV1) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Unmarshal(b []byte) (SnapshotV1, error) {
	return Decode(bytes.NewReader(b))
}

// WriteSnapshot writes snap to path via a temp file and rename.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Encode(f, snap); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	f, err := os.Open(path)
	if err != nil {
		return SnapshotV1{}, err
	}
	defer f.Close()
	return Decode(f)
}
