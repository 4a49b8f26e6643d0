package kv

import (
	"errors"
	"fmt"
	"time"

	"lintang/floodnav/pkg/datastructure"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/zap"
)

var (
	ErrNotFound        = errors.New("kv: key not found")
	ErrSnapshotCorrupt = errors.New("kv: graph snapshot is corrupt")
)

var (
	graphSnapshotKey = []byte("graph/snapshot")
	graphMetaKey     = []byte("graph/meta")
)

type KVDB struct {
	db  *pebble.DB
	log *zap.Logger
}

func NewKVDB(db *pebble.DB, log *zap.Logger) *KVDB {
	return &KVDB{db: db, log: log}
}

// Open pebble db di dir. dir kosong berarti in-memory (dipakai di test).
func Open(dir string, log *zap.Logger) (*KVDB, error) {
	opts := &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble %q: %w", dir, err)
	}
	return NewKVDB(db, log), nil
}

func (k *KVDB) Close() error {
	return k.db.Close()
}

// GraphMeta info tentang snapshot yang tersimpan.
type GraphMeta struct {
	Source        string
	NumberOfNodes int
	NumberOfEdges int
	BuiltAt       int64 // unix seconds
}

// SaveGraph simpan snapshot routing graph. Snapshot lama ditimpa.
func (k *KVDB) SaveGraph(snap datastructure.GraphSnapshot, source string) error {
	val, err := encode(snap)
	if err != nil {
		return fmt.Errorf("encode graph snapshot: %w", err)
	}
	meta, err := encode(GraphMeta{
		Source:        source,
		NumberOfNodes: len(snap.Nodes),
		NumberOfEdges: len(snap.Edges),
		BuiltAt:       time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("encode graph meta: %w", err)
	}

	b := k.db.NewBatch()
	defer b.Close()
	if err := b.Set(graphSnapshotKey, val, nil); err != nil {
		return err
	}
	if err := b.Set(graphMetaKey, meta, nil); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit graph snapshot: %w", err)
	}
	k.log.Info("graph snapshot saved",
		zap.String("source", source),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Edges)),
		zap.Int("bytes", len(val)))
	return nil
}

// LoadGraph returns ErrNotFound kalau belum ada snapshot.
func (k *KVDB) LoadGraph() (datastructure.GraphSnapshot, GraphMeta, error) {
	var snap datastructure.GraphSnapshot
	var meta GraphMeta
	if err := k.get(graphMetaKey, &meta); err != nil {
		return snap, meta, err
	}
	if err := k.get(graphSnapshotKey, &snap); err != nil {
		return snap, meta, err
	}
	if len(snap.Nodes) != meta.NumberOfNodes || len(snap.Edges) != meta.NumberOfEdges {
		return snap, meta, fmt.Errorf("%w: meta says %d nodes/%d edges, got %d/%d", ErrSnapshotCorrupt,
			meta.NumberOfNodes, meta.NumberOfEdges, len(snap.Nodes), len(snap.Edges))
	}
	if err := snap.Validate(); err != nil {
		return snap, meta, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
	}
	return snap, meta, nil
}

func (k *KVDB) get(key []byte, v any) error {
	val, closer, err := k.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return err
	}
	defer closer.Close()
	if err := decode(val, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSnapshotCorrupt, key, err)
	}
	return nil
}

// scanPrefix panggil handle untuk setiap key dengan prefix tsb, urut secara lexicographic.
func (k *KVDB) scanPrefix(prefix []byte, handle func(key, val []byte) error) error {
	iter, err := k.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		if err := handle(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
