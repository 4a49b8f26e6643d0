package preprocessing

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geocoder"
	"lintang/floodnav/pkg/graphbuilder"
	"lintang/floodnav/pkg/kv"
	"lintang/floodnav/pkg/osmparser"
	"lintang/floodnav/pkg/spatialindex"
	"lintang/floodnav/pkg/weight"

	"go.uber.org/zap"
)

// Result graph siap pakai beserta index-nya.
type Result struct {
	Graph     *datastructure.RoutingGraph
	Index     *spatialindex.SpatialIndex
	Entries   []geocoder.Entry
	FromCache bool
}

// BuildFromMap parse file osm lalu bangun routing graph, spatial index, dan entry geocoder.
func BuildFromMap(ctx context.Context, log *zap.Logger, mapFile string, model *weight.Model) (*Result, error) {
	data, err := osmparser.NewOSMParser(log).Parse(ctx, mapFile)
	if err != nil {
		return nil, err
	}
	g, err := graphbuilder.NewGraphBuilder(log, model).Build(data.Nodes, data.Ways)
	if err != nil {
		return nil, fmt.Errorf("build graph from %s: %w", mapFile, err)
	}
	si := spatialindex.NewSpatialIndex(g)
	entries := geocoder.BuildEntries(data, si)
	return &Result{Graph: g, Index: si, Entries: entries}, nil
}

// Save simpan snapshot graph & entry geocoder ke pebble.
func Save(db *kv.KVDB, res *Result, source string) error {
	if err := db.SaveGraph(res.Graph.Snapshot(), filepath.Base(source)); err != nil {
		return err
	}
	return db.SaveGeocoderEntries(res.Entries)
}

// Load baca snapshot dari pebble. Returns kv.ErrNotFound kalau belum pernah disimpan.
func Load(log *zap.Logger, db *kv.KVDB) (*Result, error) {
	snap, meta, err := db.LoadGraph()
	if err != nil {
		return nil, err
	}
	g, err := snap.ToGraph()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kv.ErrSnapshotCorrupt, err)
	}
	res := &Result{Graph: g, Index: spatialindex.NewSpatialIndex(g), FromCache: true}

	entries, err := db.LoadGeocoderEntries()
	switch {
	case errors.Is(err, kv.ErrNotFound):
		log.Warn("graph snapshot has no geocoder entries, address lookup disabled")
	case err != nil:
		return nil, err
	default:
		res.Entries = entries
	}
	log.Info("graph snapshot loaded",
		zap.String("source", meta.Source),
		zap.Int("nodes", g.NumberOfNodes()),
		zap.Int("edges", g.NumberOfEdges()),
		zap.Int("geocoderEntries", len(res.Entries)))
	return res, nil
}

// LoadOrBuild pakai snapshot kalau ada (dan rebuild false), selain itu bangun dari file osm lalu simpan.
func LoadOrBuild(ctx context.Context, log *zap.Logger, db *kv.KVDB, mapFile string, model *weight.Model,
	rebuild bool) (*Result, error) {
	if !rebuild {
		res, err := Load(log, db)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, kv.ErrNotFound) && !errors.Is(err, kv.ErrSnapshotCorrupt) {
			return nil, err
		}
		log.Info("no usable graph snapshot, building from map file", zap.String("file", mapFile), zap.Error(err))
	}

	res, err := BuildFromMap(ctx, log, mapFile, model)
	if err != nil {
		return nil, err
	}
	if err := Save(db, res, mapFile); err != nil {
		// graph tetap bisa dipakai walau snapshot gagal disimpan
		log.Error("failed to save graph snapshot", zap.Error(err))
	}
	return res, nil
}
