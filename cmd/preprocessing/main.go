package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"lintang/floodnav/pkg/config"
	"lintang/floodnav/pkg/kv"
	"lintang/floodnav/pkg/logger"
	"lintang/floodnav/pkg/preprocessing"

	"go.uber.org/zap"
)

// preprocessing: parse file osm, bangun routing graph, lalu simpan snapshot ke pebble supaya server
// bisa start tanpa parse ulang.
func main() {
	cfg, err := config.Load("preprocessing", os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	model, err := cfg.WeightModel()
	if err != nil {
		lg.Fatal("weight model", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kvDB, err := kv.Open(cfg.DBPath, lg)
	if err != nil {
		lg.Fatal("open db", zap.Error(err))
	}
	defer kvDB.Close()

	res, err := preprocessing.BuildFromMap(ctx, lg, cfg.MapFile, model)
	if err != nil {
		lg.Fatal("build routing graph", zap.String("file", cfg.MapFile), zap.Error(err))
	}
	if err := preprocessing.Save(kvDB, res, cfg.MapFile); err != nil {
		lg.Fatal("save graph snapshot", zap.Error(err))
	}

	fmt.Printf("\n routing graph ready!! %d nodes, %d edges, %d geocoder entries saved to %s\n",
		res.Graph.NumberOfNodes(), res.Graph.NumberOfEdges(), len(res.Entries), cfg.DBPath)
}
