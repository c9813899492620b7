package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "beltworks.ai/internal/persistence/log"
	"beltworks.ai/internal/persistence/r2s3"
	"beltworks.ai/internal/sim/catalogs"
	"beltworks.ai/internal/sim/layout"
	"beltworks.ai/internal/sim/tuning"
	"beltworks.ai/internal/sim/world"
	"beltworks.ai/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "", "world id (default: layout world_id)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		layoutPath = flag.String("layout", "", "path to layout.yaml (default: <configs>/layout.yaml)")

		storeName  = flag.String("store", "", "snapshot store: file, sqlite or redis (or set BW_STORE_BACKEND)")
		redisAddr  = flag.String("redis_addr", "", "redis address for -store=redis (or set BW_REDIS_ADDR)")
		keepSnaps  = flag.Int("keep_snapshots", 5, "snapshots kept per world by file and sqlite stores")
		loadLatest = flag.Bool("load_latest_snapshot", true, "resume from the newest stored snapshot if present")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	lp := strings.TrimSpace(*layoutPath)
	if lp == "" {
		lp = filepath.Join(*configDir, "layout.yaml")
	}
	lay, err := layout.Load(lp)
	if err != nil {
		logger.Fatalf("load layout: %v", err)
	}
	id := strings.TrimSpace(*worldID)
	if id == "" {
		id = lay.WorldID
	}
	if id == "" {
		id = "world_1"
	}

	w, err := world.New(world.ConfigFromTuning(id, tune), cats, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	ents, err := world.LayoutEntities(lay)
	if err != nil {
		logger.Fatalf("layout: %v", err)
	}
	if err := w.AddEntities(ents); err != nil {
		// Bad records are skipped; the rest of the factory still loads.
		logger.Printf("layout: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	worldDir := filepath.Join(*dataDir, "worlds", id)
	_ = os.MkdirAll(worldDir, 0o755)

	store, err := openStoreBackend(ctx, storeOptions{
		Backend:   *storeName,
		WorldID:   id,
		WorldDir:  worldDir,
		Keep:      *keepSnaps,
		RedisAddr: *redisAddr,
	})
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer store.close()
	if store.upsert != nil {
		if err := store.upsert(ctx, cats, tune); err != nil {
			logger.Printf("store: upsert catalogs: %v", err)
		}
	}

	mirror, err := buildR2Mirror(logger)
	if err != nil {
		logger.Fatalf("init r2 mirror: %v", err)
	}

	if *loadLatest {
		snap, ok, err := store.load(ctx)
		from := store.name
		if err == nil && !ok && mirror != nil {
			snap, ok, err = mirror.LoadLatest(ctx, id)
			from = "r2 mirror"
		}
		switch {
		case err != nil:
			logger.Fatalf("load snapshot: %v", err)
		case ok:
			if err := w.ImportSnapshot(snap); err != nil {
				logger.Fatalf("import snapshot: %v", err)
			}
			logger.Printf("resumed from %s snapshot tick=%d", from, w.CurrentTick())
		}
	}

	var target persistlog.SnapshotStore = store.save
	if mirror != nil {
		defer mirror.Close()
		target = r2s3.MirroredStore{Primary: store.save, Mirror: mirror}
	}
	journaled := persistlog.NewJournaledStore(target, worldDir)
	defer journaled.Close()
	w.SetSnapshotStore(journaled)

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("world stopped: %v", err)
		}
	}()

	obsSrv := observer.NewServer(w, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observe", obsSrv.WSHandler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("world %s: %d entities, store=%s, listening on %s", id, len(ents), store.name, *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	// SaveNow must not race the world goroutine.
	<-worldDone
	ctx3, cancel3 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel3()
	if err := w.SaveNow(ctx3); err != nil {
		logger.Printf("final save: %v", err)
	} else {
		logger.Printf("final save at tick %d", w.CurrentTick())
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
