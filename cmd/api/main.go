package main

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"

	"github.com/LuigiEspinosa/digital-library/pkg/config"
	"github.com/LuigiEspinosa/digital-library/pkg/database"
	"github.com/LuigiEspinosa/digital-library/pkg/fileutils"
	"github.com/LuigiEspinosa/digital-library/pkg/migrations"
	"github.com/LuigiEspinosa/digital-library/pkg/server"
	"github.com/LuigiEspinosa/digital-library/pkg/version"
	"github.com/LuigiEspinosa/digital-library/pkg/watcher"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting digital-library", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	for _, dir := range []string{cfg.BooksDir, cfg.CoversDir} {
		if err := fileutils.EnsureDir(dir); err != nil {
			log.Err(err).Fatal("storage directory error")
		}
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	// Check that FTS5 is available before running migrations
	err = database.CheckFTS5Support(db)
	if err != nil {
		log.Err(err).Fatal("FTS5 check failed")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	srv, err := server.New(cfg, db)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		log.Info("server started", logger.Data{"addr": srv.Addr, "hostname": cfg.Hostname})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	var inboxWatcher *watcher.Watcher
	if cfg.InboxDir != "" && cfg.InboxLibraryID != "" {
		inboxWatcher, err = watcher.New(cfg, db)
		if err != nil {
			log.Err(err).Fatal("watcher error")
		}
		if err := inboxWatcher.Start(watchCtx); err != nil {
			log.Err(err).Fatal("watcher start error")
		}
		log.Info("inbox watcher started", logger.Data{"inbox": cfg.InboxDir})
	}

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	cancelWatch()
	if inboxWatcher != nil {
		if err := inboxWatcher.Stop(); err != nil {
			log.Err(err).Error("watcher shutdown error")
		}
		log.Info("inbox watcher shutdown")
	}

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
