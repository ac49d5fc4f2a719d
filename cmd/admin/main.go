package main

import (
	"context"
	"os"

	"github.com/arzan03/SchoolDesk/internal/config"
	"github.com/arzan03/SchoolDesk/internal/db"
	"github.com/arzan03/SchoolDesk/internal/logger"
	"github.com/arzan03/SchoolDesk/internal/services"
	"github.com/arzan03/SchoolDesk/internal/store/mongostore"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	st, err := db.Open(ctx, cfg.Mongo, cfg.StoreDriver, log)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}
	defer st.Close(context.Background())

	cli := commandLine{
		users: services.NewUserService(st.Repos, log),
		repos: st.Repos,
		migrate: func(ctx context.Context) error {
			if st.Database == nil {
				return errors.New("migrate needs the mongo store driver")
			}
			return mongostore.EnsureIndexes(ctx, st.Database)
		},
		out: os.Stdout,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			log.WithError(err).Error("command failed")
		}
		st.Close(context.Background())
		os.Exit(1)
	}
}
