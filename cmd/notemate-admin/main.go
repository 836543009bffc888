package main

import (
	"context"
	"os"

	"notemate/config"
	"notemate/repository"
	"notemate/usecase"
	"notemate/utils"

	"github.com/rs/zerolog/log"
)

func main() {
	logData, err := utils.NewLogBuild().Console(true).Make()
	if err != nil {
		log.Fatal().Err(err).Msg("building logger")
	}
	utils.InitLogger(logData)
	logger := logData.Logger.With().Str("app", "notemate-admin").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	ctx := logger.WithContext(context.Background())

	client, err := config.ConnectMongo(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	db := client.Database(cfg.Database.DatabaseName)
	subjects := repository.GetSubjectRepo(db)

	cli := commandLine{
		users:      repository.GetUserRepo(db),
		subjects:   usecase.NewSubjectsService(subjects),
		codes:      subjects,
		reconciler: usecase.NewReconciler(subjects, 0),
		out:        os.Stdout,
	}
	code := 0
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			logger.Error().Err(err).Msg("command failed")
		}
		code = 1
	}
	_ = client.Disconnect(context.Background())
	os.Exit(code)
}
