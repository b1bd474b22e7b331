package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/roeiles/voortgang/core"
	"github.com/roeiles/voortgang/core/session"
	"github.com/roeiles/voortgang/core/user"
	"github.com/roeiles/voortgang/storage/boltdb"
	"github.com/roeiles/voortgang/storage/database"
	sqlxrepos "github.com/roeiles/voortgang/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), validate)

	cli := commandLine{
		db:         db.DB,
		usrSvc:     usrSvc,
		translator: translator,
	}

	// the API holds the session store lock while it runs
	store, err := boltdb.Open(conf.Session.StorePath)
	if err == nil {
		cli.sessSvc = session.NewService(store, usrSvc, conf.Session.Lifetime)
	} else {
		logger.Printf("session store unavailable, sessions will not be revoked: %v", err)
	}

	err = cli.run(os.Args)
	if store != nil {
		_ = store.Close()
	}
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
