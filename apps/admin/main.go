package main

import (
	"log"
	"os"

	"github.com/trezcool/maabara/core"
	"github.com/trezcool/maabara/core/attendance"
	"github.com/trezcool/maabara/core/class"
	"github.com/trezcool/maabara/core/grade"
	"github.com/trezcool/maabara/core/request"
	"github.com/trezcool/maabara/core/user"
	"github.com/trezcool/maabara/services/email"
	"github.com/trezcool/maabara/services/email/sendgrid"
	"github.com/trezcool/maabara/services/logger"
	"github.com/trezcool/maabara/storage/database"
	"github.com/trezcool/maabara/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!(conf.Debug || conf.TestMode))

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	usrRepo := sqlxrepos.NewUserRepository(db)
	classRepo := sqlxrepos.NewClassRepository(db)
	gradeRepo := sqlxrepos.NewGradeRepository(db)
	attRepo := sqlxrepos.NewAttendanceRepository(db)
	reqRepo := sqlxrepos.NewRequestRepository(db)
	mailSvc := newEmailService(conf, appLogger)

	// start CLI
	cli := commandLine{
		db:       db.DB,
		usrSvc:   user.NewService(usrRepo),
		classSvc: class.NewService(classRepo),
		gradeSvc: grade.NewService(gradeRepo, classRepo, appLogger),
		attSvc:   attendance.NewService(attRepo, appLogger),
		reqSvc:   request.NewService(reqRepo, classRepo, usrRepo, mailSvc, appLogger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

// newEmailService selects the mail backend: console locally, sendgrid otherwise.
func newEmailService(conf *core.Config, log core.Logger) core.EmailService {
	if conf.Debug || conf.TestMode {
		return emailsvc.NewConsoleService(conf)
	}
	return sendgridmail.NewService(conf, log)
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
