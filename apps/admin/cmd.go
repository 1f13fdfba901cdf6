package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/trezcool/maabara/core/attendance"
	"github.com/trezcool/maabara/core/class"
	"github.com/trezcool/maabara/core/grade"
	"github.com/trezcool/maabara/core/request"
	"github.com/trezcool/maabara/core/user"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db       *sql.DB
	usrSvc   *user.Service
	classSvc *class.Service
	gradeSvc *grade.Service
	attSvc   *attendance.Service
	reqSvc   *request.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - manage DB migrations (goose commands)")
	fmt.Println("  adduser -name NAME -username USERNAME -email EMAIL -role ROLE - create a user")
	fmt.Println("  seed - load sample data")
	fmt.Println("  export -class CLASS_ID [-out FILE] - export a class's results as CSV")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRole := addUserCmd.String("role", user.RoleStudent, "The user's role: Admin, Faculty or Student.")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportClass := exportCmd.String("class", "", "The class ID.")
	exportOut := exportCmd.String("out", "", "Output file. Defaults to stdout.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, *addUserRole)
	case "seed":
		return cli.seed()
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportClass == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.exportResults(*exportClass, *exportOut)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addUser(name, uname, email, role string) error {
	usr, err := cli.usrSvc.Create(context.Background(), user.NewUser{
		Name:     name,
		Username: uname,
		Email:    email,
		Role:     role,
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s %q created\n", usr.Role, usr.Username)
	return nil
}

func (cli *commandLine) exportResults(classID, out string) error {
	results, err := cli.gradeSvc.ClassResults(context.Background(), classID)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return grade.WriteResultsCSV(w, results)
}
