package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/topsell/tams/client"
	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/user"
	"github.com/topsell/tams/core/verification"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

// apiClient is the part of the API used by the CLI.
type apiClient interface {
	Register(ctx context.Context, ru user.RegisterUser) (user.Registration, error)
	Login(ctx context.Context, email, password string) (user.User, error)
	Logout(ctx context.Context) error
	GetByCode(ctx context.Context, code string) (asset.Asset, error)
	LookupTAMS(ctx context.Context, code string) (asset.Asset, error)
	GetDetail(ctx context.Context, id string) (asset.Detail, error)
	RecordMaintenance(ctx context.Context, id string, nm asset.NewMaintenance, photos ...client.Photo) (client.MaintenanceResponse, error)
}

var _ apiClient = (*client.Client)(nil)

type commandLine struct {
	api     apiClient
	session *client.Session
	tables  *verification.Tables
	store   verification.ContextStore
	in      io.Reader
	out     io.Writer
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  register -email EMAIL [-name NAME]                  - create a verified technician account\n")
	cli.printf("  login -email EMAIL                                  - sign in\n")
	cli.printf("  logout                                              - sign out\n")
	cli.printf("  whoami                                              - show the signed in user\n")
	cli.printf("  verify [-list] [-mode MODE] [-pair O:D] [-outlet TEXT] [-division TEXT]\n")
	cli.printf("                                                      - show or change the verification context\n")
	cli.printf("  scan                                                - read barcodes from stdin, one per line\n")
	cli.printf("  asset CODE                                          - show an asset and its history\n")
	cli.printf("  tams CODE                                           - look an asset up in the TAMS catalog\n")
	cli.printf("  record -asset CODE -type TYPE -description TEXT -date YYYY-MM-DD [-photo FILE]...\n")
	cli.printf("                                                      - record maintenance with the current verification ID\n")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "register":
		fs := cli.flagSet("register")
		email := fs.String("email", "", "The account email. The password will be prompted next.")
		name := fs.String("name", "", "Your full name.")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.register(ctx, *email, pwd, *name)

	case "login":
		fs := cli.flagSet("login")
		email := fs.String("email", "", "The account email. The password will be prompted next.")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.login(ctx, *email, pwd)

	case "logout":
		if err := cli.api.Logout(ctx); err != nil {
			return err
		}
		cli.printf("Signed out.\n")
		return nil

	case "whoami":
		usr := cli.session.User()
		if usr == nil {
			return client.ErrNotAuthenticated
		}
		cli.printf("%s <%s> (%s)\n", usr.Name, usr.Email, usr.Role)
		return nil

	case "verify":
		fs := cli.flagSet("verify")
		list := fs.Bool("list", false, "List the outlet x division pairs.")
		mode := fs.String("mode", "", "select or manual.")
		pair := fs.String("pair", "", "The pair to select, as OUTLET_ID:DIVISION_ID.")
		outlet := fs.String("outlet", "", "The outlet id, code or name (manual mode).")
		division := fs.String("division", "", "The division id or name (manual mode).")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		return cli.verify(verifyArgs{
			list:     *list,
			mode:     verification.Mode(*mode),
			pair:     flagValue(fs, "pair", *pair),
			outlet:   flagValue(fs, "outlet", *outlet),
			division: flagValue(fs, "division", *division),
		})

	case "scan":
		return cli.scan(ctx)

	case "asset":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.showAsset(ctx, args[2])

	case "tams":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.lookupTAMS(ctx, args[2])

	case "record":
		fs := cli.flagSet("record")
		code := fs.String("asset", "", "The asset code.")
		typ := fs.String("type", "", "preventive or corrective.")
		desc := fs.String("description", "", "What was done.")
		date := fs.String("date", "", "The maintenance date (YYYY-MM-DD).")
		var photos multiFlag
		fs.Var(&photos, "photo", "A photo to upload (repeatable).")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		if *code == "" {
			fs.Usage()
			return errHelp
		}
		return cli.record(ctx, *code, asset.NewMaintenance{
			MaintenanceType: *typ,
			Description:     *desc,
			MaintenanceDate: *date,
		}, photos)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// flagValue returns nil when the flag was not given.
func flagValue(fs *flag.FlagSet, name, val string) *string {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	if !set {
		return nil
	}
	return &val
}

type multiFlag []string

func (m *multiFlag) String() string { return fmt.Sprint(*m) }

func (m *multiFlag) Set(val string) error {
	*m = append(*m, val)
	return nil
}

func (cli *commandLine) promptPassword() (string, error) {
	cli.printf("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.printf("\n")
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
