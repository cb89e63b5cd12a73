package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/kevin07696/payments-admin/internal/adapters/postgres"
	"github.com/kevin07696/payments-admin/internal/auth"
	"github.com/kevin07696/payments-admin/internal/config"
	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/services/paymentsadmin"
	"github.com/kevin07696/payments-admin/pkg/security"
)

// AdminCLI runs maintenance commands against the payments admin database
type AdminCLI struct {
	ctx   context.Context
	cfg   *config.Config
	users *paymentsadmin.UserService
}

func main() {
	var (
		action   = flag.String("action", "", "Action to perform: create-user, list-users, hash-password, issue-session")
		username = flag.String("username", "", "Username for create-user")
		role     = flag.String("role", "", "Role for create-user: CEO, Chairman or CFO")
		subject  = flag.String("subject", "", "Session subject for issue-session")
	)
	flag.Parse()

	if *action == "" {
		fmt.Println("Usage: admin -action=<action> [options]")
		fmt.Println("Actions:")
		fmt.Println("  create-user   - Create a payments admin user (-username, -role; password is prompted)")
		fmt.Println("  list-users    - List payments admin users")
		fmt.Println("  hash-password - Print a password hash for the PAYMENTS_ADMIN_USERS allow-list")
		fmt.Println("  issue-session - Print a signed session cookie value (-subject)")
		os.Exit(1)
	}

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal("Failed to load .env: ", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	cli := &AdminCLI{ctx: context.Background(), cfg: cfg}

	switch *action {
	case "create-user":
		cli.withDatabase(func() { cli.createUser(*username, *role) })
	case "list-users":
		cli.withDatabase(cli.listUsers)
	case "hash-password":
		cli.hashPassword()
	case "issue-session":
		cli.issueSession(*subject)
	default:
		fmt.Printf("Unknown action: %s\n", *action)
		os.Exit(1)
	}
}

// withDatabase opens the pool, wires the user service and runs fn
func (cli *AdminCLI) withDatabase(fn func()) {
	zapLogger, err := zap.NewDevelopment(zap.IncreaseLevel(zap.WarnLevel))
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	logger := security.NewZapLogger(zapLogger)

	poolConfig := postgres.DefaultPoolConfig(cli.cfg.Database.ConnectionString())
	poolConfig.MaxConns = 2
	poolConfig.MinConns = 0
	poolConfig.ConnectAttempts = 1
	pool, err := postgres.NewPool(cli.ctx, poolConfig, logger)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer pool.Close()

	db := postgres.NewDBExecutor(pool)
	cli.users = paymentsadmin.NewUserService(db, postgres.NewAdminUserRepository(db), logger)
	fn()
}

func (cli *AdminCLI) createUser(username, role string) {
	if username == "" {
		username = prompt("Username: ")
	}
	if role == "" {
		role = prompt("Role (CEO, Chairman, CFO): ")
	}
	password := readNewPassword()

	user, err := cli.users.CreateUser(cli.ctx, paymentsadmin.CreateUserRequest{
		Username: username,
		Password: password,
		Role:     role,
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAdminUserExists):
		log.Fatalf("User %q already exists", username)
	case domain.IsValidationError(err):
		log.Fatal(err)
	default:
		log.Fatal("Failed to create user: ", err)
	}

	fmt.Printf("Created %s (id %d, role %s)\n", user.Username, user.ID, user.Role)
}

func (cli *AdminCLI) listUsers() {
	users, err := cli.users.ListUsers(cli.ctx)
	if err != nil {
		log.Fatal("Failed to list users: ", err)
	}
	if len(users) == 0 {
		fmt.Println("No payments admin users")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.CreatedAt.UTC().Format(time.RFC3339))
	}
	_ = w.Flush()
}

func (cli *AdminCLI) hashPassword() {
	hash, err := auth.HashPassword(readNewPassword())
	if err != nil {
		log.Fatal("Failed to hash password: ", err)
	}
	fmt.Println(hash)
}

func (cli *AdminCLI) issueSession(subject string) {
	if subject == "" {
		subject = prompt("Session subject: ")
	}
	codec := auth.NewSessionCodec(cli.cfg.Auth.SessionSecret, cli.cfg.Auth.SessionTTL)
	if !codec.Enabled() {
		log.Fatal("SESSION_SECRET (or SECRET_KEY) is not set")
	}

	token, err := codec.Issue(subject)
	if err != nil {
		log.Fatal("Failed to issue session: ", err)
	}
	fmt.Printf("%s=%s\n", cli.cfg.Auth.SessionCookieName, token)
}

func prompt(label string) string {
	fmt.Print(label)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line)
}

// readNewPassword reads a password twice without echo
func readNewPassword() string {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt("")
	}

	fmt.Print("Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		log.Fatal("Failed to read password: ", err)
	}
	fmt.Print("Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		log.Fatal("Failed to read password: ", err)
	}
	if string(first) != string(second) {
		log.Fatal("Passwords do not match")
	}
	return string(first)
}
