package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/driveauth/driveauth"
	"github.com/driveauth/driveauth/acl"
	"github.com/driveauth/driveauth/auth"
	"github.com/driveauth/driveauth/bolt"
	"github.com/driveauth/driveauth/events"
	"github.com/driveauth/driveauth/jsonfile"
	"github.com/driveauth/driveauth/log"
	"github.com/driveauth/driveauth/mailer"
	"github.com/driveauth/driveauth/token"
)

var (
	// flags
	env string

	// logger
	logger log.Logger

	// config
	cfg Configuration

	// drivers
	boltDriver *bolt.Driver

	// services
	aclService   *acl.Service
	tokenService *token.Service
	authService  *auth.Service
	eventRouter  *events.Router
)

type Configuration struct {
	Host   string `toml:"host"`
	Owner  string `toml:"owner"`
	Server struct {
		Addr string `toml:"addr"`
	} `toml:"server"`
	Store struct {
		Backend string `toml:"backend"`
		Perms   string `toml:"perms"`
		Tokens  string `toml:"tokens"`
		Bolt    string `toml:"bolt"`
	} `toml:"store"`
	SMTP struct {
		Server   string `toml:"server"`
		Port     int    `toml:"port"`
		Username string `toml:"username"`
		Password string `toml:"password"`
		Sender   string `toml:"sender"`
	} `toml:"smtp"`
}

func init() {
	RootCmd.PersistentFlags().StringVar(&env, "env", "dev", "")
}

var RootCmd = cobra.Command{
	Use:   "driveauth",
	Short: "Path-scoped authorization service",
	Long:  "",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load configuration
		cfgData, err := os.ReadFile(fmt.Sprintf("configuration/config.%s.toml", env))
		if err != nil {
			fmt.Println("error reading configuration:", err)
			os.Exit(1)
		}
		if err := toml.Unmarshal(cfgData, &cfg); err != nil {
			fmt.Println("error unmarshalling configuration:", err)
			os.Exit(1)
		}

		// Create logger
		logger = log.New(env)

		// Create repositories
		var permRepo driveauth.PermissionRepository
		var tokenRepo driveauth.TokenRepository
		switch cfg.Store.Backend {
		case "", "file":
			permRepo = jsonfile.NewPermissionRepository(cfg.Store.Perms)
			tokenRepo = jsonfile.NewTokenRepository(cfg.Store.Tokens)
		case "bolt":
			boltDriver = &bolt.Driver{}
			if err := boltDriver.Open(cfg.Store.Bolt); err != nil {
				logger.Fatal("could not open bolt store:", err)
			}
			permRepo = &bolt.PermissionRepository{Driver: boltDriver}
			tokenRepo = &bolt.TokenRepository{Driver: boltDriver}
		default:
			logger.Fatalf("unknown store backend %q", cfg.Store.Backend)
		}

		// Create services
		aclService, err = acl.NewService(permRepo)
		if err != nil {
			logger.Fatal("could not load permission store:", err)
		}
		tokenService, err = token.NewService(tokenRepo)
		if err != nil {
			logger.Fatal("could not load token store:", err)
		}

		var m auth.Mailer
		if cfg.SMTP.Server != "" {
			m = mailer.NewSMTP(cfg.SMTP.Server, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)
		} else {
			m = mailer.Log{Logger: logger}
		}

		authService = auth.NewService(aclService, tokenService, m, cfg.Host, logger)
		eventRouter = events.NewRouter(authService)

		// Owner bootstrap: make sure the configured administrator owns
		// the root without hand-editing the store.
		if cfg.Owner != "" {
			owner := driveauth.Identity(cfg.Owner)
			root := driveauth.ParsePath("/")
			if !aclService.Effective(root).Granted(owner, driveauth.LevelOwn) {
				if err := aclService.Grant(owner, root, driveauth.LevelOwn); err != nil {
					logger.Fatal("could not bootstrap owner:", err)
				}
				logger.Printf("granted root ownership to %s", owner)
			}
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if boltDriver != nil {
			boltDriver.Close()
		}
	},
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
