// Package cli — команды helptokenctl для операторов: просмотр и повтор записей
// расчёта, сверка балансов, миграции и выпуск тестовых токенов.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/helptoken/helptoken/internal/app/bootstrap"
	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/config"
	"github.com/helptoken/helptoken/internal/lib/sl"
)

// operatorUID подставляется, если --operator не задан.
var operatorUID = uuid.Nil.String()

type app struct {
	configPath string
	operator   string
	verbose    bool

	loadConfig func(path string) (*config.Config, error)
	openStore  func(cfg *config.Config) (bootstrap.Store, error)
}

// NewRootCommand собирает дерево команд helptokenctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{
		loadConfig: config.Load,
		openStore: func(cfg *config.Config) (bootstrap.Store, error) {
			db, err := bootstrap.OpenReadyStorage(cfg, 1, 0)
			if err != nil {
				return nil, err
			}
			return db, nil
		},
	})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "helptokenctl",
		Short:         "Operate the HelpToken ledger service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to the YAML config (defaults to $CONFIG_PATH)")
	root.PersistentFlags().StringVar(&a.operator, "operator", operatorUID, "operator uid recorded in logs")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newSettlementsCommand(a),
		newAuditCommand(a),
		newMigrateCommand(a),
		newTokenCommand(a),
	)
	return root
}

func (a *app) config() (*config.Config, error) {
	if a.configPath == "" {
		return nil, fmt.Errorf("config path is required: pass --config or set CONFIG_PATH")
	}
	return a.loadConfig(a.configPath)
}

func (a *app) logger(w io.Writer) *slog.Logger {
	env := "prod"
	if a.verbose {
		env = sl.EnvLocal
	}
	return sl.New(env, w)
}

// identity — администратор, от имени которого выполняются операторские действия.
func (a *app) identity() (authz.Identity, error) {
	if _, err := uuid.Parse(a.operator); err != nil {
		return authz.Identity{}, fmt.Errorf("operator must be a uuid: %w", err)
	}
	return authz.Identity{UserUID: a.operator, Role: authz.RoleAdmin}, nil
}
