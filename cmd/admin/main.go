package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"caseintake/internal/admin"
	"caseintake/internal/auth"
	"caseintake/internal/config"
	"caseintake/internal/database"
	"caseintake/internal/export"
	"caseintake/internal/store"
)

// dbFlags 覆盖环境变量中的数据库设置。
type dbFlags struct {
	host     string
	port     int
	name     string
	user     string
	password string
	sslMode  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags dbFlags
	root := &cobra.Command{
		Use:           "caseintake-admin",
		Short:         "Herramientas de administración: operadores, migraciones y exportaciones",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.host, "db-host", "", "数据库 Host（默认读 DATABASE_HOST）")
	pf.IntVar(&flags.port, "db-port", 0, "数据库 Port（默认读 DATABASE_PORT）")
	pf.StringVar(&flags.name, "db-name", "", "数据库名（默认读 POSTGRES_DB）")
	pf.StringVar(&flags.user, "db-user", "", "数据库用户（默认读 POSTGRES_USER）")
	pf.StringVar(&flags.password, "db-password", "", "数据库密码（默认读 POSTGRES_PASSWORD）")
	pf.StringVar(&flags.sslMode, "db-sslmode", "", "数据库 SSLMODE（默认读 DATABASE_SSLMODE）")

	root.AddCommand(
		newMigrateCmd(&flags),
		newCreateOperatorCmd(&flags),
		newExportCmd(&flags),
		newDeleteCmd(&flags),
	)
	return root
}

func openDatabase(flags *dbFlags) (*gorm.DB, error) {
	cfg, err := flags.databaseConfig()
	if err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	db, err := database.InitDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	return db, nil
}

func newMigrateCmd(flags *dbFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Crea o actualiza todas las tablas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDatabase(flags)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migración completada")
			return nil
		},
	}
}

func newCreateOperatorCmd(flags *dbFlags) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "create-operator",
		Short: "Crea un operador con una contraseña aleatoria",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDatabase(flags)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}

			password, err := auth.GeneratePassword()
			if err != nil {
				return fmt.Errorf("generate password: %w", err)
			}
			op, err := auth.NewOperators(db).Create(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Operador creado (id %d)\n", op.ID)
			fmt.Fprintf(out, "Usuario: %s\n", op.Username)
			fmt.Fprintf(out, "Contraseña: %s\n", password)
			fmt.Fprintln(out, "La contraseña solo se muestra una vez.")
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "nombre de usuario del operador")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newExportCmd(flags *dbFlags) *cobra.Command {
	var (
		tab   string
		query string
		dir   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exporta el listado de usuarios a CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDatabase(flags)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			list, err := admin.NewService(store.New(db), nil).Search(ctx, admin.ParseTab(tab), query)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			body, err := export.CSV(export.SummaryRecords(list))
			if err != nil {
				return fmt.Errorf("render csv: %w", err)
			}

			path := filepath.Join(dir, export.Filename(export.DefaultPrefix, time.Now()))
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d usuarios exportados a %s\n", len(list), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&tab, "tab", string(admin.TabAll), "all | active | passive")
	cmd.Flags().StringVar(&query, "q", "", "texto de búsqueda")
	cmd.Flags().StringVar(&dir, "dir", ".", "directorio de destino")
	return cmd
}

// userDeleter 是 delete 子命令需要的 admin.Service 子集。
type userDeleter interface {
	List(ctx context.Context, tab admin.Tab) (admin.Summaries, error)
	Delete(ctx context.Context, id uint) error
}

func newDeleteCmd(flags *dbFlags) *cobra.Command {
	var (
		id      uint
		confirm bool
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Elimina un usuario y todos sus datos asociados",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return errors.New("se requiere --confirm para eliminar")
			}
			db, err := openDatabase(flags)
			if err != nil {
				return err
			}
			return deleteUser(cmd.Context(), admin.NewService(store.New(db), nil), cmd.OutOrStdout(), id)
		},
	}
	cmd.Flags().UintVar(&id, "id", 0, "id del usuario")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirma la eliminación")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// deleteUser 先在列表中定位用户用于确认输出，删除后就地裁剪列表统计剩余数量。
func deleteUser(ctx context.Context, users userDeleter, out io.Writer, id uint) error {
	list, err := users.List(ctx, admin.TabAll)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	idx := slices.IndexFunc(list, func(s admin.Summary) bool { return s.ID == id })
	if idx < 0 {
		return fmt.Errorf("user %d: %w", id, admin.ErrNotFound)
	}
	target := list[idx]

	if err := users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	remaining := list.Remove(id)
	fmt.Fprintf(out, "Usuario %d (%s %s, %s) eliminado\n", id, target.FirstName, target.FirstSurname, target.NIF)
	fmt.Fprintf(out, "Quedan %d usuarios\n", len(remaining))
	return nil
}

func (f *dbFlags) databaseConfig() (config.DatabaseConfig, error) {
	cfg := config.DatabaseConfig{
		Host:     firstNonEmpty(f.host, os.Getenv("DATABASE_HOST"), "localhost"),
		Name:     firstNonEmpty(f.name, os.Getenv("POSTGRES_DB")),
		User:     firstNonEmpty(f.user, os.Getenv("POSTGRES_USER")),
		Password: firstNonEmpty(f.password, os.Getenv("POSTGRES_PASSWORD")),
		SSLMode:  firstNonEmpty(f.sslMode, os.Getenv("DATABASE_SSLMODE"), "disable"),
		Port:     f.port,
	}
	if cfg.Port <= 0 {
		cfg.Port = 5432
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			cfg.Port = p
		}
	}

	switch {
	case cfg.Name == "":
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	case cfg.User == "":
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	case cfg.Password == "":
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
