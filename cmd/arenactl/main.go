// Command arenactl runs maintenance tasks against the tournament database.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/Dosada05/x1-arena/db"
	"github.com/Dosada05/x1-arena/repositories"
	"github.com/Dosada05/x1-arena/storage"
	"github.com/Dosada05/x1-arena/utils"
)

const connectTimeout = 5 * time.Second

func main() {
	_ = godotenv.Load()
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	dsnFlag := &cli.StringFlag{
		Name:     "database-url",
		Usage:    "PostgreSQL connection string",
		EnvVars:  []string{"DATABASE_URL"},
		Required: true,
	}

	return &cli.App{
		Name:      "arenactl",
		Usage:     "X1 Arena maintenance",
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			{
				Name:  "schema",
				Usage: "create the tournament_state table if it is missing",
				Flags: []cli.Flag{dsnFlag},
				Action: func(c *cli.Context) error {
					repo, closeDB, err := openRepository(c.String("database-url"))
					if err != nil {
						return err
					}
					defer closeDB()
					if err := repo.EnsureSchema(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "schema is up to date")
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "write the current tournament to an .xlsx workbook",
				Flags: []cli.Flag{
					dsnFlag,
					&cli.StringFlag{Name: "out", Usage: "output file", Value: "tournament.xlsx"},
				},
				Action: func(c *cli.Context) error {
					repo, closeDB, err := openRepository(c.String("database-url"))
					if err != nil {
						return err
					}
					defer closeDB()

					state, err := repo.Load(c.Context)
					if err != nil {
						return err
					}
					workbook, err := storage.BuildWorkbook(state.Redacted())
					if err != nil {
						return err
					}
					path := c.String("out")
					if err := os.WriteFile(path, workbook, 0o644); err != nil {
						return fmt.Errorf("failed to write %s: %w", path, err)
					}
					fmt.Fprintf(c.App.Writer, "exported %d players to %s\n", len(state.Competitors), path)
					return nil
				},
			},
			{
				Name:      "hash-password",
				Usage:     "print a bcrypt hash for ADMIN_PASSWORD_HASH",
				ArgsUsage: "PASSWORD",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("exactly one PASSWORD argument is required", 2)
					}
					hash, err := utils.HashPassword(c.Args().First())
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, hash)
					return nil
				},
			},
		},
	}
}

func openRepository(dsn string) (repositories.StateRepository, func(), error) {
	conn, err := db.Connect(dsn, connectTimeout)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewPostgresStateRepository(conn), func() { conn.Close() }, nil
}
