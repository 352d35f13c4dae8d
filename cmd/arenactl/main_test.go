package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dosada05/x1-arena/utils"
)

func TestHashPassword(t *testing.T) {
	utils.BcryptCost = bcrypt.MinCost
	var out bytes.Buffer

	require.NoError(t, newApp(&out).Run([]string{"arenactl", "hash-password", "letmein"}))

	hash := strings.TrimSpace(out.String())
	assert.True(t, utils.CheckPasswordHash("letmein", hash))
}

func TestHashPassword_Rejects(t *testing.T) {
	var out bytes.Buffer
	app := newApp(&out)
	app.ExitErrHandler = func(*cli.Context, error) {}

	assert.Error(t, app.Run([]string{"arenactl", "hash-password"}))
	assert.ErrorIs(t, app.Run([]string{"arenactl", "hash-password", "abc"}), utils.ErrPasswordTooShort)
}

func TestDatabaseCommandsNeedURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	var out bytes.Buffer

	err := newApp(&out).Run([]string{"arenactl", "schema"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database-url")
}
