package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/arzan03/SchoolDesk/internal/logger"
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/services"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/store/memstore"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, password string) (*commandLine, store.Repos, *int) {
	t.Helper()
	repos := memstore.NewRepos()
	migrations := 0
	cli := &commandLine{
		users: services.NewUserService(repos, logger.Discard()),
		repos: repos,
		migrate: func(context.Context) error {
			migrations++
			return nil
		},
		out: &bytes.Buffer{},
	}
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
	return cli, repos, &migrations
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runTests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(context.Background(), append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommandLine_Usage(t *testing.T) {
	cli, _, _ := setup(t, "password1")
	runTests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"createadmin", "-lol"}, wantErr: errHelp},
	})
	assert.Contains(t, cli.out.(*bytes.Buffer).String(), "createadmin -name NAME -email EMAIL")
}

func TestCommandLine_CreateAdmin(t *testing.T) {
	cli, repos, _ := setup(t, "password1")
	runTests(t, cli, []cliTest{
		{name: "no args", args: []string{"createadmin"}, wantErr: errHelp},
		{name: "email missing", args: []string{"createadmin", "-name", "Root"}, wantErr: errHelp},
		{name: "invalid email", args: []string{"createadmin", "-name", "Root", "-email", "nope"}, wantErr: services.ErrInvalidInput},
		{name: "created", args: []string{"createadmin", "-name", "Root", "-email", "Root@School.test"}},
		{name: "duplicate", args: []string{"createadmin", "-name", "Root", "-email", "root@school.test"}, wantErr: services.ErrEmailInUse},
	})

	admin, err := repos.Users.FindOne(context.Background(), store.Where(store.Eq("email", "root@school.test")))
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, admin.Role)
	assert.True(t, services.VerifyPassword("password1", admin.PasswordHash))
}

func TestCommandLine_CreateAdminEmptyPassword(t *testing.T) {
	cli, _, _ := setup(t, "")
	runTests(t, cli, []cliTest{
		{name: "empty password", args: []string{"createadmin", "-name", "Root", "-email", "root@school.test"}, wantErr: errHelp},
	})

	readPasswordFunc = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }
	runTests(t, cli, []cliTest{
		{name: "prompt fails", args: []string{"createadmin", "-name", "Root", "-email", "root@school.test"}, wantErrStr: "not a terminal"},
	})
}

func TestCommandLine_ResetPassword(t *testing.T) {
	cli, repos, _ := setup(t, "newpassword")
	ctx := context.Background()
	user := models.User{Base: models.Base{ID: "STU-1"}, Email: "amara@school.test", Role: models.RoleStudent, Status: models.UserActive}
	require.NoError(t, repos.Users.Insert(ctx, &user))

	runTests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "unknown user", args: []string{"resetpassword", "-email", "ghost@school.test"}, wantErrStr: "no user with email ghost@school.test"},
		{name: "reset", args: []string{"resetpassword", "-email", "AMARA@school.test"}},
	})

	got, err := repos.Users.Get(ctx, "STU-1")
	require.NoError(t, err)
	assert.True(t, services.VerifyPassword("newpassword", got.PasswordHash))

	readPasswordFunc = func(int) ([]byte, error) { return []byte("short"), nil }
	runTests(t, cli, []cliTest{
		{name: "short password", args: []string{"resetpassword", "-email", "amara@school.test"}, wantErrStr: "at least 8 characters"},
	})
}

func TestCommandLine_Migrate(t *testing.T) {
	cli, _, migrations := setup(t, "")
	runTests(t, cli, []cliTest{{name: "migrate", args: []string{"migrate"}}})
	assert.Equal(t, 1, *migrations)

	cli.migrate = func(context.Context) error { return errors.New("no database") }
	runTests(t, cli, []cliTest{{name: "migrate fails", args: []string{"migrate"}, wantErrStr: "no database"}})
}
