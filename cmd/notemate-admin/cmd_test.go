package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"notemate/model"
	"notemate/repository"
	"notemate/services"
	"notemate/test/testutils"
	"notemate/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func setup(t *testing.T) (*commandLine, *testutils.DB, *bytes.Buffer) {
	t.Helper()
	db := testutils.NewDB()
	out := &bytes.Buffer{}
	return &commandLine{
		users:      db.Users(),
		subjects:   usecase.NewSubjectsService(db.Subjects()),
		codes:      db.Subjects(),
		reconciler: usecase.NewReconciler(db.Subjects(), 0),
		out:        out,
	}, db, out
}

func withPassword(t *testing.T, pwd string) {
	t.Helper()
	prev := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = prev })
}

func run(cli *commandLine, args ...string) error {
	return cli.run(context.Background(), append([]string{"notemate-admin"}, args...))
}

func TestUsage(t *testing.T) {
	cli, _, out := setup(t)
	assert.Equal(t, errHelp, run(cli))
	assert.Equal(t, errHelp, run(cli, "lol"))
	assert.Contains(t, out.String(), "createadmin -name NAME -email EMAIL")
	assert.Equal(t, errHelp, run(cli, "createadmin"))
	assert.Equal(t, errHelp, run(cli, "resetpassword"))
	assert.Equal(t, errHelp, run(cli, "seed"))

	withPassword(t, "")
	assert.Equal(t, errHelp, run(cli, "createadmin", "-email", "root@uni.edu"))
}

func TestCreateAdmin(t *testing.T) {
	cli, db, out := setup(t)
	withPassword(t, "supersecret")
	ctx := context.Background()

	require.NoError(t, run(cli, "createadmin", "-name", "Root", "-email", " Root@Uni.EDU "))
	assert.Contains(t, out.String(), "created admin root@uni.edu")
	admin, err := db.Users().FindByEmail(ctx, "root@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.True(t, services.ComparePasswords(admin.Password, "supersecret"))

	// promotes and reactivates an existing student
	jane := testutils.NewUser(t, db, "Jane Doe", model.RoleStudent, "password123")
	require.NoError(t, db.Users().SoftDelete(ctx, jane.ID))
	require.NoError(t, run(cli, "createadmin", "-email", jane.Email))
	got := db.RawUser(jane.ID)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.True(t, got.IsActive)
	assert.True(t, services.ComparePasswords(got.Password, "supersecret"))

	err = run(cli, "createadmin", "-email", "new@uni.edu")
	assert.EqualError(t, err, "-name is required for a new account")

	withPassword(t, "123")
	assert.Error(t, run(cli, "createadmin", "-name", "Short", "-email", "short@uni.edu"))
}

func TestResetPassword(t *testing.T) {
	cli, db, _ := setup(t)
	jane := testutils.NewUser(t, db, "Jane Doe", model.RoleStudent, "password123")

	withPassword(t, "brandnew789")
	err := run(cli, "resetpassword", "-email", "nobody@uni.edu")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, run(cli, "resetpassword", "-email", jane.Email))
	got := db.RawUser(jane.ID)
	assert.True(t, services.ComparePasswords(got.Password, "brandnew789"))
	assert.False(t, services.ComparePasswords(got.Password, "password123"))
}

const seedYAML = `
subjects:
  - name: Programming Fundamentals
    code: cs101
    department: Computer Science
    difficulty: beginner
    credits: 4
  - name: Data Structures
    code: CS201
    department: Computer Science
    difficulty: intermediate
    tags: [algorithms, trees]
    prerequisites: [CS101]
    color: "#3366ff"
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subjects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSeed(t *testing.T) {
	cli, db, out := setup(t)
	ctx := context.Background()
	path := writeSeed(t, seedYAML)

	require.NoError(t, run(cli, "seed", "-file", path))
	assert.Contains(t, out.String(), "seeded 2 subjects, skipped 0 existing")

	basics, err := db.Subjects().FindByCode(ctx, "CS101")
	require.NoError(t, err)
	ds, err := db.Subjects().FindByCode(ctx, "cs201")
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyIntermediate, ds.Difficulty)
	assert.Equal(t, []string{"algorithms", "trees"}, ds.Tags)
	require.Len(t, ds.Prerequisites, 1)
	assert.Equal(t, basics.ID, ds.Prerequisites[0])

	out.Reset()
	require.NoError(t, run(cli, "seed", "-file", path))
	assert.Contains(t, out.String(), "seeded 0 subjects, skipped 2 existing")
}

func TestSeedRejectsBadInput(t *testing.T) {
	cli, _, _ := setup(t)

	assert.Error(t, run(cli, "seed", "-file", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, run(cli, "seed", "-file", writeSeed(t, "subjects: [oops")))

	err := run(cli, "seed", "-file", writeSeed(t, `
subjects:
  - name: Data Structures
    code: CS201
    department: Computer Science
    prerequisites: [CS999]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prerequisite CS999")

	err = run(cli, "seed", "-file", writeSeed(t, `
subjects:
  - name: X
    code: CS301
    department: Computer Science
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subject CS301")
}

func TestReconcile(t *testing.T) {
	cli, db, out := setup(t)
	ctx := context.Background()
	require.NoError(t, run(cli, "seed", "-file", writeSeed(t, seedYAML)))
	subject, err := db.Subjects().FindByCode(ctx, "CS101")
	require.NoError(t, err)
	_, err = db.Subjects().Update(ctx, subject.ID, bson.M{"notesCount": int64(5)})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, run(cli, "reconcile"))
	assert.Contains(t, out.String(), "reconciled 2 subjects")
	assert.Zero(t, db.RawSubject(subject.ID).NotesCount)
}
