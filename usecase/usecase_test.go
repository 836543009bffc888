package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"notemate/model"
	"notemate/services"
	"notemate/test/testutils"
	"notemate/usecase"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testMaxFileSize = 1024

type recordingMailer struct {
	mu   sync.Mutex
	sent []services.Message
}

func (m *recordingMailer) Send(ctx context.Context, msg services.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) last(t *testing.T) services.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail sent")
	return m.sent[len(m.sent)-1]
}

type fixture struct {
	db        *testutils.DB
	redis     *miniredis.Miniredis
	tokens    *services.TokenService
	blacklist *services.RedisTokenBlacklist
	mailer    *recordingMailer

	notes    *usecase.NotesService
	subjects *usecase.SubjectsService
	users    *usecase.UsersService
	auth     *usecase.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	files, err := services.NewLocalFileStore(t.TempDir())
	require.NoError(t, err)

	db := testutils.NewDB()
	f := &fixture{
		db:        db,
		redis:     mr,
		tokens:    services.NewTokenService(testutils.TestSecret, time.Hour),
		blacklist: services.NewTokenBlacklist(client),
		mailer:    &recordingMailer{},
	}
	f.notes = usecase.NewNotesService(db.Notes(), db.Subjects(), db.Users(), files,
		services.NewFeaturedCache(client), testMaxFileSize, 3)
	f.subjects = usecase.NewSubjectsService(db.Subjects())
	f.users = usecase.NewUsersService(db.Users(), db.Notes())
	f.auth = usecase.NewAuthService(db.Users(), f.tokens, f.blacklist,
		services.NewTwoFactor("NoteMate"), f.mailer, "http://localhost:3000")
	return f
}

func (f *fixture) user(t *testing.T, name string, role model.Role) *model.User {
	return testutils.NewUser(t, f.db, name, role, "")
}

func (f *fixture) subject(t *testing.T, code string) *model.Subject {
	t.Helper()
	s := model.NewSubject("Subject "+code, code, "Computer Science", primitive.NewObjectID())
	require.NoError(t, f.db.Subjects().Create(context.Background(), s))
	return s
}

func assertKind(t *testing.T, err error, kind usecase.Kind) {
	t.Helper()
	require.Error(t, err)
	ue, ok := usecase.AsError(err)
	require.True(t, ok, "expected a usecase error, got %v", err)
	assert.Equal(t, kind, ue.Kind, ue.Message)
}
