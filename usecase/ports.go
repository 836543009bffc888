package usecase

import (
	"context"
	"time"

	"notemate/model"
	"notemate/repository"
	"notemate/services"
	"notemate/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NoteStore is implemented by repository.NotesRepo.
type NoteStore interface {
	Create(ctx context.Context, note *model.Note) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Note, error)
	List(ctx context.Context, f model.NoteFilter, page utils.Page) ([]model.Note, int64, error)
	Featured(ctx context.Context) ([]model.Note, error)
	TitlesByAuthor(ctx context.Context, author primitive.ObjectID) ([]model.Note, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.Note, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) (*model.Note, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	IncrementDownloads(ctx context.Context, id primitive.ObjectID) error
	AddFiles(ctx context.Context, id primitive.ObjectID, files []model.FileMeta) (*model.Note, error)
	UpsertRating(ctx context.Context, id primitive.ObjectID, rating model.Rating) (*model.Note, error)
	SetReaction(ctx context.Context, id, user primitive.ObjectID, set string, add bool) (*model.Note, error)
	AddComment(ctx context.Context, id primitive.ObjectID, c model.Comment) (*model.Note, error)
	UpdateComment(ctx context.Context, id, commentID primitive.ObjectID, text string, at time.Time) (*model.Note, error)
	DeleteComment(ctx context.Context, id, commentID primitive.ObjectID) (*model.Note, error)
	AddReply(ctx context.Context, id, commentID primitive.ObjectID, reply model.Reply) (*model.Note, error)
	AddReport(ctx context.Context, id primitive.ObjectID, report model.Report) (*model.Note, error)
	AuthorStats(ctx context.Context, author primitive.ObjectID) (model.UserStats, error)
}

// SubjectStore is implemented by repository.SubjectRepo.
type SubjectStore interface {
	Create(ctx context.Context, s *model.Subject) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Subject, error)
	List(ctx context.Context, page utils.Page) ([]model.Subject, int64, error)
	Search(ctx context.Context, q repository.SubjectSearch) ([]model.Subject, error)
	FindRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.SubjectRef, error)
	CountActive(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.Subject, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	IncrementCounter(ctx context.Context, id primitive.ObjectID, field string, delta int64) error
	RecomputeNotesCount(ctx context.Context, id primitive.ObjectID) (int64, error)
	RecomputeAverageRating(ctx context.Context, id primitive.ObjectID) (float64, error)
	Reconcile(ctx context.Context, id primitive.ObjectID) (model.SubjectCounters, error)
	ActiveIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// UserStore is implemented by repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindAnyByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, f repository.UserFilter, page utils.Page) ([]model.User, int64, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID, page utils.Page) ([]model.UserSummary, int64, error)
	FindSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.UserSummary, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.User, error)
	UpdateAny(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.User, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time, client string) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error
	ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*model.User, error)
	AddUploadedNote(ctx context.Context, userID, noteID primitive.ObjectID) error
	Follow(ctx context.Context, follower, target primitive.ObjectID) error
	Unfollow(ctx context.Context, follower, target primitive.ObjectID) error
	SetTwoFactor(ctx context.Context, id primitive.ObjectID, set bson.M) error
	ConsumeRecoveryCode(ctx context.Context, id primitive.ObjectID, codeHash string) (bool, error)
}

// Cache is the featured-notes cache. services.FeaturedCache implements it.
type Cache interface {
	Get(ctx context.Context, dst interface{}) (bool, error)
	Set(ctx context.Context, v interface{}) error
	Invalidate(ctx context.Context) error
}

type TokenIssuer interface {
	Issue(userID primitive.ObjectID, role model.Role) (string, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

var (
	_ NoteStore    = (*repository.NotesRepo)(nil)
	_ SubjectStore = (*repository.SubjectRepo)(nil)
	_ UserStore    = (*repository.UserRepo)(nil)
	_ Cache        = (*services.FeaturedCache)(nil)
	_ TokenIssuer  = (*services.TokenService)(nil)
	_ TokenRevoker = (*services.RedisTokenBlacklist)(nil)
)
