package testutils

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"notemate/model"
	"notemate/repository"
	"notemate/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DB is an in-memory stand-in for the three collections. It follows the
// repository contracts: inactive documents are invisible to reads, writes
// return copies, and missing documents yield repository.ErrNotFound.
type DB struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]*model.User
	subjects map[primitive.ObjectID]*model.Subject
	notes    map[primitive.ObjectID]*model.Note

	// Fail, when set, is returned by every operation named in it.
	Fail map[string]error
}

func NewDB() *DB {
	return &DB{
		users:    map[primitive.ObjectID]*model.User{},
		subjects: map[primitive.ObjectID]*model.Subject{},
		notes:    map[primitive.ObjectID]*model.Note{},
		Fail:     map[string]error{},
	}
}

func (db *DB) Users() *Users       { return &Users{db} }
func (db *DB) Subjects() *Subjects { return &Subjects{db} }
func (db *DB) Notes() *Notes       { return &Notes{db} }

func (db *DB) fail(op string) error {
	return db.Fail[op]
}

// RawNote returns the stored note regardless of isActive.
func (db *DB) RawNote(id primitive.ObjectID) *model.Note {
	db.mu.Lock()
	defer db.mu.Unlock()
	if n, ok := db.notes[id]; ok {
		return clone(n)
	}
	return nil
}

func (db *DB) RawSubject(id primitive.ObjectID) *model.Subject {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s, ok := db.subjects[id]; ok {
		return clone(s)
	}
	return nil
}

func (db *DB) RawUser(id primitive.ObjectID) *model.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u, ok := db.users[id]; ok {
		return clone(u)
	}
	return nil
}

func paginate[T any](items []T, page utils.Page) []T {
	start := int(page.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Users

type Users struct{ *DB }

func (s *Users) Create(ctx context.Context, user *model.User) error {
	if err := s.fail("users.create"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.ID] = clone(user)
	return nil
}

func (s *Users) get(id primitive.ObjectID, activeOnly bool) (*model.User, error) {
	u, ok := s.users[id]
	if !ok || (activeOnly && !u.IsActive) {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s *Users) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.get(id, true)
	if err != nil {
		return nil, err
	}
	return clone(u), nil
}

func (s *Users) FindAnyByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.get(id, false)
	if err != nil {
		return nil, err
	}
	return clone(u), nil
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := s.fail("users.findByEmail"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) List(ctx context.Context, f repository.UserFilter, page utils.Page) ([]model.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.User
	search := strings.ToLower(f.Search)
	for _, u := range s.users {
		if !u.IsActive || (f.Role != "" && u.Role != f.Role) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Name), search) && !strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		matched = append(matched, *clone(u))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, page), int64(len(matched)), nil
}

func (s *Users) ListByIDs(ctx context.Context, ids []primitive.ObjectID, page utils.Page) ([]model.UserSummary, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.UserSummary
	for _, id := range ids {
		if u, err := s.get(id, true); err == nil {
			matched = append(matched, u.Summary())
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return paginate(matched, page), int64(len(matched)), nil
}

func (s *Users) FindSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[primitive.ObjectID]model.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

func (s *Users) update(id primitive.ObjectID, activeOnly bool, set bson.M) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.get(id, activeOnly)
	if err != nil {
		return nil, err
	}
	if email, ok := set["email"].(string); ok {
		for _, other := range s.users {
			if other.ID != id && other.Email == email {
				return nil, repository.ErrDuplicate
			}
		}
	}
	set["updatedAt"] = time.Now().UTC()
	if err := applySet(u, set); err != nil {
		return nil, err
	}
	return clone(u), nil
}

func (s *Users) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.User, error) {
	return s.update(id, true, set)
}

func (s *Users) UpdateAny(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.User, error) {
	return s.update(id, false, set)
}

func (s *Users) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.update(id, true, bson.M{"isActive": false})
	return err
}

func (s *Users) RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time, client string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastLogin = &at
		u.LastLoginClient = client
	}
	return nil
}

func (s *Users) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.get(id, true)
	if err != nil {
		return err
	}
	u.PasswordResetToken = tokenHash
	u.PasswordResetExpires = &expires
	return nil
}

func (s *Users) ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if !u.IsActive || u.PasswordResetToken != tokenHash || u.PasswordResetExpires == nil || !u.PasswordResetExpires.After(now) {
			continue
		}
		u.Password = passwordHash
		u.PasswordResetToken = ""
		u.PasswordResetExpires = nil
		u.UpdatedAt = now
		return clone(u), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Users) AddUploadedNote(ctx context.Context, userID, noteID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok && !hasID(u.UploadedNotes, noteID) {
		u.UploadedNotes = append(u.UploadedNotes, noteID)
	}
	return nil
}

func (s *Users) Follow(ctx context.Context, follower, target primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[follower]; ok && !hasID(u.Following, target) {
		u.Following = append(u.Following, target)
	}
	if u, ok := s.users[target]; ok && !hasID(u.Followers, follower) {
		u.Followers = append(u.Followers, follower)
	}
	return nil
}

func (s *Users) Unfollow(ctx context.Context, follower, target primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[follower]; ok {
		u.Following = withoutID(u.Following, target)
	}
	if u, ok := s.users[target]; ok {
		u.Followers = withoutID(u.Followers, follower)
	}
	return nil
}

func (s *Users) SetTwoFactor(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	_, err := s.update(id, true, set)
	return err
}

func (s *Users) ConsumeRecoveryCode(ctx context.Context, id primitive.ObjectID, codeHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.get(id, true)
	if err != nil {
		return false, nil
	}
	for i, h := range u.TwoFactorRecovery {
		if h == codeHash {
			u.TwoFactorRecovery = append(u.TwoFactorRecovery[:i:i], u.TwoFactorRecovery[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Subjects

type Subjects struct{ *DB }

func (s *Subjects) Create(ctx context.Context, subject *model.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.subjects {
		if existing.Code == subject.Code {
			return repository.ErrDuplicate
		}
	}
	if subject.ID.IsZero() {
		subject.ID = primitive.NewObjectID()
	}
	s.subjects[subject.ID] = clone(subject)
	return nil
}

func (s *Subjects) get(id primitive.ObjectID) (*model.Subject, error) {
	subject, ok := s.subjects[id]
	if !ok || !subject.IsActive {
		return nil, repository.ErrNotFound
	}
	return subject, nil
}

func (s *Subjects) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return clone(subject), nil
}

func (s *Subjects) FindByCode(ctx context.Context, code string) (*model.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, subject := range s.subjects {
		if subject.IsActive && subject.Code == code {
			return clone(subject), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Subjects) active() []model.Subject {
	var out []model.Subject
	for _, subject := range s.subjects {
		if subject.IsActive {
			out = append(out, *clone(subject))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Subjects) List(ctx context.Context, page utils.Page) ([]model.Subject, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.active()
	return paginate(all, page), int64(len(all)), nil
}

// Search approximates $text with a case-insensitive substring match on name,
// code and description.
func (s *Subjects) Search(ctx context.Context, q repository.SubjectSearch) ([]model.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := strings.ToLower(q.Query)
	dept := strings.ToLower(q.Department)
	out := []model.Subject{}
	for _, subject := range s.active() {
		text := strings.ToLower(subject.Name + " " + subject.Code + " " + subject.Description)
		if query != "" && !strings.Contains(text, query) {
			continue
		}
		if dept != "" && !strings.Contains(strings.ToLower(subject.Department), dept) {
			continue
		}
		if q.Difficulty != "" && subject.Difficulty != q.Difficulty {
			continue
		}
		out = append(out, subject)
		if len(out) == repository.SubjectSearchLimit {
			break
		}
	}
	return out, nil
}

func (s *Subjects) FindRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.SubjectRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[primitive.ObjectID]model.SubjectRef, len(ids))
	for _, id := range ids {
		if subject, ok := s.subjects[id]; ok {
			out[id] = subject.Ref()
		}
	}
	return out, nil
}

func (s *Subjects) CountActive(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, err := s.get(id); err == nil {
			n++
		}
	}
	return n, nil
}

func (s *Subjects) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if code, ok := set["code"].(string); ok {
		for _, other := range s.subjects {
			if other.ID != id && other.Code == code {
				return nil, repository.ErrDuplicate
			}
		}
	}
	set["updatedAt"] = time.Now().UTC()
	if err := applySet(subject, set); err != nil {
		return nil, err
	}
	return clone(subject), nil
}

func (s *Subjects) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.Update(ctx, id, bson.M{"isActive": false})
	return err
}

func (s *Subjects) IncrementCounter(ctx context.Context, id primitive.ObjectID, field string, delta int64) error {
	if err := s.fail("subjects.increment"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	subject, ok := s.subjects[id]
	if !ok {
		return nil
	}
	switch field {
	case "notesCount":
		subject.NotesCount += delta
	case "totalViews":
		subject.TotalViews += delta
	}
	return nil
}

func (s *Subjects) compute(id primitive.ObjectID) model.SubjectCounters {
	var c model.SubjectCounters
	var sum float64
	for _, n := range s.notes {
		if n.Subject != id || !n.IsActive {
			continue
		}
		c.NotesCount++
		c.TotalViews += n.Views
		sum += n.Rating
	}
	if c.NotesCount > 0 {
		c.AverageRating = model.RoundRating(sum / float64(c.NotesCount))
	}
	return c
}

func (s *Subjects) RecomputeNotesCount(ctx context.Context, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.compute(id)
	if subject, ok := s.subjects[id]; ok {
		subject.NotesCount = c.NotesCount
	}
	return c.NotesCount, nil
}

func (s *Subjects) RecomputeAverageRating(ctx context.Context, id primitive.ObjectID) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.compute(id)
	if subject, ok := s.subjects[id]; ok {
		subject.AverageRating = c.AverageRating
	}
	return c.AverageRating, nil
}

func (s *Subjects) Reconcile(ctx context.Context, id primitive.ObjectID) (model.SubjectCounters, error) {
	if err := s.fail("subjects.reconcile"); err != nil {
		return model.SubjectCounters{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.compute(id)
	if subject, ok := s.subjects[id]; ok {
		subject.NotesCount = c.NotesCount
		subject.AverageRating = c.AverageRating
		subject.TotalViews = c.TotalViews
	}
	return c, nil
}

func (s *Subjects) ActiveIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []primitive.ObjectID
	for _, subject := range s.active() {
		ids = append(ids, subject.ID)
	}
	return ids, nil
}

// Notes

type Notes struct{ *DB }

func (s *Notes) Create(ctx context.Context, note *model.Note) error {
	if err := s.fail("notes.create"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if note.ID.IsZero() {
		note.ID = primitive.NewObjectID()
	}
	s.notes[note.ID] = clone(note)
	return nil
}

func (s *Notes) get(id primitive.ObjectID) (*model.Note, error) {
	n, ok := s.notes[id]
	if !ok || !n.IsActive {
		return nil, repository.ErrNotFound
	}
	return n, nil
}

func (s *Notes) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return clone(n), nil
}

func matches(n *model.Note, f model.NoteFilter) bool {
	switch {
	case !n.IsActive:
		return false
	case !f.Subject.IsZero() && n.Subject != f.Subject:
		return false
	case !f.Author.IsZero() && n.Author != f.Author:
		return false
	case f.Difficulty != "" && n.Difficulty != f.Difficulty:
		return false
	case f.Type != "" && n.Type != f.Type:
		return false
	case f.Featured && !n.IsFeatured:
		return false
	}
	if f.Tag != "" {
		found := false
		for _, tag := range n.Tags {
			found = found || tag == f.Tag
		}
		if !found {
			return false
		}
	}
	if f.Query != "" {
		text := strings.ToLower(n.Title + " " + n.Description + " " + strings.Join(n.Tags, " "))
		return strings.Contains(text, strings.ToLower(f.Query))
	}
	return true
}

func (s *Notes) filter(f model.NoteFilter) []model.Note {
	out := []model.Note{}
	for _, n := range s.notes {
		if matches(n, f) {
			out = append(out, *clone(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Notes) List(ctx context.Context, f model.NoteFilter, page utils.Page) ([]model.Note, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.filter(f)
	return paginate(all, page), int64(len(all)), nil
}

func (s *Notes) Featured(ctx context.Context) ([]model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.filter(model.NoteFilter{Featured: true})
	sort.SliceStable(all, func(i, j int) bool { return all[i].Rating > all[j].Rating })
	if len(all) > repository.FeaturedLimit {
		all = all[:repository.FeaturedLimit]
	}
	return all, nil
}

func (s *Notes) TitlesByAuthor(ctx context.Context, author primitive.ObjectID) ([]model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(model.NoteFilter{Author: author}), nil
}

// mutate runs fn on the active note and returns a copy of the result.
func (s *Notes) mutate(id primitive.ObjectID, fn func(n *model.Note) error) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(n); err != nil {
		return nil, err
	}
	return clone(n), nil
}

func (s *Notes) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.Note, error) {
	return s.mutate(id, func(n *model.Note) error {
		set["updatedAt"] = time.Now().UTC()
		return applySet(n, set)
	})
}

func (s *Notes) SoftDelete(ctx context.Context, id primitive.ObjectID) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.get(id)
	if err != nil {
		return nil, err
	}
	before := clone(n)
	n.IsActive = false
	return before, nil
}

func (s *Notes) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.mutate(id, func(n *model.Note) error { n.Views++; return nil })
	return err
}

func (s *Notes) IncrementDownloads(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.mutate(id, func(n *model.Note) error { n.Downloads++; return nil })
	return err
}

func (s *Notes) AddFiles(ctx context.Context, id primitive.ObjectID, files []model.FileMeta) (*model.Note, error) {
	return s.mutate(id, func(n *model.Note) error {
		n.Files = append(n.Files, files...)
		return nil
	})
}

func (s *Notes) UpsertRating(ctx context.Context, id primitive.ObjectID, rating model.Rating) (*model.Note, error) {
	return s.mutate(id, func(n *model.Note) error {
		n.Ratings = model.UpsertRating(n.Ratings, rating)
		n.Rating, n.RatingsCount = model.AverageRating(n.Ratings)
		return nil
	})
}

func (s *Notes) SetReaction(ctx context.Context, id, user primitive.ObjectID, set string, add bool) (*model.Note, error) {
	return s.mutate(id, func(n *model.Note) error {
		target, other := &n.Likes, &n.Dislikes
		if set == "dislikes" {
			target, other = other, target
		}
		*target = withoutID(*target, user)
		if add {
			*target = append(*target, user)
			*other = withoutID(*other, user)
		}
		return nil
	})
}

func (s *Notes) AddComment(ctx context.Context, id primitive.ObjectID, c model.Comment) (*model.Note, error) {
	return s.mutate(id, func(n *model.Note) error {
		n.Comments = append(n.Comments, c)
		return nil
	})
}

func (s *Notes) withComment(id, commentID primitive.ObjectID, fn func(n *model.Note, i int)) (*model.Note, error) {
	return s.mutate(id, func(n *model.Note) error {
		for i := range n.Comments {
			if n.Comments[i].ID == commentID {
				fn(n, i)
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

func (s *Notes) UpdateComment(ctx context.Context, id, commentID primitive.ObjectID, text string, at time.Time) (*model.Note, error) {
	return s.withComment(id, commentID, func(n *model.Note, i int) {
		n.Comments[i].Text = text
		n.Comments[i].UpdatedAt = at
	})
}

func (s *Notes) DeleteComment(ctx context.Context, id, commentID primitive.ObjectID) (*model.Note, error) {
	return s.withComment(id, commentID, func(n *model.Note, i int) {
		n.Comments = append(n.Comments[:i:i], n.Comments[i+1:]...)
	})
}

func (s *Notes) AddReply(ctx context.Context, id, commentID primitive.ObjectID, reply model.Reply) (*model.Note, error) {
	return s.withComment(id, commentID, func(n *model.Note, i int) {
		n.Comments[i].Replies = append(n.Comments[i].Replies, reply)
	})
}

func (s *Notes) AddReport(ctx context.Context, id primitive.ObjectID, report model.Report) (*model.Note, error) {
	return s.mutate(id, func(n *model.Note) error {
		if n.HasReportFrom(report.User) {
			return repository.ErrDuplicate
		}
		n.Reports = append(n.Reports, report)
		n.ReportCount++
		return nil
	})
}

func (s *Notes) AuthorStats(ctx context.Context, author primitive.ObjectID) (model.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats model.UserStats
	var sum float64
	for _, n := range s.notes {
		if n.Author != author || !n.IsActive {
			continue
		}
		stats.NotesCount++
		stats.TotalViews += n.Views
		stats.TotalDownloads += n.Downloads
		stats.TotalLikes += int64(len(n.Likes))
		sum += n.Rating
	}
	if stats.NotesCount > 0 {
		stats.AverageRating = model.RoundRating(sum / float64(stats.NotesCount))
	}
	return stats, nil
}
