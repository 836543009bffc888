package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"notemate/dto"
	"notemate/model"
	"notemate/repository"
	"notemate/services"
	"notemate/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgNoteNotFound    = "Note not found"
	msgSubjectNotFound = "Subject not found"
	msgCommentNotFound = "Comment not found"
	msgNotNoteOwner    = "Not authorized to modify this note"
)

type NotesService struct {
	Notes       NoteStore
	Subjects    SubjectStore
	Users       UserStore
	Files       services.FileStore
	Cache       Cache // featured notes, optional
	MaxFileSize int64
	MaxFiles    int

	now func() time.Time
}

func NewNotesService(notes NoteStore, subjects SubjectStore, users UserStore, files services.FileStore, featured Cache, maxFileSize int64, maxFiles int) *NotesService {
	return &NotesService{
		Notes:       notes,
		Subjects:    subjects,
		Users:       users,
		Files:       files,
		Cache:       featured,
		MaxFileSize: maxFileSize,
		MaxFiles:    maxFiles,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (svc *NotesService) populate() populator {
	return populator{users: svc.Users, subjects: svc.Subjects}
}

// invalidate drops the featured cache. A cache failure only costs freshness,
// so it is logged rather than returned.
func (svc *NotesService) invalidate(ctx context.Context) {
	if svc.Cache == nil {
		return
	}
	if err := svc.Cache.Invalidate(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("featured cache invalidation failed")
	}
}

func (svc *NotesService) page(ctx context.Context, f model.NoteFilter, page utils.Page) (*dto.NotesPage, error) {
	notes, total, err := svc.Notes.List(ctx, f, page)
	if err != nil {
		return nil, err
	}
	items, err := svc.populate().listItems(ctx, notes)
	if err != nil {
		return nil, err
	}
	return &dto.NotesPage{Notes: items, Pagination: utils.NewPagination(page, total)}, nil
}

func (svc *NotesService) List(ctx context.Context, f model.NoteFilter, page utils.Page) (*dto.NotesPage, error) {
	f.Query = ""
	return svc.page(ctx, f, page)
}

func (svc *NotesService) Search(ctx context.Context, f model.NoteFilter, page utils.Page) (*dto.NotesPage, error) {
	f.Query = strings.TrimSpace(f.Query)
	if f.Query == "" {
		return nil, invalid("Search query is required")
	}
	return svc.page(ctx, f, page)
}

func (svc *NotesService) BySubject(ctx context.Context, subjectID primitive.ObjectID, page utils.Page) (*dto.NotesPage, error) {
	if _, err := svc.Subjects.FindByID(ctx, subjectID); err != nil {
		return nil, orNotFound(err, msgSubjectNotFound)
	}
	return svc.page(ctx, model.NoteFilter{Subject: subjectID}, page)
}

func (svc *NotesService) ByAuthor(ctx context.Context, authorID primitive.ObjectID, page utils.Page) (*dto.NotesPage, error) {
	if _, err := svc.Users.FindByID(ctx, authorID); err != nil {
		return nil, orNotFound(err, "User not found")
	}
	return svc.page(ctx, model.NoteFilter{Author: authorID}, page)
}

func (svc *NotesService) MyNotes(ctx context.Context, actor *model.Actor, page utils.Page) (*dto.NotesPage, error) {
	return svc.page(ctx, model.NoteFilter{Author: actor.ID}, page)
}

func (svc *NotesService) Featured(ctx context.Context) ([]dto.NoteListItem, error) {
	if svc.Cache != nil {
		var cached []dto.NoteListItem
		hit, err := svc.Cache.Get(ctx, &cached)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("featured cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	notes, err := svc.Notes.Featured(ctx)
	if err != nil {
		return nil, err
	}
	items, err := svc.populate().listItems(ctx, notes)
	if err != nil {
		return nil, err
	}
	if svc.Cache != nil {
		if err := svc.Cache.Set(ctx, items); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("featured cache write failed")
		}
	}
	return items, nil
}

// Get returns the populated note. Anyone other than the author adds one view,
// to the note and to its subject's totalViews.
func (svc *NotesService) Get(ctx context.Context, id primitive.ObjectID, viewer *model.Actor) (*dto.NoteDetail, error) {
	note, err := svc.Notes.FindByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, msgNoteNotFound)
	}

	if viewer == nil || viewer.ID != note.Author {
		if err := svc.Notes.IncrementViews(ctx, id); err != nil {
			return nil, orNotFound(err, msgNoteNotFound)
		}
		note.Views++
		if err := svc.Subjects.IncrementCounter(ctx, note.Subject, "totalViews", 1); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("subject", note.Subject.Hex()).Msg("subject view counter not updated")
		}
	}
	return svc.populate().detail(ctx, note)
}

func (svc *NotesService) Create(ctx context.Context, actor *model.Actor, req dto.CreateNoteRequest) (*dto.NoteDetail, error) {
	subjectID, err := primitive.ObjectIDFromHex(req.Subject)
	if err != nil {
		return nil, invalid("Valid subject ID is required")
	}
	if _, err := svc.Subjects.FindByID(ctx, subjectID); err != nil {
		return nil, orNotFound(err, msgSubjectNotFound)
	}

	note := model.NewNote(actor.ID, subjectID)
	note.Title = req.Title
	note.Description = req.Description
	note.Content = req.Content
	note.Tags = dto.NormalizeTags(req.Tags)
	if req.Difficulty != "" {
		note.Difficulty = req.Difficulty
	}
	if req.Type != "" {
		note.Type = req.Type
	}
	if req.Language != "" {
		note.Language = req.Language
	}
	note.Semester = req.Semester
	note.Year = req.Year
	note.University = req.University
	note.Professor = req.Professor
	note.IsPremium = req.IsPremium
	note.Price = req.Price
	now := svc.now()
	note.CreatedAt, note.UpdatedAt = now, now

	if err := svc.Notes.Create(ctx, note); err != nil {
		return nil, err
	}
	utils.TrackNoteOperation("create")

	// The note exists from here on. Counter drift from a failure below is
	// repaired by the reconciler.
	if err := svc.Subjects.IncrementCounter(ctx, subjectID, "notesCount", 1); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("subject", subjectID.Hex()).Msg("subject notesCount not incremented")
	}
	if err := svc.Users.AddUploadedNote(ctx, actor.ID, note.ID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("note", note.ID.Hex()).Msg("note not linked to author")
	}
	svc.invalidate(ctx)
	return svc.populate().detail(ctx, note)
}

// loadOwned fetches an active note the actor may modify.
func (svc *NotesService) loadOwned(ctx context.Context, actor *model.Actor, id primitive.ObjectID) (*model.Note, error) {
	note, err := svc.Notes.FindByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, msgNoteNotFound)
	}
	if !model.CanModifyNote(actor, note) {
		return nil, forbidden(msgNotNoteOwner)
	}
	return note, nil
}

func (svc *NotesService) Update(ctx context.Context, actor *model.Actor, id primitive.ObjectID, req dto.UpdateNoteRequest) (*dto.NoteDetail, error) {
	existing, err := svc.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	setString := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	setString("title", req.Title)
	setString("description", req.Description)
	setString("content", req.Content)
	setString("language", req.Language)
	setString("university", req.University)
	setString("professor", req.Professor)
	if req.Tags != nil {
		set["tags"] = dto.NormalizeTags(req.Tags)
	}
	if req.Difficulty != nil {
		set["difficulty"] = *req.Difficulty
	}
	if req.Type != nil {
		set["type"] = *req.Type
	}
	if req.Semester != nil {
		set["semester"] = *req.Semester
	}
	if req.Year != nil {
		set["year"] = *req.Year
	}
	if req.IsPremium != nil {
		set["isPremium"] = *req.IsPremium
	}
	if req.Price != nil {
		set["price"] = *req.Price
	}

	var movedFrom primitive.ObjectID
	if req.Subject != nil {
		subjectID, err := primitive.ObjectIDFromHex(*req.Subject)
		if err != nil {
			return nil, invalid("Valid subject ID is required")
		}
		if subjectID != existing.Subject {
			if _, err := svc.Subjects.FindByID(ctx, subjectID); err != nil {
				return nil, orNotFound(err, msgSubjectNotFound)
			}
			set["subject"] = subjectID
			movedFrom = existing.Subject
		}
	}

	updated, err := svc.Notes.Update(ctx, id, set)
	if err != nil {
		return nil, orNotFound(err, msgNoteNotFound)
	}
	utils.TrackNoteOperation("update")

	if !movedFrom.IsZero() {
		svc.moveSubjectCounters(ctx, movedFrom, updated.Subject)
	}
	svc.invalidate(ctx)
	return svc.populate().detail(ctx, updated)
}

func (svc *NotesService) moveSubjectCounters(ctx context.Context, from, to primitive.ObjectID) {
	logger := zerolog.Ctx(ctx)
	if err := svc.Subjects.IncrementCounter(ctx, from, "notesCount", -1); err != nil {
		logger.Error().Err(err).Str("subject", from.Hex()).Msg("subject notesCount not decremented")
	}
	if err := svc.Subjects.IncrementCounter(ctx, to, "notesCount", 1); err != nil {
		logger.Error().Err(err).Str("subject", to.Hex()).Msg("subject notesCount not incremented")
	}
	for _, id := range []primitive.ObjectID{from, to} {
		if _, err := svc.Subjects.RecomputeAverageRating(ctx, id); err != nil {
			logger.Error().Err(err).Str("subject", id.Hex()).Msg("subject averageRating not recomputed")
		}
	}
}

// Delete soft-deletes the note. Only the call that actually flipped isActive
// touches the subject counters.
func (svc *NotesService) Delete(ctx context.Context, actor *model.Actor, id primitive.ObjectID) error {
	if _, err := svc.loadOwned(ctx, actor, id); err != nil {
		return err
	}
	removed, err := svc.Notes.SoftDelete(ctx, id)
	if err != nil {
		return orNotFound(err, msgNoteNotFound)
	}
	utils.TrackNoteOperation("delete")

	logger := zerolog.Ctx(ctx)
	if err := svc.Subjects.IncrementCounter(ctx, removed.Subject, "notesCount", -1); err != nil {
		logger.Error().Err(err).Str("subject", removed.Subject.Hex()).Msg("subject notesCount not decremented")
	}
	if _, err := svc.Subjects.RecomputeAverageRating(ctx, removed.Subject); err != nil {
		logger.Error().Err(err).Str("subject", removed.Subject.Hex()).Msg("subject averageRating not recomputed")
	}
	svc.invalidate(ctx)
	return nil
}

// Upload is one file of a multipart request.
type Upload struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// Upload stores the files and attaches their metadata. Limits are checked
// before anything is written.
func (svc *NotesService) Upload(ctx context.Context, actor *model.Actor, id primitive.ObjectID, uploads []Upload) (*dto.NoteDetail, error) {
	if len(uploads) == 0 {
		return nil, invalid("No files uploaded")
	}
	if svc.MaxFiles > 0 && len(uploads) > svc.MaxFiles {
		return nil, tooLarge(fmt.Sprintf("Too many files. Maximum is %d per upload", svc.MaxFiles))
	}
	for _, u := range uploads {
		if u.Size > svc.MaxFileSize {
			return nil, tooLarge(fmt.Sprintf("File %s exceeds the maximum size of %d bytes", u.Name, svc.MaxFileSize))
		}
	}
	if _, err := svc.loadOwned(ctx, actor, id); err != nil {
		return nil, err
	}

	metas := make([]model.FileMeta, 0, len(uploads))
	for _, u := range uploads {
		meta, err := svc.store(u)
		if err != nil {
			svc.discard(ctx, metas)
			return nil, err
		}
		metas = append(metas, meta)
	}

	updated, err := svc.Notes.AddFiles(ctx, id, metas)
	if err != nil {
		svc.discard(ctx, metas)
		return nil, orNotFound(err, msgNoteNotFound)
	}
	utils.TrackNoteOperation("upload")
	return svc.populate().detail(ctx, updated)
}

func (svc *NotesService) store(u Upload) (model.FileMeta, error) {
	r, err := u.Open()
	if err != nil {
		return model.FileMeta{}, errors.Wrap(err, "opening upload")
	}
	defer r.Close()

	// Cap the copy in case the declared size lied.
	stored, err := svc.Files.Save(u.Name, io.LimitReader(r, svc.MaxFileSize+1))
	if err != nil {
		return model.FileMeta{}, err
	}
	if stored.Size > svc.MaxFileSize {
		_ = svc.Files.Remove(stored.Path)
		return model.FileMeta{}, tooLarge(fmt.Sprintf("File %s exceeds the maximum size of %d bytes", u.Name, svc.MaxFileSize))
	}
	mime := u.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return model.FileMeta{
		ID:           primitive.NewObjectID(),
		Filename:     stored.Filename,
		OriginalName: u.Name,
		Mimetype:     mime,
		Size:         stored.Size,
		Path:         stored.Path,
	}, nil
}

func (svc *NotesService) discard(ctx context.Context, metas []model.FileMeta) {
	for _, m := range metas {
		if err := svc.Files.Remove(m.Path); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", m.Path).Msg("orphaned upload not removed")
		}
	}
}

// Download is an open stored file ready to stream.
type Download struct {
	Name     string
	MimeType string
	Size     int64
	Content  io.ReadSeekCloser
}

func (svc *NotesService) Download(ctx context.Context, id, fileID primitive.ObjectID) (*Download, error) {
	note, err := svc.Notes.FindByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, msgNoteNotFound)
	}
	file := note.FindFile(fileID)
	if file == nil {
		return nil, notFound("File not found")
	}
	content, err := svc.Files.Open(file.Path)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("path", file.Path).Msg("stored file missing")
		return nil, notFound("File not found")
	}
	if err := svc.Notes.IncrementDownloads(ctx, id); err != nil {
		content.Close()
		return nil, orNotFound(err, msgNoteNotFound)
	}
	utils.TrackNoteOperation("download")
	return &Download{Name: file.OriginalName, MimeType: file.Mimetype, Size: file.Size, Content: content}, nil
}

func (svc *NotesService) Rate(ctx context.Context, actor *model.Actor, id primitive.ObjectID, req dto.RateNoteRequest) (*dto.RatingResult, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, invalid("Rating must be between 1 and 5")
	}
	updated, err := svc.Notes.UpsertRating(ctx, id, model.Rating{
		User:      actor.ID,
		Rating:    req.Rating,
		Review:    req.Review,
		CreatedAt: svc.now(),
	})
	if err != nil {
		return nil, orNotFound(err, msgNoteNotFound)
	}
	utils.TrackNoteOperation("rate")

	if _, err := svc.Subjects.RecomputeAverageRating(ctx, updated.Subject); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("subject", updated.Subject.Hex()).Msg("subject averageRating not recomputed")
	}
	svc.invalidate(ctx)
	return &dto.RatingResult{Rating: updated.Rating, RatingsCount: updated.RatingsCount}, nil
}

const (
	setLikes    = "likes"
	setDislikes = "dislikes"
)

// React adds or removes the actor from likes or dislikes. Adding to one set
// always removes from the other.
func (svc *NotesService) React(ctx context.Context, actor *model.Actor, id primitive.ObjectID, set string, add bool) (*dto.Reactions, error) {
	if set != setLikes && set != setDislikes {
		return nil, invalid("Unknown reaction")
	}
	updated, err := svc.Notes.SetReaction(ctx, id, actor.ID, set, add)
	if err != nil {
		return nil, orNotFound(err, msgNoteNotFound)
	}
	utils.TrackNoteOperation(set)
	return &dto.Reactions{
		LikesCount:    updated.LikesCount(),
		DislikesCount: updated.DislikesCount(),
		Liked:         containsID(updated.Likes, actor.ID),
		Disliked:      containsID(updated.Dislikes, actor.ID),
	}, nil
}

func (svc *NotesService) Like(ctx context.Context, actor *model.Actor, id primitive.ObjectID) (*dto.Reactions, error) {
	return svc.React(ctx, actor, id, setLikes, true)
}

func (svc *NotesService) Unlike(ctx context.Context, actor *model.Actor, id primitive.ObjectID) (*dto.Reactions, error) {
	return svc.React(ctx, actor, id, setLikes, false)
}

func (svc *NotesService) Dislike(ctx context.Context, actor *model.Actor, id primitive.ObjectID) (*dto.Reactions, error) {
	return svc.React(ctx, actor, id, setDislikes, true)
}

func (svc *NotesService) Undislike(ctx context.Context, actor *model.Actor, id primitive.ObjectID) (*dto.Reactions, error) {
	return svc.React(ctx, actor, id, setDislikes, false)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (svc *NotesService) AddComment(ctx context.Context, actor *model.Actor, id primitive.ObjectID, text string) (*dto.CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("Comment must be between 1 and 500 characters")
	}
	now := svc.now()
	comment := model.Comment{
		ID:        primitive.NewObjectID(),
		User:      actor.ID,
		Text:      text,
		Replies:   []model.Reply{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := svc.Notes.AddComment(ctx, id, comment); err != nil {
		return nil, orNotFound(err, msgNoteNotFound)
	}
	utils.TrackNoteOperation("comment")
	return svc.populate().comment(ctx, &comment)
}

// loadComment fetches an active note and one of its comments.
func (svc *NotesService) loadComment(ctx context.Context, id, commentID primitive.ObjectID) (*model.Note, *model.Comment, error) {
	note, err := svc.Notes.FindByID(ctx, id)
	if err != nil {
		return nil, nil, orNotFound(err, msgNoteNotFound)
	}
	comment := note.FindComment(commentID)
	if comment == nil {
		return nil, nil, notFound(msgCommentNotFound)
	}
	return note, comment, nil
}

func (svc *NotesService) UpdateComment(ctx context.Context, actor *model.Actor, id, commentID primitive.ObjectID, text string) (*dto.CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("Comment must be between 1 and 500 characters")
	}
	_, comment, err := svc.loadComment(ctx, id, commentID)
	if err != nil {
		return nil, err
	}
	if !model.CanEditComment(actor, comment) {
		return nil, forbidden("Not authorized to edit this comment")
	}
	updated, err := svc.Notes.UpdateComment(ctx, id, commentID, text, svc.now())
	if err != nil {
		return nil, orNotFound(err, msgCommentNotFound)
	}
	return svc.populate().comment(ctx, updated.FindComment(commentID))
}

func (svc *NotesService) DeleteComment(ctx context.Context, actor *model.Actor, id, commentID primitive.ObjectID) error {
	note, comment, err := svc.loadComment(ctx, id, commentID)
	if err != nil {
		return err
	}
	if !model.CanDeleteComment(actor, note, comment) {
		return forbidden("Not authorized to delete this comment")
	}
	if _, err := svc.Notes.DeleteComment(ctx, id, commentID); err != nil {
		return orNotFound(err, msgCommentNotFound)
	}
	return nil
}

func (svc *NotesService) AddReply(ctx context.Context, actor *model.Actor, id, commentID primitive.ObjectID, text string) (*dto.CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("Reply must be between 1 and 300 characters")
	}
	reply := model.Reply{ID: primitive.NewObjectID(), User: actor.ID, Text: text, CreatedAt: svc.now()}
	updated, err := svc.Notes.AddReply(ctx, id, commentID, reply)
	if errors.Is(err, repository.ErrNotFound) {
		// The filter requires both the note and the comment.
		if _, findErr := svc.Notes.FindByID(ctx, id); findErr != nil {
			return nil, notFound(msgNoteNotFound)
		}
		return nil, notFound(msgCommentNotFound)
	}
	if err != nil {
		return nil, err
	}
	utils.TrackNoteOperation("reply")
	return svc.populate().comment(ctx, updated.FindComment(commentID))
}

func (svc *NotesService) Report(ctx context.Context, actor *model.Actor, id primitive.ObjectID, req dto.ReportRequest) error {
	if !req.Reason.Valid() {
		return invalid("Invalid report reason")
	}
	_, err := svc.Notes.AddReport(ctx, id, model.Report{
		User:        actor.ID,
		Reason:      req.Reason,
		Description: req.Description,
		CreatedAt:   svc.now(),
	})
	if err != nil {
		return orConflict(orNotFound(err, msgNoteNotFound), "You have already reported this note")
	}
	utils.TrackNoteOperation("report")
	return nil
}

// Verify sets or clears the moderation badge.
func (svc *NotesService) Verify(ctx context.Context, actor *model.Actor, id primitive.ObjectID, verified bool) (*dto.NoteDetail, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("Admin access required")
	}
	set := bson.M{"isVerified": verified, "verifiedBy": nil, "verifiedAt": nil}
	if verified {
		set["verifiedBy"] = actor.ID
		set["verifiedAt"] = svc.now()
	}
	updated, err := svc.Notes.Update(ctx, id, set)
	if err != nil {
		return nil, orNotFound(err, msgNoteNotFound)
	}
	return svc.populate().detail(ctx, updated)
}

func (svc *NotesService) Feature(ctx context.Context, actor *model.Actor, id primitive.ObjectID, featured bool) (*dto.NoteDetail, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("Admin access required")
	}
	updated, err := svc.Notes.Update(ctx, id, bson.M{"isFeatured": featured})
	if err != nil {
		return nil, orNotFound(err, msgNoteNotFound)
	}
	svc.invalidate(ctx)
	return svc.populate().detail(ctx, updated)
}
