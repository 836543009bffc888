package dto

import (
	"strings"
	"time"

	"notemate/model"
	"notemate/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateNoteRequest struct {
	Title       string           `json:"title" binding:"required,min=5,max=200"`
	Description string           `json:"description" binding:"required,min=10,max=1000"`
	Content     string           `json:"content" binding:"omitempty,max=50000"`
	Subject     string           `json:"subject" binding:"required,objectid"`
	Tags        []string         `json:"tags" binding:"omitempty,max=10,dive,max=30"`
	Difficulty  model.Difficulty `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Type        model.NoteType   `json:"type" binding:"omitempty,oneof=lecture assignment exam project summary other"`
	Language    string           `json:"language" binding:"omitempty,max=50"`
	Semester    int              `json:"semester" binding:"omitempty,min=1,max=12"`
	Year        int              `json:"year" binding:"omitempty,min=1,max=6"`
	University  string           `json:"university" binding:"omitempty,max=100"`
	Professor   string           `json:"professor" binding:"omitempty,max=100"`
	IsPremium   bool             `json:"isPremium"`
	Price       float64          `json:"price" binding:"omitempty,min=0"`
}

func (r *CreateNoteRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Language = strings.TrimSpace(r.Language)
	r.University = strings.TrimSpace(r.University)
	r.Professor = strings.TrimSpace(r.Professor)
	r.Tags = NormalizeTags(r.Tags)
}

// UpdateNoteRequest is a partial update; nil fields are left alone.
type UpdateNoteRequest struct {
	Title       *string           `json:"title" binding:"omitempty,min=5,max=200"`
	Description *string           `json:"description" binding:"omitempty,min=10,max=1000"`
	Content     *string           `json:"content" binding:"omitempty,max=50000"`
	Subject     *string           `json:"subject" binding:"omitempty,objectid"`
	Tags        []string          `json:"tags" binding:"omitempty,max=10,dive,max=30"`
	Difficulty  *model.Difficulty `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Type        *model.NoteType   `json:"type" binding:"omitempty,oneof=lecture assignment exam project summary other"`
	Language    *string           `json:"language" binding:"omitempty,max=50"`
	Semester    *int              `json:"semester" binding:"omitempty,min=1,max=12"`
	Year        *int              `json:"year" binding:"omitempty,min=1,max=6"`
	University  *string           `json:"university" binding:"omitempty,max=100"`
	Professor   *string           `json:"professor" binding:"omitempty,max=100"`
	IsPremium   *bool             `json:"isPremium"`
	Price       *float64          `json:"price" binding:"omitempty,min=0"`
}

func (r *UpdateNoteRequest) Normalize() {
	trim(r.Title)
	trim(r.Description)
	trim(r.Language)
	trim(r.University)
	trim(r.Professor)
	if r.Tags != nil {
		r.Tags = NormalizeTags(r.Tags)
	}
}

type RateNoteRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review" binding:"omitempty,max=500"`
}

func (r *RateNoteRequest) Normalize() { r.Review = strings.TrimSpace(r.Review) }

type CommentRequest struct {
	Text string `json:"text" binding:"required,min=1,max=500"`
}

func (r *CommentRequest) Normalize() { r.Text = strings.TrimSpace(r.Text) }

type ReplyRequest struct {
	Text string `json:"text" binding:"required,min=1,max=300"`
}

func (r *ReplyRequest) Normalize() { r.Text = strings.TrimSpace(r.Text) }

type ReportRequest struct {
	Reason      model.ReportReason `json:"reason" binding:"required,oneof=inappropriate spam copyright incorrect other"`
	Description string             `json:"description" binding:"omitempty,max=500"`
}

func (r *ReportRequest) Normalize() { r.Description = strings.TrimSpace(r.Description) }

type VerifyRequest struct {
	IsVerified *bool `json:"isVerified" binding:"required"`
}

type FeatureRequest struct {
	IsFeatured *bool `json:"isFeatured" binding:"required"`
}

// NormalizeTags trims and de-duplicates tags, dropping blanks.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// UserRef is the name+avatar population used for comment authors.
type UserRef struct {
	ID     primitive.ObjectID `json:"_id"`
	Name   string             `json:"name"`
	Avatar string             `json:"avatar"`
}

// NoteListItem is the list projection with author and subject populated.
type NoteListItem struct {
	ID          primitive.ObjectID `json:"_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Rating      float64            `json:"rating"`
	Downloads   int64              `json:"downloads"`
	Views       int64              `json:"views"`
	Type        model.NoteType     `json:"type"`
	Difficulty  model.Difficulty   `json:"difficulty"`
	CreatedAt   time.Time          `json:"createdAt"`
	Author      *ListAuthor        `json:"author"`
	Subject     *ListSubject       `json:"subject"`
}

type ListAuthor struct {
	ID         primitive.ObjectID `json:"_id"`
	Name       string             `json:"name"`
	Avatar     string             `json:"avatar"`
	Reputation int                `json:"reputation"`
}

type ListSubject struct {
	ID   primitive.ObjectID `json:"_id"`
	Name string             `json:"name"`
	Code string             `json:"code"`
}

type ReplyView struct {
	ID        primitive.ObjectID `json:"_id"`
	User      *UserRef           `json:"user"`
	Text      string             `json:"text"`
	CreatedAt time.Time          `json:"createdAt"`
}

type CommentView struct {
	ID        primitive.ObjectID `json:"_id"`
	User      *UserRef           `json:"user"`
	Text      string             `json:"text"`
	Replies   []ReplyView        `json:"replies"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// NoteDetail is the fully populated single-note view.
type NoteDetail struct {
	ID            primitive.ObjectID   `json:"_id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Content       string               `json:"content,omitempty"`
	Subject       *model.SubjectRef    `json:"subject"`
	Author        *model.UserSummary   `json:"author"`
	Files         []model.FileMeta     `json:"files"`
	Tags          []string             `json:"tags"`
	Difficulty    model.Difficulty     `json:"difficulty"`
	Type          model.NoteType       `json:"type"`
	Language      string               `json:"language"`
	Semester      int                  `json:"semester,omitempty"`
	Year          int                  `json:"year,omitempty"`
	University    string               `json:"university,omitempty"`
	Professor     string               `json:"professor,omitempty"`
	Rating        float64              `json:"rating"`
	RatingsCount  int                  `json:"ratingsCount"`
	Ratings       []model.Rating       `json:"ratings"`
	Views         int64                `json:"views"`
	Downloads     int64                `json:"downloads"`
	Likes         []primitive.ObjectID `json:"likes"`
	Dislikes      []primitive.ObjectID `json:"dislikes"`
	LikesCount    int                  `json:"likesCount"`
	DislikesCount int                  `json:"dislikesCount"`
	CommentsCount int                  `json:"commentsCount"`
	Comments      []CommentView        `json:"comments"`
	ReportCount   int                  `json:"reportCount"`
	IsPremium     bool                 `json:"isPremium"`
	Price         float64              `json:"price"`
	IsVerified    bool                 `json:"isVerified"`
	VerifiedBy    *primitive.ObjectID  `json:"verifiedBy,omitempty"`
	VerifiedAt    *time.Time           `json:"verifiedAt,omitempty"`
	IsFeatured    bool                 `json:"isFeatured"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type NotesPage struct {
	Notes      []NoteListItem   `json:"notes"`
	Pagination utils.Pagination `json:"pagination"`
}

type RatingResult struct {
	Rating       float64 `json:"rating"`
	RatingsCount int     `json:"ratingsCount"`
}

type Reactions struct {
	LikesCount    int  `json:"likesCount"`
	DislikesCount int  `json:"dislikesCount"`
	Liked         bool `json:"liked"`
	Disliked      bool `json:"disliked"`
}

// Population lookups resolved by the caller in one batch each.
type (
	Summaries   map[primitive.ObjectID]model.UserSummary
	SubjectRefs map[primitive.ObjectID]model.SubjectRef
)

func ToNoteListItem(n *model.Note, authors Summaries, subjects SubjectRefs) NoteListItem {
	item := NoteListItem{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Rating:      n.Rating,
		Downloads:   n.Downloads,
		Views:       n.Views,
		Type:        n.Type,
		Difficulty:  n.Difficulty,
		CreatedAt:   n.CreatedAt,
	}
	if a, ok := authors[n.Author]; ok {
		item.Author = &ListAuthor{ID: a.ID, Name: a.Name, Avatar: a.Avatar, Reputation: a.Reputation}
	}
	if s, ok := subjects[n.Subject]; ok {
		item.Subject = &ListSubject{ID: s.ID, Name: s.Name, Code: s.Code}
	}
	return item
}

func ToNoteListItems(notes []model.Note, authors Summaries, subjects SubjectRefs) []NoteListItem {
	items := make([]NoteListItem, len(notes))
	for i := range notes {
		items[i] = ToNoteListItem(&notes[i], authors, subjects)
	}
	return items
}

func toUserRef(id primitive.ObjectID, users Summaries) *UserRef {
	u, ok := users[id]
	if !ok {
		return nil
	}
	return &UserRef{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

func ToCommentView(c *model.Comment, users Summaries) CommentView {
	view := CommentView{
		ID:        c.ID,
		User:      toUserRef(c.User, users),
		Text:      c.Text,
		Replies:   make([]ReplyView, len(c.Replies)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for i, r := range c.Replies {
		view.Replies[i] = ReplyView{ID: r.ID, User: toUserRef(r.User, users), Text: r.Text, CreatedAt: r.CreatedAt}
	}
	return view
}

func ToNoteDetail(n *model.Note, users Summaries, subjects SubjectRefs) *NoteDetail {
	d := &NoteDetail{
		ID:            n.ID,
		Title:         n.Title,
		Description:   n.Description,
		Content:       n.Content,
		Files:         nonNil(n.Files),
		Tags:          nonNil(n.Tags),
		Difficulty:    n.Difficulty,
		Type:          n.Type,
		Language:      n.Language,
		Semester:      n.Semester,
		Year:          n.Year,
		University:    n.University,
		Professor:     n.Professor,
		Rating:        n.Rating,
		RatingsCount:  n.RatingsCount,
		Ratings:       nonNil(n.Ratings),
		Views:         n.Views,
		Downloads:     n.Downloads,
		Likes:         nonNil(n.Likes),
		Dislikes:      nonNil(n.Dislikes),
		LikesCount:    n.LikesCount(),
		DislikesCount: n.DislikesCount(),
		CommentsCount: n.CommentsCount(),
		Comments:      make([]CommentView, len(n.Comments)),
		ReportCount:   n.ReportCount,
		IsPremium:     n.IsPremium,
		Price:         n.Price,
		IsVerified:    n.IsVerified,
		VerifiedBy:    n.VerifiedBy,
		VerifiedAt:    n.VerifiedAt,
		IsFeatured:    n.IsFeatured,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
	if a, ok := users[n.Author]; ok {
		d.Author = &a
	}
	if s, ok := subjects[n.Subject]; ok {
		d.Subject = &s
	}
	for i := range n.Comments {
		d.Comments[i] = ToCommentView(&n.Comments[i], users)
	}
	return d
}

// ReferencedUsers lists the author and every comment and reply author.
func ReferencedUsers(n *model.Note) []primitive.ObjectID {
	ids := []primitive.ObjectID{n.Author}
	for _, c := range n.Comments {
		ids = append(ids, c.User)
		for _, r := range c.Replies {
			ids = append(ids, r.User)
		}
	}
	return UniqueIDs(ids)
}

func UniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
