package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NoteType string

const (
	NoteTypeLecture    NoteType = "lecture"
	NoteTypeAssignment NoteType = "assignment"
	NoteTypeExam       NoteType = "exam"
	NoteTypeProject    NoteType = "project"
	NoteTypeSummary    NoteType = "summary"
	NoteTypeOther      NoteType = "other"
)

func (t NoteType) Valid() bool {
	switch t {
	case NoteTypeLecture, NoteTypeAssignment, NoteTypeExam, NoteTypeProject, NoteTypeSummary, NoteTypeOther:
		return true
	}
	return false
}

type ReportReason string

const (
	ReportInappropriate ReportReason = "inappropriate"
	ReportSpam          ReportReason = "spam"
	ReportCopyright     ReportReason = "copyright"
	ReportIncorrect     ReportReason = "incorrect"
	ReportOther         ReportReason = "other"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReportInappropriate, ReportSpam, ReportCopyright, ReportIncorrect, ReportOther:
		return true
	}
	return false
}

const DefaultNoteLanguage = "English"

type FileMeta struct {
	ID           primitive.ObjectID `bson:"_id" json:"_id"`
	Filename     string             `bson:"filename" json:"filename"` // name in the file store
	OriginalName string             `bson:"originalName" json:"originalName"`
	Mimetype     string             `bson:"mimetype" json:"mimetype"`
	Size         int64              `bson:"size" json:"size"`
	Path         string             `bson:"path" json:"-"`
}

type Rating struct {
	User      primitive.ObjectID `bson:"user" json:"user"`
	Rating    int                `bson:"rating" json:"rating"`
	Review    string             `bson:"review,omitempty" json:"review,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Reply struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	Replies   []Reply            `bson:"replies" json:"replies"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Report struct {
	User        primitive.ObjectID `bson:"user" json:"user"`
	Reason      ReportReason       `bson:"reason" json:"reason"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

type Note struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Title        string               `bson:"title" json:"title"`
	Description  string               `bson:"description" json:"description"`
	Content      string               `bson:"content,omitempty" json:"content,omitempty"`
	Subject      primitive.ObjectID   `bson:"subject" json:"subject"`
	Author       primitive.ObjectID   `bson:"author" json:"author"`
	Files        []FileMeta           `bson:"files" json:"files"`
	Tags         []string             `bson:"tags" json:"tags"`
	Difficulty   Difficulty           `bson:"difficulty" json:"difficulty"`
	Type         NoteType             `bson:"type" json:"type"`
	Language     string               `bson:"language" json:"language"`
	Semester     int                  `bson:"semester,omitempty" json:"semester,omitempty"`
	Year         int                  `bson:"year,omitempty" json:"year,omitempty"`
	University   string               `bson:"university,omitempty" json:"university,omitempty"`
	Professor    string               `bson:"professor,omitempty" json:"professor,omitempty"`
	Rating       float64              `bson:"rating" json:"rating"`
	RatingsCount int                  `bson:"ratingsCount" json:"ratingsCount"`
	Ratings      []Rating             `bson:"ratings" json:"ratings"`
	Views        int64                `bson:"views" json:"views"`
	Downloads    int64                `bson:"downloads" json:"downloads"`
	Likes        []primitive.ObjectID `bson:"likes" json:"likes"`
	Dislikes     []primitive.ObjectID `bson:"dislikes" json:"dislikes"`
	Comments     []Comment            `bson:"comments" json:"comments"`
	Reports      []Report             `bson:"reports" json:"-"`
	ReportCount  int                  `bson:"reportCount" json:"reportCount"`
	IsPremium    bool                 `bson:"isPremium" json:"isPremium"`
	Price        float64              `bson:"price" json:"price"`
	IsVerified   bool                 `bson:"isVerified" json:"isVerified"`
	VerifiedBy   *primitive.ObjectID  `bson:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
	VerifiedAt   *time.Time           `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
	IsFeatured   bool                 `bson:"isFeatured" json:"isFeatured"`
	IsActive     bool                 `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// NewNote returns a note with the schema defaults applied. Moderation flags
// start cleared.
func NewNote(author, subject primitive.ObjectID) *Note {
	now := time.Now().UTC()
	return &Note{
		Subject:    subject,
		Author:     author,
		Files:      []FileMeta{},
		Tags:       []string{},
		Difficulty: DifficultyIntermediate,
		Type:       NoteTypeLecture,
		Language:   DefaultNoteLanguage,
		Ratings:    []Rating{},
		Likes:      []primitive.ObjectID{},
		Dislikes:   []primitive.ObjectID{},
		Comments:   []Comment{},
		Reports:    []Report{},
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (n *Note) LikesCount() int    { return len(n.Likes) }
func (n *Note) DislikesCount() int { return len(n.Dislikes) }
func (n *Note) CommentsCount() int { return len(n.Comments) }

func (n *Note) FindComment(id primitive.ObjectID) *Comment {
	for i := range n.Comments {
		if n.Comments[i].ID == id {
			return &n.Comments[i]
		}
	}
	return nil
}

func (n *Note) FindFile(id primitive.ObjectID) *FileMeta {
	for i := range n.Files {
		if n.Files[i].ID == id {
			return &n.Files[i]
		}
	}
	return nil
}

func (n *Note) HasReportFrom(user primitive.ObjectID) bool {
	for _, r := range n.Reports {
		if r.User == user {
			return true
		}
	}
	return false
}

// NoteFilter narrows note listings. Zero values are ignored.
type NoteFilter struct {
	Subject    primitive.ObjectID
	Author     primitive.ObjectID
	Difficulty Difficulty
	Type       NoteType
	Tag        string
	Featured   bool
	Query      string // full text
}
