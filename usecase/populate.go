package usecase

import (
	"context"

	"notemate/dto"
	"notemate/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// populator resolves user and subject references in one query per
// collection, never per row.
type populator struct {
	users    UserStore
	subjects SubjectStore
}

func (p populator) listItems(ctx context.Context, notes []model.Note) ([]dto.NoteListItem, error) {
	authorIDs := make([]primitive.ObjectID, 0, len(notes))
	subjectIDs := make([]primitive.ObjectID, 0, len(notes))
	for _, n := range notes {
		authorIDs = append(authorIDs, n.Author)
		subjectIDs = append(subjectIDs, n.Subject)
	}
	authors, err := p.users.FindSummaries(ctx, dto.UniqueIDs(authorIDs))
	if err != nil {
		return nil, err
	}
	subjects, err := p.subjects.FindRefs(ctx, dto.UniqueIDs(subjectIDs))
	if err != nil {
		return nil, err
	}
	return dto.ToNoteListItems(notes, authors, subjects), nil
}

func (p populator) detail(ctx context.Context, n *model.Note) (*dto.NoteDetail, error) {
	users, err := p.users.FindSummaries(ctx, dto.ReferencedUsers(n))
	if err != nil {
		return nil, err
	}
	subjects, err := p.subjects.FindRefs(ctx, []primitive.ObjectID{n.Subject})
	if err != nil {
		return nil, err
	}
	return dto.ToNoteDetail(n, users, subjects), nil
}

func (p populator) comment(ctx context.Context, c *model.Comment) (*dto.CommentView, error) {
	ids := []primitive.ObjectID{c.User}
	for _, r := range c.Replies {
		ids = append(ids, r.User)
	}
	users, err := p.users.FindSummaries(ctx, dto.UniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	view := dto.ToCommentView(c, users)
	return &view, nil
}
