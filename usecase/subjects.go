package usecase

import (
	"context"

	"notemate/dto"
	"notemate/model"
	"notemate/repository"
	"notemate/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const msgDuplicateSubjectCode = "Subject code already exists"

type SubjectsService struct {
	Subjects SubjectStore
}

func NewSubjectsService(subjects SubjectStore) *SubjectsService {
	return &SubjectsService{Subjects: subjects}
}

func (svc *SubjectsService) List(ctx context.Context, page utils.Page) (*dto.SubjectsPage, error) {
	subjects, total, err := svc.Subjects.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return &dto.SubjectsPage{Subjects: subjects, Pagination: utils.NewPagination(page, total)}, nil
}

func (svc *SubjectsService) Get(ctx context.Context, id primitive.ObjectID) (*dto.SubjectDetail, error) {
	subject, err := svc.Subjects.FindByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, msgSubjectNotFound)
	}
	return svc.detail(ctx, subject)
}

func (svc *SubjectsService) detail(ctx context.Context, s *model.Subject) (*dto.SubjectDetail, error) {
	refs, err := svc.Subjects.FindRefs(ctx, s.Prerequisites)
	if err != nil {
		return nil, err
	}
	prereqs := make([]model.SubjectRef, 0, len(s.Prerequisites))
	for _, id := range s.Prerequisites {
		if ref, ok := refs[id]; ok {
			prereqs = append(prereqs, model.SubjectRef{ID: ref.ID, Name: ref.Name, Code: ref.Code})
		}
	}
	return &dto.SubjectDetail{Subject: *s, Prerequisites: prereqs}, nil
}

func (svc *SubjectsService) Search(ctx context.Context, q repository.SubjectSearch) ([]model.Subject, error) {
	if q.Difficulty != "" && !q.Difficulty.Valid() {
		return nil, invalid("Invalid difficulty")
	}
	subjects, err := svc.Subjects.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}
	return subjects, nil
}

// prerequisites parses the ids and requires every one to be an active subject.
func (svc *SubjectsService) prerequisites(ctx context.Context, self primitive.ObjectID, raw []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, h := range raw {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, invalid("Invalid prerequisite ID")
		}
		if id == self {
			return nil, invalid("A subject cannot be its own prerequisite")
		}
		ids = append(ids, id)
	}
	ids = dto.UniqueIDs(ids)
	n, err := svc.Subjects.CountActive(ctx, ids)
	if err != nil {
		return nil, err
	}
	if n != int64(len(ids)) {
		return nil, invalid("One or more prerequisites do not exist")
	}
	return ids, nil
}

func (svc *SubjectsService) Create(ctx context.Context, actor *model.Actor, req dto.CreateSubjectRequest) (*dto.SubjectDetail, error) {
	if !model.CanAuthorSubjects(actor) {
		return nil, forbidden("Teacher or admin access required")
	}
	s := model.NewSubject(req.Name, req.Code, req.Department, actor.ID)
	prereqs, err := svc.prerequisites(ctx, primitive.NilObjectID, req.Prerequisites)
	if err != nil {
		return nil, err
	}
	s.Prerequisites = prereqs
	s.Description = req.Description
	s.Faculty = req.Faculty
	s.Credits = req.Credits
	s.Semester = req.Semester
	s.Year = req.Year
	s.Tags = dto.NormalizeTags(req.Tags)
	if req.Difficulty != "" {
		s.Difficulty = req.Difficulty
	}
	if req.Icon != "" {
		s.Icon = req.Icon
	}
	if req.Color != "" {
		s.Color = req.Color
	}

	if err := svc.Subjects.Create(ctx, s); err != nil {
		return nil, orConflict(err, msgDuplicateSubjectCode)
	}
	return svc.detail(ctx, s)
}

func (svc *SubjectsService) Update(ctx context.Context, actor *model.Actor, id primitive.ObjectID, req dto.UpdateSubjectRequest) (*dto.SubjectDetail, error) {
	if !model.CanAuthorSubjects(actor) {
		return nil, forbidden("Teacher or admin access required")
	}

	set := bson.M{}
	for key, v := range map[string]*string{
		"name":        req.Name,
		"code":        req.Code,
		"description": req.Description,
		"department":  req.Department,
		"faculty":     req.Faculty,
		"icon":        req.Icon,
		"color":       req.Color,
	} {
		if v != nil {
			set[key] = *v
		}
	}
	for key, v := range map[string]*int{
		"credits":  req.Credits,
		"semester": req.Semester,
		"year":     req.Year,
	} {
		if v != nil {
			set[key] = *v
		}
	}
	if req.Difficulty != nil {
		set["difficulty"] = *req.Difficulty
	}
	if req.Tags != nil {
		set["tags"] = dto.NormalizeTags(req.Tags)
	}
	if req.Prerequisites != nil {
		prereqs, err := svc.prerequisites(ctx, id, req.Prerequisites)
		if err != nil {
			return nil, err
		}
		set["prerequisites"] = prereqs
	}

	updated, err := svc.Subjects.Update(ctx, id, set)
	if err != nil {
		return nil, orConflict(orNotFound(err, msgSubjectNotFound), msgDuplicateSubjectCode)
	}
	return svc.detail(ctx, updated)
}

func (svc *SubjectsService) Delete(ctx context.Context, actor *model.Actor, id primitive.ObjectID) error {
	if !actor.IsAdmin() {
		return forbidden("Admin access required")
	}
	return orNotFound(svc.Subjects.SoftDelete(ctx, id), msgSubjectNotFound)
}
